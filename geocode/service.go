// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/jcodagnone/geomux/utils/httputils"
	"github.com/jcodagnone/geomux/utils/xmlutils"
)

// GeocodeService is the uniform contract every upstream adapter exposes.
//
// Geocode never returns an error: transport failures, timeouts, and
// unparseable responses are converted into an empty candidate list plus a
// failure diagnostic, so the orchestrator can treat every backend the
// same way and keep iterating past any single failure. A nil diagnostic
// is returned only when the service's own preprocessor chain canceled the
// query before any network call.
type GeocodeService interface {
	Name() string
	Geocode(ctx context.Context, q Query) ([]Candidate, *UpstreamResponseInfo)
}

// TimeoutReporter is implemented by services with a configured call
// deadline. The orchestrator uses it to size its watchdog; services
// without one are assumed to honor DefaultTimeout.
type TimeoutReporter interface {
	Timeout() time.Duration
}

// ServiceBase carries the machinery shared by every adapter: merged
// settings, the service-level processor chains, and an HTTP client wired
// with the configured headers, tracing, and timeout. Concrete adapters
// embed it and supply only their wire format.
type ServiceBase struct {
	name     string
	endpoint string
	settings Settings
	pre      []Preprocessor
	post     []Postprocessor
	timeout  time.Duration
	client   *http.Client
}

// NewServiceBase merges the adapter's default settings with the instance
// overrides (replace by key, never append) and builds the HTTP client.
// The endpoint default can itself be overridden through settings.
func NewServiceBase(name, endpoint string, defaults, overrides Settings,
	pre []Preprocessor, post []Postprocessor,
) ServiceBase {
	settings := defaults.Merge(overrides)
	timeout := settings.Duration(SettingTimeout, DefaultTimeout)

	var transport http.RoundTripper = http.DefaultTransport

	if headers := settings.Headers(SettingRequestHeaders); headers != nil {
		transport = &httputils.AppendRequestHeadersRoundTripper{
			Transport: transport,
			Headers:   headers,
		}
	}

	if settings.Bool(SettingHTTPTrace, false) {
		transport = &httputils.LoggingRoundTripper{
			Transport: transport,
			Writer:    os.Stderr,
		}
	}

	return ServiceBase{
		name:     name,
		endpoint: settings.String(SettingEndpoint, endpoint),
		settings: settings,
		pre:      pre,
		post:     post,
		timeout:  timeout,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Name returns the service name used to tag candidates and diagnostics.
func (b *ServiceBase) Name() string {
	return b.name
}

// Timeout implements TimeoutReporter.
func (b *ServiceBase) Timeout() time.Duration {
	return b.timeout
}

// Endpoint returns the resolved endpoint URL.
func (b *ServiceBase) Endpoint() string {
	return b.endpoint
}

// Settings exposes the merged settings to the concrete adapter.
func (b *ServiceBase) Settings() Settings {
	return b.settings
}

// Run executes one upstream call under the never-fails contract: the
// service preprocessor chain may cancel (nil candidates, nil diagnostic),
// any error from fn becomes a failure diagnostic, and the service
// postprocessor chain reduces whatever came back.
func (b *ServiceBase) Run(ctx context.Context, q Query,
	fn func(ctx context.Context, q Query) ([]Candidate, error),
) ([]Candidate, *UpstreamResponseInfo) {
	processed, ok := runPreprocessors(q, b.pre)
	if !ok {
		return nil, nil
	}

	info := &UpstreamResponseInfo{
		Service:        b.name,
		ProcessedQuery: processed,
		Success:        true,
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	candidates, err := fn(callCtx, processed)
	info.ResponseTime = time.Since(start)

	if err != nil {
		classified := ClassifyTransportError(err)
		info.Success = false
		info.ErrorType = classified.Type
		info.Errors = append(info.Errors, classified.Error())

		return nil, info
	}

	if len(candidates) > 0 {
		candidates = runPostprocessors(candidates, b.post)
	}

	return candidates, info
}

// GetJSON performs a GET against endpoint with the given query parameters
// and decodes the JSON response into out. Decode failures classify as
// parse errors so they surface distinctly in diagnostics.
func (b *ServiceBase) GetJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	body, err := b.get(ctx, endpoint, params)
	if err != nil {
		return err
	}

	defer body.Close()

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return &UpstreamError{Type: ErrorTypeParse, Message: "could not decode response to JSON", Err: err}
	}

	return nil
}

// PostXML sends an XML document to endpoint and decodes the XML response
// into out, honoring the declared charset.
func (b *ServiceBase) PostXML(ctx context.Context, endpoint string, payload io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	body, err := b.do(req)
	if err != nil {
		return err
	}

	defer body.Close()

	if err := xmlutils.Decode(body, out); err != nil {
		return &UpstreamError{Type: ErrorTypeParse, Message: "could not decode response XML", Err: err}
	}

	return nil
}

func (b *ServiceBase) get(ctx context.Context, endpoint string, params url.Values) (io.ReadCloser, error) {
	target := endpoint
	if len(params) > 0 {
		target = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	return b.do(req)
}

func (b *ServiceBase) do(req *http.Request) (io.ReadCloser, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		// surface the caller's deadline as a timeout even when the
		// transport wraps it beyond recognition
		if ctxErr := req.Context().Err(); ctxErr != nil && errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, &UpstreamError{Type: ErrorTypeTimeout, Message: "request timed out", Err: err}
		}

		return nil, ClassifyTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()

		return nil, ClassifyHTTPError(resp.StatusCode)
	}

	return resp.Body, nil
}
