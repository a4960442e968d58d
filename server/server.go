// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the geocoding pipeline over HTTP.
package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jcodagnone/geomux/geocode"
	"github.com/jcodagnone/geomux/geocode/services"
	"github.com/jcodagnone/geomux/spatial"
)

// Server answers geocoding requests against a fixed set of configured
// sources. Query parameters select which of them to use and whether to
// waterfall; the sources themselves are built once at startup, so request
// handling never constructs adapters.
type Server struct {
	sources []geocode.GeocodeService
	addr    string
}

// New builds a server around the given sources.
func New(sources []geocode.GeocodeService, addr string) (*Server, error) {
	if len(sources) == 0 {
		return nil, &geocode.ConfigError{Component: "server", Reason: "must declare at least one source"}
	}

	if addr == "" {
		addr = "localhost:8080"
	}

	return &Server{sources: sources, addr: addr}, nil
}

// Router builds the gin engine; split from Run so tests can drive the
// handlers through httptest.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.health)
	r.GET("/api/services", s.listServices)
	r.GET("/api/geocode", s.geocode)

	return r
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	return s.Router().Run(s.addr)
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type serviceInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Configured  bool   `json:"configured"`
}

func (s *Server) listServices(ctx *gin.Context) {
	configured := map[string]bool{}
	for _, src := range s.sources {
		configured[src.Name()] = true
	}

	infos := make([]serviceInfo, 0, len(services.Describe()))
	for _, info := range services.Describe() {
		infos = append(infos, serviceInfo{
			Name:        info.Name,
			Description: info.Description,
			Configured:  configured[info.Name],
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"services": infos})
}

// geocode answers GET /api/geocode. Upstream failures are never an HTTP
// error: they only show in the diagnostics of the 200 response. Only a
// request that cannot form a valid query gets a 400.
func (s *Server) geocode(ctx *gin.Context) {
	q := geocode.Query{
		Query:        ctx.Query("q"),
		Address:      ctx.Query("address"),
		Neighborhood: ctx.Query("neighborhood"),
		City:         ctx.Query("city"),
		Subregion:    ctx.Query("subregion"),
		State:        ctx.Query("state"),
		Postal:       ctx.Query("postal"),
		Country:      ctx.Query("country"),
	}

	if err := q.Validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	viewbox, err := parseViewbox(ctx.Query("viewbox"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	q.Viewbox = viewbox
	q.Bounded = ctx.Query("bounded") == "1" || ctx.Query("bounded") == "true"

	sources, err := s.selectSources(ctx.QueryArray("source"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	cfg := geocode.Config{Sources: sources}
	if ctx.Query("waterfall") == "1" || ctx.Query("waterfall") == "true" {
		cfg.Stop = geocode.StopAfter(1)
	}

	geocoder, err := geocode.New(cfg)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, geocoder.Geocode(ctx.Request.Context(), q))
}

// selectSources narrows the configured sources to the requested names,
// preserving configured order. No names means all of them.
func (s *Server) selectSources(names []string) ([]geocode.GeocodeService, error) {
	if len(names) == 0 {
		return s.sources, nil
	}

	wanted := map[string]bool{}
	for _, name := range names {
		wanted[name] = true
	}

	selected := make([]geocode.GeocodeService, 0, len(names))

	for _, src := range s.sources {
		if wanted[src.Name()] {
			selected = append(selected, src)
			delete(wanted, src.Name())
		}
	}

	for name := range wanted {
		return nil, fmt.Errorf("service %q is not configured", name)
	}

	return selected, nil
}

// parseViewbox parses "left,top,right,bottom".
func parseViewbox(raw string) (*spatial.Viewbox, error) {
	if raw == "" {
		return nil, nil
	}

	fields := strings.Split(raw, ",")
	if len(fields) != 4 {
		return nil, fmt.Errorf("viewbox wants left,top,right,bottom, got %q", raw)
	}

	var coords [4]float64

	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid viewbox coordinate %q", field)
		}

		coords[i] = v
	}

	return spatial.NewViewbox(coords[0], coords[1], coords[2], coords[3], spatial.WGS84)
}
