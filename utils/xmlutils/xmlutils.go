// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

// Package xmlutils provides utility functions for decoding XML payloads.
package xmlutils

import (
	"encoding/xml"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// Decode unmarshals an XML document into v, honoring the encoding
// declared in the document prolog. Self-hosted SOAP geocoding servers
// routinely answer in ISO-8859-1, which encoding/xml refuses on its own.
func Decode(r io.Reader, v any) error {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decoding XML document: %w", err)
	}

	return nil
}
