// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package xmlutils

import (
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	var out struct {
		Name string `xml:"name"`
	}

	err := Decode(strings.NewReader(`<?xml version="1.0"?><root><name>geomux</name></root>`), &out)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if out.Name != "geomux" {
		t.Errorf("Name = %q", out.Name)
	}
}

func TestDecodeLatin1(t *testing.T) {
	var out struct {
		Name string `xml:"name"`
	}

	// 0xE9 is é in ISO-8859-1
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><root><name>Jos\xe9</name></root>"

	if err := Decode(strings.NewReader(doc), &out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if out.Name != "José" {
		t.Errorf("Name = %q, want José", out.Name)
	}
}

func TestDecodeInvalid(t *testing.T) {
	var out struct{}

	if err := Decode(strings.NewReader("<unclosed"), &out); err == nil {
		t.Error("Decode(invalid) expected an error")
	}
}
