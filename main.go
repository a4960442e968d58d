// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/geomux/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
