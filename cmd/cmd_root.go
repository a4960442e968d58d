// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

// Package cmd implements the geomux command line interface.
package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "geomux",
	Short: "geocode addresses across multiple providers",
	Long: `
geomux dispatches address queries to one or more geocoding providers
(ArcGIS, Nominatim, Google, Bing, MapQuest, Pelias, US Census, ...),
normalizes their answers into a single ranked candidate list, and reports
per-provider diagnostics for every call.
`,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
