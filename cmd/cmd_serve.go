// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/geomux/server"
)

var serveOptions = struct {
	sourceOptions
	Addr string
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the geocoding HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		sources, err := serveOptions.build()
		if err != nil {
			return err
		}

		srv, err := server.New(sources, serveOptions.Addr)
		if err != nil {
			return err
		}

		log.Printf("geomux %s listening on %s", Version, serveOptions.Addr)

		return srv.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveOptions.register(serveCmd.Flags())
	serveCmd.Flags().StringVar(&serveOptions.Addr, "addr", "localhost:8080",
		"Address to listen on")
}
