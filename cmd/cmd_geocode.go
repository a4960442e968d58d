// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/geomux/geocode"
)

var geocodeOptions = struct {
	sourceOptions
	Waterfall bool
	Parallel  bool
	Country   string
	JSON      bool
}{}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address...>",
	Short: "Geocode one address",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := geocodeOptions.build()
		if err != nil {
			return err
		}

		cfg := geocode.Config{
			Sources:  sources,
			Parallel: geocodeOptions.Parallel,
		}
		if geocodeOptions.Waterfall {
			cfg.Stop = geocode.StopAfter(1)
		}

		geocoder, err := geocode.New(cfg)
		if err != nil {
			return err
		}

		q := geocode.NewQuery(strings.Join(args, " "))
		q.Country = geocodeOptions.Country

		result := geocoder.Geocode(cmd.Context(), q)

		if geocodeOptions.JSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(result)
		}

		printCandidates(result.Candidates)
		printDiagnostics(result.UpstreamResponseInfo)

		return nil
	},
}

func printCandidates(candidates []geocode.Candidate) {
	if len(candidates) == 0 {
		fmt.Println("No matches.")

		return
	}

	a, b, c, d := strings.Repeat("─", 6), strings.Repeat("─", 50),
		strings.Repeat("─", 22), strings.Repeat("─", 14)
	fmt.Printf("╭─%6s─┬─%-50s─┬─%-22s─┬─%-14s╮\n", a, b, c, d)
	fmt.Printf("│ %6s │ %-50s │ %-22s │ %-14s│\n", "Score", "Address", "Location", "Service")
	fmt.Printf("├─%6s─┼─%-50s─┼─%-22s─┼─%-14s┤\n", a, b, c, d)

	for _, cand := range candidates {
		fmt.Printf("│ %6.1f │ %-50s │ %11.6f,%9.6f │ %-14s│\n",
			cand.Score, truncate(cand.MatchAddr, 50), cand.Y, cand.X, truncate(cand.Service, 14))
	}

	fmt.Printf("╰─%6s─┴─%-50s─┴─%-22s─┴─%-14s╯\n", a, b, c, d)
}

func printDiagnostics(infos []*geocode.UpstreamResponseInfo) {
	for _, info := range infos {
		if info.Success {
			log.Printf("%-12s ok in %v", info.Service, info.ResponseTime)

			continue
		}

		log.Printf("%-12s FAILED (%s) in %v: %s",
			info.Service, info.ErrorType, info.ResponseTime, strings.Join(info.Errors, "; "))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n-1] + "…"
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	geocodeOptions.register(geocodeCmd.Flags())
	geocodeCmd.Flags().BoolVar(&geocodeOptions.Waterfall, "waterfall", false,
		"Stop at the first provider that returns any match")
	geocodeCmd.Flags().BoolVar(&geocodeOptions.Parallel, "parallel", false,
		"Query all providers concurrently")
	geocodeCmd.Flags().StringVar(&geocodeOptions.Country, "country", "",
		"Restrict matches to a country code, e.g. US")
	geocodeCmd.Flags().BoolVar(&geocodeOptions.JSON, "json", false,
		"Print the full result as JSON instead of a table")
}
