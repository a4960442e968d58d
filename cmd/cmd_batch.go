// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jcodagnone/geomux/cache"
	"github.com/jcodagnone/geomux/geocode"
)

var batchOptions = struct {
	sourceOptions
	Waterfall bool
	Workers   int
	DBPath    string
	Output    string
}{}

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Geocode a file of newline-delimited addresses to CSV",
	Long: `
Reads one address per line (empty lines and #-comments are skipped),
geocodes each one, and writes the best candidate per address as CSV.
With --db, results are cached in a DuckDB file and reused across runs.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addresses, err := readAddresses(args[0])
		if err != nil {
			return err
		}

		sources, err := batchOptions.build()
		if err != nil {
			return err
		}

		if batchOptions.DBPath != "" {
			db, err := sql.Open("duckdb", batchOptions.DBPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			repo := cache.NewRepository(db)
			if err := repo.CreateSchema(); err != nil {
				return fmt.Errorf("creating schema: %w", err)
			}

			for i, src := range sources {
				sources[i] = cache.NewCachedService(src, repo)
			}
		}

		cfg := geocode.Config{Sources: sources}
		if batchOptions.Waterfall {
			cfg.Stop = geocode.StopAfter(1)
		}

		geocoder, err := geocode.New(cfg)
		if err != nil {
			return err
		}

		out := os.Stdout

		if batchOptions.Output != "" {
			f, err := os.Create(batchOptions.Output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()

			out = f
		}

		results := geocodeAll(cmd, geocoder, addresses)

		return writeCSV(out, addresses, results)
	},
}

func readAddresses(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()

	var addresses []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		addresses = append(addresses, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}

	return addresses, nil
}

// geocodeAll runs the pool: workers results land in their input slot, so
// the output keeps the input order regardless of completion order.
func geocodeAll(cmd *cobra.Command, geocoder *geocode.Geocoder, addresses []string) []geocode.Result {
	n := len(addresses)

	workers := batchOptions.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Geocoding"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	results := make([]geocode.Result, n)

	var wg sync.WaitGroup

	semaphore := make(chan struct{}, workers)

	for i, address := range addresses {
		wg.Add(1)

		go func(i int, address string) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			results[i] = geocoder.GeocodeString(cmd.Context(), address)

			if bar == nil {
				log.Printf("Geocoding %s", address)
			} else if err := bar.Add(1); err != nil {
				log.Printf("updating progress bar for %s: %v", address, err)
			}
		}(i, address)
	}

	wg.Wait()

	return results
}

func writeCSV(out *os.File, addresses []string, results []geocode.Result) error {
	w := csv.NewWriter(out)

	if err := w.Write([]string{"query", "match_addr", "lon", "lat", "score", "locator", "service"}); err != nil {
		return err
	}

	var misses int

	for i, result := range results {
		if len(result.Candidates) == 0 {
			misses++

			if err := w.Write([]string{addresses[i], "", "", "", "", "", ""}); err != nil {
				return err
			}

			continue
		}

		best := result.Candidates[0]

		err := w.Write([]string{
			addresses[i],
			best.MatchAddr,
			strconv.FormatFloat(best.X, 'f', -1, 64),
			strconv.FormatFloat(best.Y, 'f', -1, 64),
			strconv.FormatFloat(best.Score, 'f', 1, 64),
			best.Locator,
			best.Service,
		})
		if err != nil {
			return err
		}
	}

	w.Flush()

	log.Printf("Geocoded %d addresses, %d without a match", len(addresses), misses)

	return w.Error()
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchOptions.register(batchCmd.Flags())
	batchCmd.Flags().BoolVar(&batchOptions.Waterfall, "waterfall", true,
		"Stop at the first provider that returns any match")
	batchCmd.Flags().IntVar(&batchOptions.Workers, "workers", 0,
		"Max number of concurrent geocode calls. Defaults to the number of CPUs")
	batchCmd.Flags().StringVar(&batchOptions.DBPath, "db", "",
		"DuckDB file used to cache results between runs")
	batchCmd.Flags().StringVar(&batchOptions.Output, "output", "",
		"Write CSV here instead of stdout")
}
