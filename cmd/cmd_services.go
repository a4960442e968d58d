// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/geomux/geocode/services"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the available geocoding providers",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		a, b, c := strings.Repeat("─", 10), strings.Repeat("─", 46), strings.Repeat("─", 8)
		fmt.Println("Available providers:")
		fmt.Printf("╭─%10s─┬─%-46s─┬─%-8s╮\n", a, b, c)
		fmt.Printf("│ %10s │ %-46s │ %-8s│\n", "Name", "Description", "API key")
		fmt.Printf("├─%10s─┼─%-46s─┼─%-8s┤\n", a, b, c)

		for _, info := range services.Describe() {
			key := ""
			if info.RequiresKey {
				key = "required"
			}

			fmt.Printf("│ %10s │ %-46s │ %-8s│\n", info.Name, info.Description, key)
		}

		fmt.Printf("╰─%10s─┴─%-46s─┴─%-8s╯\n", a, b, c)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}
