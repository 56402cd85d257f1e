/*
Copyright © 2026 Veronika Solomakha <veronika.solomakha@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vsolomakha/idiomforge/internal/memory"
)

var cacheDBPath string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the candidate translation cache",
	Long:  `List, inspect, and clear the SQLite cache of candidate translations.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all cached candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := memory.New(cacheDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		entries, err := db.List(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No cached candidates.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "IDIOM\tSERVICE\tUSED\tLAST USED\tTRANSLATION")
		for _, e := range entries {
			snippet := e.Translation
			if len(snippet) > 40 {
				snippet = snippet[:37] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				e.Idiom, e.Service, e.UsageCount,
				e.LastUsed.Format("2006-01-02 15:04"), snippet)
		}
		return w.Flush()
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show candidate cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := memory.New(cacheDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total entries: %d\n", stats.TotalEntries)
		fmt.Printf("Total usage:   %d\n", stats.TotalUsage)
		for service, count := range stats.PerService {
			fmt.Printf("  %-8s %d\n", service, count)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached candidates",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := memory.New(cacheDBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		n, err := db.Clear(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("Cleared %d cached candidates.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.PersistentFlags().StringVar(&cacheDBPath, "db", "./data/idiomforge.db", "Database path")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
