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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsolomakha/idiomforge/internal/collector"
)

var (
	collectSources   []string
	collectBackupDir string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Scrape French idioms from the dictionary sources",
	Long: `Scrape French idioms with usage examples from the known sources
(wiktionary, expressio). Each source's raw records are written to a
backup file in the backup directory; feed those files to "stage1".

A failing source is logged and skipped, and whatever it gathered before
failing is kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var sources []collector.Source
		if len(collectSources) == 0 {
			sources = collector.AllSources()
		} else {
			for _, name := range collectSources {
				src, err := collector.ByName(name)
				if err != nil {
					return err
				}
				sources = append(sources, src)
			}
		}

		agg := collector.NewAggregator(collectBackupDir, sources...)

		records, backups, err := agg.CollectAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("collection interrupted: %w", err)
		}

		fmt.Printf("Collected %d raw idioms from %d sources\n", len(records), len(sources))
		for _, path := range backups {
			fmt.Printf("  backup: %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringSliceVar(&collectSources, "sources", nil, "Sources to scrape (default: all known sources)")
	collectCmd.Flags().StringVar(&collectBackupDir, "backup-dir", "./data/backups", "Directory for per-source backup files")
}
