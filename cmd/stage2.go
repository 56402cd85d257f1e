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

	"github.com/vsolomakha/idiomforge/internal/dataset"
	"github.com/vsolomakha/idiomforge/internal/judge"
	"github.com/vsolomakha/idiomforge/internal/pipeline"
)

var (
	stage2DataPath   string
	stage2JudgeModel string
	stage2JudgeURL   string
	stage2Workers    int
	stage2BatchSize  int
)

var stage2Cmd = &cobra.Command{
	Use:   "stage2",
	Short: "Arbitrate candidate translations with an LLM judge",
	Long: `Run the second enrichment stage over the corpus: for every record
without a best translation yet, ask the judge model to pick between the
two candidates (or improve on them). The corpus is saved after every
batch, so an interrupted run loses at most one batch of verdicts, and
already-arbitrated records are skipped on re-run.

When all batches are done, the raw judge verdicts are collapsed down to
the quoted translations in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &pipeline.Pipeline{
			Store: dataset.New(stage2DataPath),
			Judge: judge.NewOllamaJudge(stage2JudgeModel, stage2JudgeURL),
			Config: pipeline.Config{
				Workers:   stage2Workers,
				BatchSize: stage2BatchSize,
			},
		}

		if err := p.Stage2(cmd.Context()); err != nil {
			return err
		}

		fmt.Printf("Stage 2 complete: %s\n", stage2DataPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stage2Cmd)

	stage2Cmd.Flags().StringVarP(&stage2DataPath, "data", "d", "./data/idioms.jsonl", "Corpus file")
	stage2Cmd.Flags().StringVar(&stage2JudgeModel, "judge-model", "mistral", "Judge model name")
	stage2Cmd.Flags().StringVar(&stage2JudgeURL, "judge-url", "http://localhost:11434", "Judge Ollama URL")
	stage2Cmd.Flags().IntVar(&stage2Workers, "workers", pipeline.DefaultWorkers, "Concurrent judge workers")
	stage2Cmd.Flags().IntVar(&stage2BatchSize, "batch-size", pipeline.DefaultBatchSize, "Records per batch between checkpoints")
}
