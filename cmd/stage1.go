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
	"os"

	"github.com/spf13/cobra"

	"github.com/vsolomakha/idiomforge/internal/corpus"
	"github.com/vsolomakha/idiomforge/internal/dataset"
	"github.com/vsolomakha/idiomforge/internal/embedder"
	"github.com/vsolomakha/idiomforge/internal/memory"
	"github.com/vsolomakha/idiomforge/internal/pipeline"
	"github.com/vsolomakha/idiomforge/internal/translator"
	"github.com/vsolomakha/idiomforge/internal/validator"
)

var (
	stage1Inputs     []string
	stage1DataPath   string
	stage1Secondary  string
	stage1HFEndpoint string
	stage1EmbedURL   string
	stage1EmbedDim   int
	stage1DBPath     string
	stage1NoCache    bool
	stage1Workers    int
	stage1Checkpoint int
)

var stage1Cmd = &cobra.Command{
	Use:   "stage1",
	Short: "Clean, embed, and translate collected idioms",
	Long: `Run the first enrichment stage over one or more backup files from
"collect": deduplicate and normalize the raw idioms, embed every new one,
and produce two candidate translations per idiom (Yandex plus a secondary
backend). Finished records are appended to the corpus file with periodic
checkpoints.

A backend failure never drops an idiom: the record is written with that
candidate null and picked up by a later run.

Required environment: YANDEX_API_KEY (and usually YANDEX_FOLDER_ID).
The hf backend needs --hf-endpoint (HF_API_TOKEN for authenticated
endpoints); the google backend uses GOOGLE_APPLICATION_CREDENTIALS.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []corpus.RawRecord
		for _, path := range stage1Inputs {
			records, err := dataset.ReadBackup(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			raw = append(raw, records...)
		}
		if len(raw) == 0 {
			return fmt.Errorf("no raw idioms found in the input files")
		}

		primary, err := buildPrimary()
		if err != nil {
			return err
		}
		secondary, err := buildSecondary(stage1Secondary, stage1HFEndpoint)
		if err != nil {
			return err
		}

		var cache *memory.Store
		if !stage1NoCache && stage1DBPath != "" {
			cache, err = memory.New(stage1DBPath)
			if err != nil {
				return fmt.Errorf("failed to open candidate cache: %w", err)
			}
			defer cache.Close()
		}

		p := &pipeline.Pipeline{
			Store:     dataset.New(stage1DataPath),
			Primary:   primary,
			Secondary: secondary,
			Encoder:   embedder.NewHTTPEncoder(stage1EmbedURL, stage1EmbedDim),
			Cache:     cache,
			Validator: validator.New(),
			Config: pipeline.Config{
				Workers:         stage1Workers,
				CheckpointEvery: stage1Checkpoint,
			},
		}

		added, err := p.Stage1(cmd.Context(), raw)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Stage 1 complete: %d idioms added to %s\n", added, stage1DataPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stage1Cmd)

	stage1Cmd.Flags().StringSliceVarP(&stage1Inputs, "input", "i", nil, "Backup file(s) from collect (required)")
	stage1Cmd.Flags().StringVarP(&stage1DataPath, "data", "d", "./data/idioms.jsonl", "Corpus file")
	stage1Cmd.Flags().StringVar(&stage1Secondary, "secondary", "hf", "Secondary translation backend (hf or google)")
	stage1Cmd.Flags().StringVar(&stage1HFEndpoint, "hf-endpoint", "", "Hugging Face inference endpoint serving "+translator.DefaultHFModel)
	stage1Cmd.Flags().StringVar(&stage1EmbedURL, "embed-url", "http://localhost:8080/embed", "Embedding endpoint")
	stage1Cmd.Flags().IntVar(&stage1EmbedDim, "embed-dim", embedder.DefaultDim, "Embedding dimensionality")
	stage1Cmd.Flags().StringVar(&stage1DBPath, "db", "./data/idiomforge.db", "Candidate cache database path")
	stage1Cmd.Flags().BoolVar(&stage1NoCache, "no-cache", false, "Disable the candidate cache")
	stage1Cmd.Flags().IntVar(&stage1Workers, "workers", pipeline.DefaultWorkers, "Concurrent translation workers")
	stage1Cmd.Flags().IntVar(&stage1Checkpoint, "checkpoint-every", pipeline.DefaultCheckpointEvery, "Persist the corpus every N finished idioms")

	stage1Cmd.MarkFlagRequired("input")
}
