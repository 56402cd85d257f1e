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

	"github.com/vsolomakha/idiomforge/internal/postprocess"
)

var (
	extractInput  string
	extractOutput string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Collapse raw judge verdicts to their quoted translations",
	Long: `Rewrite each record's best translation from the judge's full verdict
text down to the quoted translation inside it. Stage 2 runs this pass
itself; the command exists for corpora arbitrated by older runs or for
writing the collapsed corpus to a separate file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := postprocess.ExtractFile(extractInput, extractOutput)
		if err != nil {
			return err
		}

		out := extractOutput
		if out == "" {
			out = extractInput
		}
		fmt.Printf("Extracted %d translations into %s\n", n, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "Corpus file to extract from (required)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Output file (default: rewrite in place)")

	extractCmd.MarkFlagRequired("input")
}
