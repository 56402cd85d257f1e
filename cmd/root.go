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
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "idiomforge",
	Short: "French-Russian idiom corpus builder",
	Long: `Builds a bilingual idiom corpus in three steps:

  collect   scrape French idioms from the known dictionary sources
  stage1    clean, embed, and translate idioms with two backends
  stage2    arbitrate between candidates with an LLM judge

The corpus is a JSONL file, rewritten atomically at every checkpoint,
so any step can be interrupted and re-run.

Use "idiomforge stage1 --help" for backend configuration.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	viper.BindEnv("yandex.api_key", "YANDEX_API_KEY")
	viper.BindEnv("yandex.folder_id", "YANDEX_FOLDER_ID")
	viper.BindEnv("hf.token", "HF_API_TOKEN")
	viper.BindEnv("google.credentials", "GOOGLE_APPLICATION_CREDENTIALS")
}
