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

	"github.com/spf13/viper"

	"github.com/vsolomakha/idiomforge/internal/translator"
)

// buildPrimary constructs the Yandex backend from the environment. The key
// and folder id come from YANDEX_API_KEY and YANDEX_FOLDER_ID; a missing key
// is caught here rather than on the first remote call.
func buildPrimary() (translator.Service, error) {
	apiKey := viper.GetString("yandex.api_key")
	folderID := viper.GetString("yandex.folder_id")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: YANDEX_API_KEY is not set", translator.ErrConfiguration)
	}
	return translator.NewYandexService(apiKey, folderID), nil
}

// buildSecondary constructs the second candidate backend from its name.
// hf is the default; google is the drop-in alternative for when no opus-mt
// inference endpoint is available.
func buildSecondary(name, hfEndpoint string) (translator.Service, error) {
	switch name {
	case "hf":
		if hfEndpoint == "" {
			return nil, fmt.Errorf("%w: --hf-endpoint is required for the hf backend", translator.ErrConfiguration)
		}
		return translator.NewHFService(hfEndpoint, viper.GetString("hf.token")), nil
	case "google":
		return translator.NewGoogleService(viper.GetString("google.credentials")), nil
	default:
		return nil, fmt.Errorf("unknown secondary backend %q (want hf or google)", name)
	}
}
