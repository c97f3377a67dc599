/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package capture

import (
	"errors"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-netsdr/pkg/command"
	"jinr.ru/greenlab/go-netsdr/pkg/config"
)

const (
	FileOptionName = "file"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:       "capture persist|flush",
		Short:     "Write received samples to a file or flush them to disk",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"persist", "flush"},
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			switch args[0] {
			case "persist":
				if file == "" {
					return errors.New("File is required")
				}
				return apiClient.Persist(file)
			case "flush":
				return apiClient.Flush()
			default:
				return errors.New("Wrong capture command. Must be one of persist/flush")
			}
		},
	}
	cmd.Flags().StringVar(&file, FileOptionName, "", "File to append samples to")

	return cmd
}
