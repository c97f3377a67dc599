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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-netsdr/cmd/capture"
	"jinr.ru/greenlab/go-netsdr/cmd/completion"
	"jinr.ru/greenlab/go-netsdr/cmd/config"
	"jinr.ru/greenlab/go-netsdr/cmd/session"
	"jinr.ru/greenlab/go-netsdr/cmd/start"
	pkgconfig "jinr.ru/greenlab/go-netsdr/pkg/config"
	"jinr.ru/greenlab/go-netsdr/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
	ConfigOptionName   = "config"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel, configPath string
	cfg := pkgconfig.NewDefaultConfig()
	cmd := &cobra.Command{
		Use:          "go-netsdr",
		Short:        "Tool to work with NetSDR receivers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				cfg.SetPath(configPath)
			}
			if err := cfg.Load(); err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
				return err
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand(cfg))
	cmd.AddCommand(start.NewCommand(cfg))
	cmd.AddCommand(session.NewConnectCommand(cfg))
	cmd.AddCommand(session.NewDisconnectCommand(cfg))
	cmd.AddCommand(session.NewStatusCommand(cfg))
	cmd.AddCommand(session.NewIQCommand(cfg))
	cmd.AddCommand(session.NewFrequencyCommand(cfg))
	cmd.AddCommand(session.NewControlCommand(cfg))
	cmd.AddCommand(capture.NewCommand(cfg))
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	cmd.PersistentFlags().StringVar(&configPath, ConfigOptionName, "", fmt.Sprintf("Config file. Default %s", pkgconfig.DefaultConfigPath()))
	return cmd
}
