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

package session

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-netsdr/pkg/command"
	"jinr.ru/greenlab/go-netsdr/pkg/config"
)

func NewConnectCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect server to the receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.NewApiClient(cfg).Connect()
		},
	}
	return cmd
}

func NewDisconnectCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect server from the receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.NewApiClient(cfg).Disconnect()
		},
	}
	return cmd
}

func NewStatusCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := command.NewApiClient(cfg).Status()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connected: %t\niq: %t\n", status.Connected, status.IQStarted)
			return nil
		},
	}
	return cmd
}

func NewIQCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "iq start|stop",
		Short:     "Start/stop IQ streaming",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"start", "stop"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "start", "stop":
				return command.NewApiClient(cfg).IQ(args[0])
			default:
				return errors.New("Wrong streaming command. Must be one of start/stop")
			}
		},
	}
	return cmd
}
