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
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-netsdr/pkg/command"
	"jinr.ru/greenlab/go-netsdr/pkg/config"
	"jinr.ru/greenlab/go-netsdr/pkg/srv"
)

const (
	HzOptionName      = "hz"
	ChannelOptionName = "channel"
	TypeOptionName    = "type"
	CodeOptionName    = "code"
	ParamsOptionName  = "params"
)

func NewFrequencyCommand(cfg *config.Config) *cobra.Command {
	var hz int64
	var channel uint8
	cmd := &cobra.Command{
		Use:   "freq",
		Short: "Change receiver frequency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.NewApiClient(cfg).SetFrequency(hz, channel)
		},
	}
	cmd.Flags().Int64Var(&hz, HzOptionName, 0, "Frequency in Hz")
	cmd.Flags().Uint8Var(&channel, ChannelOptionName, 0, "Receiver channel")
	cmd.MarkFlagRequired(HzOptionName)

	return cmd
}

func NewControlCommand(cfg *config.Config) *cobra.Command {
	item := &srv.ControlItem{}
	cmd := &cobra.Command{
		Use:   "control",
		Short: "Send a control item and print the reply",
		Example: `
Read the current sample rate
# go-netsdr control --type CurrentControlItem --code IQOutputDataSampleRate --params 00
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := command.NewApiClient(cfg).ControlItem(item)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", reply.Type, reply.Code, reply.Body)
			return nil
		},
	}
	cmd.Flags().StringVar(&item.Type, TypeOptionName, "", "Message type name or number. SetControlItem by default")
	cmd.Flags().StringVar(&item.Code, CodeOptionName, "", "Control item name or number. E.g. ReceiverFrequency or 0x20")
	cmd.Flags().StringVar(&item.Params, ParamsOptionName, "", "Parameters in hex")
	cmd.MarkFlagRequired(CodeOptionName)

	return cmd
}
