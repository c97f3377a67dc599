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

package start

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-netsdr/pkg/command"
	"jinr.ru/greenlab/go-netsdr/pkg/config"
)

const (
	AddressOptionName     = "address"
	TcpPortOptionName     = "tcp-port"
	UdpPortOptionName     = "udp-port"
	ApiPortOptionName     = "api-port"
	FileOptionName        = "file"
	AutoConnectOptionName = "auto-connect"
	AckTimeoutOptionName  = "ack-timeout"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var address, file, ackTimeout string
	var tcpPort, udpPort, apiPort int
	var autoConnect bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start go-netsdr server",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed(AddressOptionName) {
				cfg.DeviceConfig.Address = address
			}
			if flags.Changed(TcpPortOptionName) {
				cfg.TcpPort = tcpPort
			}
			if flags.Changed(UdpPortOptionName) {
				cfg.UdpPort = udpPort
			}
			if flags.Changed(ApiPortOptionName) {
				cfg.Api.Port = apiPort
			}
			if flags.Changed(FileOptionName) {
				cfg.Samples.File = file
			}
			if flags.Changed(AutoConnectOptionName) {
				cfg.AutoConnect = autoConnect
			}
			if flags.Changed(AckTimeoutOptionName) {
				cfg.SessionConfig.AckTimeout = ackTimeout
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return command.StartServer(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "", fmt.Sprintf("Receiver address. E.g. %s", config.DefaultDeviceAddress))
	cmd.Flags().IntVar(&tcpPort, TcpPortOptionName, config.DefaultTcpPort, "Receiver control port")
	cmd.Flags().IntVar(&udpPort, UdpPortOptionName, config.DefaultUdpPort, "Local port to receive IQ samples")
	cmd.Flags().IntVar(&apiPort, ApiPortOptionName, config.DefaultApiPort, "API port to bind")
	cmd.Flags().StringVar(&file, FileOptionName, "", "File to append received samples to")
	cmd.Flags().BoolVar(&autoConnect, AutoConnectOptionName, false, "Connect to the receiver on start")
	cmd.Flags().StringVar(&ackTimeout, AckTimeoutOptionName, "", "How long to wait for a reply, e.g. 2s. Zero waits forever")

	return cmd
}
