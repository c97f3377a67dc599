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

package ifc

import (
	"context"
	"time"

	"jinr.ru/greenlab/go-netsdr/pkg/layers"
)

// MessageHandler is called once per received message (TCP) or datagram (UDP)
// from the transport goroutine. The buffer is owned by the handler.
type MessageHandler func(data []byte)

// CloseHandler is called from the read goroutine when the peer closes the
// connection or the stream breaks. A local Disconnect does not call it.
type CloseHandler func()

type TcpClient interface {
	Connect(ctx context.Context) error
	Disconnect()
	Connected() bool
	Send(ctx context.Context, data []byte) error
	SetMessageHandler(handler MessageHandler)
	SetCloseHandler(handler CloseHandler)
}

type UdpClient interface {
	// StartListening binds the socket and starts delivering datagrams
	StartListening(ctx context.Context) error
	// StopListening returns after the last handler call has returned
	StopListening()
	SetMessageHandler(handler MessageHandler)
}

type IQPacket struct {
	Type     layers.MessageType
	Sequence uint16
	Width    int
	Samples  []int32
	Received time.Time
}

type SampleConsumer interface {
	OnIQPacket(packet *IQPacket)
}

// SampleConsumerFunc adapts a function to SampleConsumer
type SampleConsumerFunc func(packet *IQPacket)

func (f SampleConsumerFunc) OnIQPacket(packet *IQPacket) {
	f(packet)
}
