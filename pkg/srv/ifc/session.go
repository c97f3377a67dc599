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
	"net/http"

	"jinr.ru/greenlab/go-netsdr/pkg/layers"
)

// Session is the part of the NetSDR client exposed over the API
type Session interface {
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
	IQStarted() bool
	StartIQStreaming(ctx context.Context) error
	StopIQStreaming(ctx context.Context) error
	ChangeFrequency(ctx context.Context, hz int64, channel uint8) error
	Request(ctx context.Context, t layers.MessageType, code layers.ControlItemCode, params []byte) (*layers.Message, error)
}

// Capture writes received samples to a file
type Capture interface {
	Persist(filename string) error
	Flush() error
	Close() error
}

type ApiServer interface {
	Run() error
	Handler() http.Handler
}
