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
	"jinr.ru/greenlab/go-netsdr/pkg/srv"
)

// ApiClient talks to a running go-netsdr server
type ApiClient interface {
	Status() (*srv.Status, error)
	Connect() error
	Disconnect() error
	IQ(action string) error
	SetFrequency(hz int64, channel uint8) error
	ControlItem(item *srv.ControlItem) (*srv.ControlReply, error)
	Persist(file string) error
	Flush() error
}
