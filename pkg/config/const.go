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

package config

const (
	ConfigDir            = ".go-netsdr"
	ConfigFile           = "config"
	DefaultDeviceAddress = "127.0.0.1"
	DefaultTcpPort       = 50000
	DefaultUdpAddress    = "0.0.0.0"
	DefaultUdpPort       = 60000
	DefaultAckTimeout    = "0s"
	DefaultSampleWidth   = 2
	DefaultSampleRate    = 100000
	DefaultRFFilter      = 0
	DefaultADMode        = 0x03
	DefaultApiAddress    = "127.0.0.1"
	DefaultApiPort       = 8000
	DefaultLogLevel      = "info"
)
