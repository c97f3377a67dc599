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

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-netsdr/pkg/log"
)

type DeviceConfig struct {
	Address    string `json:"address,omitempty"`
	TcpPort    int    `json:"tcpPort,omitempty"`
	UdpAddress string `json:"udpAddress,omitempty"`
	UdpPort    int    `json:"udpPort,omitempty"`
}

type SessionConfig struct {
	// AckTimeout is a duration string, zero means wait for the reply forever
	AckTimeout  string `json:"ackTimeout,omitempty"`
	SampleWidth int    `json:"sampleWidth,omitempty"`
	SampleRate  int64  `json:"sampleRate,omitempty"`
	RFFilter    uint16 `json:"rfFilter"`
	ADMode      uint8  `json:"adMode"`
	AutoConnect bool   `json:"autoConnect"`
}

type ApiConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

type SamplesConfig struct {
	// File is where received samples are appended, empty disables capture
	File string `json:"file"`
}

type Config struct {
	*DeviceConfig  `json:"device,omitempty"`
	*SessionConfig `json:"session,omitempty"`
	Api            *ApiConfig     `json:"api,omitempty"`
	Samples        *SamplesConfig `json:"samples,omitempty"`
	LogLevel       string         `json:"logLevel,omitempty"`
	filepath       string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filepath, data, 0644)
}

func (c *Config) LoadConfig() error {
	data, err := os.ReadFile(c.filepath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Load reads the config file if it exists. Missing file keeps defaults.
func (c *Config) Load() error {
	err := c.LoadConfig()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		log.Warning("Error while loading config %s: %s", c.filepath, err)
	}
	return err
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) SetPath(path string) {
	c.filepath = path
}

func (c *Config) AckTimeout() time.Duration {
	d, err := time.ParseDuration(c.SessionConfig.AckTimeout)
	if err != nil {
		return 0
	}
	return d
}

func (c *Config) TcpAddr() string {
	return fmt.Sprintf("%s:%d", c.DeviceConfig.Address, c.TcpPort)
}

func (c *Config) UdpAddr() string {
	return fmt.Sprintf("%s:%d", c.UdpAddress, c.UdpPort)
}

func (c *Config) ApiAddr() string {
	return fmt.Sprintf("%s:%d", c.Api.Address, c.Api.Port)
}

func (c *Config) ApiURL() string {
	return fmt.Sprintf("http://%s", c.ApiAddr())
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}

func (c *Config) Validate() error {
	if c.DeviceConfig == nil || c.SessionConfig == nil || c.Api == nil || c.Samples == nil {
		return ErrInvalidConfig{Field: "config", What: "device, session, api and samples sections are required"}
	}
	if c.DeviceConfig.Address == "" {
		return ErrInvalidConfig{Field: "device.address", What: "cannot be empty"}
	}
	if !validPort(c.TcpPort) {
		return ErrInvalidConfig{Field: "device.tcpPort", What: fmt.Sprintf("must be between 1 and 65535, got %d", c.TcpPort)}
	}
	if !validPort(c.UdpPort) {
		return ErrInvalidConfig{Field: "device.udpPort", What: fmt.Sprintf("must be between 1 and 65535, got %d", c.UdpPort)}
	}
	if !validPort(c.Api.Port) {
		return ErrInvalidConfig{Field: "api.port", What: fmt.Sprintf("must be between 1 and 65535, got %d", c.Api.Port)}
	}
	if c.SampleWidth < 1 || c.SampleWidth > 4 {
		return ErrInvalidConfig{Field: "session.sampleWidth", What: fmt.Sprintf("must be between 1 and 4, got %d", c.SampleWidth)}
	}
	if c.SampleRate <= 0 {
		return ErrInvalidConfig{Field: "session.sampleRate", What: fmt.Sprintf("must be positive, got %d", c.SampleRate)}
	}
	if c.SessionConfig.AckTimeout != "" {
		d, err := time.ParseDuration(c.SessionConfig.AckTimeout)
		if err != nil {
			return ErrInvalidConfig{Field: "session.ackTimeout", What: err.Error()}
		}
		if d < 0 {
			return ErrInvalidConfig{Field: "session.ackTimeout", What: "cannot be negative"}
		}
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return ErrInvalidConfig{Field: "logLevel", What: err.Error()}
	}
	return nil
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		DeviceConfig: &DeviceConfig{
			Address:    DefaultDeviceAddress,
			TcpPort:    DefaultTcpPort,
			UdpAddress: DefaultUdpAddress,
			UdpPort:    DefaultUdpPort,
		},
		SessionConfig: &SessionConfig{
			AckTimeout:  DefaultAckTimeout,
			SampleWidth: DefaultSampleWidth,
			SampleRate:  DefaultSampleRate,
			RFFilter:    DefaultRFFilter,
			ADMode:      DefaultADMode,
		},
		Api: &ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		Samples:  &SamplesConfig{},
		LogLevel: DefaultLogLevel,
		filepath: DefaultConfigPath(),
	}
}
