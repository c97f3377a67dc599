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

package command

import (
	"fmt"
	"strings"

	"github.com/imroc/req"

	"jinr.ru/greenlab/go-netsdr/pkg/command/ifc"
	"jinr.ru/greenlab/go-netsdr/pkg/config"
	"jinr.ru/greenlab/go-netsdr/pkg/srv"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

var _ ifc.ApiClient = &ApiClient{}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("%s/api", cfg.ApiURL()),
	}
}

// ErrApi is returned when the server responds with anything but 200
type ErrApi struct {
	Status string
	What   string
}

func (e ErrApi) Error() string {
	if e.What == "" {
		return e.Status
	}
	return fmt.Sprintf("%s: %s", e.Status, e.What)
}

func check(r *req.Resp) error {
	if r.Response().StatusCode != 200 {
		return ErrApi{Status: r.Response().Status, What: strings.TrimSpace(r.String())}
	}
	return nil
}

func (c *ApiClient) post(path string, v ...interface{}) (*req.Resp, error) {
	r, err := req.Post(c.ApiPrefix+path, v...)
	if err != nil {
		return nil, err
	}
	return r, check(r)
}

func (c *ApiClient) get(path string) (*req.Resp, error) {
	r, err := req.Get(c.ApiPrefix + path)
	if err != nil {
		return nil, err
	}
	return r, check(r)
}

// Status returns connection and streaming state of the session
func (c *ApiClient) Status() (*srv.Status, error) {
	r, err := c.get("/status")
	if err != nil {
		return nil, err
	}
	status := &srv.Status{}
	if err := r.ToJSON(status); err != nil {
		return nil, err
	}
	return status, nil
}

// Connect asks the server to connect to the receiver
func (c *ApiClient) Connect() error {
	_, err := c.post("/connect")
	return err
}

func (c *ApiClient) Disconnect() error {
	_, err := c.post("/disconnect")
	return err
}

// IQ starts or stops IQ streaming, action is start or stop
func (c *ApiClient) IQ(action string) error {
	_, err := c.post(fmt.Sprintf("/iq/%s", action))
	return err
}

func (c *ApiClient) SetFrequency(hz int64, channel uint8) error {
	_, err := c.post("/frequency", req.BodyJSON(&srv.Frequency{Hz: hz, Channel: channel}))
	return err
}

// ControlItem sends an arbitrary control item and returns the receiver reply
func (c *ApiClient) ControlItem(item *srv.ControlItem) (*srv.ControlReply, error) {
	r, err := c.post("/control", req.BodyJSON(item))
	if err != nil {
		return nil, err
	}
	reply := &srv.ControlReply{}
	if err := r.ToJSON(reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *ApiClient) Persist(file string) error {
	_, err := c.post("/persist", req.BodyJSON(&srv.Persist{File: file}))
	return err
}

func (c *ApiClient) Flush() error {
	_, err := c.get("/flush")
	return err
}
