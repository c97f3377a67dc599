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
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jinr.ru/greenlab/go-netsdr/pkg/config"
	"jinr.ru/greenlab/go-netsdr/pkg/srv"
)

type recorded struct {
	method string
	path   string
	body   string
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*ApiClient, *[]recorded) {
	t.Helper()
	var requests []recorded
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recorded{method: r.Method, path: r.URL.Path, body: strings.TrimSpace(string(body))})
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	addr := ts.Listener.Addr().(*net.TCPAddr)
	cfg := config.NewDefaultConfig()
	cfg.Api.Address = addr.IP.String()
	cfg.Api.Port = addr.Port
	return NewApiClient(cfg), &requests
}

func TestApiClientRequests(t *testing.T) {
	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := c.IQ("start"); err != nil {
		t.Fatalf("iq: %v", err)
	}
	if err := c.SetFrequency(14010000, 0); err != nil {
		t.Fatalf("frequency: %v", err)
	}
	if err := c.Persist("/tmp/iq.bin"); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	expected := []recorded{
		{method: "POST", path: "/api/connect"},
		{method: "POST", path: "/api/iq/start"},
		{method: "POST", path: "/api/frequency", body: `{"hz":14010000,"channel":0}`},
		{method: "POST", path: "/api/persist", body: `{"file":"/tmp/iq.bin"}`},
		{method: "GET", path: "/api/flush"},
		{method: "POST", path: "/api/disconnect"},
	}
	if len(*requests) != len(expected) {
		t.Fatalf("expected %d requests, got %d", len(expected), len(*requests))
	}
	for i, e := range expected {
		if (*requests)[i] != e {
			t.Fatalf("request %d: got=%+v want=%+v", i, (*requests)[i], e)
		}
	}
}

func TestApiClientStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&srv.Status{Connected: true})
	})
	status, err := c.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Connected || status.IQStarted {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestApiClientControlItem(t *testing.T) {
	c, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(&srv.ControlReply{Type: "CurrentControlItem", Code: "ReceiverState", Body: "80020101"})
	})
	reply, err := c.ControlItem(&srv.ControlItem{Code: "ReceiverState", Params: "80020101"})
	if err != nil {
		t.Fatalf("control item: %v", err)
	}
	if reply.Code != "ReceiverState" || reply.Body != "80020101" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if (*requests)[0].body != `{"code":"ReceiverState","params":"80020101"}` {
		t.Fatalf("unexpected request body: %s", (*requests)[0].body)
	}
}

func TestApiClientErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not connected", http.StatusConflict)
	})
	err := c.IQ("start")
	apiErr := ErrApi{}
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected ErrApi, got %v", err)
	}
	if apiErr.Status != "409 Conflict" || apiErr.What != "not connected" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
	if _, err := c.Status(); err == nil {
		t.Fatalf("expected error for status")
	}
}
