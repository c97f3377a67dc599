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

package srv

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"jinr.ru/greenlab/go-netsdr/pkg/client"
	"jinr.ru/greenlab/go-netsdr/pkg/config"
	"jinr.ru/greenlab/go-netsdr/pkg/layers"
	"jinr.ru/greenlab/go-netsdr/pkg/metrics"
	"jinr.ru/greenlab/go-netsdr/pkg/srv/ifc"
)

type fakeSession struct {
	mu          sync.Mutex
	connected   bool
	iqStarted   bool
	err         error
	calls       []string
	frequency   int64
	channel     uint8
	requestType layers.MessageType
	requestCode layers.ControlItemCode
	params      []byte
}

var _ ifc.Session = &fakeSession{}

func (f *fakeSession) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeSession) Connect(ctx context.Context) error {
	if err := f.record("connect"); err != nil {
		return err
	}
	f.connected = true
	return nil
}

func (f *fakeSession) Disconnect() {
	f.record("disconnect")
	f.connected = false
	f.iqStarted = false
}

func (f *fakeSession) IsConnected() bool { return f.connected }
func (f *fakeSession) IQStarted() bool   { return f.iqStarted }

func (f *fakeSession) StartIQStreaming(ctx context.Context) error {
	if err := f.record("start"); err != nil {
		return err
	}
	f.iqStarted = true
	return nil
}

func (f *fakeSession) StopIQStreaming(ctx context.Context) error {
	f.iqStarted = false
	return f.record("stop")
}

func (f *fakeSession) ChangeFrequency(ctx context.Context, hz int64, channel uint8) error {
	f.frequency = hz
	f.channel = channel
	return f.record("frequency")
}

func (f *fakeSession) Request(ctx context.Context, t layers.MessageType, code layers.ControlItemCode, params []byte) (*layers.Message, error) {
	f.requestType = t
	f.requestCode = code
	f.params = params
	if err := f.record("request"); err != nil {
		return nil, err
	}
	return &layers.Message{Type: layers.CurrentControlItem, ControlCode: code, Body: []byte{0xa0, 0x86, 0x01, 0x00, 0x00}}, nil
}

type fakeCapture struct {
	file    string
	flushed int
	err     error
}

func (f *fakeCapture) Persist(filename string) error {
	f.file = filename
	return f.err
}

func (f *fakeCapture) Flush() error {
	f.flushed++
	return f.err
}

func (f *fakeCapture) Close() error { return nil }

func newTestApi(t *testing.T) (*httptest.Server, *fakeSession, *fakeCapture, *metrics.Metrics) {
	t.Helper()
	session := &fakeSession{}
	capture := &fakeCapture{}
	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)
	api, err := NewApiServer(context.Background(), config.NewDefaultConfig(), session, capture, NewFeed(), m, registry)
	if err != nil {
		t.Fatalf("new api server: %v", err)
	}
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)
	return ts, session, capture, m
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, string(data)
}

func TestApiConnectAndStatus(t *testing.T) {
	ts, session, _, _ := newTestApi(t)

	resp, _ := do(t, "POST", ts.URL+"/api/connect", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("connect status: %d", resp.StatusCode)
	}
	resp, _ = do(t, "POST", ts.URL+"/api/iq/start", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("iq start status: %d", resp.StatusCode)
	}
	resp, body := do(t, "GET", ts.URL+"/api/status", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	status := &Status{}
	if err := json.Unmarshal([]byte(body), status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Connected || !status.IQStarted {
		t.Fatalf("unexpected status: %+v", status)
	}

	do(t, "POST", ts.URL+"/api/iq/stop", "")
	do(t, "POST", ts.URL+"/api/disconnect", "")
	want := []string{"connect", "start", "stop", "disconnect"}
	if strings.Join(session.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls: got=%v want=%v", session.calls, want)
	}
}

func TestApiUnknownIQAction(t *testing.T) {
	ts, _, _, _ := newTestApi(t)
	resp, _ := do(t, "POST", ts.URL+"/api/iq/pause", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestApiDeviceErrors(t *testing.T) {
	ts, session, _, _ := newTestApi(t)
	session.err = errors.New("connection refused")
	resp, body := do(t, "POST", ts.URL+"/api/connect", "")
	if resp.StatusCode != http.StatusBadGateway || !strings.Contains(body, "connection refused") {
		t.Fatalf("unexpected response: %d %q", resp.StatusCode, body)
	}
	session.err = client.ErrNotConnected
	resp, _ = do(t, "POST", ts.URL+"/api/control", `{"code":"ReceiverState"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestApiFrequency(t *testing.T) {
	ts, session, _, _ := newTestApi(t)
	resp, _ := do(t, "POST", ts.URL+"/api/frequency", `{"hz":14010000,"channel":1}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("frequency status: %d", resp.StatusCode)
	}
	if session.frequency != 14010000 || session.channel != 1 {
		t.Fatalf("unexpected frequency: %d %d", session.frequency, session.channel)
	}

	for _, body := range []string{`{"hz":-1}`, `{"hz":1099511627776}`, `{"hz":`} {
		resp, _ := do(t, "POST", ts.URL+"/api/frequency", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestApiControlItem(t *testing.T) {
	ts, session, _, _ := newTestApi(t)
	resp, body := do(t, "POST", ts.URL+"/api/control", `{"type":"CurrentControlItem","code":"0x00b8","params":"00"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("control status: %d %q", resp.StatusCode, body)
	}
	if session.requestType != layers.CurrentControlItem || session.requestCode != layers.IQOutputDataSampleRate {
		t.Fatalf("unexpected request: %s %s", session.requestType, session.requestCode)
	}
	reply := &ControlReply{}
	if err := json.Unmarshal([]byte(body), reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Type != "CurrentControlItem" || reply.Code != "IQOutputDataSampleRate" || reply.Body != "a086010000" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	tests := []string{
		`{"code":"Nonsense"}`,
		`{"type":"DataItem0","code":"ReceiverState"}`,
		`{"code":"ReceiverState","params":"zz"}`,
		`not json`,
	}
	for _, body := range tests {
		resp, _ := do(t, "POST", ts.URL+"/api/control", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestApiCapture(t *testing.T) {
	ts, _, capture, _ := newTestApi(t)
	resp, _ := do(t, "POST", ts.URL+"/api/persist", `{"file":"/tmp/iq.bin"}`)
	if resp.StatusCode != http.StatusOK || capture.file != "/tmp/iq.bin" {
		t.Fatalf("persist: %d %q", resp.StatusCode, capture.file)
	}
	resp, _ = do(t, "POST", ts.URL+"/api/persist", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp, _ = do(t, "GET", ts.URL+"/api/flush", "")
	if resp.StatusCode != http.StatusOK || capture.flushed != 1 {
		t.Fatalf("flush: %d %d", resp.StatusCode, capture.flushed)
	}
}

func TestApiDocsAndMetrics(t *testing.T) {
	ts, _, _, m := newTestApi(t)
	resp, body := do(t, "GET", ts.URL+"/swagger.json", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"swagger": "2.0"`) {
		t.Fatalf("swagger: %d", resp.StatusCode)
	}
	resp, body = do(t, "GET", ts.URL+"/docs", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "/swagger.json") {
		t.Fatalf("docs: %d", resp.StatusCode)
	}

	do(t, "GET", ts.URL+"/api/status", "")
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/status", "200")); got != 1 {
		t.Fatalf("http requests metric: %v", got)
	}
	resp, body = do(t, "GET", ts.URL+"/metrics", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "netsdr_http_requests_total") {
		t.Fatalf("metrics: %d", resp.StatusCode)
	}
}
