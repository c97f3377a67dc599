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

// go-netsdr API
//
// # RESTful APIs to interact with go-netsdr server
//
// Schemes: http
// Host: localhost:8000
// Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package srv

import (
	"context"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jinr.ru/greenlab/go-netsdr/pkg/client"
	"jinr.ru/greenlab/go-netsdr/pkg/config"
	"jinr.ru/greenlab/go-netsdr/pkg/layers"
	"jinr.ru/greenlab/go-netsdr/pkg/log"
	"jinr.ru/greenlab/go-netsdr/pkg/metrics"
	"jinr.ru/greenlab/go-netsdr/pkg/srv/ifc"
)

const (
	ShutdownTimeout = 5 * time.Second
	// MaxFrequency is the largest value that fits 5 bytes
	MaxFrequency = 1<<40 - 1
)

//go:embed swagger.json
var swaggerJSON []byte

// Success response
// swagger:response okResp
type RespOk struct {
	// in:body
	Body struct {
		// HTTP status code 200 - OK
		Code int `json:"code"`
	}
}

type Status struct {
	Connected bool `json:"connected"`
	IQStarted bool `json:"iqStarted"`
}

type Frequency struct {
	Hz      int64 `json:"hz"`
	Channel uint8 `json:"channel"`
}

// ControlItem params and reply body are hexadecimal
type ControlItem struct {
	Type   string `json:"type,omitempty"`
	Code   string `json:"code"`
	Params string `json:"params,omitempty"`
}

type ControlReply struct {
	Type string `json:"type"`
	Code string `json:"code"`
	Body string `json:"body"`
}

type Persist struct {
	File string `json:"file"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	session  ifc.Session
	capture  ifc.Capture
	feed     http.Handler
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	doc      *loads.Document
}

var _ ifc.ApiServer = &ApiServer{}

func NewApiServer(ctx context.Context, cfg *config.Config, session ifc.Session, capture ifc.Capture,
	feed http.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s", cfg.ApiAddr())

	doc, err := loads.Analyzed(json.RawMessage(swaggerJSON), "")
	if err != nil {
		return nil, ErrApiDocument{What: err.Error()}
	}
	log.Debug("API document loaded: swagger %s", doc.Version())

	s := &ApiServer{
		Context:  ctx,
		Config:   cfg,
		session:  session,
		capture:  capture,
		feed:     feed,
		metrics:  m,
		gatherer: gatherer,
		doc:      doc,
	}
	s.configureRouter()
	return s, nil
}

// Handler returns the router wrapped with access log and panic recovery
func (s *ApiServer) Handler() http.Handler {
	logged := handlers.CombinedLoggingHandler(log.Writer(), s.Router)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}), handlers.PrintRecoveryStack(true))(logged)
}

// Run serves the API until the context is done
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s", s.Config.ApiAddr())
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    s.Config.ApiAddr(),
	}
	go func() {
		<-s.Context.Done()
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("Error while shutting down API server: %s", err)
		}
	}()
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	s.Router.Use(s.countRequests)
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	// swagger:operation GET /api/status status getStatus
	// ---
	// summary: session status
	// responses:
	//   "200":
	//     "$ref": "#/definitions/Status"
	subRouter.HandleFunc("/status", s.handleStatus()).Methods("GET")
	// swagger:operation POST /api/connect connect connect
	// ---
	// summary: connect to the receiver and send the bootstrap sequence
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	subRouter.HandleFunc("/connect", s.handleConnect()).Methods("POST")
	subRouter.HandleFunc("/disconnect", s.handleDisconnect()).Methods("POST")
	// swagger:operation POST /api/iq/{action:start|stop} iq iqAction
	// ---
	// summary: start or stop IQ streaming
	// responses:
	//   "200":
	//     "$ref": "#/responses/okResp"
	subRouter.HandleFunc("/iq/{action:start|stop}", s.handleIQAction()).Methods("POST")
	subRouter.Handle("/iq/feed", s.feed).Methods("GET")
	subRouter.HandleFunc("/frequency", s.handleFrequency()).Methods("POST")
	subRouter.HandleFunc("/control", s.handleControlItem()).Methods("POST")
	subRouter.HandleFunc("/persist", s.handlePersist()).Methods("POST")
	subRouter.HandleFunc("/flush", s.handleFlush()).Methods("GET")
	s.Router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	s.Router.HandleFunc("/swagger.json", s.handleSwagger()).Methods("GET")
	s.Router.Handle("/docs", middleware.Redoc(middleware.RedocOpts{
		BasePath: "/",
		Path:     "docs",
		SpecURL:  "/swagger.json",
		Title:    "go-netsdr API",
	}, http.NotFoundHandler())).Methods("GET")
}

func (s *ApiServer) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(m.Code)).Inc()
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

// deviceError maps session errors to HTTP status codes
func deviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, client.ErrNotConnected):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.Canceled):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func (s *ApiServer) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &Status{
			Connected: s.session.IsConnected(),
			IQStarted: s.session.IQStarted(),
		})
	}
}

func (s *ApiServer) handleConnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling connect request")
		if err := s.session.Connect(r.Context()); err != nil {
			deviceError(w, err)
			return
		}
	}
}

func (s *ApiServer) handleDisconnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling disconnect request")
		s.session.Disconnect()
	}
}

func (s *ApiServer) handleIQAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		log.Debug("Handling IQ request: action: %s", vars["action"])

		var err error
		switch vars["action"] {
		case "start":
			err = s.session.StartIQStreaming(r.Context())
		case "stop":
			err = s.session.StopIQStreaming(r.Context())
		default:
			err = ErrUnknownOperation{What: vars["action"]}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			deviceError(w, err)
		}
	}
}

func (s *ApiServer) handleFrequency() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frequency := &Frequency{}
		if err := json.NewDecoder(r.Body).Decode(frequency); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if frequency.Hz < 0 || frequency.Hz > MaxFrequency {
			http.Error(w, fmt.Sprintf("Frequency must be in [0, %d]", int64(MaxFrequency)), http.StatusBadRequest)
			return
		}

		log.Debug("Handling frequency request: channel: %d hz: %d", frequency.Channel, frequency.Hz)

		if err := s.session.ChangeFrequency(r.Context(), frequency.Hz, frequency.Channel); err != nil {
			deviceError(w, err)
			return
		}
	}
}

func (s *ApiServer) handleControlItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item := &ControlItem{}
		if err := json.NewDecoder(r.Body).Decode(item); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		t := layers.SetControlItem
		if item.Type != "" {
			var err error
			if t, err = layers.ParseMessageType(item.Type); err != nil || !t.IsControl() {
				http.Error(w, fmt.Sprintf("Wrong control message type: %s", item.Type), http.StatusBadRequest)
				return
			}
		}
		code, err := layers.ParseControlItemCode(item.Code)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		params, err := hex.DecodeString(item.Params)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Debug("Handling control item request: %s %s % x", t, code, params)

		reply, err := s.session.Request(r.Context(), t, code, params)
		if err != nil {
			deviceError(w, err)
			return
		}
		resp := &ControlReply{
			Type: reply.Type.String(),
			Body: hex.EncodeToString(reply.Body),
		}
		if reply.HasControlCode() {
			resp.Code = reply.ControlCode.String()
		}
		writeJSON(w, resp)
	}
}

func (s *ApiServer) handlePersist() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		persist := &Persist{}
		err := json.NewDecoder(r.Body).Decode(persist)
		if err != nil || persist.File == "" {
			http.Error(w, "File is required", http.StatusBadRequest)
			return
		}

		log.Debug("Handling persist request: file: %s", persist.File)

		if err := s.capture.Persist(persist.File); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}
}

func (s *ApiServer) handleFlush() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling flush request")
		if err := s.capture.Flush(); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
	}
}

func (s *ApiServer) handleSwagger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(s.doc.Raw())
	}
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error("%s", fmt.Sprint(v...))
}
