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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"jinr.ru/greenlab/go-netsdr/pkg/client"
	"jinr.ru/greenlab/go-netsdr/pkg/config"
	"jinr.ru/greenlab/go-netsdr/pkg/log"
	"jinr.ru/greenlab/go-netsdr/pkg/metrics"
	"jinr.ru/greenlab/go-netsdr/pkg/srv/ifc"
	"jinr.ru/greenlab/go-netsdr/pkg/transport"
)

// Server owns the NetSDR session and everything around it
type Server struct {
	context.Context
	*config.Config
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Client   *client.Client
	Writer   *Writer
	Feed     *Feed
	Api      *ApiServer
}

var _ ifc.Session = &client.Client{}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	writer := NewWriter()
	if cfg.Samples.File != "" {
		if err := writer.Persist(cfg.Samples.File); err != nil {
			return nil, err
		}
	}
	feed := NewFeed()

	tcp := transport.NewTcpClient(cfg.TcpAddr())
	udp := transport.NewUdpClient(cfg.UdpAddr())
	c := client.NewClient(tcp, udp,
		client.WithConsumer(Sinks{writer, feed}),
		client.WithAckTimeout(cfg.AckTimeout()),
		client.WithSampleWidth(cfg.SampleWidth),
		client.WithBootstrap(client.Bootstrap{
			SampleRate: cfg.SampleRate,
			RFFilter:   cfg.RFFilter,
			ADMode:     cfg.ADMode,
		}),
		client.WithMetrics(m),
	)

	api, err := NewApiServer(ctx, cfg, c, writer, feed, m, registry)
	if err != nil {
		return nil, err
	}

	return &Server{
		Context:  ctx,
		Config:   cfg,
		Registry: registry,
		Metrics:  m,
		Client:   c,
		Writer:   writer,
		Feed:     feed,
		Api:      api,
	}, nil
}

// Run serves the API until the context is done or the API server fails.
// The session is disconnected and captured samples are flushed on exit.
func (s *Server) Run() error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Api.Run()
	}()

	if s.AutoConnect {
		if err := s.Client.Connect(s.Context); err != nil {
			log.Error("Error while connecting to %s: %s", s.TcpAddr(), err)
		}
	}

	var err error
	select {
	case <-s.Context.Done():
		log.Info("Shutting down")
	case err = <-errChan:
		if err != nil {
			log.Error("API server stopped: %s", err)
		}
	}

	s.Client.Disconnect()
	s.Feed.Close()
	if closeErr := s.Writer.Close(); closeErr != nil {
		log.Error("Error while closing sample file: %s", closeErr)
	}
	return err
}
