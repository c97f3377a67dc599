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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOk       = "ok"
	ResultError    = "error"
	ResultCanceled = "canceled"
)

type Metrics struct {
	// Control channel
	Requests           *prometheus.CounterVec
	RequestDuration    prometheus.Histogram
	TcpMessages        prometheus.Counter
	TcpMessagesDropped prometheus.Counter
	Connected          prometheus.Gauge

	// IQ stream
	IQPackets        prometheus.Counter
	IQPacketsDropped prometheus.Counter
	IQSamples        prometheus.Counter
	SequenceGaps     prometheus.Counter
	Streaming        prometheus.Gauge

	// HTTP API
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them in reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "netsdr_control_requests_total",
			Help: "Total number of control requests by result",
		}, []string{"result"}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "netsdr_control_request_duration_seconds",
			Help:    "Time between sending a control request and receiving the reply",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
		TcpMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "netsdr_tcp_messages_total",
			Help: "Total number of decoded messages received over TCP",
		}),
		TcpMessagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "netsdr_tcp_messages_dropped_total",
			Help: "Total number of undecodable messages received over TCP",
		}),
		Connected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "netsdr_connected",
			Help: "1 if the control channel is connected",
		}),
		IQPackets: factory.NewCounter(prometheus.CounterOpts{
			Name: "netsdr_iq_packets_total",
			Help: "Total number of decoded IQ data packets",
		}),
		IQPacketsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "netsdr_iq_packets_dropped_total",
			Help: "Total number of dropped IQ datagrams",
		}),
		IQSamples: factory.NewCounter(prometheus.CounterOpts{
			Name: "netsdr_iq_samples_total",
			Help: "Total number of decoded IQ samples",
		}),
		SequenceGaps: factory.NewCounter(prometheus.CounterOpts{
			Name: "netsdr_iq_sequence_gaps_total",
			Help: "Total number of discontinuities in IQ packet sequence numbers",
		}),
		Streaming: factory.NewGauge(prometheus.GaugeOpts{
			Name: "netsdr_iq_streaming",
			Help: "1 if IQ streaming is started",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "netsdr_http_requests_total",
			Help: "Total number of HTTP API requests",
		}, []string{"method", "route", "status_code"}),
	}
}

// NewUnregistered returns metrics that are not exported anywhere
func NewUnregistered() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func (m *Metrics) SetConnected(v bool) {
	m.Connected.Set(boolGauge(v))
}

func (m *Metrics) SetStreaming(v bool) {
	m.Streaming.Set(boolGauge(v))
}
