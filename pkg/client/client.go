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

package client

import (
	"context"
	"sync"
	"time"

	"jinr.ru/greenlab/go-netsdr/pkg/client/ifc"
	"jinr.ru/greenlab/go-netsdr/pkg/layers"
	"jinr.ru/greenlab/go-netsdr/pkg/log"
	"jinr.ru/greenlab/go-netsdr/pkg/metrics"
)

const (
	DefaultSampleWidth = 2
	DefaultSampleRate  = 100000
	DefaultADMode      = 0x03
)

// Bootstrap holds the values sent right after the control channel is connected
type Bootstrap struct {
	SampleRate int64
	RFFilter   uint16
	ADMode     uint8
}

func DefaultBootstrap() Bootstrap {
	return Bootstrap{
		SampleRate: DefaultSampleRate,
		RFFilter:   0,
		ADMode:     DefaultADMode,
	}
}

type Option func(*Client)

func WithConsumer(consumer ifc.SampleConsumer) Option {
	return func(c *Client) {
		c.consumer = consumer
	}
}

// WithAckTimeout bounds the wait for a reply, zero waits forever
func WithAckTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.ackTimeout = timeout
	}
}

func WithSampleWidth(width int) Option {
	return func(c *Client) {
		c.sampleWidth = width
	}
}

func WithBootstrap(bootstrap Bootstrap) Option {
	return func(c *Client) {
		c.bootstrap = bootstrap
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client is a NetSDR protocol session. Control requests go over TCP one at a time,
// IQ samples come over UDP.
type Client struct {
	tcp         ifc.TcpClient
	udp         ifc.UdpClient
	consumer    ifc.SampleConsumer
	metrics     *metrics.Metrics
	ackTimeout  time.Duration
	sampleWidth int
	bootstrap   Bootstrap

	// connectMu serializes Connect callers
	connectMu sync.Mutex

	mu        sync.Mutex
	connected bool
	iqStarted bool

	// requestMu serializes SendAndAwait callers
	requestMu sync.Mutex
	pending   pendingSlot

	seqMu   sync.Mutex
	haveSeq bool
	lastSeq uint16
}

func NewClient(tcp ifc.TcpClient, udp ifc.UdpClient, opts ...Option) *Client {
	c := &Client{
		tcp:         tcp,
		udp:         udp,
		sampleWidth: DefaultSampleWidth,
		bootstrap:   DefaultBootstrap(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.NewUnregistered()
	}
	tcp.SetMessageHandler(c.OnTcpBytesReceived)
	tcp.SetCloseHandler(c.OnTcpClosed)
	udp.SetMessageHandler(c.OnUdpBytesReceived)
	return c
}

// IsConnected is true when the session is connected and the control channel is alive
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	return connected && c.tcp.Connected()
}

func (c *Client) IQStarted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.iqStarted
}

// Connect opens the control channel and sends the bootstrap sequence:
// sample rate, RF filter and A/D modes. Connecting twice is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()
	if c.IsConnected() {
		log.Debug("Already connected")
		return nil
	}
	if err := c.tcp.Connect(ctx); err != nil {
		log.Error("Error while connecting: %s", err)
		return err
	}
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.metrics.SetConnected(true)
	log.Info("Connected")

	bootstrap := []struct {
		code   layers.ControlItemCode
		params []byte
	}{
		{code: layers.IQOutputDataSampleRate, params: layers.EncodeSampleRate(c.bootstrap.SampleRate)},
		{code: layers.RFFilter, params: layers.EncodeRFFilter(c.bootstrap.RFFilter)},
		{code: layers.ADModes, params: layers.EncodeADModes(c.bootstrap.ADMode)},
	}
	for _, item := range bootstrap {
		if _, err := c.sendControlItem(ctx, layers.SetControlItem, item.code, item.params); err != nil {
			log.Error("Error while sending %s: %s", item.code, err)
			return err
		}
	}
	return nil
}

// Disconnect never fails. A request waiting for a reply gets ErrDisconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	wasStreaming := c.iqStarted
	c.connected = false
	c.iqStarted = false
	c.mu.Unlock()

	if wasStreaming {
		c.udp.StopListening()
	}
	c.tcp.Disconnect()
	if c.pending.drop() {
		log.Warning("Pending request dropped on disconnect")
	}
	c.metrics.SetStreaming(false)
	c.metrics.SetConnected(false)
	log.Info("Disconnected")
}

// OnTcpClosed moves the session to disconnected when the device closes the
// control channel: streaming stops and a pending request gets ErrDisconnected.
func (c *Client) OnTcpClosed() {
	if c.tcp.Connected() {
		// a new connection is already up
		return
	}
	c.mu.Lock()
	wasConnected := c.connected
	wasStreaming := c.iqStarted
	c.connected = false
	c.iqStarted = false
	c.mu.Unlock()

	if wasStreaming {
		c.udp.StopListening()
	}
	if c.pending.drop() {
		log.Warning("Pending request dropped, connection closed by device")
	}
	c.metrics.SetStreaming(false)
	c.metrics.SetConnected(false)
	if wasConnected {
		log.Warning("Connection closed by device")
	}
}

// StartIQStreaming asks the device to start capture and starts listening for samples.
// It is a no-op when not connected.
func (c *Client) StartIQStreaming(ctx context.Context) error {
	if !c.IsConnected() {
		log.Debug("Not connected, IQ streaming is not started")
		return nil
	}
	if _, err := c.sendControlItem(ctx, layers.SetControlItem, layers.ReceiverState, layers.StartIQParams()); err != nil {
		return err
	}
	if err := c.udp.StartListening(ctx); err != nil {
		log.Error("Error while starting IQ listener: %s", err)
		return err
	}
	c.resetSequence()

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		c.udp.StopListening()
		return ErrDisconnected
	}
	c.iqStarted = true
	c.mu.Unlock()
	c.metrics.SetStreaming(true)
	log.Info("IQ streaming started")
	return nil
}

// StopIQStreaming always stops the listener. If the session is still connected
// the device is asked to stop capture.
func (c *Client) StopIQStreaming(ctx context.Context) error {
	c.udp.StopListening()
	c.mu.Lock()
	c.iqStarted = false
	c.mu.Unlock()
	c.metrics.SetStreaming(false)
	log.Info("IQ streaming stopped")

	if !c.IsConnected() {
		return nil
	}
	_, err := c.sendControlItem(ctx, layers.SetControlItem, layers.ReceiverState, layers.StopIQParams())
	return err
}

// ChangeFrequency tunes the channel to hz. It is a no-op when not connected.
func (c *Client) ChangeFrequency(ctx context.Context, hz int64, channel uint8) error {
	if !c.IsConnected() {
		log.Debug("Not connected, frequency is not changed")
		return nil
	}
	_, err := c.sendControlItem(ctx, layers.SetControlItem, layers.ReceiverFrequency, layers.EncodeFrequency(hz, channel))
	if err == nil {
		log.Info("Frequency changed: channel=%d hz=%d", channel, hz)
	}
	return err
}

// Request sends an arbitrary control item and returns the reply
func (c *Client) Request(ctx context.Context, t layers.MessageType, code layers.ControlItemCode, params []byte) (*layers.Message, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}
	return c.sendControlItem(ctx, t, code, params)
}

func (c *Client) sendControlItem(ctx context.Context, t layers.MessageType, code layers.ControlItemCode, params []byte) (*layers.Message, error) {
	frame, err := layers.EncodeControlItemMessage(t, code, params)
	if err != nil {
		return nil, ErrEncode{What: code.String(), Err: err}
	}
	log.Debug("Send %s %s % x", t, code, params)
	return c.SendAndAwait(ctx, frame)
}

// SendAndAwait sends a frame and waits for the next decoded message from the device.
// Only one request is in flight at a time, other callers wait for their turn.
func (c *Client) SendAndAwait(ctx context.Context, frame []byte) (*layers.Message, error) {
	c.requestMu.Lock()
	defer c.requestMu.Unlock()

	// registered before sending, the reply may arrive before Send returns
	req, err := c.pending.register()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	if err := c.tcp.Send(ctx, frame); err != nil {
		c.pending.release(req)
		c.metrics.Requests.WithLabelValues(metrics.ResultError).Inc()
		log.Error("Error while sending request: %s", err)
		return nil, err
	}

	var timeout <-chan time.Time
	if c.ackTimeout > 0 {
		timer := time.NewTimer(c.ackTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case msg := <-req.reply:
		c.metrics.Requests.WithLabelValues(metrics.ResultOk).Inc()
		c.metrics.RequestDuration.Observe(time.Since(start).Seconds())
		return msg, nil
	case <-req.dropped:
		c.metrics.Requests.WithLabelValues(metrics.ResultCanceled).Inc()
		return nil, ErrDisconnected
	case <-ctx.Done():
		c.pending.release(req)
		c.metrics.Requests.WithLabelValues(metrics.ResultCanceled).Inc()
		return nil, ctx.Err()
	case <-timeout:
		c.pending.release(req)
		c.metrics.Requests.WithLabelValues(metrics.ResultError).Inc()
		return nil, ErrAckTimeout{Timeout: c.ackTimeout}
	}
}

// OnTcpBytesReceived completes the pending request with any decodable message
func (c *Client) OnTcpBytesReceived(data []byte) {
	log.Bytes("TCP message received", data)
	msg, ok := layers.DecodeMessage(data)
	if !ok {
		c.metrics.TcpMessagesDropped.Inc()
		return
	}
	c.metrics.TcpMessages.Inc()
	if !c.pending.resolve(msg) {
		log.Debug("Unsolicited message: %s", msg)
	}
}

// OnUdpBytesReceived decodes a data item and passes its samples to the consumer.
// Malformed datagrams are dropped.
func (c *Client) OnUdpBytesReceived(data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.IQPacketsDropped.Inc()
			log.Error("Panic while handling IQ datagram: %v", r)
		}
	}()

	msg, ok := layers.DecodeMessage(data)
	if !ok {
		c.metrics.IQPacketsDropped.Inc()
		return
	}
	samples, err := layers.DecodeSamples(c.sampleWidth, msg.Body)
	if err != nil {
		c.metrics.IQPacketsDropped.Inc()
		log.Debug("Drop IQ datagram: %s", err)
		return
	}
	if !msg.HasControlCode() {
		c.trackSequence(msg.Sequence)
	}

	packet := &ifc.IQPacket{
		Type:     msg.Type,
		Sequence: msg.Sequence,
		Width:    samples.Width(),
		Samples:  samples.Values(),
		Received: time.Now(),
	}
	c.metrics.IQPackets.Inc()
	c.metrics.IQSamples.Add(float64(len(packet.Samples)))
	if c.consumer != nil {
		c.consumer.OnIQPacket(packet)
	}
}

func (c *Client) resetSequence() {
	c.seqMu.Lock()
	c.haveSeq = false
	c.seqMu.Unlock()
}

// trackSequence counts discontinuities. The device skips 0 when the counter wraps.
func (c *Client) trackSequence(seq uint16) {
	c.seqMu.Lock()
	defer c.seqMu.Unlock()
	if c.haveSeq {
		expected := c.lastSeq + 1
		if seq != expected && !(expected == 0 && seq == 1) {
			c.metrics.SequenceGaps.Inc()
			log.Debug("IQ sequence gap: expected %d got %d", expected, seq)
		}
	}
	c.haveSeq = true
	c.lastSeq = seq
}
