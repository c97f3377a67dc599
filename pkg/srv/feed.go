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
	"encoding/binary"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	clientifc "jinr.ru/greenlab/go-netsdr/pkg/client/ifc"
	"jinr.ru/greenlab/go-netsdr/pkg/log"
)

const (
	FeedQueueSize    = 64
	FeedWriteTimeout = 5 * time.Second
)

/*
IQ feed binary message

sequence [0:2]     uint16 little endian
samples  [2:]      int32 little endian each
*/

// EncodeFeedMessage returns the websocket message for a packet
func EncodeFeedMessage(packet *clientifc.IQPacket) []byte {
	data := make([]byte, 2+4*len(packet.Samples))
	binary.LittleEndian.PutUint16(data[0:2], packet.Sequence)
	for i, sample := range packet.Samples {
		binary.LittleEndian.PutUint32(data[2+4*i:], uint32(sample))
	}
	return data
}

type subscriber struct {
	send chan []byte
}

// Feed fans IQ packets out to websocket subscribers. A subscriber that
// can not keep up loses packets instead of slowing down the UDP loop.
type Feed struct {
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	closing     chan struct{}
	closed      bool
}

var _ clientifc.SampleConsumer = &Feed{}

func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
		},
		subscribers: map[*subscriber]struct{}{},
		closing:     make(chan struct{}),
	}
}

func (f *Feed) OnIQPacket(packet *clientifc.IQPacket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subscribers) == 0 {
		return
	}
	data := EncodeFeedMessage(packet)
	for s := range f.subscribers {
		select {
		case s.send <- data:
		default:
			log.Debug("IQ feed subscriber is slow, packet %d dropped", packet.Sequence)
		}
	}
}

func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}

// Close disconnects all subscribers
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.closing)
	}
}

func (f *Feed) subscribe() (*subscriber, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false
	}
	s := &subscriber{send: make(chan []byte, FeedQueueSize)}
	f.subscribers[s] = struct{}{}
	return s, true
}

func (f *Feed) unsubscribe(s *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subscribers, s)
}

func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Error while upgrading IQ feed connection: %s", err)
		return
	}
	defer conn.Close()

	s, ok := f.subscribe()
	if !ok {
		return
	}
	defer f.unsubscribe(s)
	log.Info("IQ feed subscriber connected: %s", r.RemoteAddr)

	// the peer is not expected to send anything, reading handles close and ping frames
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data := <-s.send:
			conn.SetWriteDeadline(time.Now().Add(FeedWriteTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				log.Info("IQ feed subscriber %s: %s", r.RemoteAddr, err)
				return
			}
		case <-gone:
			log.Info("IQ feed subscriber disconnected: %s", r.RemoteAddr)
			return
		case <-f.closing:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
			return
		}
	}
}

// Sinks passes every packet to each consumer in order
type Sinks []clientifc.SampleConsumer

func (s Sinks) OnIQPacket(packet *clientifc.IQPacket) {
	for _, consumer := range s {
		consumer.OnIQPacket(packet)
	}
}
