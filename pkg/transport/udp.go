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

package transport

import (
	"context"
	"errors"
	"net"
	"sync"

	"jinr.ru/greenlab/go-netsdr/pkg/client/ifc"
	"jinr.ru/greenlab/go-netsdr/pkg/layers"
	"jinr.ru/greenlab/go-netsdr/pkg/log"
)

const (
	// ReadBufferSize is the socket receive buffer, IQ data comes in bursts
	ReadBufferSize = 4 * 1024 * 1024
)

// UdpClient listens for the IQ data stream
type UdpClient struct {
	address string

	mu      sync.Mutex
	conn    net.PacketConn
	handler ifc.MessageHandler

	wg sync.WaitGroup
}

var _ ifc.UdpClient = &UdpClient{}

func NewUdpClient(address string) *UdpClient {
	return &UdpClient{
		address: address,
	}
}

func (c *UdpClient) SetMessageHandler(handler ifc.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *UdpClient) StartListening(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}

	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp", c.address)
	if err != nil {
		return err
	}
	if udpConn, ok := conn.(*net.UDPConn); ok {
		if err := udpConn.SetReadBuffer(ReadBufferSize); err != nil {
			log.Warning("Error while setting UDP read buffer: %s", err)
		}
	}
	c.conn = conn
	log.Info("Listening for IQ data on %s", conn.LocalAddr())

	c.wg.Add(1)
	go c.loop(conn)
	return nil
}

// StopListening returns after the last handler call has returned.
// It must not be called from the message handler.
func (c *UdpClient) StopListening() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	c.wg.Wait()
}

// LocalAddr returns the bound address or nil when not listening
func (c *UdpClient) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.LocalAddr()
}

func (c *UdpClient) loop(conn net.PacketConn) {
	defer c.wg.Done()
	buf := make([]byte, 2*layers.MaxMessageSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Error("Error while reading IQ datagram: %s", err)
			continue
		}
		log.Debug("IQ datagram %d bytes from %s", n, addr)
		data := make([]byte, n)
		copy(data, buf[:n])
		c.mu.Lock()
		handler := c.handler
		c.mu.Unlock()
		if handler != nil {
			handler(data)
		}
	}
}
