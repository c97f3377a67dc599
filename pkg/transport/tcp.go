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
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"jinr.ru/greenlab/go-netsdr/pkg/client/ifc"
	"jinr.ru/greenlab/go-netsdr/pkg/layers"
	"jinr.ru/greenlab/go-netsdr/pkg/log"
)

const (
	DefaultDialTimeout = 5 * time.Second
)

// TcpClient is the NetSDR control channel. The byte stream is split into
// messages using the length from the header.
type TcpClient struct {
	address string
	dialer  net.Dialer

	connectMu sync.Mutex
	writeMu   sync.Mutex

	mu           sync.Mutex
	conn         net.Conn
	handler      ifc.MessageHandler
	closeHandler ifc.CloseHandler

	wg sync.WaitGroup
}

var _ ifc.TcpClient = &TcpClient{}

func NewTcpClient(address string) *TcpClient {
	return &TcpClient{
		address: address,
		dialer:  net.Dialer{Timeout: DefaultDialTimeout},
	}
}

func (c *TcpClient) SetMessageHandler(handler ifc.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *TcpClient) SetCloseHandler(handler ifc.CloseHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeHandler = handler
}

func (c *TcpClient) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()
	if c.Connected() {
		return nil
	}

	log.Info("Connecting to %s", c.address)
	conn, err := c.dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop(conn)
	return nil
}

// Disconnect closes the connection and waits for the read loop.
// It must not be called from the message handler.
func (c *TcpClient) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Debug("Error while closing connection: %s", err)
		}
	}
	c.wg.Wait()
}

func (c *TcpClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *TcpClient) Send(ctx context.Context, data []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	log.Bytes("TCP send", data)
	_, err := conn.Write(data)
	return err
}

// SendString sends UTF-8 bytes of s
func (c *TcpClient) SendString(ctx context.Context, s string) error {
	return c.Send(ctx, []byte(s))
}

func (c *TcpClient) readLoop(conn net.Conn) {
	defer c.wg.Done()
	reader := bufio.NewReader(conn)
	for {
		msg, err := ReadMessage(reader)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Info("Connection to %s closed", c.address)
			} else {
				log.Error("Error while reading from %s: %s", c.address, err)
			}
			if c.closed(conn) {
				c.mu.Lock()
				closeHandler := c.closeHandler
				c.mu.Unlock()
				if closeHandler != nil {
					closeHandler()
				}
			}
			return
		}
		c.mu.Lock()
		handler := c.handler
		c.mu.Unlock()
		if handler != nil {
			handler(msg)
		}
	}
}

// closed forgets conn unless it was already replaced or forgotten by Disconnect.
// It reports whether conn was still the current connection.
func (c *TcpClient) closed(conn net.Conn) bool {
	c.mu.Lock()
	current := c.conn == conn
	if current {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.Close()
	return current
}

// ReadMessage reads one whole NetSDR message
func ReadMessage(r io.Reader) ([]byte, error) {
	header := make([]byte, layers.HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	h, err := layers.DecodeHeader(header)
	if err != nil {
		return nil, err
	}
	if h.Length < layers.HeaderSize {
		return nil, ErrMessageLength{Length: h.Length}
	}
	msg := make([]byte, h.Length)
	copy(msg, header)
	if _, err := io.ReadFull(r, msg[layers.HeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return msg, nil
}
