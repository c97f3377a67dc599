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
	"bufio"
	"encoding/binary"
	"os"
	"sync"

	clientifc "jinr.ru/greenlab/go-netsdr/pkg/client/ifc"
	"jinr.ru/greenlab/go-netsdr/pkg/log"
	"jinr.ru/greenlab/go-netsdr/pkg/srv/ifc"
)

// Writer appends received samples to a file, each sample little endian
// using the width it was received with. Without a file samples are discarded.
type Writer struct {
	mu       sync.Mutex
	file     *os.File
	buf      *bufio.Writer
	filename string
	written  uint64
}

var _ ifc.Capture = &Writer{}
var _ clientifc.SampleConsumer = &Writer{}

func NewWriter() *Writer {
	return &Writer{}
}

// Persist starts writing to filename, the previous file is flushed and closed
func (w *Writer) Persist(filename string) error {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Error("Error while creating file: %s", filename)
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.closeLocked(); err != nil {
		log.Warning("Error while closing %s: %s", w.filename, err)
	}
	w.file = file
	w.buf = bufio.NewWriter(file)
	w.filename = filename
	w.written = 0
	log.Info("Writing samples to %s", filename)
	return nil
}

func (w *Writer) OnIQPacket(packet *clientifc.IQPacket) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf == nil {
		return
	}
	chunk := make([]byte, 4)
	for _, sample := range packet.Samples {
		binary.LittleEndian.PutUint32(chunk, uint32(sample))
		if _, err := w.buf.Write(chunk[:packet.Width]); err != nil {
			log.Error("Error while writing samples to %s: %s", w.filename, err)
			return
		}
	}
	w.written += uint64(len(packet.Samples))
}

func (w *Writer) Write(buf []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf == nil {
		return len(buf), nil
	}
	return w.buf.Write(buf)
}

// Flush writes buffered samples to disk, the file stays open
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf == nil {
		return nil
	}
	if err := w.buf.Flush(); err != nil {
		return err
	}
	log.Debug("Flushed %d samples to %s", w.written, w.filename)
	return w.file.Sync()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) closeLocked() error {
	if w.file == nil {
		return nil
	}
	err := w.buf.Flush()
	if syncErr := w.file.Sync(); err == nil {
		err = syncErr
	}
	if closeErr := w.file.Close(); err == nil {
		err = closeErr
	}
	w.file = nil
	w.buf = nil
	return err
}
