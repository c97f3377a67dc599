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

package layers

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"jinr.ru/greenlab/go-netsdr/pkg/log"
)

// Message is a decoded NetSDR message.
// ControlCode is meaningful for control types, Sequence for data item types.
type Message struct {
	Type        MessageType
	Length      int
	ControlCode ControlItemCode
	Sequence    uint16
	// Body aliases the decoded buffer starting right after the code or sequence
	Body []byte
}

func (m *Message) HasControlCode() bool {
	return m.Type.IsControl()
}

func (m *Message) String() string {
	if m.HasControlCode() {
		return fmt.Sprintf("%s %s len=%d body=% x", m.Type, m.ControlCode, m.Length, m.Body)
	}
	return fmt.Sprintf("%s seq=%d len=%d body=%d bytes", m.Type, m.Sequence, m.Length, len(m.Body))
}

type NetSDRLayer struct {
	layers.BaseLayer
	Header
	ControlCode ControlItemCode
	Sequence    uint16
}

var NetSDRLayerType = gopacket.RegisterLayerType(NetSDRLayerNum,
	gopacket.LayerTypeMetadata{Name: "NetSDRLayerType", Decoder: gopacket.DecodeFunc(decodeNetSDRLayer)})

func (l *NetSDRLayer) LayerType() gopacket.LayerType {
	return NetSDRLayerType
}

func (l *NetSDRLayer) CanDecode() gopacket.LayerClass {
	return NetSDRLayerType
}

func (l *NetSDRLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

// SerializeTo prepends the header and the code (or nothing for data items)
// to the payload already in the buffer. Length is always computed from the buffer.
func (l *NetSDRLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if l.Type > DataItem3 {
		return ErrMessageTypeRange{Type: l.Type}
	}
	prefixSize := HeaderSize
	if l.Type.IsControl() {
		prefixSize += ControlCodeSize
	}
	bodyLength := len(b.Bytes()) + prefixSize - HeaderSize
	if bodyLength > MaxBodySize {
		return ErrBodyLength{Length: bodyLength}
	}
	bytes, err := b.PrependBytes(prefixSize)
	if err != nil {
		return err
	}
	l.Length = HeaderSize + bodyLength
	l.SerializeHeader(bytes)
	if l.Type.IsControl() {
		binary.LittleEndian.PutUint16(bytes[2:4], uint16(l.ControlCode))
	}
	return nil
}

// DecodeFromBytes attempts to decode the byte slice as a NetSDR message.
// The length from the header is not checked against the slice length.
func (l *NetSDRLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	header, err := DecodeHeader(data)
	if err != nil {
		df.SetTruncated()
		return err
	}
	if len(data) < HeaderSize+2 {
		df.SetTruncated()
		return ErrTruncated
	}
	l.Header = header
	l.ControlCode = ControlItemNone
	l.Sequence = 0
	if header.Type.IsControl() {
		code := ControlItemCode(int16(binary.LittleEndian.Uint16(data[2:4])))
		if !code.Valid() {
			return ErrUnknownControlItem{What: fmt.Sprintf("0x%04x", uint16(code))}
		}
		l.ControlCode = code
	} else {
		l.Sequence = binary.LittleEndian.Uint16(data[2:4])
	}
	l.BaseLayer = layers.BaseLayer{
		Contents: data[0:4],
		Payload:  data[4:],
	}
	return nil
}

// Message returns the decoded message. Body aliases the decoded data.
func (l *NetSDRLayer) Message() *Message {
	return &Message{
		Type:        l.Type,
		Length:      l.Length,
		ControlCode: l.ControlCode,
		Sequence:    l.Sequence,
		Body:        l.Payload,
	}
}

func decodeNetSDRLayer(data []byte, p gopacket.PacketBuilder) error {
	l := &NetSDRLayer{}
	err := l.DecodeFromBytes(data, p)
	if err != nil {
		log.Debug("Error while decoding NetSDR layer: %s", err)
		return err
	}
	p.AddLayer(l)
	return p.NextDecoder(l.NextLayerType())
}

// DecodeMessage parses a whole message. It never panics, malformed input gives false.
func DecodeMessage(data []byte) (*Message, bool) {
	l := &NetSDRLayer{}
	if err := l.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		log.Debug("Drop NetSDR message %d bytes: %s", len(data), err)
		return nil, false
	}
	return l.Message(), true
}

func serialize(l *NetSDRLayer, params []byte) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, l, gopacket.Payload(params)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeControlItemMessage returns header ++ code ++ params
func EncodeControlItemMessage(t MessageType, code ControlItemCode, params []byte) ([]byte, error) {
	if !t.IsControl() {
		// the layer only writes a code for control types
		codeBytes := make([]byte, ControlCodeSize, ControlCodeSize+len(params))
		binary.LittleEndian.PutUint16(codeBytes, uint16(code))
		return EncodeDataItemMessage(t, append(codeBytes, params...))
	}
	l := &NetSDRLayer{
		Header:      Header{Type: t},
		ControlCode: code,
	}
	return serialize(l, params)
}

// EncodeDataItemMessage returns header ++ params. No sequence number is written,
// the caller puts it into params if the peer expects one.
func EncodeDataItemMessage(t MessageType, params []byte) ([]byte, error) {
	header, err := EncodeHeader(t, len(params))
	if err != nil {
		return nil, err
	}
	return append(header, params...), nil
}
