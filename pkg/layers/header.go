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
)

type Header struct {
	Type MessageType
	// Length is the total message length in bytes including the header itself
	Length int
}

// SerializeHeader writes the header word to the first two bytes of buf
func (h Header) SerializeHeader(buf []byte) {
	word := uint16(h.Type)<<typeShift | uint16(h.Length%MaxMessageSize)
	binary.LittleEndian.PutUint16(buf[0:2], word)
}

// EncodeHeader returns the 2 byte header of a message of the given type
// followed by bodyLength bytes.
func EncodeHeader(t MessageType, bodyLength int) ([]byte, error) {
	if t > DataItem3 {
		return nil, ErrMessageTypeRange{Type: t}
	}
	if bodyLength < 0 || bodyLength > MaxBodySize {
		return nil, ErrBodyLength{Length: bodyLength}
	}
	buf := make([]byte, HeaderSize)
	Header{Type: t, Length: HeaderSize + bodyLength}.SerializeHeader(buf)
	return buf, nil
}

// DecodeHeader reads the header word. Raw length 0 means 8192.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrTruncated
	}
	word := binary.LittleEndian.Uint16(data[0:2])
	length := int(word & lengthMask)
	if length == 0 {
		length = MaxMessageSize
	}
	return Header{
		Type:   MessageType(word >> typeShift),
		Length: length,
	}, nil
}
