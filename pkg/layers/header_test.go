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
	"bytes"
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	lengths := []int{0, 1, 2, 100, 1024, 8189, MaxBodySize}
	for mt := SetControlItem; mt <= DataItem3; mt++ {
		for _, bodyLength := range lengths {
			buf, err := EncodeHeader(mt, bodyLength)
			if err != nil {
				t.Fatalf("encode header %s %d: %v", mt, bodyLength, err)
			}
			if len(buf) != HeaderSize {
				t.Fatalf("header size: got=%d want=%d", len(buf), HeaderSize)
			}
			h, err := DecodeHeader(buf)
			if err != nil {
				t.Fatalf("decode header %s %d: %v", mt, bodyLength, err)
			}
			if h.Type != mt || h.Length != HeaderSize+bodyLength {
				t.Fatalf("header mismatch: got=%+v want=(%s, %d)", h, mt, HeaderSize+bodyLength)
			}
		}
	}
}

func TestHeaderRoundTripAllLengths(t *testing.T) {
	for bodyLength := 0; bodyLength <= MaxBodySize; bodyLength++ {
		buf, err := EncodeHeader(CurrentControlItem, bodyLength)
		if err != nil {
			t.Fatalf("encode header %d: %v", bodyLength, err)
		}
		h, _ := DecodeHeader(buf)
		if h.Length != bodyLength+HeaderSize {
			t.Fatalf("length mismatch for body %d: got=%d", bodyLength, h.Length)
		}
	}
}

func TestHeaderMaxLengthWrapsToZero(t *testing.T) {
	buf, err := EncodeHeader(DataItem0, 8190)
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	// type 4 in the upper bits, zero length
	if !bytes.Equal(buf, []byte{0x00, 0x80}) {
		t.Fatalf("unexpected header bytes: % x", buf)
	}
	h, err := DecodeHeader(buf)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.Type != DataItem0 || h.Length != 8192 {
		t.Fatalf("header mismatch: got=%+v want=(DataItem0, 8192)", h)
	}
}

func TestEncodeHeaderLayout(t *testing.T) {
	buf, err := EncodeHeader(SetControlItem, 8)
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	if !bytes.Equal(buf, []byte{0x0a, 0x00}) {
		t.Fatalf("unexpected header bytes: % x", buf)
	}
	buf, _ = EncodeHeader(DataItem3, 0)
	if !bytes.Equal(buf, []byte{0x02, 0xe0}) {
		t.Fatalf("unexpected header bytes: % x", buf)
	}
}

func TestEncodeHeaderOutOfRange(t *testing.T) {
	for _, bodyLength := range []int{-1, -100, 8191, 10000} {
		_, err := EncodeHeader(Ack, bodyLength)
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("body %d: expected ErrOutOfRange, got %v", bodyLength, err)
		}
		var lengthErr ErrBodyLength
		if !errors.As(err, &lengthErr) || lengthErr.Length != bodyLength {
			t.Fatalf("body %d: expected ErrBodyLength, got %v", bodyLength, err)
		}
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	for _, data := range [][]byte{nil, {}, {0x01}} {
		if _, err := DecodeHeader(data); !errors.Is(err, ErrTruncated) {
			t.Fatalf("expected ErrTruncated for % x, got %v", data, err)
		}
	}
}

func TestEncodeMessageTypeOutOfRange(t *testing.T) {
	for _, mt := range []MessageType{DataItem3 + 1, 0x20, 0xff} {
		if _, err := EncodeHeader(mt, 0); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("type %d: expected ErrOutOfRange from EncodeHeader, got %v", uint8(mt), err)
		}
		var typeErr ErrMessageTypeRange
		if _, err := EncodeDataItemMessage(mt, []byte{0x01}); !errors.As(err, &typeErr) || typeErr.Type != mt {
			t.Fatalf("type %d: expected ErrMessageTypeRange from EncodeDataItemMessage, got %v", uint8(mt), err)
		}
		if _, err := EncodeControlItemMessage(mt, ReceiverState, nil); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("type %d: expected ErrOutOfRange from EncodeControlItemMessage, got %v", uint8(mt), err)
		}
	}
	// the highest valid type still encodes
	if _, err := EncodeHeader(DataItem3, 0); err != nil {
		t.Fatalf("DataItem3: %v", err)
	}
}
