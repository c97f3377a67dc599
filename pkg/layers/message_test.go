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

	"github.com/google/gopacket"
)

var validCodes = []ControlItemCode{
	ControlItemNone,
	ReceiverState,
	ReceiverFrequency,
	RFFilter,
	ADModes,
	IQOutputDataSampleRate,
}

func TestControlItemMessageRoundTrip(t *testing.T) {
	params := [][]byte{
		{},
		{0x01},
		{0x80, 0x02, 0x01, 0x01},
		bytes.Repeat([]byte{0xa5}, 1000),
	}
	for mt := SetControlItem; mt <= Ack; mt++ {
		for _, code := range validCodes {
			for _, p := range params {
				data, err := EncodeControlItemMessage(mt, code, p)
				if err != nil {
					t.Fatalf("encode %s %s: %v", mt, code, err)
				}
				msg, ok := DecodeMessage(data)
				if !ok {
					t.Fatalf("decode %s %s failed", mt, code)
				}
				if msg.Type != mt || msg.ControlCode != code || !msg.HasControlCode() {
					t.Fatalf("message mismatch: got=%s want=(%s, %s)", msg, mt, code)
				}
				if msg.Length != len(data) {
					t.Fatalf("length mismatch: got=%d want=%d", msg.Length, len(data))
				}
				if !bytes.Equal(msg.Body, p) {
					t.Fatalf("body mismatch for %s %s", mt, code)
				}
			}
		}
	}
}

func TestControlItemMessageLargeBody(t *testing.T) {
	data, err := EncodeControlItemMessage(Ack, ReceiverState, make([]byte, 7500))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) != 7504 {
		t.Fatalf("message length: got=%d want=7504", len(data))
	}
	h, err := DecodeHeader(data)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.Type != Ack || h.Length != 7504 {
		t.Fatalf("header mismatch: got=%+v", h)
	}
	msg, ok := DecodeMessage(data)
	if !ok {
		t.Fatalf("decode failed")
	}
	if msg.Type != Ack || msg.ControlCode != ReceiverState || !bytes.Equal(msg.Body, make([]byte, 7500)) {
		t.Fatalf("message mismatch: %s", msg)
	}
}

func TestControlItemMessageLayout(t *testing.T) {
	data, err := EncodeControlItemMessage(SetControlItem, ReceiverFrequency, EncodeFrequency(14010000, 0))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0x0a, 0x00, 0x20, 0x00, 0x00, 0x90, 0xc6, 0xd5, 0x00, 0x00}
	if !bytes.Equal(data, want) {
		t.Fatalf("frame mismatch: got=% x want=% x", data, want)
	}
}

func TestControlItemMessageTooLong(t *testing.T) {
	_, err := EncodeControlItemMessage(SetControlItem, ReceiverState, make([]byte, MaxBodySize-1))
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	data, err := EncodeControlItemMessage(SetControlItem, ReceiverState, make([]byte, MaxBodySize-2))
	if err != nil {
		t.Fatalf("encode max message: %v", err)
	}
	msg, ok := DecodeMessage(data)
	if !ok || msg.Length != MaxMessageSize {
		t.Fatalf("max message decode: ok=%v msg=%v", ok, msg)
	}
}

func TestDecodeMessageUnknownControlItem(t *testing.T) {
	for mt := SetControlItem; mt <= Ack; mt++ {
		data := []byte{0x04, byte(mt) << 5, 0xff, 0xff}
		if _, ok := DecodeMessage(data); ok {
			t.Fatalf("expected failure for %s with code 0xffff", mt)
		}
	}
	data := []byte{0x04, 0x00, 0x19, 0x00}
	if _, ok := DecodeMessage(data); ok {
		t.Fatalf("expected failure for code 0x0019")
	}
}

func TestDecodeDataItemSequence(t *testing.T) {
	// the header length does not have to match the buffer
	data := []byte{0x00, 0x80, 0x39, 0x30, 0x01, 0x02, 0x03, 0x04}
	msg, ok := DecodeMessage(data)
	if !ok {
		t.Fatalf("decode failed")
	}
	if msg.Type != DataItem0 || msg.Sequence != 12345 || msg.HasControlCode() {
		t.Fatalf("message mismatch: %s", msg)
	}
	if !bytes.Equal(msg.Body, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatalf("body mismatch: % x", msg.Body)
	}
}

func TestEncodeDataItemMessageHasNoSequence(t *testing.T) {
	params := []byte{0x10, 0x20, 0x30}
	data, err := EncodeDataItemMessage(DataItem2, params)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{0x05, 0xc0, 0x10, 0x20, 0x30}
	if !bytes.Equal(data, want) {
		t.Fatalf("frame mismatch: got=% x want=% x", data, want)
	}
	// decoding consumes the first two param bytes as the sequence
	msg, ok := DecodeMessage(data)
	if !ok || msg.Sequence != 0x2010 || !bytes.Equal(msg.Body, []byte{0x30}) {
		t.Fatalf("unexpected decode: ok=%v msg=%v", ok, msg)
	}
	if _, err := EncodeDataItemMessage(DataItem1, make([]byte, MaxBodySize+1)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestDecodeMessageNeverPanics(t *testing.T) {
	valid, _ := EncodeControlItemMessage(SetControlItem, ADModes, []byte{0x00, 0x03})
	for i := 0; i <= len(valid); i++ {
		msg, ok := DecodeMessage(valid[:i])
		if i < 4 && ok {
			t.Fatalf("decoded truncated message of %d bytes: %v", i, msg)
		}
	}
	for first := 0; first < 256; first++ {
		for second := 0; second < 256; second++ {
			DecodeMessage([]byte{byte(first), byte(second), byte(second), byte(first)})
		}
	}
}

func TestNetSDRLayerWithPacketDecoder(t *testing.T) {
	data, _ := EncodeControlItemMessage(CurrentControlItem, IQOutputDataSampleRate, EncodeSampleRate(100000))
	packet := gopacket.NewPacket(data, NetSDRLayerType, gopacket.NoCopy)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		t.Fatalf("decode packet: %v", errLayer.Error())
	}
	layer, ok := packet.Layer(NetSDRLayerType).(*NetSDRLayer)
	if !ok {
		t.Fatalf("NetSDR layer not found")
	}
	if layer.ControlCode != IQOutputDataSampleRate || layer.Type != CurrentControlItem {
		t.Fatalf("layer mismatch: %+v", layer.Header)
	}
	if !bytes.Equal(layer.LayerPayload(), []byte{0xa0, 0x86, 0x01, 0x00, 0x00}) {
		t.Fatalf("payload mismatch: % x", layer.LayerPayload())
	}
}

func TestParseControlItemCode(t *testing.T) {
	tests := []struct {
		in      string
		want    ControlItemCode
		wantErr bool
	}{
		{in: "ReceiverFrequency", want: ReceiverFrequency},
		{in: "0x0018", want: ReceiverState},
		{in: "184", want: IQOutputDataSampleRate},
		{in: "0x0019", wantErr: true},
		{in: "nonsense", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseControlItemCode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: got=%s err=%v want=%s", tt.in, got, err, tt.want)
		}
	}
}

func TestParseMessageType(t *testing.T) {
	if mt, err := ParseMessageType("CurrentControlItem"); err != nil || mt != CurrentControlItem {
		t.Fatalf("by name: got=%s err=%v", mt, err)
	}
	if mt, err := ParseMessageType("3"); err != nil || mt != Ack {
		t.Fatalf("by number: got=%s err=%v", mt, err)
	}
	if _, err := ParseMessageType("8"); err == nil {
		t.Fatalf("expected error for 8")
	}
}
