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

// Receiver state params
const (
	ReceiverStateDataTypeIQ   = 0x80
	ReceiverStateRun          = 0x02
	ReceiverStateIdle         = 0x01
	ReceiverStateFifo16Bit    = 0x01
	ReceiverStateContinuous   = 0x00
	ReceiverStateOneBlock     = 0x01
	ReceiverStateNotSpecified = 0x00
)

// frequencyBytes is how many low bytes of a 64 bit value the device expects
const frequencyBytes = 5

// EncodeUint40 returns the 5 least significant bytes of v little endian
func EncodeUint40(v int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	return buf[:frequencyBytes]
}

// EncodeFrequency returns channel ++ 5 bytes of hz
func EncodeFrequency(hz int64, channel uint8) []byte {
	return append([]byte{channel}, EncodeUint40(hz)...)
}

// EncodeSampleRate returns 5 bytes of rate
func EncodeSampleRate(rate int64) []byte {
	return EncodeUint40(rate)
}

func EncodeRFFilter(filter uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, filter)
	return buf
}

func EncodeADModes(mode uint8) []byte {
	return []byte{0x00, mode}
}

// StartIQParams is IQ data, run, 16 bit FIFO capture, one block
func StartIQParams() []byte {
	return []byte{ReceiverStateDataTypeIQ, ReceiverStateRun, ReceiverStateFifo16Bit, ReceiverStateOneBlock}
}

func StopIQParams() []byte {
	return []byte{ReceiverStateNotSpecified, ReceiverStateIdle, ReceiverStateContinuous, ReceiverStateNotSpecified}
}
