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
	"fmt"
)

/*
SetControlItem ReceiverFrequency, channel 0, 14.010 MHz

0000   0a 00 20 00 00 90 c6 d5 00 00

header [0:2]
0a 00        type 0 (bits 13..15), length 10 (bits 0..12)
control item code [2:4]
20 00        0x0020 ReceiverFrequency
params [4:]
00           channel
90 c6 d5 00 00   frequency in Hz, 5 bytes little endian

Data items carry a 2 byte sequence number instead of the control item code.
*/

const (
	// NetSDRLayerNum identifies the layer
	NetSDRLayerNum = 2100
	// HeaderSize is the size of the 16 bit header word
	HeaderSize = 2
	// ControlCodeSize is the size of the control item code following the header
	ControlCodeSize = 2
	// SequenceSize is the size of the sequence number following the header of data items
	SequenceSize = 2
	// MaxMessageSize is the max size of a message including the header.
	// It is encoded as raw length 0 because 8192 does not fit 13 bits.
	MaxMessageSize = 8192
	// MaxBodySize is the max number of bytes that can follow the header
	MaxBodySize = MaxMessageSize - HeaderSize

	lengthMask = 0x1FFF
	typeShift  = 13
)

type MessageType uint8

const (
	SetControlItem     MessageType = 0
	CurrentControlItem MessageType = 1
	ControlItemRange   MessageType = 2
	Ack                MessageType = 3
	DataItem0          MessageType = 4
	DataItem1          MessageType = 5
	DataItem2          MessageType = 6
	DataItem3          MessageType = 7
)

var messageTypeNames = [8]string{
	"SetControlItem",
	"CurrentControlItem",
	"ControlItemRange",
	"Ack",
	"DataItem0",
	"DataItem1",
	"DataItem2",
	"DataItem3",
}

// IsControl reports whether messages of this type carry a control item code.
// All the rest carry a sequence number.
func (t MessageType) IsControl() bool {
	return t < DataItem0
}

func (t MessageType) String() string {
	if int(t) < len(messageTypeNames) {
		return messageTypeNames[t]
	}
	return "UnknownMessageType"
}

// ControlItemCode is read from the wire as a signed 16 bit value
type ControlItemCode int16

const (
	ControlItemNone        ControlItemCode = 0x0000
	ReceiverState          ControlItemCode = 0x0018
	ReceiverFrequency      ControlItemCode = 0x0020
	RFFilter               ControlItemCode = 0x0044
	ADModes                ControlItemCode = 0x008A
	IQOutputDataSampleRate ControlItemCode = 0x00B8
)

// Valid reports whether the code is a member of the known set
func (c ControlItemCode) Valid() bool {
	switch c {
	case ControlItemNone,
		ReceiverState,
		ReceiverFrequency,
		RFFilter,
		ADModes,
		IQOutputDataSampleRate:
		return true
	default:
		return false
	}
}

func (c ControlItemCode) String() string {
	switch c {
	case ControlItemNone:
		return "None"
	case ReceiverState:
		return "ReceiverState"
	case ReceiverFrequency:
		return "ReceiverFrequency"
	case RFFilter:
		return "RFFilter"
	case ADModes:
		return "ADModes"
	case IQOutputDataSampleRate:
		return "IQOutputDataSampleRate"
	default:
		return "UnknownControlItem"
	}
}

// ParseMessageType accepts both names and numeric values
func ParseMessageType(s string) (MessageType, error) {
	for i, name := range messageTypeNames {
		if name == s {
			return MessageType(i), nil
		}
	}
	var t MessageType
	if _, err := fmt.Sscan(s, &t); err != nil || int(t) >= len(messageTypeNames) {
		return 0, ErrUnknownMessageType{What: s}
	}
	return t, nil
}

// ParseControlItemCode accepts both names and numeric values (0x prefixed hex is fine)
func ParseControlItemCode(s string) (ControlItemCode, error) {
	for _, c := range []ControlItemCode{ControlItemNone, ReceiverState, ReceiverFrequency, RFFilter, ADModes, IQOutputDataSampleRate} {
		if c.String() == s {
			return c, nil
		}
	}
	var c ControlItemCode
	if _, err := fmt.Sscan(s, &c); err != nil || !c.Valid() {
		return 0, ErrUnknownControlItem{What: s}
	}
	return c, nil
}
