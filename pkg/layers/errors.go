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
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange matches every argument range error of this package with errors.Is
	ErrOutOfRange = errors.New("value out of range")
	// ErrTruncated returned when there are not enough bytes to decode a message
	ErrTruncated = errors.New("NetSDR message too short")
)

// ErrBodyLength returned when a message body does not fit the 13 bit length field
type ErrBodyLength struct {
	Length int
}

func (e ErrBodyLength) Error() string {
	return fmt.Sprintf("NetSDR body length %d out of range [0, %d]", e.Length, MaxBodySize)
}

func (e ErrBodyLength) Is(target error) bool {
	return target == ErrOutOfRange
}

// ErrMessageTypeRange returned when a message type does not fit the 3 bit type field
type ErrMessageTypeRange struct {
	Type MessageType
}

func (e ErrMessageTypeRange) Error() string {
	return fmt.Sprintf("NetSDR message type %d out of range [%d, %d]", uint8(e.Type), SetControlItem, DataItem3)
}

func (e ErrMessageTypeRange) Is(target error) bool {
	return target == ErrOutOfRange
}

// ErrSampleWidth returned when the sample width is not 1, 2, 3 or 4 bytes
type ErrSampleWidth struct {
	Width int
}

func (e ErrSampleWidth) Error() string {
	return fmt.Sprintf("Sample width %d out of range [%d, %d]", e.Width, MinSampleWidth, MaxSampleWidth)
}

func (e ErrSampleWidth) Is(target error) bool {
	return target == ErrOutOfRange
}

type ErrUnknownControlItem struct {
	What string
}

func (e ErrUnknownControlItem) Error() string {
	return fmt.Sprintf("Unknown control item: %s", e.What)
}

type ErrUnknownMessageType struct {
	What string
}

func (e ErrUnknownMessageType) Error() string {
	return fmt.Sprintf("Unknown message type: %s", e.What)
}
