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

package client

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotConnected returned by generic requests issued while disconnected
	ErrNotConnected = errors.New("NetSDR session is not connected")
	// ErrDisconnected releases a request that was pending when the session was disconnected
	ErrDisconnected = errors.New("NetSDR session disconnected while waiting for reply")
	// ErrRequestPending means the single request slot is taken
	ErrRequestPending = errors.New("NetSDR request is already pending")
)

// ErrAckTimeout returned when no reply arrives within the configured ack timeout
type ErrAckTimeout struct {
	Timeout time.Duration
}

func (e ErrAckTimeout) Error() string {
	return fmt.Sprintf("No reply from NetSDR device within %s", e.Timeout)
}

type ErrEncode struct {
	What string
	Err  error
}

func (e ErrEncode) Error() string {
	return fmt.Sprintf("Error while encoding %s: %s", e.What, e.Err)
}

func (e ErrEncode) Unwrap() error {
	return e.Err
}
