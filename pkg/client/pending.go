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
	"sync"

	"jinr.ru/greenlab/go-netsdr/pkg/layers"
)

type pendingRequest struct {
	reply   chan *layers.Message
	dropped chan struct{}
}

// pendingSlot holds at most one request waiting for a reply.
// A request leaves the slot exactly once: resolved, dropped or released by its owner.
type pendingSlot struct {
	mu  sync.Mutex
	req *pendingRequest
}

func (s *pendingSlot) register() (*pendingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req != nil {
		return nil, ErrRequestPending
	}
	s.req = &pendingRequest{
		reply:   make(chan *layers.Message, 1),
		dropped: make(chan struct{}),
	}
	return s.req, nil
}

// resolve completes the pending request if any
func (s *pendingSlot) resolve(msg *layers.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req == nil {
		return false
	}
	s.req.reply <- msg
	s.req = nil
	return true
}

// release removes req from the slot if it is still there
func (s *pendingSlot) release(req *pendingRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req == req {
		s.req = nil
	}
}

// drop empties the slot and wakes the waiter without a reply
func (s *pendingSlot) drop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.req == nil {
		return false
	}
	close(s.req.dropped)
	s.req = nil
	return true
}
