// Copyright 2024 The meshroute Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package xdsclient

import (
	"time"

	"github.com/meshroute/xdsresolver/internal"
	"github.com/meshroute/xdsresolver/routeconfig"
)

// DefaultWatchExpiryTimeout is how long a fresh watch may stay silent
// before it is treated as a resource that does not exist.
const DefaultWatchExpiryTimeout = 15 * time.Second

// NewWatchExpiry wraps a ListenerWatcher so that a control plane which
// never answers the subscription is reported as resource-does-not-exist
// after the given timeout, rather than leaving the channel waiting
// forever. The first notification of any kind disarms the timer. Clients
// that implement their own expiry do not need this; it is a building
// block for ones that do not.
//
// Stop cancels the timer; call it when the watch is released.
func NewWatchExpiry(watcher ListenerWatcher, timeout time.Duration) *WatchExpiry {
	return newWatchExpiry(watcher, timeout, internal.NewRealClock())
}

func newWatchExpiry(watcher ListenerWatcher, timeout time.Duration, clock internal.Clock) *WatchExpiry {
	if timeout <= 0 {
		timeout = DefaultWatchExpiryTimeout
	}
	expiry := &WatchExpiry{
		watcher: watcher,
		notify:  make(chan struct{}, 1),
		clock:   clock,
	}
	expiry.arm(timeout)
	return expiry
}

// WatchExpiry is a ListenerWatcher decorator imposing a does-not-exist
// deadline on a silent watch. See NewWatchExpiry.
type WatchExpiry struct {
	watcher ListenerWatcher
	notify  chan struct{}
	clock   internal.Clock
	timer   internal.Timer
}

var _ ListenerWatcher = (*WatchExpiry)(nil)

func (e *WatchExpiry) arm(timeout time.Duration) {
	e.timer = e.clock.AfterFunc(timeout, func() {
		select {
		case e.notify <- struct{}{}:
			e.watcher.OnResourceDoesNotExist()
		default:
		}
	})
}

// disarm consumes the notification slot so a pending timer can no longer
// fire, then stops it. Only the first call wins against the timer.
func (e *WatchExpiry) disarm() bool {
	select {
	case e.notify <- struct{}{}:
		e.timer.Stop()
		return true
	default:
		return false
	}
}

// Stop cancels the deadline without forwarding anything. Safe to call
// more than once and after the deadline has fired.
func (e *WatchExpiry) Stop() {
	e.disarm()
}

// OnListenerChanged disarms the deadline and forwards the update.
func (e *WatchExpiry) OnListenerChanged(update routeconfig.ListenerUpdate) {
	e.disarm()
	e.watcher.OnListenerChanged(update)
}

// OnError disarms the deadline and forwards the error. A responsive but
// failing control plane is a transient condition, not a missing resource.
func (e *WatchExpiry) OnError(err error) {
	e.disarm()
	e.watcher.OnError(err)
}

// OnResourceDoesNotExist disarms the deadline and forwards the signal.
func (e *WatchExpiry) OnResourceDoesNotExist() {
	e.disarm()
	e.watcher.OnResourceDoesNotExist()
}
