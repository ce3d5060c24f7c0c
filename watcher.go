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

package xdsresolver

import (
	"github.com/meshroute/xdsresolver/routeconfig"
	"github.com/meshroute/xdsresolver/xdsclient"
)

// listenerWatcher is the sink handed to the discovery client. Callbacks
// arrive on the client's goroutines; each one is re-dispatched as a task
// on the resolver's serializer before any resolver state is touched, in
// arrival order. Tasks scheduled after shutdown find the discovery
// handle released and return immediately.
type listenerWatcher struct {
	resolver *Resolver
}

var _ xdsclient.ListenerWatcher = (*listenerWatcher)(nil)

func (w *listenerWatcher) OnListenerChanged(update routeconfig.ListenerUpdate) {
	resolver := w.resolver
	resolver.ser.Schedule(func() {
		resolver.onListenerChanged(update)
	})
}

func (w *listenerWatcher) OnError(err error) {
	resolver := w.resolver
	resolver.ser.Schedule(func() {
		resolver.onError(err)
	})
}

func (w *listenerWatcher) OnResourceDoesNotExist() {
	resolver := w.resolver
	resolver.ser.Schedule(resolver.onResourceDoesNotExist)
}
