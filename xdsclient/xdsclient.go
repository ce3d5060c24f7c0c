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

// Package xdsclient defines the contract between the resolver and an xDS
// discovery client. The client itself — transport, caching, retry — is an
// external collaborator; the resolver only needs a handle it can release
// and a watcher sink the client delivers typed notifications to.
package xdsclient

import (
	"io"

	"github.com/meshroute/xdsresolver/attribute"
	"github.com/meshroute/xdsresolver/routeconfig"
	"github.com/meshroute/xdsresolver/serializer"
)

// Client is the resolver's handle on a running discovery subscription.
// Close releases the watch; the client must not invoke the watcher after
// Close returns. The resolver holds the only reference.
type Client interface {
	io.Closer
}

// Factory creates a discovery client subscribed per the given config. A
// synchronous error means no subscription was established and the watcher
// will never be called.
type Factory func(Config) (Client, error)

// Config carries the construction parameters for a discovery client.
type Config struct {
	// Serializer is the channel's work serializer. Clients may use it to
	// order their own internal work with the resolver's; watcher
	// notifications may be delivered from any goroutine.
	Serializer *serializer.Serializer

	// ServerName is the listener resource to subscribe to.
	ServerName string

	// InitialAddresses optionally seeds the client with control-plane
	// addresses. May be empty.
	InitialAddresses []string

	// Watcher receives listener notifications for ServerName.
	Watcher ListenerWatcher

	// Args is the channel-argument bundle, passed through for clients
	// that read bootstrap configuration from it.
	Args attribute.Values
}

// ListenerWatcher is the sink for listener-discovery notifications. A
// client delivers each notification at most once per state change, from
// any goroutine, and never after Close.
type ListenerWatcher interface {
	// OnListenerChanged delivers an updated listener resource carrying
	// its route configuration.
	OnListenerChanged(routeconfig.ListenerUpdate)

	// OnError reports a discovery failure (transport error, malformed
	// response). The subscription stays active and the client keeps
	// retrying.
	OnError(error)

	// OnResourceDoesNotExist reports that the control plane affirmed the
	// watched resource is gone.
	OnResourceDoesNotExist()
}
