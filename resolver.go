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
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/meshroute/xdsresolver/attribute"
	"github.com/meshroute/xdsresolver/internal/allocator"
	"github.com/meshroute/xdsresolver/routeconfig"
	"github.com/meshroute/xdsresolver/serializer"
	"github.com/meshroute/xdsresolver/serviceconfig"
	"github.com/meshroute/xdsresolver/xdsclient"
)

// Resolver subscribes to listener discovery for one server name and
// translates each route-configuration update into a service
// configuration for the channel. Create one with [Builder.Build].
//
// All state lives behind the channel's work serializer: Start, Shutdown
// and the watcher callbacks schedule tasks rather than touching state
// directly, so the resolver needs no locks.
type Resolver struct {
	serverName    string
	args          attribute.Values
	receiver      Receiver
	ser           *serializer.Serializer
	clientFactory xdsclient.Factory
	selector      *ConfigSelector
	metrics       *Metrics
	logger        logrus.FieldLogger

	// The fields below are touched only from serializer tasks.
	client  xdsclient.Client
	started bool
	stopped bool
	alloc   allocator.State
}

// ServerName returns the server name parsed from the target URI.
func (r *Resolver) ServerName() string {
	return r.serverName
}

// Start subscribes to discovery. It is a no-op after the first call. A
// synchronous discovery-client construction failure is surfaced once
// through the receiver's error path, after which the resolver stays
// inert until Shutdown.
func (r *Resolver) Start() {
	r.ser.Schedule(r.startTask)
}

func (r *Resolver) startTask() {
	if r.started || r.stopped {
		return
	}
	r.started = true
	client, err := r.clientFactory(xdsclient.Config{
		Serializer: r.ser,
		ServerName: r.serverName,
		Watcher:    &listenerWatcher{resolver: r},
		Args:       r.args,
	})
	if err != nil {
		r.logger.WithError(err).Error("failed to create xds client, channel will remain in transient failure")
		r.receiver.OnError(fmt.Errorf("creating xds client: %w", err))
		return
	}
	r.client = client
}

// Shutdown releases the discovery subscription. Idempotent; watcher
// callbacks arriving afterwards observe the released handle and do
// nothing.
func (r *Resolver) Shutdown() {
	r.ser.Schedule(r.shutdownTask)
}

func (r *Resolver) shutdownTask() {
	r.stopped = true
	if r.client == nil {
		return
	}
	r.logger.Debug("shutting down xds resolver")
	if err := r.client.Close(); err != nil {
		r.logger.WithError(err).Warn("error releasing xds client")
	}
	r.client = nil
}

// onListenerChanged runs on the serializer for each listener update.
func (r *Resolver) onListenerChanged(update routeconfig.ListenerUpdate) {
	if r.client == nil {
		return
	}
	r.logger.Debug("received updated listener data")
	r.metrics.updateReceived()
	r.alloc = allocator.Update(r.alloc, update.RouteConfig.Routes)
	parsed, err := r.buildServiceConfig(update.RouteConfig)
	if err != nil {
		r.onError(err)
		return
	}
	r.logger.WithField("config", parsed.Raw).Debug("generated service config")
	args := attribute.Union(r.args,
		ClientKey.Value(r.client),
		ConfigSelectorKey.Value(r.selector),
	)
	r.receiver.OnResult(Result{Config: parsed, Args: args})
}

func (r *Resolver) buildServiceConfig(update routeconfig.Update) (*serviceconfig.ParsedConfig, error) {
	doc, err := serviceconfig.Build(update, r.alloc.Name)
	if err != nil {
		return nil, err
	}
	data, err := doc.Marshal()
	if err != nil {
		return nil, err
	}
	return serviceconfig.Parse(data)
}

// onError runs on the serializer for discovery errors and for updates
// that failed to translate. The channel treats the result as transient
// and keeps its previous good configuration.
func (r *Resolver) onError(err error) {
	if r.client == nil {
		return
	}
	r.logger.WithError(err).Error("received error")
	r.metrics.errorReceived()
	args := attribute.Union(r.args, ClientKey.Value(r.client))
	r.receiver.OnResult(Result{Err: err, Args: args})
}

// onResourceDoesNotExist runs on the serializer when the control plane
// affirms the watched resource is gone. The empty configuration tells
// the channel to fail calls fast instead of queueing them.
func (r *Resolver) onResourceDoesNotExist() {
	if r.client == nil {
		return
	}
	r.logger.Warn("resource does not exist, returning empty service config")
	r.metrics.resourceNotExist()
	parsed, err := serviceconfig.Parse([]byte(serviceconfig.EmptyDocument))
	if err != nil {
		panic(fmt.Sprintf("empty service config failed to parse: %v", err))
	}
	r.receiver.OnResult(Result{Config: parsed, Args: r.args})
}
