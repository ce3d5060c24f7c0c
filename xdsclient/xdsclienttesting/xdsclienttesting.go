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

// Package xdsclienttesting contains helpers for tests that need a
// discovery client: a scriptable fake whose notifications the test
// delivers by hand, exactly the way a real client would deliver them.
package xdsclienttesting

import (
	"errors"
	"sync"

	"github.com/meshroute/xdsresolver/routeconfig"
	"github.com/meshroute/xdsresolver/xdsclient"
)

// FakeClient is a scriptable xdsclient.Client. Create one per test with
// NewFakeFactory, then call the Deliver methods to play the control
// plane's part. Notifications after Close are dropped, as the client
// contract requires.
type FakeClient struct {
	// Config is the construction config the resolver passed in.
	Config xdsclient.Config

	mu     sync.Mutex
	closed bool
}

// NewFakeFactory returns a factory that creates a single FakeClient and
// stores it in *out. The factory fails the second time it is invoked:
// one resolver owns one client.
func NewFakeFactory(out **FakeClient) xdsclient.Factory {
	return func(config xdsclient.Config) (xdsclient.Client, error) {
		if *out != nil {
			return nil, errors.New("fake discovery client already created")
		}
		client := &FakeClient{Config: config}
		*out = client
		return client, nil
	}
}

// FailingFactory returns a factory that always fails with err, for
// construction-failure tests.
func FailingFactory(err error) xdsclient.Factory {
	return func(xdsclient.Config) (xdsclient.Client, error) {
		return nil, err
	}
}

// Close releases the subscription. Idempotent.
func (c *FakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (c *FakeClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Deliver invokes the watcher with a listener update built from the
// given route update.
func (c *FakeClient) Deliver(update routeconfig.Update) {
	if watcher := c.watcher(); watcher != nil {
		watcher.OnListenerChanged(routeconfig.ListenerUpdate{RouteConfig: update})
	}
}

// DeliverError invokes the watcher's error callback.
func (c *FakeClient) DeliverError(err error) {
	if watcher := c.watcher(); watcher != nil {
		watcher.OnError(err)
	}
}

// DeliverNotExist invokes the watcher's resource-does-not-exist callback.
func (c *FakeClient) DeliverNotExist() {
	if watcher := c.watcher(); watcher != nil {
		watcher.OnResourceDoesNotExist()
	}
}

func (c *FakeClient) watcher() xdsclient.ListenerWatcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.Config.Watcher
}
