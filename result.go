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
	"github.com/meshroute/xdsresolver/attribute"
	"github.com/meshroute/xdsresolver/serviceconfig"
	"github.com/meshroute/xdsresolver/xdsclient"
)

// Result is one resolution outcome pushed to the channel. Exactly one of
// Config and Err is set: Config on successful updates and on
// resource-does-not-exist (where it is the empty configuration), Err on
// transient discovery or translation failures.
type Result struct {
	Config *serviceconfig.ParsedConfig
	Err    error

	// Args is the channel-argument bundle: the base arguments augmented
	// with [ClientKey] and [ConfigSelectorKey] on success, with
	// [ClientKey] alone on errors, and with neither when the resource
	// does not exist.
	Args attribute.Values
}

// Receiver is the channel's side of the resolver contract.
type Receiver interface {
	// OnResult accepts a resolution result. Called from the channel's
	// work serializer, zero or more times between Start and Shutdown.
	OnResult(Result)

	// OnError reports that the resolver could not start at all (the
	// discovery client failed to construct). Called at most once; the
	// channel should enter transient failure.
	OnError(error)
}

// ClientKey is the channel-argument key under which successful and
// transient-error results carry the discovery-client handle, so the
// channel's LB policies can share the subscription.
var ClientKey = attribute.NewKey[xdsclient.Client]()

// ConfigSelectorKey is the channel-argument key under which successful
// results carry the call-config selector.
var ConfigSelectorKey = attribute.NewKey[*ConfigSelector]()
