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

// Package xdsresolver resolves "xds" target URIs for an RPC client
// channel. Instead of turning a name into addresses, it subscribes to an
// xDS control plane, translates every route-configuration update into a
// declarative service-configuration document for the channel's
// load-balancing stack, and pushes results to the channel as they arrive.
//
// A channel integrates the resolver through three contracts: a
// [Receiver] it implements to accept results, a [serializer.Serializer]
// it supplies so all resolver work runs single-threaded alongside its
// own, and an [xdsclient.Factory] that connects the resolver to a
// discovery client:
//
//	builder := xdsresolver.NewBuilder(clientFactory)
//	res, err := builder.Build(targetURI, receiver, ser, channelArgs)
//	if err != nil {
//		// bad target URI
//	}
//	res.Start()
//	defer res.Shutdown()
//
// Successful results carry the parsed service configuration and the
// channel arguments augmented with the discovery-client handle
// ([ClientKey]) and the call-config selector ([ConfigSelectorKey]).
// Discovery errors are transient: the channel keeps its previous good
// configuration and the discovery client keeps retrying. A
// resource-does-not-exist notification produces the empty configuration,
// telling the channel to fail calls fast rather than queue them.
//
// Weighted-cluster actions are named so that a name survives weight
// changes for as long as its cluster set keeps appearing in successive
// updates, letting the downstream weighted-target policy reuse its
// subtree state across refreshes.
package xdsresolver
