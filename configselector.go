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

// ConfigSelector chooses per-call configuration on the channel. The xds
// selector applies no per-call policy yet; it exists so the channel can
// install a selector from the arguments of every successful result and
// swap in a routing selector without an interface change later.
type ConfigSelector struct{}

// CallInfo describes the call a configuration is being selected for.
type CallInfo struct {
	Method string
}

// CallConfig is the per-call configuration applied before dispatch.
type CallConfig struct{}

// SelectConfig returns the configuration for one call.
func (s *ConfigSelector) SelectConfig(CallInfo) CallConfig {
	return CallConfig{}
}
