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

package serviceconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EmptyDocument is the service configuration sent when the watched
// resource does not exist. It always parses.
const EmptyDocument = "{}"

// ParsedConfig is a validated service-configuration document together
// with its serialized form. Routing is nil for the empty document.
type ParsedConfig struct {
	Raw     string
	Routing *RoutingConfig
}

// Empty reports whether the config is the empty document.
func (c *ParsedConfig) Empty() bool {
	return c.Routing == nil
}

// Parse decodes and validates a service-configuration document. The empty
// document {} is valid and yields a ParsedConfig with no routing policy.
// Anything else must carry an xds_routing_experimental policy whose routes
// all reference defined actions and carry exactly one predicate of each
// required kind.
func Parse(data []byte) (*ParsedConfig, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("service config: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("service config: trailing data after document")
	}
	if len(doc.LoadBalancingConfig) == 0 {
		return &ParsedConfig{Raw: string(data)}, nil
	}
	var routing *RoutingConfig
	for _, policy := range doc.LoadBalancingConfig {
		if policy.XDSRouting != nil {
			routing = policy.XDSRouting
			break
		}
	}
	if routing == nil {
		return nil, fmt.Errorf("service config: no supported load-balancing policy")
	}
	if err := validateRouting(routing); err != nil {
		return nil, fmt.Errorf("service config: %w", err)
	}
	return &ParsedConfig{Raw: string(data), Routing: routing}, nil
}

func validateRouting(routing *RoutingConfig) error {
	for _, name := range routing.Actions.Names() {
		action, _ := routing.Actions.Get(name)
		if err := validateAction(action); err != nil {
			return fmt.Errorf("action %q: %w", name, err)
		}
	}
	for i, route := range routing.Routes {
		if err := validateRoute(route, routing.Actions); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
	}
	return nil
}

func validateAction(action Action) error {
	if len(action.ChildPolicy) == 0 {
		return fmt.Errorf("no child policy")
	}
	for _, policy := range action.ChildPolicy {
		if err := validateChildPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}

func validateChildPolicy(policy ChildPolicy) error {
	switch {
	case policy.CDS != nil && policy.WeightedTarget == nil:
		if policy.CDS.Cluster == "" {
			return fmt.Errorf("cds policy has no cluster")
		}
	case policy.WeightedTarget != nil && policy.CDS == nil:
		targets := policy.WeightedTarget.Targets
		if targets.Len() == 0 {
			return fmt.Errorf("weighted-target policy has no targets")
		}
		for _, name := range targets.Names() {
			target, _ := targets.Get(name)
			if len(target.ChildPolicy) == 0 {
				return fmt.Errorf("target %q has no child policy", name)
			}
			for _, child := range target.ChildPolicy {
				if err := validateChildPolicy(child); err != nil {
					return fmt.Errorf("target %q: %w", name, err)
				}
			}
		}
	default:
		return fmt.Errorf("want exactly one child policy type")
	}
	return nil
}

func validateRoute(route Route, actions Actions) error {
	predicates := 0
	for _, predicate := range []*string{route.Prefix, route.Path, route.Regex} {
		if predicate != nil {
			predicates++
		}
	}
	if predicates != 1 {
		return fmt.Errorf("want exactly one path predicate, got %d", predicates)
	}
	for i, header := range route.Headers {
		if err := validateHeader(header); err != nil {
			return fmt.Errorf("header %d: %w", i, err)
		}
	}
	if route.Action == "" {
		return fmt.Errorf("missing action")
	}
	if _, ok := actions.Get(route.Action); !ok {
		return fmt.Errorf("action %q not defined", route.Action)
	}
	return nil
}

func validateHeader(header HeaderMatch) error {
	if header.Name == "" {
		return fmt.Errorf("missing name")
	}
	kinds := 0
	if header.ExactMatch != nil {
		kinds++
	}
	if header.RegexMatch != nil {
		kinds++
	}
	if header.RangeMatch != nil {
		kinds++
	}
	if header.PresentMatch != nil {
		kinds++
	}
	if header.PrefixMatch != nil {
		kinds++
	}
	if header.SuffixMatch != nil {
		kinds++
	}
	if kinds != 1 {
		return fmt.Errorf("want exactly one match kind, got %d", kinds)
	}
	return nil
}
