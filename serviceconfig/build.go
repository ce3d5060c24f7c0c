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
	"fmt"

	"github.com/meshroute/xdsresolver/routeconfig"
)

// NameFunc supplies the allocated action name for a weighted-cluster set.
type NameFunc func([]routeconfig.ClusterWeight) string

// Build constructs the service-configuration document for a route update.
// Routes keep their update order; the action table gains one entry per
// distinct action name, keyed "cds:<cluster>" for single-cluster actions
// and "weighted:<name>" for weighted ones, where weightedName supplies
// <name>. A route whose matchers cannot be encoded (an unknown matcher
// type, an uncompiled regex) fails the whole build.
func Build(update routeconfig.Update, weightedName NameFunc) (*Document, error) {
	routing := &RoutingConfig{Routes: make([]Route, 0, len(update.Routes))}
	for i, route := range update.Routes {
		var key string
		if len(route.WeightedClusters) == 0 {
			key = "cds:" + route.Cluster
			if _, ok := routing.Actions.Get(key); !ok {
				routing.Actions.Add(key, clusterAction(route.Cluster))
			}
		} else {
			key = "weighted:" + weightedName(route.WeightedClusters)
			if _, ok := routing.Actions.Get(key); !ok {
				routing.Actions.Add(key, weightedAction(route.WeightedClusters))
			}
		}
		entry, err := buildRoute(route, key)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
		routing.Routes = append(routing.Routes, entry)
	}
	return &Document{LoadBalancingConfig: []LBPolicy{{XDSRouting: routing}}}, nil
}

func clusterAction(cluster string) Action {
	return Action{
		ChildPolicy: []ChildPolicy{{
			CDS: &CDSConfig{Cluster: cluster},
		}},
	}
}

func weightedAction(clusters []routeconfig.ClusterWeight) Action {
	config := &WeightedTargetConfig{}
	for _, clusterWeight := range clusters {
		config.Targets.Add(clusterWeight.Name, Target{
			Weight: clusterWeight.Weight,
			ChildPolicy: []ChildPolicy{{
				CDS: &CDSConfig{Cluster: clusterWeight.Name},
			}},
		})
	}
	return Action{
		ChildPolicy: []ChildPolicy{{
			WeightedTarget: config,
		}},
	}
}

func buildRoute(route routeconfig.Route, action string) (Route, error) {
	entry := Route{Action: action}
	switch route.Path.Type {
	case routeconfig.PathPrefix:
		entry.Prefix = ptr(route.Path.Value)
	case routeconfig.PathExact:
		entry.Path = ptr(route.Path.Value)
	case routeconfig.PathRegex:
		if route.Path.Regex == nil {
			return Route{}, fmt.Errorf("path regex matcher has no compiled regex")
		}
		entry.Regex = ptr(route.Path.Regex.String())
	default:
		return Route{}, fmt.Errorf("unknown path matcher type %d", route.Path.Type)
	}
	for i, header := range route.Headers {
		match, err := buildHeader(header)
		if err != nil {
			return Route{}, fmt.Errorf("header %d: %w", i, err)
		}
		entry.Headers = append(entry.Headers, match)
	}
	if route.Fraction != nil {
		entry.MatchFraction = ptr(*route.Fraction)
	}
	return entry, nil
}

func buildHeader(header routeconfig.HeaderMatcher) (HeaderMatch, error) {
	match := HeaderMatch{Name: header.Name, InvertMatch: header.Invert}
	switch header.Type {
	case routeconfig.HeaderExact:
		match.ExactMatch = ptr(header.Value)
	case routeconfig.HeaderRegex:
		if header.Regex == nil {
			return HeaderMatch{}, fmt.Errorf("regex matcher has no compiled regex")
		}
		match.RegexMatch = ptr(header.Regex.String())
	case routeconfig.HeaderRange:
		match.RangeMatch = &RangeMatch{Start: header.RangeStart, End: header.RangeEnd}
	case routeconfig.HeaderPresent:
		match.PresentMatch = ptr(header.Present)
	case routeconfig.HeaderPrefix:
		match.PrefixMatch = ptr(header.Value)
	case routeconfig.HeaderSuffix:
		match.SuffixMatch = ptr(header.Value)
	default:
		// A matcher with no encodable value would silently match nothing;
		// fail the update instead.
		return HeaderMatch{}, fmt.Errorf("unknown header matcher type %d", header.Type)
	}
	return match, nil
}

func ptr[T any](value T) *T {
	return &value
}
