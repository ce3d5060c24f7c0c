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

package routeconfig

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// The JSON wire form accepted here is a development-time convenience for
// tools and test fixtures; discovery clients construct updates directly.
//
//	{"routes":[
//	  {"prefix":"/svc/", "headers":[{"name":"k","exact":"v","invert":true}],
//	   "fraction":1000, "cluster":"C"},
//	  {"regex":"^/y$", "weightedClusters":[{"name":"A","weight":1}]}
//	]}

type updateJSON struct {
	Routes []routeJSON `json:"routes"`
}

type routeJSON struct {
	Prefix *string `json:"prefix"`
	Path   *string `json:"path"`
	Regex  *string `json:"regex"`

	Headers  []headerJSON `json:"headers"`
	Fraction *uint32      `json:"fraction"`

	Cluster          string          `json:"cluster"`
	WeightedClusters []ClusterWeight `json:"weightedClusters"`
}

type headerJSON struct {
	Name    string     `json:"name"`
	Exact   *string    `json:"exact"`
	Regex   *string    `json:"regex"`
	Range   *rangeJSON `json:"range"`
	Present *bool      `json:"present"`
	Prefix  *string    `json:"prefix"`
	Suffix  *string    `json:"suffix"`
	Invert  bool       `json:"invert"`
}

type rangeJSON struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// ParseJSON decodes the JSON wire form of a route update, compiling regex
// matchers and validating that each route and header matcher carries
// exactly one predicate kind.
func ParseJSON(data []byte) (Update, error) {
	var wire updateJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return Update{}, fmt.Errorf("decoding route update: %w", err)
	}
	update := Update{Routes: make([]Route, 0, len(wire.Routes))}
	for i, wireRoute := range wire.Routes {
		route, err := wireRoute.toRoute()
		if err != nil {
			return Update{}, fmt.Errorf("route %d: %w", i, err)
		}
		update.Routes = append(update.Routes, route)
	}
	return update, nil
}

func (r routeJSON) toRoute() (Route, error) {
	var route Route
	switch {
	case r.Prefix != nil && r.Path == nil && r.Regex == nil:
		route.Path = PathMatcher{Type: PathPrefix, Value: *r.Prefix}
	case r.Path != nil && r.Prefix == nil && r.Regex == nil:
		route.Path = PathMatcher{Type: PathExact, Value: *r.Path}
	case r.Regex != nil && r.Prefix == nil && r.Path == nil:
		compiled, err := regexp.Compile(*r.Regex)
		if err != nil {
			return Route{}, fmt.Errorf("path regex: %w", err)
		}
		route.Path = PathMatcher{Type: PathRegex, Regex: compiled}
	default:
		return Route{}, fmt.Errorf(`want exactly one of "prefix", "path", "regex"`)
	}
	for i, wireHeader := range r.Headers {
		header, err := wireHeader.toHeaderMatcher()
		if err != nil {
			return Route{}, fmt.Errorf("header %d: %w", i, err)
		}
		route.Headers = append(route.Headers, header)
	}
	route.Fraction = r.Fraction
	switch {
	case r.Cluster != "" && len(r.WeightedClusters) == 0:
		route.Cluster = r.Cluster
	case r.Cluster == "" && len(r.WeightedClusters) > 0:
		route.WeightedClusters = r.WeightedClusters
	default:
		return Route{}, fmt.Errorf(`want exactly one of "cluster", "weightedClusters"`)
	}
	return route, nil
}

func (h headerJSON) toHeaderMatcher() (HeaderMatcher, error) {
	if h.Name == "" {
		return HeaderMatcher{}, fmt.Errorf(`missing "name"`)
	}
	matcher := HeaderMatcher{Name: h.Name, Invert: h.Invert}
	kinds := 0
	if h.Exact != nil {
		matcher.Type, matcher.Value = HeaderExact, *h.Exact
		kinds++
	}
	if h.Regex != nil {
		compiled, err := regexp.Compile(*h.Regex)
		if err != nil {
			return HeaderMatcher{}, fmt.Errorf("regex: %w", err)
		}
		matcher.Type, matcher.Regex = HeaderRegex, compiled
		kinds++
	}
	if h.Range != nil {
		matcher.Type = HeaderRange
		matcher.RangeStart, matcher.RangeEnd = h.Range.Start, h.Range.End
		kinds++
	}
	if h.Present != nil {
		matcher.Type, matcher.Present = HeaderPresent, *h.Present
		kinds++
	}
	if h.Prefix != nil {
		matcher.Type, matcher.Value = HeaderPrefix, *h.Prefix
		kinds++
	}
	if h.Suffix != nil {
		matcher.Type, matcher.Value = HeaderSuffix, *h.Suffix
		kinds++
	}
	if kinds != 1 {
		return HeaderMatcher{}, fmt.Errorf(`want exactly one of "exact", "regex", "range", "present", "prefix", "suffix"`)
	}
	return matcher, nil
}
