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

// Package routeconfig defines the typed route-configuration update that a
// discovery client delivers to the resolver: an ordered list of routes,
// each pairing a match predicate (path matcher, header matchers, optional
// runtime fraction) with an action (a single cluster or a weighted set of
// clusters).
package routeconfig

import "regexp"

// PathMatcherType selects how a route's path predicate is evaluated.
type PathMatcherType int

const (
	// PathPrefix matches any path beginning with the matcher's value.
	PathPrefix PathMatcherType = iota
	// PathExact matches the matcher's value exactly.
	PathExact
	// PathRegex matches paths against a compiled regular expression.
	PathRegex
)

// PathMatcher is a route's path predicate. Value carries the prefix or
// exact path; Regex is set instead when Type is PathRegex.
type PathMatcher struct {
	Type  PathMatcherType
	Value string
	Regex *regexp.Regexp
}

// HeaderMatcherType selects how a header matcher compares the header value.
type HeaderMatcherType int

const (
	// HeaderExact matches the header value exactly.
	HeaderExact HeaderMatcherType = iota
	// HeaderRegex matches the header value against a compiled regular
	// expression.
	HeaderRegex
	// HeaderRange matches when the header value parses as an integer in
	// the half-open interval [RangeStart, RangeEnd).
	HeaderRange
	// HeaderPresent matches on the presence or absence of the header.
	HeaderPresent
	// HeaderPrefix matches header values beginning with Value.
	HeaderPrefix
	// HeaderSuffix matches header values ending with Value.
	HeaderSuffix
)

// HeaderMatcher is a single header predicate within a route match.
type HeaderMatcher struct {
	Name string
	Type HeaderMatcherType

	// Value carries the string for exact, prefix and suffix matchers.
	Value string
	// Regex is set for HeaderRegex matchers.
	Regex *regexp.Regexp
	// RangeStart and RangeEnd bound HeaderRange matchers, [start, end).
	RangeStart int64
	RangeEnd   int64
	// Present is the expected presence for HeaderPresent matchers.
	Present bool

	// Invert negates the match result.
	Invert bool
}

// ClusterWeight names a cluster and its non-negative weight within a
// weighted-cluster action.
type ClusterWeight struct {
	Name   string
	Weight uint32
}

// Route pairs a match predicate with an action. The action is a single
// cluster when WeightedClusters is empty, and a weighted-cluster set
// otherwise.
type Route struct {
	Path    PathMatcher
	Headers []HeaderMatcher

	// Fraction, when set, restricts the route to the given number of
	// parts per million of matching calls.
	Fraction *uint32

	Cluster          string
	WeightedClusters []ClusterWeight
}

// Update is an ordered route list delivered by route discovery.
type Update struct {
	Routes []Route
}

// ListenerUpdate is a listener-discovery update carrying the route
// configuration that applies to the listener.
type ListenerUpdate struct {
	RouteConfig Update
}
