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
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshroute/xdsresolver/routeconfig"
)

// staticNames resolves weighted actions through a fixed table keyed by the
// cluster names in update order joined with '_', standing in for the
// allocator.
func staticNames(names map[string]string) NameFunc {
	return func(clusters []routeconfig.ClusterWeight) string {
		parts := make([]string, len(clusters))
		for i, clusterWeight := range clusters {
			parts[i] = clusterWeight.Name
		}
		return names[strings.Join(parts, "_")]
	}
}

func buildAndParse(t *testing.T, update routeconfig.Update, names NameFunc) *ParsedConfig {
	t.Helper()
	doc, err := Build(update, names)
	require.NoError(t, err)
	data, err := doc.Marshal()
	require.NoError(t, err)
	parsed, err := Parse(data)
	require.NoError(t, err)
	return parsed
}

func TestBuildSingleClusterRoute(t *testing.T) {
	t.Parallel()

	update := routeconfig.Update{Routes: []routeconfig.Route{{
		Path:    routeconfig.PathMatcher{Type: routeconfig.PathPrefix, Value: "/svc.S/"},
		Cluster: "C",
	}}}
	parsed := buildAndParse(t, update, nil)
	require.NotNil(t, parsed.Routing)

	require.Equal(t, 1, parsed.Routing.Actions.Len())
	action, ok := parsed.Routing.Actions.Get("cds:C")
	require.True(t, ok)
	require.Len(t, action.ChildPolicy, 1)
	require.NotNil(t, action.ChildPolicy[0].CDS)
	assert.Equal(t, "C", action.ChildPolicy[0].CDS.Cluster)

	require.Len(t, parsed.Routing.Routes, 1)
	route := parsed.Routing.Routes[0]
	require.NotNil(t, route.Prefix)
	assert.Equal(t, "/svc.S/", *route.Prefix)
	assert.Nil(t, route.Path)
	assert.Nil(t, route.Regex)
	assert.Nil(t, route.Headers)
	assert.Nil(t, route.MatchFraction)
	assert.Equal(t, "cds:C", route.Action)
}

func TestBuildWeightedClusterRoute(t *testing.T) {
	t.Parallel()

	update := routeconfig.Update{Routes: []routeconfig.Route{{
		Path: routeconfig.PathMatcher{Type: routeconfig.PathExact, Value: "/svc.S/M"},
		WeightedClusters: []routeconfig.ClusterWeight{
			{Name: "A", Weight: 30},
			{Name: "B", Weight: 70},
		},
	}}}
	parsed := buildAndParse(t, update, staticNames(map[string]string{"A_B": "A_B_0"}))
	require.NotNil(t, parsed.Routing)

	action, ok := parsed.Routing.Actions.Get("weighted:A_B_0")
	require.True(t, ok)
	require.Len(t, action.ChildPolicy, 1)
	weighted := action.ChildPolicy[0].WeightedTarget
	require.NotNil(t, weighted)
	assert.Equal(t, []string{"A", "B"}, weighted.Targets.Names())
	targetA, ok := weighted.Targets.Get("A")
	require.True(t, ok)
	assert.Equal(t, uint32(30), targetA.Weight)
	require.Len(t, targetA.ChildPolicy, 1)
	require.NotNil(t, targetA.ChildPolicy[0].CDS)
	assert.Equal(t, "A", targetA.ChildPolicy[0].CDS.Cluster)
	targetB, ok := weighted.Targets.Get("B")
	require.True(t, ok)
	assert.Equal(t, uint32(70), targetB.Weight)

	require.Len(t, parsed.Routing.Routes, 1)
	route := parsed.Routing.Routes[0]
	require.NotNil(t, route.Path)
	assert.Equal(t, "/svc.S/M", *route.Path)
	assert.Equal(t, "weighted:A_B_0", route.Action)
}

func TestBuildPreservesOrderAndPredicates(t *testing.T) {
	t.Parallel()

	update := routeconfig.Update{Routes: []routeconfig.Route{
		{
			Path: routeconfig.PathMatcher{Type: routeconfig.PathPrefix, Value: "/x"},
			Headers: []routeconfig.HeaderMatcher{
				{Name: "k", Type: routeconfig.HeaderExact, Value: "v", Invert: true},
				{Name: "n", Type: routeconfig.HeaderRange, RangeStart: 1, RangeEnd: 10},
			},
			Cluster: "C1",
		},
		{
			Path:     routeconfig.PathMatcher{Type: routeconfig.PathRegex, Regex: regexp.MustCompile("^/y$")},
			Fraction: ptr(uint32(1000000)),
			WeightedClusters: []routeconfig.ClusterWeight{
				{Name: "A", Weight: 1},
				{Name: "B", Weight: 1},
			},
		},
	}}
	parsed := buildAndParse(t, update, staticNames(map[string]string{"A_B": "A_B_0"}))
	require.NotNil(t, parsed.Routing)
	require.Len(t, parsed.Routing.Routes, 2)

	first := parsed.Routing.Routes[0]
	require.NotNil(t, first.Prefix)
	assert.Equal(t, "/x", *first.Prefix)
	require.Len(t, first.Headers, 2)
	require.NotNil(t, first.Headers[0].ExactMatch)
	assert.Equal(t, "v", *first.Headers[0].ExactMatch)
	assert.True(t, first.Headers[0].InvertMatch)
	require.NotNil(t, first.Headers[1].RangeMatch)
	assert.Equal(t, int64(1), first.Headers[1].RangeMatch.Start)
	assert.Equal(t, int64(10), first.Headers[1].RangeMatch.End)
	assert.False(t, first.Headers[1].InvertMatch)
	assert.Equal(t, "cds:C1", first.Action)

	second := parsed.Routing.Routes[1]
	require.NotNil(t, second.Regex)
	assert.Equal(t, "^/y$", *second.Regex)
	require.NotNil(t, second.MatchFraction)
	assert.Equal(t, uint32(1000000), *second.MatchFraction)
	assert.Equal(t, "weighted:A_B_0", second.Action)
}

func TestBuildAllHeaderMatcherKinds(t *testing.T) {
	t.Parallel()

	update := routeconfig.Update{Routes: []routeconfig.Route{{
		Path: routeconfig.PathMatcher{Type: routeconfig.PathPrefix, Value: "/"},
		Headers: []routeconfig.HeaderMatcher{
			{Name: "h1", Type: routeconfig.HeaderExact, Value: "e"},
			{Name: "h2", Type: routeconfig.HeaderRegex, Regex: regexp.MustCompile("^v[0-9]+$")},
			{Name: "h3", Type: routeconfig.HeaderRange, RangeStart: -5, RangeEnd: 5},
			{Name: "h4", Type: routeconfig.HeaderPresent, Present: false},
			{Name: "h5", Type: routeconfig.HeaderPrefix, Value: "p"},
			{Name: "h6", Type: routeconfig.HeaderSuffix, Value: "s"},
		},
		Cluster: "C",
	}}}
	parsed := buildAndParse(t, update, nil)
	require.NotNil(t, parsed.Routing)
	headers := parsed.Routing.Routes[0].Headers
	require.Len(t, headers, 6)
	require.NotNil(t, headers[0].ExactMatch)
	assert.Equal(t, "e", *headers[0].ExactMatch)
	require.NotNil(t, headers[1].RegexMatch)
	assert.Equal(t, "^v[0-9]+$", *headers[1].RegexMatch)
	require.NotNil(t, headers[2].RangeMatch)
	assert.Equal(t, int64(-5), headers[2].RangeMatch.Start)
	require.NotNil(t, headers[3].PresentMatch)
	assert.False(t, *headers[3].PresentMatch)
	require.NotNil(t, headers[4].PrefixMatch)
	assert.Equal(t, "p", *headers[4].PrefixMatch)
	require.NotNil(t, headers[5].SuffixMatch)
	assert.Equal(t, "s", *headers[5].SuffixMatch)
}

func TestBuildDeduplicatesActions(t *testing.T) {
	t.Parallel()

	update := routeconfig.Update{Routes: []routeconfig.Route{
		{Path: routeconfig.PathMatcher{Type: routeconfig.PathPrefix, Value: "/a"}, Cluster: "C"},
		{Path: routeconfig.PathMatcher{Type: routeconfig.PathPrefix, Value: "/b"}, Cluster: "C"},
		{Path: routeconfig.PathMatcher{Type: routeconfig.PathPrefix, Value: "/c"}, Cluster: "D"},
	}}
	parsed := buildAndParse(t, update, nil)
	require.NotNil(t, parsed.Routing)
	assert.Equal(t, []string{"cds:C", "cds:D"}, parsed.Routing.Actions.Names())
	require.Len(t, parsed.Routing.Routes, 3)
	assert.Equal(t, "cds:C", parsed.Routing.Routes[0].Action)
	assert.Equal(t, "cds:C", parsed.Routing.Routes[1].Action)
	assert.Equal(t, "cds:D", parsed.Routing.Routes[2].Action)
}

func TestBuildEmptyUpdate(t *testing.T) {
	t.Parallel()

	doc, err := Build(routeconfig.Update{}, nil)
	require.NoError(t, err)
	data, err := doc.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"loadBalancingConfig":[{"xds_routing_experimental":{"actions":{},"routes":[]}}]}`, string(data))

	parsed, err := Parse(data)
	require.NoError(t, err)
	require.NotNil(t, parsed.Routing)
	assert.Equal(t, 0, parsed.Routing.Actions.Len())
	assert.Empty(t, parsed.Routing.Routes)
}

func TestBuildRejectsUnknownMatcherTypes(t *testing.T) {
	t.Parallel()

	_, err := Build(routeconfig.Update{Routes: []routeconfig.Route{{
		Path:    routeconfig.PathMatcher{Type: routeconfig.PathMatcherType(99)},
		Cluster: "C",
	}}}, nil)
	assert.ErrorContains(t, err, "unknown path matcher type")

	_, err = Build(routeconfig.Update{Routes: []routeconfig.Route{{
		Path:    routeconfig.PathMatcher{Type: routeconfig.PathPrefix, Value: "/"},
		Headers: []routeconfig.HeaderMatcher{{Name: "k", Type: routeconfig.HeaderMatcherType(99)}},
		Cluster: "C",
	}}}, nil)
	assert.ErrorContains(t, err, "unknown header matcher type")
}

func TestMarshalPreservesMemberOrder(t *testing.T) {
	t.Parallel()

	// Weighted targets follow update order even when it is not sorted.
	update := routeconfig.Update{Routes: []routeconfig.Route{
		{
			Path: routeconfig.PathMatcher{Type: routeconfig.PathPrefix, Value: "/w"},
			WeightedClusters: []routeconfig.ClusterWeight{
				{Name: "Z", Weight: 1},
				{Name: "A", Weight: 2},
			},
		},
		{Path: routeconfig.PathMatcher{Type: routeconfig.PathPrefix, Value: "/c"}, Cluster: "C"},
	}}
	doc, err := Build(update, staticNames(map[string]string{"Z_A": "A_Z_0"}))
	require.NoError(t, err)
	data, err := doc.Marshal()
	require.NoError(t, err)
	raw := string(data)

	assert.Less(t, strings.Index(raw, `"Z"`), strings.Index(raw, `"A":`))
	assert.Less(t, strings.Index(raw, `"weighted:A_Z_0"`), strings.Index(raw, `"cds:C"`))

	// Member order survives a parse round trip.
	parsed, err := Parse(data)
	require.NoError(t, err)
	action, ok := parsed.Routing.Actions.Get("weighted:A_Z_0")
	require.True(t, ok)
	assert.Equal(t, []string{"Z", "A"}, action.ChildPolicy[0].WeightedTarget.Targets.Names())
	assert.Equal(t, []string{"weighted:A_Z_0", "cds:C"}, parsed.Routing.Actions.Names())
}

func TestParseEmptyDocument(t *testing.T) {
	t.Parallel()

	parsed, err := Parse([]byte(EmptyDocument))
	require.NoError(t, err)
	assert.True(t, parsed.Empty())
	assert.Equal(t, "{}", parsed.Raw)
}

func TestParseRejectsMalformedDocuments(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
	}{
		{
			name:  "not json",
			input: `{`,
		},
		{
			name:  "unknown policy",
			input: `{"loadBalancingConfig":[{"round_robin":{}}]}`,
		},
		{
			name:  "undefined action",
			input: `{"loadBalancingConfig":[{"xds_routing_experimental":{"actions":{},"routes":[{"prefix":"/","action":"cds:C"}]}}]}`,
		},
		{
			name:  "two path predicates",
			input: `{"loadBalancingConfig":[{"xds_routing_experimental":{"actions":{"cds:C":{"childPolicy":[{"cds_experimental":{"cluster":"C"}}]}},"routes":[{"prefix":"/","path":"/m","action":"cds:C"}]}}]}`,
		},
		{
			name:  "header with two kinds",
			input: `{"loadBalancingConfig":[{"xds_routing_experimental":{"actions":{"cds:C":{"childPolicy":[{"cds_experimental":{"cluster":"C"}}]}},"routes":[{"prefix":"/","headers":[{"name":"k","exact_match":"v","prefix_match":"p"}],"action":"cds:C"}]}}]}`,
		},
		{
			name:  "action without child policy",
			input: `{"loadBalancingConfig":[{"xds_routing_experimental":{"actions":{"cds:C":{"childPolicy":[]}},"routes":[]}}]}`,
		},
		{
			name:  "weighted target without targets",
			input: `{"loadBalancingConfig":[{"xds_routing_experimental":{"actions":{"weighted:W":{"childPolicy":[{"weighted_target_experimental":{"targets":{}}}]}},"routes":[]}}]}`,
		},
		{
			name:  "trailing data",
			input: `{} {}`,
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(testCase.input))
			assert.Error(t, err)
		})
	}
}
