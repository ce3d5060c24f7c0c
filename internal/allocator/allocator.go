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

// Package allocator assigns stable short names to weighted-cluster actions
// across successive route-configuration updates.
//
// A weighted action is identified by two canonical keys: the cluster-names
// key (unique cluster names, sorted, joined with '_') and the
// cluster-weights key (unique name_weight pairs, sorted, joined with '_').
// The allocated name is "<cluster-names key>_<index>". Keeping that name
// stable while weights shift lets the downstream weighted-target policy
// keep its subtree and its runtime state instead of rebuilding it on every
// refresh.
//
// State is immutable from the caller's point of view: Update consumes the
// previous state and the new route list and produces the state for the new
// update. After Update, the state contains exactly the (names, weights)
// combinations present in that update.
package allocator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/meshroute/xdsresolver/routeconfig"
)

// State is the two-level index map: cluster-names key to names-group, and
// within each group, cluster-weights key to allocated index. The zero
// value is an empty state, ready for the first update.
type State struct {
	groups map[string]*namesGroup
}

type namesGroup struct {
	nextIndex uint64
	weights   map[string]uint64
}

// Keys computes the canonical cluster-names and cluster-weights keys for a
// weighted-cluster action. Duplicate entries collapse; both keys are
// sorted so that input order never affects identity.
func Keys(clusters []routeconfig.ClusterWeight) (namesKey, weightsKey string) {
	names := make([]string, 0, len(clusters))
	weights := make([]string, 0, len(clusters))
	for _, clusterWeight := range clusters {
		names = append(names, clusterWeight.Name)
		weights = append(weights, clusterWeight.Name+"_"+strconv.FormatUint(uint64(clusterWeight.Weight), 10))
	}
	return joinUniqueSorted(names), joinUniqueSorted(weights)
}

func joinUniqueSorted(elems []string) string {
	sort.Strings(elems)
	unique := elems[:0]
	for i, elem := range elems {
		if i == 0 || elem != elems[i-1] {
			unique = append(unique, elem)
		}
	}
	return strings.Join(unique, "_")
}

// Update builds the allocator state for a new update from the previous
// state and the update's route list. Actions whose (names, weights)
// combination already existed keep their index; actions whose weights
// changed within a surviving names group recycle the lowest leftover
// index of that group; everything else gets the group's next fresh index.
// Entries of old not referenced by the new update are dropped. The old
// state is not modified.
func Update(old State, routes []routeconfig.Route) State {
	// Unique weighted actions in this update, weights key to names key.
	toProcess := make(map[string]string)
	for _, route := range routes {
		if len(route.WeightedClusters) == 0 {
			continue
		}
		namesKey, weightsKey := Keys(route.WeightedClusters)
		if _, ok := toProcess[weightsKey]; !ok {
			toProcess[weightsKey] = namesKey
		}
	}

	leftover := old.clone()
	fresh := State{groups: make(map[string]*namesGroup)}

	// Carry forward exact (names, weights) matches, consuming them from
	// the leftover map. A names group seen in both updates keeps its
	// next-index counter even when no weights entry matched.
	for _, weightsKey := range sortedKeys(toProcess) {
		namesKey := toProcess[weightsKey]
		oldGroup, ok := leftover.groups[namesKey]
		if !ok {
			continue
		}
		newGroup := fresh.ensure(namesKey)
		newGroup.nextIndex = oldGroup.nextIndex
		if index, ok := oldGroup.weights[weightsKey]; ok {
			newGroup.weights[weightsKey] = index
			delete(oldGroup.weights, weightsKey)
			delete(toProcess, weightsKey)
		}
	}

	// Remaining actions recycle a leftover index from their names group
	// when one exists, lowest weights key first, and otherwise take the
	// group's next fresh index.
	for _, weightsKey := range sortedKeys(toProcess) {
		namesKey := toProcess[weightsKey]
		newGroup := fresh.ensure(namesKey)
		if oldGroup := leftover.groups[namesKey]; oldGroup != nil && len(oldGroup.weights) > 0 {
			lowest := sortedWeightKeys(oldGroup.weights)[0]
			newGroup.weights[weightsKey] = oldGroup.weights[lowest]
			delete(oldGroup.weights, lowest)
		} else {
			newGroup.weights[weightsKey] = newGroup.nextIndex
			newGroup.nextIndex++
		}
	}

	return fresh
}

// Name returns the allocated name for a weighted-cluster action present in
// the update the state was last built from. Calling it for an action the
// state does not cover is a programming error and panics: Update must run
// before names are retrieved for the same update.
func (s State) Name(clusters []routeconfig.ClusterWeight) string {
	namesKey, weightsKey := Keys(clusters)
	group := s.groups[namesKey]
	if group == nil {
		panic(fmt.Sprintf("allocator: no entry for cluster names %q", namesKey))
	}
	index, ok := group.weights[weightsKey]
	if !ok {
		panic(fmt.Sprintf("allocator: no entry for cluster weights %q", weightsKey))
	}
	return namesKey + "_" + strconv.FormatUint(index, 10)
}

func (s State) clone() State {
	cloned := State{groups: make(map[string]*namesGroup, len(s.groups))}
	for namesKey, group := range s.groups {
		weights := make(map[string]uint64, len(group.weights))
		for weightsKey, index := range group.weights {
			weights[weightsKey] = index
		}
		cloned.groups[namesKey] = &namesGroup{nextIndex: group.nextIndex, weights: weights}
	}
	return cloned
}

func (s State) ensure(namesKey string) *namesGroup {
	group, ok := s.groups[namesKey]
	if !ok {
		group = &namesGroup{weights: make(map[string]uint64)}
		s.groups[namesKey] = group
	}
	return group
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedWeightKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
