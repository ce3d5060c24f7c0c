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

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts the notifications flowing through resolvers built with
// [WithMetrics]. A nil *Metrics is valid and counts nothing.
type Metrics struct {
	updates  prometheus.Counter
	errors   prometheus.Counter
	notExist prometheus.Counter
}

// NewMetrics creates the counter bundle and registers it on registerer
// (skipped when nil, for tests that only inspect counter values).
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xds_resolver_updates_total",
			Help: "Listener updates received from the discovery client.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xds_resolver_errors_total",
			Help: "Transient discovery and translation errors pushed to the channel.",
		}),
		notExist: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xds_resolver_resource_not_exist_total",
			Help: "Resource-does-not-exist notifications received.",
		}),
	}
	if registerer != nil {
		registerer.MustRegister(metrics.updates, metrics.errors, metrics.notExist)
	}
	return metrics
}

func (m *Metrics) updateReceived() {
	if m != nil {
		m.updates.Inc()
	}
}

func (m *Metrics) errorReceived() {
	if m != nil {
		m.errors.Inc()
	}
}

func (m *Metrics) resourceNotExist() {
	if m != nil {
		m.notExist.Inc()
	}
}
