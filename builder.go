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
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/meshroute/xdsresolver/attribute"
	"github.com/meshroute/xdsresolver/serializer"
	"github.com/meshroute/xdsresolver/xdsclient"
)

// Scheme is the URI scheme this resolver serves.
const Scheme = "xds"

// Builder creates resolvers for xds targets. One builder serves any
// number of channels; each Build call produces an independent resolver.
type Builder struct {
	clientFactory xdsclient.Factory
	logger        logrus.FieldLogger
	metrics       *Metrics
}

// NewBuilder returns a builder that connects resolvers to discovery
// clients created by clientFactory.
func NewBuilder(clientFactory xdsclient.Factory, opts ...BuilderOption) *Builder {
	builder := &Builder{clientFactory: clientFactory}
	for _, opt := range opts {
		opt.apply(builder)
	}
	if builder.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		builder.logger = discard
	}
	return builder
}

// BuilderOption configures a Builder.
type BuilderOption interface {
	apply(builder *Builder)
}

// WithLogger configures resolvers to log through the given logger. By
// default nothing is logged.
func WithLogger(logger logrus.FieldLogger) BuilderOption {
	return builderOption(func(builder *Builder) {
		builder.logger = logger
	})
}

// WithMetrics configures resolvers to count notifications on the given
// metrics bundle.
func WithMetrics(metrics *Metrics) BuilderOption {
	return builderOption(func(builder *Builder) {
		builder.metrics = metrics
	})
}

type builderOption func(builder *Builder)

func (o builderOption) apply(builder *Builder) {
	o(builder)
}

// Scheme returns the URI scheme the builder serves, for registration in
// a resolver registry.
func (b *Builder) Scheme() string {
	return Scheme
}

// Build creates a resolver for the given target. The target's authority
// must be empty; its path, with a single leading '/' stripped, is the
// server name to subscribe to. The receiver accepts results, ser is the
// channel's work serializer, and args is the channel-argument bundle
// returned (possibly augmented) with every result.
//
// The returned resolver is inert until Start is called.
func (b *Builder) Build(
	target *url.URL,
	receiver Receiver,
	ser *serializer.Serializer,
	args attribute.Values,
) (*Resolver, error) {
	if target.Scheme != Scheme {
		return nil, fmt.Errorf("xds: unsupported scheme %q", target.Scheme)
	}
	if target.Host != "" {
		return nil, fmt.Errorf("xds: URI authority not supported")
	}
	serverName := strings.TrimPrefix(target.Path, "/")
	resolver := &Resolver{
		serverName:    serverName,
		args:          args,
		receiver:      receiver,
		ser:           ser,
		clientFactory: b.clientFactory,
		selector:      &ConfigSelector{},
		metrics:       b.metrics,
		logger:        b.logger.WithField("server", serverName),
	}
	resolver.logger.Debug("created xds resolver")
	return resolver, nil
}
