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

// Package attribute provides a type-safe container of custom attributes
// named Values. The resolver uses it to model the channel-argument bundle:
// an opaque set of key/value pairs supplied by the channel at construction
// and handed back, possibly augmented with additional handles, on every
// resolution result. Attributes are declared using [NewKey] to create a
// strongly-typed key. The values can then be defined using the key's
// Value method.
//
// The following example declares a custom string-valued argument and
// builds a bundle carrying it:
//
//	var Authority = attribute.NewKey[string]()
//
//	args := attribute.NewValues(Authority.Value("istiod.istio-system"))
//
// Consumers read values back in a type-safe way with [GetValue]. A bundle
// is augmented without mutation using [Union], which is how per-result
// handles (the discovery client, the call-config selector) ride along on
// top of the channel's base arguments.
package attribute

// Values is a collection of type-safe custom attribute values.
// It contains a mapping of [Key] to value for any number of
// attribute keys. The zero value is an empty, usable bundle.
type Values struct {
	data map[any]any
}

// NewValues creates a new Values object with the provided values.
//
// Use this function in tandem with [Key.Value], like this:
//
//	var testKey = attribute.NewKey[string]()
//	...
//	attribute.NewValues(testKey.Value("test"))
func NewValues(values ...Value) Values {
	data := make(map[any]any)
	for _, attr := range values {
		data[attr.key] = attr.value
	}
	return Values{
		data: data,
	}
}

// Union returns a new Values containing everything in base plus the given
// extra values. Extra values win on key collision. Neither base nor its
// backing storage is modified, so a long-lived base bundle can safely be
// augmented once per result.
func Union(base Values, extra ...Value) Values {
	data := make(map[any]any, len(base.data)+len(extra))
	for key, value := range base.data {
		data[key] = value
	}
	for _, attr := range extra {
		data[attr.key] = attr.value
	}
	return Values{
		data: data,
	}
}

// Key is an attribute key. Applications should use NewKey to create
// a new key for each distinct attribute. The type T is the type of
// values this attribute can have.
type Key[T any] struct {
	// can't be empty or else pointers won't be distinct
	_ bool
}

// NewKey returns a new key that can have values of type T. Each call
// to NewKey results in a distinct attribute key, even if multiple are
// created for the same type. (Keys are identified by their address.)
func NewKey[T any]() *Key[T] {
	return new(Key[T])
}

// Value constructs a new attribute value, which can be passed to
// [NewValues] or [Union].
func (k *Key[T]) Value(value T) Value {
	return Value{key: k, value: value}
}

// Value is a single custom attribute, composed of a key and
// corresponding value.
type Value struct {
	key, value any
}

// GetValue retrieves a single value from the given Values. If the key is not
// present, the zero value and false will be returned instead.
func GetValue[T any](values Values, key *Key[T]) (value T, ok bool) {
	val, ok := values.data[key]
	if !ok {
		var zero T
		return zero, false
	}
	tval, ok := val.(T)
	return tval, ok
}
