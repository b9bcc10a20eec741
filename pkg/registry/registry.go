// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry maps capability names to executable implementations.
package registry

import (
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/jllopis/agentcore/pkg/core"
	"github.com/jllopis/agentcore/pkg/errors"
)

// Registry stores capabilities by name. Reads may run concurrently;
// registration is mutually exclusive with reads.
type Registry struct {
	mu    sync.RWMutex
	items map[string]core.Descriptor
}

// New creates a registry and registers the given capabilities.
func New(capabilities ...core.Capability) (*Registry, error) {
	r := &Registry{items: make(map[string]core.Descriptor)}
	for _, c := range capabilities {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNew is New that panics on an invalid capability. Intended for process setup.
func MustNew(capabilities ...core.Capability) *Registry {
	r, err := New(capabilities...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds or replaces the entry for c.Name(). The last registration wins.
func (r *Registry) Register(c core.Capability) error {
	if err := validate(c); err != nil {
		return err
	}
	desc := core.Describe(c)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[desc.Name] = desc
	return nil
}

// Resolve returns the capability registered under name.
func (r *Registry) Resolve(name string) (core.Capability, error) {
	r.mu.RLock()
	desc, ok := r.items[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.CodeCapabilityNotFound, "capability %q not found", name).
			WithContext("capability", name)
	}
	return desc.Capability, nil
}

// List returns descriptors sorted by name. With names, only those entries are returned;
// unknown names are skipped.
func (r *Registry) List(names ...string) []core.Descriptor {
	wanted := nameSet(names)

	r.mu.RLock()
	out := make([]core.Descriptor, 0, len(r.items))
	for name, desc := range r.items {
		if wanted != nil && !wanted[name] {
			continue
		}
		out = append(out, desc)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Missing returns the names that have no registered capability.
func (r *Registry) Missing(names ...string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var missing []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := r.items[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Len returns the number of registered capabilities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func nameSet(names []string) map[string]bool {
	var set map[string]bool
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if set == nil {
			set = make(map[string]bool, len(names))
		}
		set[name] = true
	}
	return set
}

func validate(c core.Capability) error {
	if isNil(c) {
		return errors.New(errors.CodeInvalidInput, "capability is nil", nil)
	}
	name := c.Name()
	if strings.TrimSpace(name) == "" || name != strings.TrimSpace(name) {
		return errors.Newf(errors.CodeInvalidInput, "capability name %q is invalid", name)
	}
	if t := c.InputSchema().Type; t != "" && t != "object" {
		return errors.Newf(errors.CodeInvalidInput, "capability %q: input schema type must be object, got %q", name, t)
	}
	return nil
}

// isNil also catches typed nil pointers stored in the interface.
func isNil(c core.Capability) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.Chan:
		return v.IsNil()
	}
	return false
}
