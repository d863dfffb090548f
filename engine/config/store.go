package config

import (
	"errors"
	"sort"
	"sync"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// Runtime overrides live in a dedicated high-priority layer that Set
// creates on demand.
const (
	RuntimeOverridesLayer    = "RuntimeOverrides"
	RuntimeOverridesPriority = 1000
)

// Store holds layered configuration trees and a merged view rebuilt on
// every mutation. Reads take the shared side of the lock and see either
// the old or the new merge, never a partial one. File IO always happens
// outside the lock.
type Store struct {
	mu      sync.RWMutex
	layers  []*Layer
	byName  map[string]*Layer
	merged  map[string]interface{}
	nextSeq uint64
}

func NewStore() *Store {
	return &Store{
		byName: make(map[string]*Layer),
		merged: make(map[string]interface{}),
	}
}

// AddOrReplaceLayer creates an empty layer or repositions an existing
// one, keeping its data. Returns whether the layer was newly created.
func (s *Store) AddOrReplaceLayer(name string, priority int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.byName[name]; ok {
		if l.priority != priority {
			l.priority = priority
			s.sortLayersLocked()
			s.rebuildMergedLocked()
		}
		return false
	}
	s.addLayerLocked(name, priority, make(map[string]interface{}))
	return true
}

// RemoveLayer drops the named layer. Unknown names return false.
func (s *Store) RemoveLayer(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.byName[name]
	if !ok {
		return false
	}
	delete(s.byName, name)
	for i := range s.layers {
		if s.layers[i] == l {
			s.layers = append(s.layers[:i:i], s.layers[i+1:]...)
			break
		}
	}
	s.rebuildMergedLocked()
	return true
}

// Clear drops every layer.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = nil
	s.byName = make(map[string]*Layer)
	s.merged = make(map[string]interface{})
}

// LayerNames returns layer names in merge order, lowest priority first.
func (s *Store) LayerNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.layers))
	for i, l := range s.layers {
		names[i] = l.name
	}
	return names
}

// Get resolves a dotted path against the merged view.
func (s *Store) Get(path string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookupTree(s.merged, path)
}

// GetOr resolves a dotted path, falling back to def when missing.
func (s *Store) GetOr(path string, def interface{}) interface{} {
	if v, ok := s.Get(path); ok {
		return v
	}
	return def
}

// GetAs resolves a dotted path to a T, coercing between numeric types
// parsed from different file formats. Missing or incompatible values
// return def.
func GetAs[T any](s *Store, path string, def T) T {
	v, ok := s.Get(path)
	if !ok {
		return def
	}
	if t, ok := v.(T); ok {
		return t
	}
	if t, ok := coerce[T](v); ok {
		return t
	}
	return def
}

// Set writes into the RuntimeOverrides layer, creating it on first use.
func (s *Store) Set(path string, value interface{}) error {
	return s.SetInLayer(RuntimeOverridesLayer, RuntimeOverridesPriority, path, value)
}

// SetInLayer writes into the named layer, creating it with the given
// priority when missing. Intermediate nodes are created as needed.
func (s *Store) SetInLayer(layerName string, priority int, path string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.byName[layerName]
	if !ok {
		l = s.addLayerLocked(layerName, priority, make(map[string]interface{}))
	}
	if !setTree(l.data, path, value) {
		return core.NewError(core.ErrInvalidParameter, "empty configuration path")
	}
	s.rebuildMergedLocked()
	return nil
}

// replaceLayerData swaps the whole tree of a layer in one step. Used by
// file loads so a parse error never leaves a half-applied layer behind.
func (s *Store) replaceLayerData(name string, priority int, data map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.byName[name]; ok {
		l.data = data
		if l.priority != priority {
			l.priority = priority
			s.sortLayersLocked()
		}
	} else {
		s.addLayerLocked(name, priority, data)
		return
	}
	s.rebuildMergedLocked()
}

// MergedSnapshot returns a deep copy of the merged view, for diffing
// before and after a reload.
func (s *Store) MergedSnapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTree(s.merged)
}

func (s *Store) addLayerLocked(name string, priority int, data map[string]interface{}) *Layer {
	s.nextSeq++
	l := &Layer{name: name, priority: priority, seq: s.nextSeq, data: data}
	s.layers = append(s.layers, l)
	s.byName[name] = l
	s.sortLayersLocked()
	s.rebuildMergedLocked()
	return l
}

func (s *Store) sortLayersLocked() {
	sort.SliceStable(s.layers, func(i, j int) bool {
		if s.layers[i].priority != s.layers[j].priority {
			return s.layers[i].priority < s.layers[j].priority
		}
		return s.layers[i].seq < s.layers[j].seq
	})
}

func (s *Store) rebuildMergedLocked() {
	merged := make(map[string]interface{})
	for _, l := range s.layers {
		mergeTree(merged, l.data)
	}
	s.merged = merged
}

// coerce bridges the numeric representations the file codecs produce
// (TOML int64, JSON float64, YAML int) onto the requested Go type.
func coerce[T any](v interface{}) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case int:
		if f, ok := toFloat64(v); ok {
			return any(int(f)).(T), true
		}
	case int32:
		if f, ok := toFloat64(v); ok {
			return any(int32(f)).(T), true
		}
	case int64:
		if f, ok := toFloat64(v); ok {
			return any(int64(f)).(T), true
		}
	case uint32:
		if f, ok := toFloat64(v); ok && f >= 0 {
			return any(uint32(f)).(T), true
		}
	case uint64:
		if f, ok := toFloat64(v); ok && f >= 0 {
			return any(uint64(f)).(T), true
		}
	case float32:
		if f, ok := toFloat64(v); ok {
			return any(float32(f)).(T), true
		}
	case float64:
		if f, ok := toFloat64(v); ok {
			return any(f).(T), true
		}
	case []string:
		if ss, ok := toStringSlice(v); ok {
			return any(ss).(T), true
		}
	}
	return zero, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toStringSlice(v interface{}) ([]string, bool) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

var errNoSuchLayer = errors.New("no such layer")
