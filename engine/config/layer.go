package config

import (
	"strings"
	"time"
)

// Layer is one named tree of settings inside a Store. Higher priority
// layers win during merging; layers sharing a priority apply in the
// order they were added.
type Layer struct {
	name     string
	priority int
	seq      uint64
	data     map[string]interface{}

	// Backing file, when loaded with tracking enabled.
	filePath string
	modTime  time.Time
	tracked  bool
}

func (l *Layer) Name() string  { return l.name }
func (l *Layer) Priority() int { return l.priority }

// FilePath returns the backing file, empty for in-memory layers.
func (l *Layer) FilePath() string { return l.filePath }

// splitPath breaks a dotted path into segments, dropping empties so
// "a..b" and ".a.b" resolve the same as "a.b".
func splitPath(path string) []string {
	parts := strings.Split(path, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// lookupTree resolves a dotted path against a nested map.
func lookupTree(tree map[string]interface{}, path string) (interface{}, bool) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil, false
	}
	var current interface{} = tree
	for _, seg := range segments {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// setTree writes value at a dotted path, creating intermediate nodes.
// A non-map node in the way is replaced.
func setTree(tree map[string]interface{}, path string, value interface{}) bool {
	segments := splitPath(path)
	if len(segments) == 0 {
		return false
	}
	node := tree
	for _, seg := range segments[:len(segments)-1] {
		child, ok := node[seg].(map[string]interface{})
		if !ok {
			child = make(map[string]interface{})
			node[seg] = child
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
	return true
}

// mergeTree overlays src onto dst. Maps merge key-wise, scalars and
// arrays overwrite, nils preserve whatever dst already holds.
func mergeTree(dst, src map[string]interface{}) {
	for key, sv := range src {
		if sv == nil {
			continue
		}
		if sm, ok := sv.(map[string]interface{}); ok {
			if dm, ok := dst[key].(map[string]interface{}); ok {
				mergeTree(dm, sm)
				continue
			}
			fresh := make(map[string]interface{}, len(sm))
			mergeTree(fresh, sm)
			dst[key] = fresh
			continue
		}
		dst[key] = sv
	}
}

// copyTree deep-copies the map spine. Leaf values are shared; callers
// treat them as immutable.
func copyTree(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for key, v := range src {
		if m, ok := v.(map[string]interface{}); ok {
			dst[key] = copyTree(m)
			continue
		}
		dst[key] = v
	}
	return dst
}
