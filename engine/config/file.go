package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/hcfgod/Vortex-sub001/engine/core"
)

// The codec is picked from the file extension. TOML is the engine's
// primary settings format; JSON and YAML ride along for tool output.

func decodeTree(path string, data []byte) (map[string]interface{}, error) {
	tree := make(map[string]interface{})
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, core.WrapError(core.ErrConfigParseError, err, "parsing %s", path)
		}
	case ".json":
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, core.WrapError(core.ErrConfigParseError, err, "parsing %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, core.WrapError(core.ErrConfigParseError, err, "parsing %s", path)
		}
	default:
		return nil, core.NewError(core.ErrConfigParseError, "unsupported configuration format %q", filepath.Ext(path))
	}
	return normalizeTree(tree), nil
}

func encodeTree(path string, tree map[string]interface{}) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Marshal(tree)
	case ".json":
		return json.MarshalIndent(tree, "", "  ")
	case ".yaml", ".yml":
		return yaml.Marshal(tree)
	}
	return nil, core.NewError(core.ErrConfigParseError, "unsupported configuration format %q", filepath.Ext(path))
}

// normalizeTree rewrites codec-specific map shapes into the store's
// canonical map[string]interface{} spine. yaml.v3 in particular yields
// map[string]interface{} already, but nested []interface{} entries can
// still carry maps that need walking.
func normalizeTree(tree map[string]interface{}) map[string]interface{} {
	for key, v := range tree {
		tree[key] = normalizeValue(v)
	}
	return tree
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return normalizeTree(t)
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			if ks, ok := k.(string); ok {
				out[ks] = normalizeValue(item)
			}
		}
		return out
	case []interface{}:
		for i, item := range t {
			t[i] = normalizeValue(item)
		}
		return t
	}
	return v
}

// LoadLayerFromFile parses the file into the named layer in one step.
// With trackForReload the layer joins the ReloadChangedFiles poll set.
func (s *Store) LoadLayerFromFile(path, name string, priority int, trackForReload bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.WrapError(core.ErrFileNotFound, err, "configuration file %s", path)
		}
		return core.WrapError(core.ErrFileAccessDenied, err, "configuration file %s", path)
	}
	tree, err := decodeTree(path, data)
	if err != nil {
		return err
	}
	info, statErr := os.Stat(path)

	s.replaceLayerData(name, priority, tree)

	s.mu.Lock()
	if l, ok := s.byName[name]; ok {
		l.filePath = path
		l.tracked = trackForReload
		if statErr == nil {
			l.modTime = info.ModTime()
		}
	}
	s.mu.Unlock()
	return nil
}

// SaveLayerToFile serializes only the named layer, not the merged view.
func (s *Store) SaveLayerToFile(path, name string) error {
	s.mu.RLock()
	l, ok := s.byName[name]
	var snapshot map[string]interface{}
	if ok {
		snapshot = copyTree(l.data)
	}
	s.mu.RUnlock()
	if !ok {
		return core.WrapError(core.ErrInvalidParameter, errNoSuchLayer, "layer %q", name)
	}

	data, err := encodeTree(path, snapshot)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return core.WrapError(core.ErrFileAccessDenied, err, "creating %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return core.WrapError(core.ErrFileAccessDenied, err, "writing %s", path)
	}
	return nil
}

// ReloadChangedFiles polls the tracked layers' files and reloads any
// whose modification time moved, keeping each layer's priority. Returns
// whether at least one layer was reloaded. A failing file is logged and
// skipped so one bad edit cannot stall the rest.
func (s *Store) ReloadChangedFiles() bool {
	type candidate struct {
		name     string
		path     string
		priority int
		modTime  int64
	}

	s.mu.RLock()
	var tracked []candidate
	for _, l := range s.layers {
		if l.tracked && l.filePath != "" {
			tracked = append(tracked, candidate{
				name:     l.name,
				path:     l.filePath,
				priority: l.priority,
				modTime:  l.modTime.UnixNano(),
			})
		}
	}
	s.mu.RUnlock()

	reloaded := false
	for _, c := range tracked {
		info, err := os.Stat(c.path)
		if err != nil {
			core.LogWarn("configuration poll: cannot stat %s: %v", c.path, err)
			continue
		}
		if info.ModTime().UnixNano() == c.modTime {
			continue
		}
		data, err := os.ReadFile(c.path)
		if err != nil {
			core.LogWarn("configuration poll: cannot read %s: %v", c.path, err)
			continue
		}
		tree, err := decodeTree(c.path, data)
		if err != nil {
			core.LogWarn("configuration poll: %v", err)
			continue
		}

		s.replaceLayerData(c.name, c.priority, tree)
		s.mu.Lock()
		if l, ok := s.byName[c.name]; ok {
			l.filePath = c.path
			l.tracked = true
			l.modTime = info.ModTime()
		}
		s.mu.Unlock()

		core.LogInfo("configuration layer %q reloaded from %s", c.name, c.path)
		reloaded = true
	}
	return reloaded
}
