package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadArena reads an arena from a JSON or YAML file. The file may hold the
// bare node list or an object with an "arena" key. Files ending in .yaml or
// .yml are read as YAML, everything else as JSON.
func LoadArena(path string) (Arena, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	arena, err := DecodeArena(data, ext == ".yaml" || ext == ".yml")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return arena, nil
}

// DecodeArena decodes data as a node list or a {"arena": [...]} wrapper.
// YAML input is converted to JSON first so trace payloads are kept the same
// way for both formats.
func DecodeArena(data []byte, isYAML bool) (Arena, error) {
	if isYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding arena: %w", err)
		}
		js, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("decoding arena: %w", err)
		}
		data = js
	}

	var arena Arena
	listErr := json.Unmarshal(data, &arena)
	if listErr == nil {
		return arena, nil
	}
	var wrapped Traces
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding arena: %w", listErr)
	}
	return wrapped.Arena, nil
}
