package ai

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"vehicledetect/internal/logger"
)

// NameSource yields a class-name table, or nil when it has none to offer.
type NameSource func() ([]string, error)

// ResolveNames returns the first non-empty table among sources, falling
// back to COCO.
func ResolveNames(logger *logger.Logger, sources ...NameSource) []string {
	for _, src := range sources {
		if src == nil {
			continue
		}
		names, err := src()
		if err != nil {
			logger.Warning("Skipping class-name source: %v", err)
			continue
		}
		if len(names) > 0 {
			return names
		}
	}
	return COCOClasses
}

// ClassName looks up idx, tolerating tables shorter than the model output.
func ClassName(names []string, idx int) string {
	if idx >= 0 && idx < len(names) && names[idx] != "" {
		return names[idx]
	}
	return fmt.Sprintf("class%d", idx)
}

// FileNames reads a sidecar table; an empty path yields nothing.
func FileNames(path string) NameSource {
	return func() ([]string, error) {
		if path == "" {
			return nil, nil
		}
		return LoadNamesFile(path)
	}
}

// LoadNamesFile understands Ultralytics data YAML (names as list or map),
// JSON model config ({"classes": [...]}) and plain text, one name per line.
func LoadNamesFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLNames(b)
	case ".json":
		var cfg struct {
			Classes []string `json:"classes"`
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg.Classes, nil
	default:
		var names []string
		scanner := bufio.NewScanner(strings.NewReader(string(b)))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				names = append(names, line)
			}
		}
		return names, scanner.Err()
	}
}

func parseYAMLNames(b []byte) ([]string, error) {
	var doc struct {
		Names yaml.Node `yaml:"names"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse names yaml: %w", err)
	}

	switch doc.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := doc.Names.Decode(&names); err != nil {
			return nil, err
		}
		return names, nil
	case yaml.MappingNode:
		var byIndex map[int]string
		if err := doc.Names.Decode(&byIndex); err != nil {
			return nil, err
		}
		return indexedNames(byIndex), nil
	case 0:
		return nil, fmt.Errorf("no names key")
	default:
		return nil, fmt.Errorf("names must be a list or a map")
	}
}

var metadataEntry = regexp.MustCompile(`(\d+)\s*:\s*(?:'([^']*)'|"([^"]*)")`)

// ParseMetadataNames parses the "names" entry the Ultralytics exporter
// stores in ONNX metadata, e.g. {0: 'car', 1: 'truck'}.
func ParseMetadataNames(s string) ([]string, error) {
	matches := metadataEntry.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no class names in %q", s)
	}

	byIndex := make(map[int]string, len(matches))
	for _, m := range matches {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, err
		}
		byIndex[idx] = m[2] + m[3]
	}
	return indexedNames(byIndex), nil
}

func indexedNames(byIndex map[int]string) []string {
	size := 0
	for idx := range byIndex {
		if idx >= size {
			size = idx + 1
		}
	}
	names := make([]string, size)
	for idx, name := range byIndex {
		if idx >= 0 {
			names[idx] = name
		}
	}
	return names
}
