package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pack is a named policy fragment dropped into the packs directory, e.g. a
// team's extra toolchain ("cargo", "go") or a stricter deny list.
type Pack struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	PackVersion string              `yaml:"version"`
	Allow       map[string][]string `yaml:"allow"`
	Deny        []string            `yaml:"deny"`
	Extensions  []string            `yaml:"extensions"`
}

// PackInfo is a summary of a pack for listing.
type PackInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Enabled     bool   `json:"enabled"`
	Path        string `json:"path"`
	Commands    int    `json:"commands"`
	Error       string `json:"error,omitempty"`
}

// LoadPacks reads every .yaml file in packsDir and merges the enabled ones
// into a copy of base. Files whose name starts with an underscore are listed
// but not applied. The base policy is never mutated.
func LoadPacks(packsDir string, base *Policy) (*Policy, []PackInfo, error) {
	entries, err := os.ReadDir(packsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil, nil
		}
		return nil, nil, err
	}

	result := clonePolicy(base)
	var infos []PackInfo

	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}

		path := filepath.Join(packsDir, entry.Name())
		baseName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		enabled := !strings.HasPrefix(baseName, "_")

		pack, err := loadPack(path)
		if err != nil {
			infos = append(infos, PackInfo{Name: baseName, Enabled: false, Path: path, Error: err.Error()})
			continue
		}

		info := PackInfo{
			Name:        pack.Name,
			Description: pack.Description,
			Version:     pack.PackVersion,
			Enabled:     enabled,
			Path:        path,
			Commands:    len(pack.Allow),
		}
		if info.Name == "" {
			info.Name = baseName
		}
		infos = append(infos, info)

		if enabled {
			merge(result, &Policy{Allow: pack.Allow, Deny: pack.Deny, Extensions: pack.Extensions})
		}
	}

	return result, infos, nil
}

func loadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack %s: %w", path, err)
	}
	return &pack, nil
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
