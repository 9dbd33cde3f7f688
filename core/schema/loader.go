package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSchemaFile reads and validates a single YAML schema definition. When the
// file does not name the schema, the file name without extension is used.
func LoadSchemaFile(path string) (*SchemaDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("YAML parse error in %s: %w", path, err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty YAML in %s", path)
	}

	var def SchemaDefinition
	if err := root.Content[0].Decode(&def); err != nil {
		return nil, fmt.Errorf("unmarshal error in %s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("validation error in %s: %w", path, err)
	}
	return &def, nil
}

// LoadSchemaDir loads every *.yml and *.yaml file in dir, keyed by schema name.
func LoadSchemaDir(dir string) (map[string]*SchemaDefinition, error) {
	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	defs := make(map[string]*SchemaDefinition, len(files))
	for _, path := range files {
		def, err := LoadSchemaFile(path)
		if err != nil {
			return nil, err
		}
		if _, dup := defs[def.Name]; dup {
			return nil, fmt.Errorf("schema '%s' defined more than once (%s)", def.Name, path)
		}
		defs[def.Name] = def
	}
	return defs, nil
}
