package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadAliases reads a user alias file mapping alias names to GitHub
// logins. A missing file returns an empty map so alias lookups degrade to
// identity.
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read alias file: %w", err)
	}

	aliases := map[string]string{}
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("failed to parse alias file %s: %w", path, err)
	}

	return aliases, nil
}

// SaveAliases writes the alias map to path, replacing the previous
// contents.
func SaveAliases(path string, aliases map[string]string) error {
	data, err := yaml.Marshal(aliases)
	if err != nil {
		return fmt.Errorf("failed to encode aliases: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write alias file: %w", err)
	}
	return nil
}

// LookupAlias resolves name through the alias map, returning name itself
// when no alias is defined.
func LookupAlias(aliases map[string]string, name string) string {
	if login, ok := aliases[name]; ok && login != "" {
		return login
	}
	return name
}

// FindAlias looks up a single entry by either side: name can be an alias
// name or a GitHub login. When several aliases map to the same login the
// first in sorted order wins.
func FindAlias(aliases map[string]string, name string) (alias, login string, ok bool) {
	if login, ok := aliases[name]; ok {
		return name, login, true
	}
	for _, alias := range AliasNames(aliases) {
		if aliases[alias] == name {
			return alias, name, true
		}
	}
	return "", "", false
}

// AliasNames returns the alias names in sorted order.
func AliasNames(aliases map[string]string) []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
