package types

import (
	"fmt"
	"strings"
)

// ToolSpec identifies a tool by author, name, and version.
// It is immutable and only used to derive storage paths.
type ToolSpec struct {
	Author  string
	Name    string
	Version string
}

// ParseToolSpec parses a spec string in the form "author/name@version".
func ParseToolSpec(s string) (ToolSpec, error) {
	idPart, version, ok := strings.Cut(s, "@")
	if !ok || version == "" {
		return ToolSpec{}, fmt.Errorf("invalid tool spec %q: missing version", s)
	}

	author, name, ok := strings.Cut(idPart, "/")
	if !ok {
		return ToolSpec{}, fmt.Errorf("invalid tool spec %q: expected author/name@version", s)
	}

	spec := ToolSpec{Author: author, Name: name, Version: version}
	if err := spec.Validate(); err != nil {
		return ToolSpec{}, err
	}
	return spec, nil
}

// Validate checks that all spec components are non-empty and
// free of path separators, since they become directory names.
func (s ToolSpec) Validate() error {
	for _, part := range []struct {
		field, value string
	}{
		{"author", s.Author},
		{"name", s.Name},
		{"version", s.Version},
	} {
		if part.value == "" {
			return fmt.Errorf("invalid tool spec: empty %s", part.field)
		}
		if strings.ContainsAny(part.value, `/\`) {
			return fmt.Errorf("invalid tool spec: %s %q contains a path separator", part.field, part.value)
		}
	}
	return nil
}

// String returns the canonical "author/name@version" form.
func (s ToolSpec) String() string {
	return fmt.Sprintf("%s/%s@%s", s.Author, s.Name, s.Version)
}

// Alias returns the alias under which this tool is linked.
func (s ToolSpec) Alias() ToolAlias {
	return ToolAlias{Name: s.Name}
}

// ToolAlias is a named entry point in the bin directory that dispatches
// to a managed tool through the manager binary.
type ToolAlias struct {
	Name string
}

// ParseToolAlias validates and wraps an alias name.
func ParseToolAlias(name string) (ToolAlias, error) {
	alias := ToolAlias{Name: name}
	if err := alias.Validate(); err != nil {
		return ToolAlias{}, err
	}
	return alias, nil
}

// Validate checks that the alias is usable as a file name.
func (a ToolAlias) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("invalid tool alias: empty name")
	}
	if strings.ContainsAny(a.Name, `/\`) {
		return fmt.Errorf("invalid tool alias %q: contains a path separator", a.Name)
	}
	return nil
}

func (a ToolAlias) String() string {
	return a.Name
}
