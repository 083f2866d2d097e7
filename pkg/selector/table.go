package selector

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Table maps symbolic keys (e.g. LOGIN_INPUT) to selectors for one screen
// on one platform.
type Table map[string]Selector

// Lookup returns the selector for key.
func (t Table) Lookup(key string) (Selector, bool) {
	s, ok := t[key]
	return s, ok
}

// Must returns the selector for key. A missing key is a programming error
// in a screen object and panics.
func (t Table) Must(key string) Selector {
	s, ok := t[key]
	if !ok {
		panic(fmt.Sprintf("selector %q is not defined (known: %v)", key, t.Keys()))
	}
	return s
}

// Keys returns the sorted keys of the table.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Tables holds one screen's selectors for every platform.
type Tables struct {
	Android Table
	IOS     Table
}

// For returns the table for p. Screen objects resolve it once on construction.
func (t Tables) For(p Platform) Table {
	if p == IOS {
		return t.IOS
	}
	return t.Android
}

// Catalog maps screen names to their tables.
type Catalog map[string]Tables

// Merge returns a copy of c with every selector in overrides replacing or
// extending the matching entry.
func (c Catalog) Merge(overrides Catalog) Catalog {
	out := make(Catalog, len(c))
	for screen, tables := range c {
		out[screen] = Tables{Android: copyTable(tables.Android), IOS: copyTable(tables.IOS)}
	}
	for screen, tables := range overrides {
		cur := out[screen]
		cur.Android = mergeTable(cur.Android, tables.Android)
		cur.IOS = mergeTable(cur.IOS, tables.IOS)
		out[screen] = cur
	}
	return out
}

func copyTable(t Table) Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func mergeTable(dst, src Table) Table {
	if dst == nil {
		dst = make(Table, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// UnmarshalYAML accepts a single-key mapping such as {id: login} or
// {xpath: "//android.widget.ImageView"}.
func (s *Selector) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("line %d: selector must have exactly one strategy, got %d", value.Line, len(raw))
	}
	for key, v := range raw {
		strategy, ok := strategyKeys[key]
		if !ok {
			return fmt.Errorf("line %d: unknown selector strategy %q", value.Line, key)
		}
		s.Strategy = strategy
		s.Value = v
	}
	return nil
}

// catalogFile is the on-disk layout: platform -> screen -> key -> selector.
type catalogFile struct {
	Android map[string]Table `yaml:"android"`
	IOS     map[string]Table `yaml:"ios"`
}

// ParseCatalog decodes a YAML selector file.
func ParseCatalog(data []byte) (Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse selectors: %w", err)
	}
	c := Catalog{}
	for screen, t := range f.Android {
		cur := c[screen]
		cur.Android = t
		c[screen] = cur
	}
	for screen, t := range f.IOS {
		cur := c[screen]
		cur.IOS = t
		c[screen] = cur
	}
	return c, nil
}
