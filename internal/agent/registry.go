package agent

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps canonical tool names and their aliases to tool specs.
// Lookup is case-insensitive. A Registry is populated once at startup and
// read-only afterwards, so it needs no locking.
type Registry struct {
	specs   map[string]*ToolSpec // canonical lower-case name -> spec
	aliases map[string]string    // lower-case alias -> canonical lower-case name
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		specs:   make(map[string]*ToolSpec),
		aliases: make(map[string]string),
	}
}

// Register adds a tool. Registering a duplicate canonical name, or an alias
// that is already taken by another tool, is a configuration error and fails
// the whole registration.
func (r *Registry) Register(spec ToolSpec) error {
	name := strings.ToLower(strings.TrimSpace(spec.Name))
	if name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if spec.Fn == nil {
		return fmt.Errorf("tool %q has no callable", spec.Name)
	}
	if _, exists := r.specs[name]; exists {
		return fmt.Errorf("tool %q already registered", spec.Name)
	}
	if owner, exists := r.aliases[name]; exists {
		return fmt.Errorf("tool name %q collides with an alias of %q", spec.Name, owner)
	}

	// Validate aliases before mutating anything so a failed Register leaves
	// the registry untouched.
	seen := make(map[string]bool, len(spec.Aliases))
	for _, alias := range spec.Aliases {
		a := strings.ToLower(strings.TrimSpace(alias))
		if a == "" {
			return fmt.Errorf("tool %q declares an empty alias", spec.Name)
		}
		if seen[a] {
			return fmt.Errorf("tool %q declares alias %q twice", spec.Name, alias)
		}
		seen[a] = true
		if owner, exists := r.aliases[a]; exists && owner != name {
			return fmt.Errorf("alias %q already maps to tool %q", alias, owner)
		}
		if _, exists := r.specs[a]; exists {
			return fmt.Errorf("alias %q collides with tool %q", alias, a)
		}
	}

	copied := spec
	copied.Name = name
	r.specs[name] = &copied
	for a := range seen {
		r.aliases[a] = name
	}
	return nil
}

// Resolve looks up a tool by canonical name or alias, case-insensitively.
func (r *Registry) Resolve(name string) (*ToolSpec, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if spec, ok := r.specs[n]; ok {
		return spec, true
	}
	if canonical, ok := r.aliases[n]; ok {
		return r.specs[canonical], true
	}
	return nil, false
}

// Names returns the canonical tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
