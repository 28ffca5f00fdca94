package modules

import (
	"fmt"
	"slices"

	"github.com/Masterminds/semver/v3"
)

// VersionExport is the export a module uses to report its version.
const VersionExport = "version"

// Info describes how to load a module.
type Info struct {
	// Path locates the module in a Source.
	Path string `json:"path"`

	// Exports lists the names the loaded module must provide.
	Exports []string `json:"exports"`

	// Dependencies are module names loaded before this one.
	Dependencies []string `json:"dependencies,omitempty"`

	// Version is an optional semver constraint checked against the
	// module's VersionExport.
	Version string `json:"version,omitempty"`
}

func (i Info) clone() Info {
	i.Exports = slices.Clone(i.Exports)
	i.Dependencies = slices.Clone(i.Dependencies)
	return i
}

// validate checks loaded exports against the declared names and version.
func (i Info) validate(exports Exports) error {
	var missing []string
	for _, name := range i.Exports {
		if _, ok := exports[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingExports, missing)
	}

	if i.Version == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(i.Version)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", i.Version, err)
	}
	raw, ok := exports[VersionExport].(string)
	if !ok {
		return fmt.Errorf("%w: [%s]", ErrMissingExports, VersionExport)
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("invalid module version %q: %w", raw, err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("module version %s does not satisfy %s", v, i.Version)
	}
	return nil
}

// findCycle walks dependencies from name and returns the first cycle found.
// Unregistered dependencies are ignored here; Load reports them.
func findCycle(registry map[string]Info, name string) []string {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var stack []string

	var visit func(n string) []string
	visit = func(n string) []string {
		switch state[n] {
		case visiting:
			start := slices.Index(stack, n)
			return append(slices.Clone(stack[start:]), n)
		case done:
			return nil
		}
		info, ok := registry[n]
		if !ok {
			return nil
		}
		state[n] = visiting
		stack = append(stack, n)
		for _, dep := range info.Dependencies {
			if cycle := visit(dep); cycle != nil {
				return cycle
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = done
		return nil
	}
	return visit(name)
}
