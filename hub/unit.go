package hub

import (
	"gopkg.in/yaml.v3"
)

// Component kinds recognized by the loader. A module manifest must declare
// exactly one document with one of these kinds to be usable as an
// entrypoint; documents with other kinds are carried along as opaque
// metadata.
const (
	KindAgent              = "Agent"
	KindEnvironmentFactory = "EnvironmentFactory"
	KindWorkflow           = "Workflow"
)

var componentKinds = []string{KindAgent, KindEnvironmentFactory, KindWorkflow}

// ComponentDoc is one YAML document of a module manifest. The spec payload
// is kept undecoded so each component type can bind it to its own
// configuration struct.
type ComponentDoc struct {
	Kind string    `yaml:"kind"`
	Name string    `yaml:"name"`
	Spec yaml.Node `yaml:"spec"`
}

// Decode binds the document's spec payload to out.
func (d *ComponentDoc) Decode(out any) error {
	if d.Spec.IsZero() {
		return nil
	}
	return d.Spec.Decode(out)
}

// recognized reports whether the document declares a loadable component.
func (d *ComponentDoc) recognized() bool {
	for _, kind := range componentKinds {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// Unit is a loaded module: the parsed manifest of one named module at one
// pinned revision of one repository. Units are immutable once returned and
// safe for concurrent use.
type Unit struct {
	// Identity is synthesized from the cache key and the module name, so
	// two repositories defining the same module name never collide.
	Identity string

	Reference string
	Revision  string
	Module    string

	// Dir is the resolved repository directory the unit was loaded from;
	// Path is the manifest file inside it.
	Dir  string
	Path string

	docs []ComponentDoc
}

// Components returns every document the manifest declares, recognized or
// not.
func (u *Unit) Components() []ComponentDoc {
	return u.docs
}

// Entrypoint returns the unit's single component declaration. It inspects
// parsed metadata only and performs no I/O.
//
// A unit with no recognized component cannot be instantiated; a unit with
// more than one is ambiguous. Both are reported as errors rather than
// resolved by picking one.
func (u *Unit) Entrypoint() (*ComponentDoc, error) {
	var found *ComponentDoc
	count := 0
	for i := range u.docs {
		if u.docs[i].recognized() {
			found = &u.docs[i]
			count++
		}
	}

	switch {
	case count == 0:
		return nil, errNoImplementation(u.Identity, componentKinds)
	case count > 1:
		return nil, errAmbiguousImplementation(u.Identity, count)
	}
	return found, nil
}

// unitIdentity synthesizes the globally unique name for a loaded module.
func unitIdentity(reference, revision, module string) string {
	return "ix_hub_" + cacheKey(reference, revision) + "_" + module
}
