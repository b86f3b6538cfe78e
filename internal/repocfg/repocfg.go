// Package repocfg loads component configuration out of resolved repository
// directories. Agents, environments, and workflows all describe themselves
// with a config.yaml at the repository root; templates referenced by the
// config are stored as sibling files and inlined on load.
package repocfg

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	errors "github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"
)

var configNames = []string{"config.yaml", "config.yml"}

// Load decodes the config file under dir into out.
func Load(fsys billy.Filesystem, dir string, out any) error {
	var path string
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := fsys.Stat(candidate); err == nil {
			path = candidate
			break
		}
	}
	if path == "" {
		return errors.Newf(errors.CodeNotFound,
			"config file not found in %s (expected config.yaml or config.yml)", dir)
	}

	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInternal, "failed to read %s", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, errors.CodeInvalidConfig, "invalid config file %s", path)
	}
	return nil
}

// LoadTemplates resolves a name→path template map into a name→content map.
// Every referenced file must exist under dir.
func LoadTemplates(fsys billy.Filesystem, dir string, refs map[string]string) (map[string]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	templates := make(map[string]string, len(refs))
	for name, ref := range refs {
		path := filepath.Join(dir, ref)
		data, err := util.ReadFile(fsys, path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeNotFound,
				"template %q references %s which could not be read", name, ref)
		}
		templates[name] = string(data)
	}
	return templates, nil
}
