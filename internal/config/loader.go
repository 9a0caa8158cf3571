package config

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var embeddedProfiles embed.FS

func loadYAML(fsys fs.FS, name string, out any) error {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// LoadProfiles reads and validates every *.yaml profile in dir. An empty dir
// selects the profiles embedded in the binary.
func LoadProfiles(dir string) (map[string]*Profile, error) {
	fsys, root := fs.FS(embeddedProfiles), "profiles"
	if dir != "" {
		fsys, root = os.DirFS(dir), "."
	}
	names, err := fs.Glob(fsys, path.Join(root, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no profiles found in %q", dir)
	}
	sort.Strings(names)

	out := make(map[string]*Profile, len(names))
	for _, name := range names {
		var p Profile
		if err := loadYAML(fsys, name, &p); err != nil {
			return nil, fmt.Errorf("parsing profile %s: %w", name, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("validating profile %s: %w", name, err)
		}
		if _, dup := out[p.ID]; dup {
			return nil, fmt.Errorf("profile %s: duplicate id %q", name, p.ID)
		}
		out[p.ID] = &p
	}
	return out, nil
}

// LoadProfile loads a single profile by id.
func LoadProfile(dir, id string) (*Profile, error) {
	all, err := LoadProfiles(dir)
	if err != nil {
		return nil, err
	}
	p, ok := all[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, id)
	}
	return p, nil
}

// ProfileIDs returns the sorted ids of a loaded profile set.
func ProfileIDs(all map[string]*Profile) []string {
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
