// ABOUTME: Optional YAML clinic profile with seed policies and knowledge sources
// ABOUTME: A missing file is not an error; a malformed one is
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes a clinic deployment. All fields are optional.
//
// Example:
//
//	name: Upstate Hearing and Balance
//	policies:
//	  phone: "(864) 770-8822"
//	  business_hours: "Monday-Friday 9:00 AM-4:00 PM ET."
//	sources:
//	  - url: https://example.com/services
//	    title: Services
//	    file: kb/services.txt
type Profile struct {
	Name     string            `yaml:"name"`
	Policies map[string]string `yaml:"policies"`
	Sources  []Source          `yaml:"sources"`
}

// Source is a local knowledge file and the public URL it is attributed to
type Source struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title"`
	File  string `yaml:"file"`
}

// LoadProfile reads a clinic profile. An empty path or missing file yields an empty profile.
func LoadProfile(path string) (*Profile, error) {
	p := &Profile{}
	if strings.TrimSpace(path) == "" {
		return p, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		return nil, fmt.Errorf("read clinic profile %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, p); err != nil {
		return nil, fmt.Errorf("parse clinic profile %s: %w", path, err)
	}

	for i, src := range p.Sources {
		if strings.TrimSpace(src.URL) == "" {
			return nil, fmt.Errorf("clinic profile %s: source %d has no url", path, i)
		}
	}

	return p, nil
}

// SeedPolicies merges profile policies over the built-in defaults
func (p *Profile) SeedPolicies(defaults map[string]string) map[string]string {
	out := make(map[string]string, len(defaults)+len(p.Policies))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range p.Policies {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}
