package venue

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Group is one set of venues whose items may share a cart. Membership
// is decided by substring match of the venue slug against Patterns.
// A group marked CombinesWithAll (the drinks menus) is compatible with
// every other group.
type Group struct {
	Name            string   `yaml:"name"`
	Patterns        []string `yaml:"patterns"`
	CombinesWithAll bool     `yaml:"combines_with_all"`
}

// Groups is the static venue partition. It is business configuration,
// loaded once at startup, not expected to change at runtime.
type Groups struct {
	Groups []Group `yaml:"groups"`
}

func LoadGroups(path string) (*Groups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read venue groups file: %w", err)
	}
	var g Groups
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse venue groups file: %w", err)
	}
	if len(g.Groups) == 0 {
		return nil, fmt.Errorf("venue groups file %s defines no groups", path)
	}
	return &g, nil
}

// GroupOf returns the group whose pattern matches the slug, or nil
// when the slug belongs to no configured group.
func (g *Groups) GroupOf(slug string) *Group {
	for i := range g.Groups {
		for _, p := range g.Groups[i].Patterns {
			if strings.Contains(slug, p) {
				return &g.Groups[i]
			}
		}
	}
	return nil
}
