package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Extension is a designer-authored file of additional upgrades and
// achievements. Entries can only be added; an entry reusing an existing
// id is rejected so saved games keep their meaning.
type Extension struct {
	Upgrades     []UpgradeDefinition     `yaml:"upgrades"`
	Achievements []AchievementDefinition `yaml:"achievements"`
}

func LoadExtension(path string) (Extension, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Extension{}, err
	}
	return ParseExtension(b)
}

func ParseExtension(b []byte) (Extension, error) {
	var ext Extension
	if err := yaml.Unmarshal(b, &ext); err != nil {
		return Extension{}, fmt.Errorf("parse catalog extension: %w", err)
	}
	return ext, nil
}

// Extend returns a new catalog with ext appended after the entries of c.
func (c *Catalog) Extend(ext Extension) (*Catalog, error) {
	for _, u := range ext.Upgrades {
		if _, ok := c.upgradeIdx[u.ID]; ok {
			return nil, fmt.Errorf("catalog extension: upgrade %q already defined", u.ID)
		}
	}
	for _, a := range ext.Achievements {
		if _, ok := c.achievementIdx[a.ID]; ok {
			return nil, fmt.Errorf("catalog extension: achievement %q already defined", a.ID)
		}
	}
	ups := append(c.Upgrades(), ext.Upgrades...)
	achs := append(c.Achievements(), ext.Achievements...)
	return New(ups, achs)
}

// DefaultWithExtension returns the built-in catalog extended by the file
// at path. A blank path yields the built-in catalog.
func DefaultWithExtension(path string) (*Catalog, error) {
	cat := Default()
	if strings.TrimSpace(path) == "" {
		return cat, nil
	}
	ext, err := LoadExtension(path)
	if err != nil {
		return nil, err
	}
	return cat.Extend(ext)
}
