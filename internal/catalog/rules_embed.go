package catalog

import (
	_ "embed"
	"fmt"

	"github.com/address-classifier/internal/address"
	"gopkg.in/yaml.v3"
)

//go:embed data/aotypes.yaml
var aoTypesYAML []byte

type rawEntry struct {
	Level   string   `yaml:"level"`
	Name    string   `yaml:"name"`
	Abbr    string   `yaml:"abbr"`
	ID      int      `yaml:"id"`
	Aliases []string `yaml:"aliases,omitempty"`
}

type rawRules struct {
	Fixed       map[string][]rawEntry `yaml:"fixed"`
	Classifier  []rawEntry            `yaml:"classifier"`
	DotRequired map[string]string     `yaml:"dot_required"`
}

// Rules are the built-in type tables shipped with the binary.
type Rules struct {
	Fixed       map[address.Level][]Entry
	Classifier  []Entry
	DotRequired map[string]address.LevelSet
}

// LoadRules parses the embedded type tables.
func LoadRules() (*Rules, error) {
	return parseRules(aoTypesYAML)
}

func parseRules(data []byte) (*Rules, error) {
	var raw rawRules
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse type rules: %w", err)
	}

	rules := &Rules{
		Fixed:       make(map[address.Level][]Entry, len(raw.Fixed)),
		DotRequired: make(map[string]address.LevelSet, len(raw.DotRequired)),
	}
	for name, entries := range raw.Fixed {
		level, err := address.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("fixed types: %w", err)
		}
		for _, re := range entries {
			rules.Fixed[level] = append(rules.Fixed[level], Entry{
				Level: level, Name: re.Name, Abbr: re.Abbr, ID: re.ID, Aliases: re.Aliases,
			})
		}
	}
	for _, re := range raw.Classifier {
		level, err := address.ParseLevel(re.Level)
		if err != nil {
			return nil, fmt.Errorf("classifier type %q: %w", re.Name, err)
		}
		rules.Classifier = append(rules.Classifier, Entry{Level: level, Name: re.Name, Abbr: re.Abbr, ID: re.ID})
	}
	for abbr, levels := range raw.DotRequired {
		set, err := address.ParseLevelSet(levels)
		if err != nil {
			return nil, fmt.Errorf("dot rule %q: %w", abbr, err)
		}
		rules.DotRequired[normalizeAbbr(abbr)] = set
	}
	return rules, nil
}
