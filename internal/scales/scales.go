// Package scales holds the immutable lookup tables the pipeline is driven by:
// label-to-code scale encodings, the country-to-region map, country name
// canonicalization, and the field rules that bind question stems to canonical
// field names. The tables are plain data loaded once at startup and passed
// explicitly into the stages, so substituting an alternate scale (say a
// 7-point variant) is a configuration change.
package scales

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Region names. Every known country resolves to exactly one of the first
// four; anything unrecognized falls back to RegionOther, never dropped.
const (
	RegionAfrica      = "Africa"
	RegionAsiaPacific = "Asia-Pacific"
	RegionEurope      = "Europe"
	RegionAmericas    = "Americas"
	RegionOther       = "Other"
)

// Scale maps response labels to ordinal codes. A nil code means the label is
// recognized but carries no value ("Don't know"), which is distinct from an
// unanswered cell.
type Scale struct {
	Name  string          `yaml:"name" json:"name"`
	Codes map[string]*int `yaml:"codes" json:"codes"`
}

// Lookup resolves a raw cell value against the scale. The second return is
// false when the label is not part of the scale at all; a true/nil result is
// a recognized "Don't know".
func (s Scale) Lookup(value string) (*int, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, false
	}
	for label, code := range s.Codes {
		if strings.EqualFold(label, v) {
			return code, true
		}
	}
	// SurveyMonkey sometimes embeds the label inside a longer cell value.
	for label, code := range s.Codes {
		if len(label) >= 4 && strings.Contains(strings.ToLower(v), strings.ToLower(label)) {
			return code, true
		}
	}
	return nil, false
}

// Bounds returns the minimum and maximum code on the scale, ignoring
// null-coded labels. ok is false for a scale with no coded labels.
func (s Scale) Bounds() (min, max int, ok bool) {
	for _, code := range s.Codes {
		if code == nil {
			continue
		}
		if !ok {
			min, max, ok = *code, *code, true
			continue
		}
		if *code < min {
			min = *code
		}
		if *code > max {
			max = *code
		}
	}
	return min, max, ok
}

// OrderedLabels returns the scale's labels sorted by code ascending, with
// null-coded labels ("Don't know") last. This is the canonical option order
// for distributions.
func (s Scale) OrderedLabels() []string {
	labels := make([]string, 0, len(s.Codes))
	for l := range s.Codes {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		ci, cj := s.Codes[labels[i]], s.Codes[labels[j]]
		switch {
		case ci == nil && cj == nil:
			return labels[i] < labels[j]
		case ci == nil:
			return false
		case cj == nil:
			return true
		case *ci != *cj:
			return *ci < *cj
		default:
			return labels[i] < labels[j]
		}
	})
	return labels
}

// LabelFor returns the label whose code equals v, or "" if none does.
func (s Scale) LabelFor(v int) string {
	for _, l := range s.OrderedLabels() {
		if c := s.Codes[l]; c != nil && *c == v {
			return l
		}
	}
	return ""
}

// NullLabel returns the scale's null-coded label, if any ("Don't know").
func (s Scale) NullLabel() string {
	for _, l := range s.OrderedLabels() {
		if s.Codes[l] == nil {
			return l
		}
	}
	return ""
}

// FieldRule binds a question stem to a canonical field. Match is a
// lowercase substring test against the question text; the first rule that
// matches wins. Kind, when set, overrides the structural classification.
type FieldRule struct {
	Match string `yaml:"match" json:"match"`
	Field string `yaml:"field" json:"field"`
	Scale string `yaml:"scale,omitempty" json:"scale,omitempty"`
	Area  string `yaml:"area,omitempty" json:"area,omitempty"`
	Kind  string `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// Set is the full lookup configuration for one pipeline run.
type Set struct {
	Scales         map[string]Scale    `yaml:"scales" json:"scales"`
	Regions        map[string][]string `yaml:"regions" json:"regions"`
	CountryAliases map[string]string   `yaml:"country_aliases" json:"country_aliases"`
	FieldRules     []FieldRule         `yaml:"field_rules" json:"field_rules"`
	// SevereLimitations are the infrastructure-limitation options that
	// subtract from the maturity score.
	SevereLimitations []string `yaml:"severe_limitations" json:"severe_limitations"`
}

// Scale returns the named scale table; ok is false for an unknown name.
func (s *Set) Scale(name string) (Scale, bool) {
	sc, ok := s.Scales[name]
	return sc, ok
}

// CleanCountry standardizes a raw country cell: trimmed, known aliases
// (case variants, flag-emoji variants, common misspellings) mapped to their
// canonical name.
func (s *Set) CleanCountry(raw string) string {
	c := strings.TrimSpace(raw)
	if c == "" {
		return ""
	}
	if alias, ok := s.CountryAliases[c]; ok {
		return alias
	}
	for from, to := range s.CountryAliases {
		if strings.EqualFold(from, c) {
			return to
		}
	}
	return c
}

// RegionFor maps a country to its region. Unrecognized countries map to
// RegionOther so responses are never silently excluded from regional
// aggregation.
func (s *Set) RegionFor(country string) string {
	c := s.CleanCountry(country)
	if c == "" {
		return RegionOther
	}
	for region, countries := range s.Regions {
		for _, known := range countries {
			if strings.EqualFold(known, c) {
				return region
			}
		}
	}
	return RegionOther
}

// MatchField returns the first field rule whose Match substring appears in
// the question text (case-insensitive).
func (s *Set) MatchField(question string) (FieldRule, bool) {
	q := strings.ToLower(question)
	for _, r := range s.FieldRules {
		if r.Match != "" && strings.Contains(q, r.Match) {
			return r, true
		}
	}
	return FieldRule{}, false
}

// Load reads a YAML override file and merges it over the defaults. Scales,
// aliases and regions replace by key; field rules listed in the file are
// prepended so they take precedence over the built-ins.
func Load(path string) (*Set, error) {
	set := Default()
	if path == "" {
		return set, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scales file: %w", err)
	}
	var override Set
	if err := yaml.Unmarshal(b, &override); err != nil {
		return nil, fmt.Errorf("parse scales file: %w", err)
	}
	for name, sc := range override.Scales {
		if sc.Name == "" {
			sc.Name = name
		}
		set.Scales[name] = sc
	}
	for region, countries := range override.Regions {
		set.Regions[region] = countries
	}
	for from, to := range override.CountryAliases {
		set.CountryAliases[from] = to
	}
	if len(override.FieldRules) > 0 {
		set.FieldRules = append(append([]FieldRule{}, override.FieldRules...), set.FieldRules...)
	}
	if len(override.SevereLimitations) > 0 {
		set.SevereLimitations = override.SevereLimitations
	}
	return set, nil
}
