package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	CoreWeight    = 3
	RelatedWeight = 2

	DefaultNegativeWeight  = 3
	DefaultShortTermLength = 4
)

// NegativeTerm penalises an ad. In YAML it is either a bare string or a
// {term, weight} mapping; a missing weight falls back to the profile default.
type NegativeTerm struct {
	Term   string `yaml:"term" json:"term"`
	Weight int    `yaml:"weight,omitempty" json:"weight,omitempty"`
}

func (n *NegativeTerm) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		n.Term = node.Value
		n.Weight = 0
		return nil
	}
	type plain NegativeTerm
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*n = NegativeTerm(p)
	return nil
}

// Profile is the weighted vocabulary ads are scored against.
type Profile struct {
	CoreTerms             []string       `yaml:"core_terms" json:"core_terms"`
	RelatedTerms          []string       `yaml:"related_terms" json:"related_terms"`
	NegativeTerms         []NegativeTerm `yaml:"negative_terms" json:"negative_terms"`
	DefaultNegativeWeight int            `yaml:"default_negative_weight" json:"default_negative_weight"`

	// Terms of at most this many runes only match at word boundaries.
	ShortTermLength int `yaml:"short_term_length" json:"short_term_length"`

	// When any softener occurs in the ad, negative terms cost
	// SoftenedNegativeWeight (1 when unset) instead of their own weight,
	// capped at that weight.
	PenaltySofteners       []string `yaml:"penalty_softeners,omitempty" json:"penalty_softeners,omitempty"`
	SoftenedNegativeWeight int      `yaml:"softened_negative_weight,omitempty" json:"softened_negative_weight,omitempty"`
}

// NegativeWeight returns the effective penalty of t.
func (p Profile) NegativeWeight(t NegativeTerm) int {
	if t.Weight > 0 {
		return t.Weight
	}
	if p.DefaultNegativeWeight > 0 {
		return p.DefaultNegativeWeight
	}
	return DefaultNegativeWeight
}

// LoadProfile reads a profile. Keys absent from the file keep their defaults.
func LoadProfile(path string) (Profile, error) {
	p := Profile{
		DefaultNegativeWeight:  DefaultNegativeWeight,
		ShortTermLength:        DefaultShortTermLength,
		SoftenedNegativeWeight: 1,
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

// DefaultProfile is written when no profile exists yet.
func DefaultProfile() Profile {
	neg := []string{
		"läkemedel", "pharmaceutical", "apotek",
		"fastighet", "lokalstrateg", "lokaler", "hyresvärd",
		"data center", "datacenter", "facility manager",
		"energi", "kraft", "elbolag",
		"bygg", "construction", "tunnelbana", "spårväg",
		"bemanning", "rekrytering", "recruitment", "consultant manager",
		"lss", "omsorg", "hemtjänst", "äldreomsorg",
		"gruv", "mineral", "metall",
		"handläggare", "stiftelserätt",
		"sjuksköterska", "läkare", "tandläkare",
	}
	negatives := make([]NegativeTerm, 0, len(neg))
	for _, t := range neg {
		negatives = append(negatives, NegativeTerm{Term: t})
	}

	return Profile{
		CoreTerms: []string{
			"cybersecurity", "cybersäkerhet", "it-säkerhet", "informationssäkerhet",
			"information security", "säkerhetsspecialist", "säkerhetschef", "ciso",
			"säkerhetsskydd", "skyddssäkerhet", "säkerhetssamordnare",
			"security architect", "säkerhetsarkitekt", "security officer",
			"mssp", "soc", "security operations", "soc analyst", "soc manager",
			"microsoft 365", "m365", "microsoft defender", "defender", "sentinel",
			"entra", "intune", "purview", "microsoft security",
			"kql", "powershell", "fortisiem", "sentinelone", "tenable",
			"incident", "incidenthantering", "incident management", "incident response",
			"nis2", "dora", "gdpr", "compliance", "efterlevnad",
			"technical delivery", "delivery manager",
		},
		RelatedTerms: []string{
			"risk", "riskhantering", "riskanalys", "risk management",
			"säkerhetsincident", "security incident",
			"hotbild", "threat", "threat intelligence", "underrättelse",
			"säkerhetsstrateg", "säkerhetsstrategi", "security strategy",
			"verksamhetsskydd",
			"kontinuitet", "continuity", "beredskap", "crisis", "krisberedskap",
			"säkerhetspolicy", "security policy",
			"ledning", "ledarskap", "leadership", "manager", "chef", "lead",
			"zero trust", "xdr", "edr", "siem",
			"säkerhetsrevision", "audit", "penetrationstest", "penetration testing",
			"exchange",
		},
		NegativeTerms:          negatives,
		DefaultNegativeWeight:  DefaultNegativeWeight,
		ShortTermLength:        DefaultShortTermLength,
		PenaltySofteners:       []string{"säkerhet", "security"},
		SoftenedNegativeWeight: 1,
	}
}
