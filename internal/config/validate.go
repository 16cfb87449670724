package config

import (
	"fmt"
	"strings"
)

// ConfigurationError is fatal: it is raised before any ad is scored.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Problems, "\n- ")
}

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err returns a *ConfigurationError when validation failed, nil otherwise.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return &ConfigurationError{Problems: v.Errors}
}

// NormalizeAndValidate returns a normalized copy of p: terms trimmed and
// deduplicated case-insensitively within each category.
func NormalizeAndValidate(p Profile) (Profile, Validation) {
	var out = p
	var res Validation

	trimList := func(name string, xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for i, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				res.addErr("%s[%d] cannot be empty", name, i)
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				res.addWarn("%s has duplicate term %q", name, x)
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.CoreTerms = trimList("core_terms", out.CoreTerms)
	out.RelatedTerms = trimList("related_terms", out.RelatedTerms)
	out.PenaltySofteners = trimList("penalty_softeners", out.PenaltySofteners)

	seenNeg := map[string]bool{}
	out.NegativeTerms = nil
	for i, n := range p.NegativeTerms {
		n.Term = strings.TrimSpace(n.Term)
		if n.Term == "" {
			res.addErr("negative_terms[%d].term cannot be empty", i)
			continue
		}
		if n.Weight < 0 {
			res.addErr("negative_terms[%d].weight must be > 0 (got %d)", i, n.Weight)
			continue
		}
		key := strings.ToLower(n.Term)
		if seenNeg[key] {
			res.addWarn("negative_terms has duplicate term %q", n.Term)
			continue
		}
		seenNeg[key] = true
		out.NegativeTerms = append(out.NegativeTerms, n)
	}

	// ---- Validation rules ----

	if len(out.CoreTerms) == 0 {
		res.addErr("core_terms must have at least 1 term")
	}
	if len(out.RelatedTerms) == 0 {
		res.addErr("related_terms must have at least 1 term")
	}
	if len(out.NegativeTerms) == 0 {
		res.addWarn("negative_terms is empty; nothing will be penalised.")
	}
	if out.DefaultNegativeWeight <= 0 {
		res.addErr("default_negative_weight must be > 0")
	}
	if out.ShortTermLength < 0 {
		res.addErr("short_term_length must be >= 0")
	}
	if len(out.PenaltySofteners) > 0 && out.SoftenedNegativeWeight < 0 {
		res.addErr("softened_negative_weight must be >= 0")
	}

	// a term that both rewards and penalises is almost always a typo
	for _, t := range append(append([]string{}, out.CoreTerms...), out.RelatedTerms...) {
		if seenNeg[strings.ToLower(t)] {
			res.addWarn("term %q is both positive and negative", t)
		}
	}

	return out, res
}

// ValidateProfile normalizes p and returns the warnings, or a
// *ConfigurationError when the profile cannot be used.
func ValidateProfile(p Profile) (Profile, []string, error) {
	out, res := NormalizeAndValidate(p)
	return out, res.Warnings, res.Err()
}
