// Package moderation screens product text before anything is persisted.
package moderation

import (
	"fmt"
	"strings"
)

// DefaultTerms is the built-in denylist. Matching is case-insensitive substring matching.
var DefaultTerms = []string{
	"porno",
	"pornografia",
	"desnudo",
	"droga",
	"cocaina",
	"marihuana",
	"arma de fuego",
	"pistola",
	"municion",
	"explosivo",
	"sicario",
	"violencia",
	"gore",
	"nazi",
}

// Config is injected once at construction. Terms replaces DefaultTerms when non-nil;
// ExtraTerms is appended to whichever base list is in effect.
type Config struct {
	Terms      []string
	ExtraTerms []string
}

// TextFields are the textual product fields subject to moderation.
type TextFields struct {
	Name         string
	Description  string
	CategoryName string
}

// Verdict is the result of a text check.
type Verdict struct {
	Blocked bool
	Field   string
	Reason  string
}

// Gate blocks product text containing a denylisted term. It is safe for concurrent use.
type Gate struct {
	terms []string
}

// NewGate normalizes and deduplicates the configured terms.
func NewGate(cfg Config) *Gate {
	base := cfg.Terms
	if base == nil {
		base = DefaultTerms
	}

	seen := make(map[string]struct{}, len(base)+len(cfg.ExtraTerms))
	terms := make([]string, 0, len(base)+len(cfg.ExtraTerms))
	for _, list := range [][]string{base, cfg.ExtraTerms} {
		for _, t := range list {
			n := normalize(t)
			if n == "" {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			terms = append(terms, n)
		}
	}
	return &Gate{terms: terms}
}

// Terms returns a copy of the effective denylist.
func (g *Gate) Terms() []string {
	out := make([]string, len(g.terms))
	copy(out, g.terms)
	return out
}

// CheckText blocks if any field contains any term. Empty fields are safe.
func (g *Gate) CheckText(f TextFields) Verdict {
	fields := []struct {
		name  string
		value string
	}{
		{"name", f.Name},
		{"description", f.Description},
		{"categoryName", f.CategoryName},
	}

	for _, fld := range fields {
		v := normalize(fld.value)
		if v == "" {
			continue
		}
		for _, term := range g.terms {
			if strings.Contains(v, term) {
				return Verdict{
					Blocked: true,
					Field:   fld.name,
					Reason:  fmt.Sprintf("%s contains prohibited content", fld.name),
				}
			}
		}
	}
	return Verdict{}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
