// Package validate synthesizes the validation rules of a model from its
// attribute and index declarations and evaluates them against records.
//
// Rules are batched by kind: one unique rule lists every unique attribute,
// one required rule lists every required attribute without a default, and
// length rules are grouped by their bound.
package validate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/schema/attribute"
)

// Kind is the kind of a rule.
type Kind string

// Rule kinds.
const (
	Numerical       Kind = "numerical"
	In              Kind = "in"
	Match           Kind = "match"
	CompositeUnique Kind = "composite-unique"
	Unique          Kind = "unique"
	Required        Kind = "required"
	Email           Kind = "email"
	URL             Kind = "url"
	Length          Kind = "length"
	Safe            Kind = "safe"
)

// SearchScenario is the scenario of the safe rule.
const SearchScenario = "search"

// Rule is one synthesized validation rule over one or more attributes.
// Only the parameters of its Kind are set.
type Rule struct {
	Kind       Kind
	Attributes []string

	// Numerical bounds.
	Min         *float64
	Max         *float64
	IntegerOnly bool

	// Range of an In rule.
	Range []string

	// Pattern of a Match rule.
	Pattern string

	// With lists the companion columns of a CompositeUnique rule anchored
	// on Attributes[0].
	With []string

	// Length bounds. Exactly one is set on a Length rule.
	Is        *int
	MinLength *int
	MaxLength *int

	// RequireScheme is false for URL rules: "example.com" is accepted.
	RequireScheme bool

	// On is the scenario a Safe rule applies to.
	On string
}

// String formats the rule for display.
func (r *Rule) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", r.Kind, strings.Join(r.Attributes, ", "))
	if r.Min != nil {
		fmt.Fprintf(&b, " min=%s", formatFloat(*r.Min))
	}
	if r.Max != nil {
		fmt.Fprintf(&b, " max=%s", formatFloat(*r.Max))
	}
	if r.IntegerOnly {
		b.WriteString(" integerOnly")
	}
	if len(r.Range) > 0 {
		fmt.Fprintf(&b, " range=%s", strings.Join(r.Range, ","))
	}
	if r.Pattern != "" {
		fmt.Fprintf(&b, " pattern=%s", r.Pattern)
	}
	if len(r.With) > 0 {
		fmt.Fprintf(&b, " with=%s", strings.Join(r.With, ","))
	}
	if r.Is != nil {
		fmt.Fprintf(&b, " is=%d", *r.Is)
	}
	if r.MinLength != nil {
		fmt.Fprintf(&b, " min=%d", *r.MinLength)
	}
	if r.MaxLength != nil {
		fmt.Fprintf(&b, " max=%d", *r.MaxLength)
	}
	if r.Kind == URL && !r.RequireScheme {
		b.WriteString(" requireScheme=false")
	}
	if r.On != "" {
		fmt.Fprintf(&b, " on=%s", r.On)
	}
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// lengthGroups collects attribute names per length bound in order of first
// appearance.
type lengthGroups struct {
	order []int
	names map[int][]string
}

func (g *lengthGroups) add(n int, name string) {
	if g.names == nil {
		g.names = make(map[int][]string)
	}
	if _, ok := g.names[n]; !ok {
		g.order = append(g.order, n)
	}
	g.names[n] = append(g.names[n], name)
}

// Rules synthesizes the rules of a model in a single pass over its
// attributes:
//
//  1. per attribute in declaration order: numerical, in, match
//  2. composite-unique per unique index over more than one column
//  3. the batched unique, required, email and url rules
//  4. length rules: strict, then min, then max, one per distinct bound
//  5. safe on search over every attribute
func Rules(m *blocks.Model) []*Rule {
	var rules []*Rule
	var uniques, required, emails, urls []string
	var strict, minLen, maxLen lengthGroups
	for _, a := range m.Attributes {
		// Email and Url are recorded before Normalize turns them into Varchar.
		switch a.Type {
		case attribute.TypeEmail:
			emails = append(emails, a.Name)
		case attribute.TypeUrl:
			urls = append(urls, a.Name)
		}
		n := attribute.Normalize(a)
		if n.Unique {
			uniques = append(uniques, n.Name)
		}
		if n.Required && !n.HasDefault() {
			required = append(required, n.Name)
		}
		if n.Type.Numeric() {
			rules = append(rules, &Rule{
				Kind:        Numerical,
				Attributes:  []string{n.Name},
				Min:         n.Min,
				Max:         n.Max,
				IntegerOnly: n.Type.Integer(),
			})
		}
		if n.Type == attribute.TypeEnum {
			rules = append(rules, &Rule{
				Kind:       In,
				Attributes: []string{n.Name},
				Range:      append([]string(nil), n.Values...),
			})
		}
		if n.Length != nil {
			strict.add(*n.Length, n.Name)
		} else {
			if n.MinLength != nil {
				minLen.add(*n.MinLength, n.Name)
			}
			if n.MaxLength != nil {
				maxLen.add(*n.MaxLength, n.Name)
			}
		}
		if n.MatchPattern != "" {
			rules = append(rules, &Rule{
				Kind:       Match,
				Attributes: []string{n.Name},
				Pattern:    n.MatchPattern,
			})
		}
	}
	for _, idx := range m.Indexes {
		if !idx.Composite() {
			continue
		}
		rules = append(rules, &Rule{
			Kind:       CompositeUnique,
			Attributes: []string{idx.Columns[0]},
			With:       append([]string(nil), idx.Columns[1:]...),
		})
	}
	if len(uniques) > 0 {
		rules = append(rules, &Rule{Kind: Unique, Attributes: uniques})
	}
	if len(required) > 0 {
		rules = append(rules, &Rule{Kind: Required, Attributes: required})
	}
	if len(emails) > 0 {
		rules = append(rules, &Rule{Kind: Email, Attributes: emails})
	}
	if len(urls) > 0 {
		rules = append(rules, &Rule{Kind: URL, Attributes: urls})
	}
	for _, n := range strict.order {
		rules = append(rules, &Rule{Kind: Length, Attributes: strict.names[n], Is: intPtr(n)})
	}
	for _, n := range minLen.order {
		rules = append(rules, &Rule{Kind: Length, Attributes: minLen.names[n], MinLength: intPtr(n)})
	}
	for _, n := range maxLen.order {
		rules = append(rules, &Rule{Kind: Length, Attributes: maxLen.names[n], MaxLength: intPtr(n)})
	}
	if names := m.AttributeNames(); len(names) > 0 {
		rules = append(rules, &Rule{Kind: Safe, Attributes: names, On: SearchScenario})
	}
	return rules
}

func intPtr(n int) *int { return &n }
