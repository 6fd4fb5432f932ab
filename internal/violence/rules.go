package violence

import "fmt"

// LoneFemaleRule decides the lone-female flag from the frame's gender counts.
type LoneFemaleRule func(male, female int) bool

// LiteralLoneFemale is true when exactly one man and exactly one woman are
// present. This is the behaviour the pipeline has always had.
func LiteralLoneFemale(male, female int) bool {
	return male == 1 && female == 1
}

// SoleFemale is true when a single woman is present with nobody else.
func SoleFemale(male, female int) bool {
	return male == 0 && female == 1
}

// AnyLoneFemale is true when exactly one woman is present regardless of how
// many men are.
func AnyLoneFemale(male, female int) bool {
	return female == 1
}

// Rule names accepted by RuleByName.
const (
	RuleLiteral = "literal"
	RuleSole    = "sole"
	RuleAny     = "any"
)

// RuleByName maps a configuration name to a rule. An empty name selects
// LiteralLoneFemale.
func RuleByName(name string) (LoneFemaleRule, error) {
	switch name {
	case "", RuleLiteral:
		return LiteralLoneFemale, nil
	case RuleSole:
		return SoleFemale, nil
	case RuleAny:
		return AnyLoneFemale, nil
	default:
		return nil, fmt.Errorf("unknown lone female rule %q", name)
	}
}
