// Package screener decides whether a posting is a MarTech role.
//
// Screening is a pure function of its input: no I/O, no clock, no
// randomness. Keyword and killer patterns are compiled once when a Screener
// is built.
package screener

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/amishk599/stackradar/internal/model"
)

// Input is what the screener looks at. Only Title and Description affect the
// verdict; the other fields are carried for logging by callers.
type Input struct {
	Title       string
	Company     string
	Location    string
	Description string
	ApplyURL    string
}

type compiledKeyword struct {
	word string
	re   *regexp.Regexp
}

type compiledCategory struct {
	name     string
	weight   float64
	keywords []compiledKeyword
}

type killer struct {
	pattern string
	re      *regexp.Regexp
}

// Screener scores postings against a weighted keyword taxonomy.
type Screener struct {
	threshold  float64
	categories []compiledCategory
	killers    []killer
}

// New compiles categories and killer patterns into a Screener.
func New(categories []Category, killers []string, threshold float64) (*Screener, error) {
	s := &Screener{threshold: threshold}

	for _, c := range categories {
		cc := compiledCategory{name: c.Name, weight: c.Weight}
		for _, kw := range c.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			re, err := regexp.Compile(wholeWord(kw))
			if err != nil {
				return nil, fmt.Errorf("compile keyword %q: %w", kw, err)
			}
			cc.keywords = append(cc.keywords, compiledKeyword{word: kw, re: re})
		}
		s.categories = append(s.categories, cc)
	}

	for _, p := range killers {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile killer %q: %w", p, err)
		}
		s.killers = append(s.killers, killer{pattern: p, re: re})
	}

	return s, nil
}

// Default returns a screener built from the built-in taxonomy.
func Default() *Screener {
	s, err := New(DefaultCategories(), DefaultKillers(), DefaultThreshold)
	if err != nil {
		panic(err)
	}
	return s
}

var defaultScreener = Default()

// Screen runs the default screener.
func Screen(in Input) model.Verdict {
	return defaultScreener.Screen(in)
}

// wholeWord matches kw only when it is not glued to a letter, digit or
// underscore on either side. Unlike \b this also holds for non-ASCII text.
func wholeWord(kw string) string {
	return `(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(kw) + `(?:$|[^\p{L}\p{N}_])`
}

// Threshold is the qualifying score for this screener.
func (s *Screener) Threshold() float64 {
	return s.threshold
}

// Screen scores one posting. It never returns StatusApproved: approval is a
// human decision made downstream.
func (s *Screener) Screen(in Input) model.Verdict {
	text := strings.TrimSpace(strings.ToLower(in.Title + " " + in.Description))

	for _, k := range s.killers {
		if k.re.MatchString(text) {
			return model.Verdict{
				Score:    0,
				Status:   model.StatusRejected,
				RoleType: model.RoleTechnologist,
				Reason:   "Killer: " + k.pattern,
			}
		}
	}

	var (
		score      float64
		categories []string
		stack      []string
		seen       = make(map[string]bool)
	)
	for _, c := range s.categories {
		hit := false
		for _, kw := range c.keywords {
			if !kw.re.MatchString(text) {
				continue
			}
			hit = true
			if !seen[kw.word] {
				seen[kw.word] = true
				stack = append(stack, kw.word)
			}
		}
		if hit {
			score += c.weight
			categories = append(categories, c.name)
		}
	}

	v := model.Verdict{
		Score:      score,
		Status:     model.StatusPending,
		Categories: categories,
		Stack:      stack,
		RoleType:   inferRoleType(categories),
	}
	switch {
	case score == 0:
		v.Reason = "No MarTech signals"
	case score >= s.threshold:
		v.Reason = fmt.Sprintf("Qualified: score %.0f (%s)", score, strings.Join(categories, ", "))
	default:
		v.Reason = fmt.Sprintf("Weak match: score %.0f below threshold %.0f", score, s.threshold)
	}
	return v
}

func inferRoleType(categories []string) model.RoleType {
	has := func(name string) bool {
		for _, c := range categories {
			if c == name {
				return true
			}
		}
		return false
	}
	switch {
	case has(CategoryCDP) || has(CategoryTagging):
		return model.RoleMarTechEngineer
	case has(CategoryAutomation):
		return model.RoleMarketingOps
	case has(CategoryAnalytics):
		return model.RoleMarketingAnalyst
	default:
		return model.RoleTechnologist
	}
}
