package analyzer

import (
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Matcher reports which keywords occur in a text, case-insensitively.
// It keeps per-search state and must not be shared between goroutines.
type Matcher struct {
	words   []string
	matcher *ahocorasick.Matcher
}

func NewMatcher(k Keywords) *Matcher {
	m := &Matcher{words: k.words}
	if len(k.words) > 0 {
		m.matcher = ahocorasick.NewStringMatcher(k.words)
	}
	return m
}

// Match returns the matched keywords in dictionary order, each at most once.
func (m *Matcher) Match(text string) []string {
	if m.matcher == nil || text == "" {
		return nil
	}
	hits := m.matcher.Match([]byte(strings.ToLower(text)))
	if len(hits) == 0 {
		return nil
	}
	sort.Ints(hits)
	out := make([]string, 0, len(hits))
	last := -1
	for _, idx := range hits {
		if idx == last {
			continue
		}
		last = idx
		out = append(out, m.words[idx])
	}
	return out
}
