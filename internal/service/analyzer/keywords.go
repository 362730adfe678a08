package analyzer

import (
	"strings"

	"github.com/samber/lo"
)

// Keywords is the normalized dictionary shared by all tag workers.
type Keywords struct {
	words []string
}

// NewKeywords lowercases and trims the configured words, dropping blanks
// and repeats while keeping the first occurrence.
func NewKeywords(words []string) Keywords {
	normalized := lo.FilterMap(words, func(w string, _ int) (string, bool) {
		w = strings.ToLower(strings.TrimSpace(w))
		return w, w != ""
	})
	return Keywords{words: lo.Uniq(normalized)}
}

func (k Keywords) Len() int { return len(k.words) }

func (k Keywords) Words() []string {
	return append([]string(nil), k.words...)
}
