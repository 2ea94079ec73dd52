package moderation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
)

// SortedBlacklist holds forbidden tokens in lexicographic order.
// Matching is exact: no case folding, no stemming.
type SortedBlacklist struct {
	tokens []string
}

// NewSortedBlacklist sorts and de-duplicates tokens. A token that is empty or
// contains whitespace can never match a text token and is rejected.
func NewSortedBlacklist(tokens []string) (*SortedBlacklist, error) {
	sorted := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if tok == "" || len(strings.Fields(tok)) != 1 || strings.TrimSpace(tok) != tok {
			return nil, errors.NewConfigurationError(fmt.Sprintf("blacklist[%d]", i), fmt.Sprintf("%q is not a single token", tok))
		}
		sorted = append(sorted, tok)
	}
	sort.Strings(sorted)

	// duplicates are harmless for the merge but there is no reason to keep them
	uniq := sorted[:0]
	for i, tok := range sorted {
		if i > 0 && tok == sorted[i-1] {
			continue
		}
		uniq = append(uniq, tok)
	}

	return &SortedBlacklist{tokens: uniq}, nil
}

// Scan splits text on whitespace, sorts the words and merges them against the
// blacklist. It returns the first common token in sorted order, which is the
// lexicographically smallest match and not necessarily the first one in text.
func (b *SortedBlacklist) Scan(text string) (string, bool) {
	if b == nil || len(b.tokens) == 0 {
		return "", false
	}

	words := strings.Fields(text)
	sort.Strings(words)

	i, j := 0, 0
	for i < len(words) && j < len(b.tokens) {
		switch {
		case words[i] == b.tokens[j]:
			return words[i], true
		case words[i] > b.tokens[j]:
			j++
		default:
			i++
		}
	}
	return "", false
}

// Len returns the number of distinct tokens
func (b *SortedBlacklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.tokens)
}

// Tokens returns a copy of the sorted tokens
func (b *SortedBlacklist) Tokens() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.tokens))
	copy(out, b.tokens)
	return out
}
