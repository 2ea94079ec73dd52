package moderation

import (
	"sort"
	"strings"
	"testing"

	"github.com/PancyStudios/MarvinGo/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlacklistScan(t *testing.T) {
	bl, err := NewSortedBlacklist([]string{"spam", "idiota"})
	require.NoError(t, err)

	fixtures := []struct {
		text  string
		token string
		hit   bool
	}{
		{text: "Questo e' spam puro", token: "spam", hit: true},
		{text: "sei un idiota e fai spam", token: "idiota", hit: true},
		{text: "Spam maiuscolo", hit: false},
		{text: "spammer", hit: false},
		{text: "", hit: false},
		{text: "   \n\t ", hit: false},
		{text: "tutto\tok\nqui", hit: false},
		{text: "idiota", token: "idiota", hit: true},
	}

	for _, fix := range fixtures {
		token, hit := bl.Scan(fix.text)
		assert.Equal(t, fix.hit, hit, fix.text)
		assert.Equal(t, fix.token, token, fix.text)
	}
}

func TestBlacklistReturnsSmallestCommonToken(t *testing.T) {
	bl, err := NewSortedBlacklist([]string{"zeta", "beta", "alfa"})
	require.NoError(t, err)

	token, hit := bl.Scan("zeta arriva prima di beta nel testo")
	assert.True(t, hit)
	assert.Equal(t, "beta", token)
}

func TestBlacklistMatchesIntersection(t *testing.T) {
	words := []string{"a", "bb", "ccc", "dd", "e", "ff", "ggg", "h"}
	bl, err := NewSortedBlacklist([]string{"dd", "ggg", "x"})
	require.NoError(t, err)

	// every subset of words; the scan must agree with a brute-force intersection
	for mask := 0; mask < 1<<len(words); mask++ {
		var picked []string
		for i, w := range words {
			if mask&(1<<i) != 0 {
				picked = append(picked, w)
			}
		}

		var common []string
		for _, w := range picked {
			for _, b := range bl.Tokens() {
				if w == b {
					common = append(common, w)
				}
			}
		}
		sort.Strings(common)

		token, hit := bl.Scan(strings.Join(picked, " "))
		if len(common) == 0 {
			assert.False(t, hit, picked)
			continue
		}
		assert.True(t, hit, picked)
		assert.Equal(t, common[0], token, picked)
	}
}

func TestBlacklistDeduplicates(t *testing.T) {
	bl, err := NewSortedBlacklist([]string{"spam", "spam", "eggs", "spam"})
	require.NoError(t, err)
	assert.Equal(t, []string{"eggs", "spam"}, bl.Tokens())
	assert.Equal(t, 2, bl.Len())
}

func TestBlacklistRejectsMalformedTokens(t *testing.T) {
	for _, bad := range []string{"", "two words", " padded", "tab\tbed"} {
		_, err := NewSortedBlacklist([]string{"ok", bad})
		assert.True(t, errors.IsConfiguration(err), "%q", bad)
	}
}

func TestEmptyBlacklistNeverMatches(t *testing.T) {
	bl, err := NewSortedBlacklist(nil)
	require.NoError(t, err)

	_, hit := bl.Scan("qualsiasi cosa")
	assert.False(t, hit)

	var nilList *SortedBlacklist
	_, hit = nilList.Scan("qualsiasi cosa")
	assert.False(t, hit)
}
