package analyzer

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/negbuzz/negbuzz/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Vietnamese)

// WordCloud counts the words of text, most frequent first. Ties keep the
// order of first appearance. Single letters and numbers are dropped.
func WordCloud(text string) []domain.WordCloudItem {
	text = lower.String(norm.NFC.String(text))
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && !unicode.Is(unicode.Mn, r)
	})

	counts := map[string]int{}
	var order []string
	for _, token := range tokens {
		if !meaningful(token) {
			continue
		}
		if _, ok := counts[token]; !ok {
			order = append(order, token)
		}
		counts[token]++
	}

	items := make([]domain.WordCloudItem, 0, len(order))
	for _, word := range order {
		items = append(items, domain.WordCloudItem{Word: word, Frequency: counts[word]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Frequency > items[j].Frequency
	})
	return items
}

func meaningful(token string) bool {
	if utf8.RuneCountInString(token) < 2 {
		return false
	}
	for _, r := range token {
		if !unicode.IsNumber(r) {
			return true
		}
	}
	return false
}
