// Package classifier labels candidate articles with categories and a relevance tier.
package classifier

import (
	"context"
	"strings"
	"sync"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"RegulatoryScanner/internal/domain"
	"RegulatoryScanner/internal/ports"
)

const wholeWordMaxLen = 3

// KeywordClassifier matches folded article text against the vocabulary in one pass.
type KeywordClassifier struct {
	// mu serialises Match: the automaton keeps a per-call counter internally.
	mu         sync.Mutex
	matcher    *ahocorasick.Matcher
	patterns   []pattern
	categories []string
}

type pattern struct {
	category string // empty for enforcement signals
}

var _ ports.Classifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier builds the automaton from vocabulary and signal terms.
func NewKeywordClassifier(vocabulary []CategoryRule, signals []string) *KeywordClassifier {
	k := &KeywordClassifier{}
	var dictionary []string

	for _, rule := range vocabulary {
		k.categories = append(k.categories, rule.Category)
		for _, kw := range rule.Keywords {
			if normalized := normalizeKeyword(kw); normalized != "" {
				dictionary = append(dictionary, normalized)
				k.patterns = append(k.patterns, pattern{category: rule.Category})
			}
		}
	}
	for _, kw := range signals {
		if normalized := normalizeKeyword(kw); normalized != "" {
			dictionary = append(dictionary, normalized)
			k.patterns = append(k.patterns, pattern{})
		}
	}

	if len(dictionary) > 0 {
		k.matcher = ahocorasick.NewStringMatcher(dictionary)
	}
	return k
}

// NewDefaultClassifier uses DefaultVocabulary and DefaultSignals.
func NewDefaultClassifier() *KeywordClassifier {
	return NewKeywordClassifier(DefaultVocabulary, DefaultSignals)
}

// Classify never fails on its own; it only honours context cancellation.
func (k *KeywordClassifier) Classify(ctx context.Context, candidate domain.Candidate) (domain.Classification, error) {
	if err := ctx.Err(); err != nil {
		return domain.DefaultClassification(), &domain.ClassificationError{Err: err}
	}

	text := candidate.Title + " " + candidate.RawSummary + " " + strings.Join(candidate.SourceCategoryHints, " ")
	categories, signal := k.match(text)

	cls := domain.Classification{Relevance: domain.RelevanceLow, Categories: categories}
	switch {
	case len(categories) > 0 && signal:
		cls.Relevance = domain.RelevanceHigh
	case len(categories) > 0:
		cls.Relevance = domain.RelevanceMedium
	}
	return cls, nil
}

// CategoriesForRegistrations maps client registration types onto vocabulary categories.
func (k *KeywordClassifier) CategoriesForRegistrations(types []string) []string {
	categories, _ := k.match(strings.Join(types, " | "))
	return categories
}

// Vocabulary lists the category names in declaration order.
func (k *KeywordClassifier) Vocabulary() []string {
	return append([]string(nil), k.categories...)
}

func (k *KeywordClassifier) match(text string) ([]string, bool) {
	categories := []string{}
	if k.matcher == nil {
		return categories, false
	}

	normalized := []byte(normalizeText(text))
	k.mu.Lock()
	hits := k.matcher.Match(normalized)
	k.mu.Unlock()

	hit := map[string]bool{}
	signal := false
	for _, idx := range hits {
		if idx < 0 || idx >= len(k.patterns) {
			continue
		}
		if p := k.patterns[idx]; p.category == "" {
			signal = true
		} else {
			hit[p.category] = true
		}
	}

	for _, c := range k.categories {
		if hit[c] {
			categories = append(categories, c)
		}
	}
	return categories, signal
}

// normalizeText applies NFKC and case folding, turns punctuation into spaces and pads both ends.
func normalizeText(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

// normalizeKeyword anchors ASCII keywords at a word start (whole word when short).
func normalizeKeyword(kw string) string {
	folded := strings.TrimSpace(normalizeText(kw))
	if folded == "" {
		return ""
	}
	if !isASCII(folded) {
		return folded
	}
	if len(folded) <= wholeWordMaxLen {
		return " " + folded + " "
	}
	return " " + folded
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}
