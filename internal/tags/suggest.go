// Package tags suggests topic tags for a contributed question.
package tags

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// Suggest returns the nouns of text, lowercased and deduplicated, in the order
// they first appear. A limit of zero or less returns all of them.
func Suggest(text string, limit int) ([]string, error) {
	suggestions := []string{}
	if strings.TrimSpace(text) == "" {
		return suggestions, nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to tag text: %w", err)
	}

	seen := make(map[string]bool)
	for _, tok := range doc.Tokens() {
		if !strings.HasPrefix(tok.Tag, "NN") {
			continue
		}
		tag := normalize(tok.Text)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		suggestions = append(suggestions, tag)
		if limit > 0 && len(suggestions) == limit {
			break
		}
	}

	return suggestions, nil
}

// normalize lowercases a token and rejects anything too short or without a
// letter in it.
func normalize(token string) string {
	token = strings.ToLower(strings.Trim(token, "-'"))
	if len([]rune(token)) < 2 {
		return ""
	}
	for _, r := range token {
		if unicode.IsLetter(r) {
			return token
		}
	}
	return ""
}
