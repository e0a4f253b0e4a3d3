// Package intent turns free-text chat messages into marketplace intents,
// order commands, listing arguments and compact search queries.
package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var stopWords = map[string]struct{}{
	"i": {}, "want": {}, "need": {}, "looking": {}, "for": {}, "find": {}, "search": {},
	"show": {}, "me": {}, "buy": {}, "purchase": {}, "order": {}, "get": {}, "a": {},
	"an": {}, "the": {}, "some": {}, "any": {}, "to": {}, "can": {}, "you": {}, "help": {},
	"please": {}, "thanks": {}, "hello": {}, "hi": {}, "do": {}, "have": {}, "is": {},
	"are": {}, "there": {}, "what": {}, "where": {}, "how": {}, "much": {},
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// minKeywordLen is the shortest token kept in a query.
const minKeywordLen = 3

// ExtractKeywords strips stop words, punctuation and short tokens from a
// message. When nothing survives it returns the message unchanged so that a
// search never receives an empty query.
func ExtractKeywords(message string) string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(message), "")

	var keywords []string
	for _, word := range strings.Fields(cleaned) {
		if _, stop := stopWords[word]; stop {
			continue
		}
		if utf8.RuneCountInString(word) < minKeywordLen {
			continue
		}
		keywords = append(keywords, word)
	}

	query := strings.Join(keywords, " ")
	if strings.TrimSpace(query) == "" {
		return message
	}
	return query
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
