package services

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MatchSkills splits required skills into matched and missing. A skill
// matches when it equals an extracted skill or appears in the resume text
// on whole-token boundaries, case-insensitively: "Java" never matches "JavaScript".
func MatchSkills(required []string, resumeText string, extracted []string) (matched, missing []string) {
	known := make(map[string]struct{}, len(extracted))
	for _, skill := range extracted {
		known[strings.ToLower(strings.TrimSpace(skill))] = struct{}{}
	}

	text := strings.ToLower(resumeText)
	matched = []string{}
	missing = []string{}

	for _, skill := range dedupeSkills(required) {
		key := strings.ToLower(skill)
		if _, ok := known[key]; ok || containsToken(text, key) {
			matched = append(matched, skill)
			continue
		}
		missing = append(missing, skill)
	}

	return matched, missing
}

// containsToken reports whether token occurs in text with no letter or digit
// directly before or after it.
func containsToken(text, token string) bool {
	if token == "" {
		return false
	}

	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], token)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(token)

		if !isWordRuneBefore(text, start) && !isWordRuneAt(text, end) {
			return true
		}
		offset = start + 1
	}

	return false
}

func isWordRuneBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return isWordRune(r)
}

func isWordRuneAt(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
