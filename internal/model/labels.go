package model

import (
	"strings"
	"unicode"
)

// labelOverrides fixes words the splitter cannot capitalise sensibly.
var labelOverrides = map[string]string{
	"url": "URL",
	"id":  "ID",
	"bmi": "BMI",
}

// DefaultLabeler turns a field name into a label: separators and camelCase
// boundaries become spaces and the first word is capitalised.
func DefaultLabeler(name string) string {
	words := splitWords(name)
	for i, word := range words {
		lower := strings.ToLower(word)
		if override, ok := labelOverrides[lower]; ok {
			words[i] = override
			continue
		}
		if i == 0 {
			runes := []rune(lower)
			runes[0] = unicode.ToUpper(runes[0])
			words[i] = string(runes)
			continue
		}
		words[i] = lower
	}
	return strings.Join(words, " ")
}

func splitWords(name string) []string {
	var (
		words   []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}
	runes := []rune(strings.TrimSpace(name))
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
			continue
		case i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]):
			flush()
		case i > 0 && unicode.IsDigit(r) != unicode.IsDigit(runes[i-1]) && len(current) > 0:
			flush()
		}
		current = append(current, r)
	}
	flush()
	return words
}
