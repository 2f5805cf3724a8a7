// Package ocr tidies recognized text and describes the external recognizers.
package ocr

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// Recognizer noise such as "BE10RRA" or "500MHZ". RE2's \b is ASCII
	// only, so word boundaries are checked by stripTokens instead.
	letterDigitTokens = regexp.MustCompile(`[A-Z]{2,}[0-9]+[A-Z]*`)
	digitLetterTokens = regexp.MustCompile(`[0-9]+[A-Z]{3,}`)

	capsOnlyLine = regexp.MustCompile(`^[A-Z0-9\s,;:()]{1,15}$`)
	hanChars     = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]`)
)

// Recognizer turns an image into text
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// SpeechRecognizer turns captured speech into a search phrase
type SpeechRecognizer interface {
	Listen(ctx context.Context) (string, error)
}

// Clean strips common recognition garbage from text. When every line is
// discarded the trimmed text is returned rather than nothing.
func Clean(text string) string {
	if text == "" {
		return text
	}

	text = stripTokens(letterDigitTokens, text)
	text = stripTokens(digitLetterTokens, text)

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isGarbage(line) || utf8.RuneCountInString(line) <= 1 {
			continue
		}
		kept = append(kept, line)
	}

	result := strings.TrimSpace(strings.Join(kept, "\n"))
	if result == "" {
		return strings.TrimSpace(text)
	}
	return result
}

// stripTokens removes matches of re that stand alone as words. A letter or
// digit from any script next to the match means it is part of a longer word.
func stripTokens(re *regexp.Regexp, text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		before, _ := utf8.DecodeLastRuneInString(text[:loc[0]])
		after, _ := utf8.DecodeRuneInString(text[loc[1]:])
		if isWordRune(before) || isWordRune(after) {
			continue
		}
		b.WriteString(text[last:loc[0]])
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isGarbage(line string) bool {
	if utf8.RuneCountInString(line) <= 10 {
		upper, digits, cjk := 0, 0, 0
		for _, r := range line {
			switch {
			case unicode.IsUpper(r):
				upper++
			case unicode.IsDigit(r):
				digits++
			case r >= 0x4E00 && r <= 0x9FFF:
				cjk++
			}
		}
		if cjk == 0 && (upper+digits)*2 > utf8.RuneCountInString(line) {
			return true
		}
	}

	return capsOnlyLine.MatchString(line) && !hanChars.MatchString(line)
}
