package compose

import (
	"strings"
	"time"
)

const maxTitleSeedLen = 30

// invalid filename characters, stripped from title seeds.
const invalidTitleChars = `\/*?:"<>|`

// BuildTitle assembles a document or file title of the form
// "YYYYMMDD_HHMM_{tag}_{seed}". The seed is sanitized and truncated; when it
// comes out empty the placeholder "Backup" is used instead.
func BuildTitle(now time.Time, tag, seed string) string {
	name := SanitizeTitleSeed(seed)
	if name == "" {
		name = "Backup"
	}
	return now.Format("20060102_1504") + "_" + tag + "_" + name
}

// SanitizeTitleSeed strips characters that are invalid in file names,
// collapses surrounding whitespace and truncates the result to a display
// length safe for drive listings.
func SanitizeTitleSeed(seed string) string {
	var b strings.Builder
	for _, r := range seed {
		if strings.ContainsRune(invalidTitleChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := strings.TrimSpace(b.String())
	runes := []rune(cleaned)
	if len(runes) > maxTitleSeedLen {
		cleaned = strings.TrimSpace(string(runes[:maxTitleSeedLen]))
	}
	return cleaned
}

// TitleSeed picks the naming seed for a text save request. The message text
// itself names the document, except when the message is nothing but a single
// URL; then the fetched page's title stands in. A bare URL whose page gave no
// title yields no seed so the placeholder applies.
func TitleSeed(text string, titles []string) string {
	trimmed := strings.TrimSpace(text)
	if IsURL(trimmed) {
		for _, t := range titles {
			if strings.TrimSpace(t) != "" {
				return t
			}
		}
		return ""
	}
	return trimmed
}
