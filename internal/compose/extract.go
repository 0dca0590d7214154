package compose

import "regexp"

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// ExtractURLs returns the http(s) URLs found in text, in first-occurrence
// order, with duplicates removed.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		urls = append(urls, m)
	}
	return urls
}

// SplitAroundURLs splits text into alternating plain-text and URL segments,
// preserving original order. URL segments satisfy IsURL.
func SplitAroundURLs(text string) []string {
	idxs := urlPattern.FindAllStringIndex(text, -1)
	if len(idxs) == 0 {
		return []string{text}
	}
	var parts []string
	last := 0
	for _, idx := range idxs {
		parts = append(parts, text[last:idx[0]], text[idx[0]:idx[1]])
		last = idx[1]
	}
	parts = append(parts, text[last:])
	return parts
}

// IsURL reports whether s is exactly one http(s) URL.
func IsURL(s string) bool {
	loc := urlPattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}
