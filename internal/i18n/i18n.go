// Package i18n serves user-facing reply strings from embedded locale
// catalogs.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLanguage is used when no language is requested or the requested one
// has no catalog.
const DefaultLanguage = "zh-TW"

// Service resolves message keys to localized strings.
type Service struct {
	defaultLang string
	catalogs    map[string]map[string]string
}

// NewService loads the embedded catalogs. lang overrides the default
// language; empty keeps DefaultLanguage.
func NewService(lang string) (*Service, error) {
	if lang == "" {
		lang = DefaultLanguage
	}

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	catalogs := make(map[string]map[string]string, len(entries))
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		data, err := fs.ReadFile(localeFS, path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}
		var catalog map[string]string
		if err := json.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", name, err)
		}
		catalogs[name] = catalog
	}

	return &Service{defaultLang: lang, catalogs: catalogs}, nil
}

// T resolves key in lang, interpolating {name} placeholders from args.
// Missing languages fall back to the default language, then to English;
// a missing key comes back as the key itself so broken lookups stay visible
// instead of replying with nothing.
func (s *Service) T(key, lang string, args map[string]string) string {
	catalog, ok := s.catalogs[lang]
	if !ok {
		catalog, ok = s.catalogs[s.defaultLang]
	}
	if !ok {
		catalog = s.catalogs["en"]
	}

	msg, ok := catalog[key]
	if !ok {
		return key
	}
	for name, value := range args {
		msg = strings.ReplaceAll(msg, "{"+name+"}", value)
	}
	return msg
}

// Default resolves key in the service's default language.
func (s *Service) Default(key string, args map[string]string) string {
	return s.T(key, s.defaultLang, args)
}
