// Package i18n loads the embedded message catalogs and renders the
// rationale, narrative and label texts in the user's language.
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-amlich/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Catalog holds every embedded locale.
type Catalog struct {
	bundle *goi18n.Bundle
	langs  []string
}

// Load parses the embedded locale files. Vietnamese is the fallback language.
func Load() (*Catalog, error) {
	bundle := goi18n.NewBundle(language.Vietnamese)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrLocalesAccess, err)
	}

	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", config.ErrLocaleLoad, name, err)
		}
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
		langs = append(langs, langCode)
	}

	if len(langs) == 0 {
		return nil, errors.New(config.ErrLocalesAccess)
	}
	return &Catalog{bundle: bundle, langs: langs}, nil
}

// Languages returns the language codes found in the embedded files.
func (c *Catalog) Languages() []string {
	out := make([]string, len(c.langs))
	copy(out, c.langs)
	return out
}

// Translator renders messages of a single language.
type Translator struct {
	lang      string
	localizer *goi18n.Localizer
}

// Translator returns a renderer for lang. Unknown languages fall back to Vietnamese.
func (c *Catalog) Translator(lang string) *Translator {
	if lang == "" {
		lang = config.DefaultLanguage
	}
	return &Translator{lang: lang, localizer: goi18n.NewLocalizer(c.bundle, lang)}
}

// Lang returns the requested language code.
func (t *Translator) Lang() string { return t.lang }

// Text renders message id with the template data. A missing id renders as
// the id itself so a gap in a catalog never breaks a response.
func (t *Translator) Text(id string, data map[string]any) string {
	if t == nil || t.localizer == nil {
		return id
	}
	msg, err := t.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, id,
			config.LogKeyError, err,
		)
		return id
	}
	return msg
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the process-wide catalog, loading it on first use.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load()
	})
	return defaultCatalog, defaultErr
}

// MustTranslator returns a Translator from the default catalog and panics
// if the embedded files are unreadable, which only a broken build can cause.
func MustTranslator(lang string) *Translator {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c.Translator(lang)
}
