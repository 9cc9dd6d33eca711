// Package preferences holds the display theme and language, persisted
// locally, and the translation lookup used for user-facing text.
package preferences

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/diagnosis/pakbooking/pkg/config"
	"github.com/diagnosis/pakbooking/pkg/logger"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

func ParseTheme(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

type Language string

const (
	English   Language = "en"
	Urdu      Language = "ur"
	RomanUrdu Language = "roman"
)

var Languages = []Language{English, Urdu, RomanUrdu}

// Keys in the preferences file.
const (
	themeKey    = "theme"
	languageKey = "language"
)

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Urdu,
	language.MustParse("ur-Latn"),
})

// ParseLanguage accepts the short codes and BCP 47 tags: ur-PK is Urdu and
// ur-Latn is Roman Urdu.
func ParseLanguage(s string) (Language, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range Languages {
		if s == string(l) {
			return l, true
		}
	}

	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "", false
	}
	return Languages[idx], true
}

//go:embed locales/*.yaml
var localeFS embed.FS

var (
	catalogOnce sync.Once
	catalogs    map[Language]map[string]string
	catalogErr  error
)

func loadCatalogs() (map[Language]map[string]string, error) {
	catalogOnce.Do(func() {
		catalogs = make(map[Language]map[string]string, len(Languages))
		for _, l := range Languages {
			raw, err := localeFS.ReadFile("locales/" + string(l) + ".yaml")
			if err != nil {
				catalogErr = fmt.Errorf("read %s catalog: %w", l, err)
				return
			}
			entries := map[string]string{}
			if err := yaml.Unmarshal(raw, &entries); err != nil {
				catalogErr = fmt.Errorf("parse %s catalog: %w", l, err)
				return
			}
			catalogs[l] = entries
		}
	})
	return catalogs, catalogErr
}

// KV is where preferences persist. *localstore.Store satisfies it.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

type Preferences struct {
	kv KV

	mu    sync.RWMutex
	theme Theme
	lang  Language
}

// Load restores saved preferences. Missing or unrecognised saved values
// fall back to defaults, then to dark and English.
func Load(kv KV, defaults config.LocaleConfig) *Preferences {
	p := &Preferences{kv: kv, theme: Dark, lang: English}

	if t, ok := ParseTheme(defaults.Theme); ok {
		p.theme = t
	}
	if l, ok := ParseLanguage(defaults.Language); ok {
		p.lang = l
	}

	if kv != nil {
		if v, ok := kv.Get(themeKey); ok {
			if t, ok := ParseTheme(v); ok {
				p.theme = t
			}
		}
		if v, ok := kv.Get(languageKey); ok {
			if l, ok := ParseLanguage(v); ok {
				p.lang = l
			}
		}
	}
	return p
}

func (p *Preferences) Theme() Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

func (p *Preferences) Language() Language {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lang
}

// ToggleTheme flips between light and dark and persists the result.
func (p *Preferences) ToggleTheme() (Theme, error) {
	p.mu.Lock()
	next := Light
	if p.theme == Light {
		next = Dark
	}
	p.mu.Unlock()
	return next, p.SetTheme(next)
}

func (p *Preferences) SetTheme(t Theme) error {
	if _, ok := ParseTheme(string(t)); !ok {
		return fmt.Errorf("unknown theme %q", t)
	}
	p.mu.Lock()
	p.theme = t
	p.mu.Unlock()
	return p.save(themeKey, string(t))
}

func (p *Preferences) SetLanguage(l Language) error {
	parsed, ok := ParseLanguage(string(l))
	if !ok {
		return fmt.Errorf("unsupported language %q", l)
	}
	p.mu.Lock()
	p.lang = parsed
	p.mu.Unlock()
	return p.save(languageKey, string(parsed))
}

func (p *Preferences) save(key, value string) error {
	if p.kv == nil {
		return nil
	}
	if err := p.kv.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// T translates key into the current language, falling back to English and
// then to the key itself.
func (p *Preferences) T(key string) string {
	return Translate(p.Language(), key)
}

func Translate(l Language, key string) string {
	cats, err := loadCatalogs()
	if err != nil {
		logger.Error("Translation catalogs unavailable", "error", err)
		return key
	}
	if v, ok := cats[l][key]; ok && v != "" {
		return v
	}
	if v, ok := cats[English][key]; ok && v != "" {
		return v
	}
	return key
}
