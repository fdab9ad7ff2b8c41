package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// SupportedLanguages lists the locales shipped with the binary.
var SupportedLanguages = []language.Tag{language.Vietnamese, language.English}

// Settings is the user-editable configuration, read from amlich.yaml.
type Settings struct {
	Language string         `yaml:"language"`
	TimeZone float64        `yaml:"timezone"`
	Engine   EngineSettings `yaml:"engine"`
	Server   ServerSettings `yaml:"server"`
	Feed     FeedSettings   `yaml:"feed"`
	Contacts SourceSettings `yaml:"contacts"`
}

// EngineSettings tunes the good-day search.
type EngineSettings struct {
	Workers     int `yaml:"workers"`
	MaxSpanDays int `yaml:"max_span_days"`
	MinScore    int `yaml:"min_score"`
	MaxResults  int `yaml:"max_results"`
}

// ServerSettings configures the local HTTP server.
type ServerSettings struct {
	Port           string `yaml:"port"`
	RefreshMinutes int    `yaml:"refresh_minutes"`
}

// FeedSettings describes the good-day iCalendar feed.
type FeedSettings struct {
	Activities []string `yaml:"activities"`
	WindowDays int      `yaml:"window_days"`
	BirthYear  int      `yaml:"birth_year"`
	MinScore   int      `yaml:"min_score"`
	Reminder   string   `yaml:"reminder"` // ISO8601 duration, e.g. "-P1D"
}

// SourceSettings points at the address book used by the contacts command.
type SourceSettings struct {
	Mode     string `yaml:"mode"` // SourceModeLocal or SourceModeWeb
	Path     string `yaml:"path"`
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	MaxBytes int64  `yaml:"max_bytes"` // size cap of a downloaded address book
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() *Settings {
	return &Settings{
		Language: DefaultLanguage,
		TimeZone: DefaultTimeZone,
		Engine: EngineSettings{
			Workers:     DefaultWorkers,
			MaxSpanDays: DefaultMaxSpanDays,
			MinScore:    DefaultMinScore,
			MaxResults:  DefaultMaxResults,
		},
		Server: ServerSettings{
			Port:           DefaultPort,
			RefreshMinutes: DefaultRefreshMin,
		},
		Feed: FeedSettings{
			Activities: []string{DefaultFeedActivity},
			WindowDays: DefaultFeedWindow,
			MinScore:   DefaultMinScore,
		},
		Contacts: SourceSettings{Mode: SourceModeLocal, MaxBytes: MaxHTTPResponseSize},
	}
}

// DefaultSettingsPath returns the settings file location in the user config dir.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return SettingsFileName
	}
	return filepath.Join(dir, AppID, SettingsFileName)
}

// LoadSettings reads path over the defaults. A missing file yields the defaults.
// Environment overrides are applied last and the result is validated.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("%s: %w", ErrSettingsRead, err)
	default:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrSettingsParse, err)
		}
	}

	s.applyEnvOverrides()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the settings as YAML, creating the parent directory if needed.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrCreateDir, err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	return nil
}

func (s *Settings) applyEnvOverrides() {
	if v := os.Getenv("AMLICH_LANG"); v != "" {
		s.Language = v
	}
	if v := os.Getenv("AMLICH_PORT"); v != "" {
		s.Server.Port = v
	}
	if v := os.Getenv("AMLICH_CONTACTS_URL"); v != "" {
		s.Contacts.Mode = SourceModeWeb
		s.Contacts.URL = v
	}
}

// Validate checks every field and returns the first problem found.
func (s *Settings) Validate() error {
	if _, err := MatchLanguage(s.Language); err != nil {
		return err
	}
	if s.TimeZone < -12 || s.TimeZone > 14 {
		return errors.New(ErrTimeZone)
	}
	if s.Engine.Workers < 1 || s.Engine.Workers > MaxWorkers {
		return errors.New(ErrWorkers)
	}
	if s.Engine.MaxSpanDays < 1 {
		return errors.New(ErrRangeTooLong)
	}
	if err := ValidateScore(s.Engine.MinScore); err != nil {
		return err
	}
	if err := ValidateScore(s.Feed.MinScore); err != nil {
		return err
	}
	if s.Engine.MaxResults < 1 {
		return errors.New(ErrMaxResults)
	}
	if s.Feed.WindowDays < 1 {
		return errors.New(ErrFeedWindow)
	}
	if err := ValidatePort(s.Server.Port); err != nil {
		return err
	}
	switch s.Contacts.Mode {
	case SourceModeLocal, SourceModeWeb:
	default:
		return fmt.Errorf("%s: %q", ErrModeUnsupport, s.Contacts.Mode)
	}
	if s.Contacts.MaxBytes < 1 || s.Contacts.MaxBytes > MaxHTTPResponseSize {
		return errors.New(ErrMaxBytes)
	}
	return nil
}

// MatchLanguage resolves a BCP 47 tag to the closest supported locale.
// Only an exact-base match is accepted: "vi-VN" maps to "vi", "fr" is rejected.
func MatchLanguage(tag string) (language.Tag, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return language.Und, fmt.Errorf("%s: %q: %w", ErrLanguage, tag, err)
	}
	base, _ := t.Base()
	for _, s := range SupportedLanguages {
		if sb, _ := s.Base(); sb == base {
			return s, nil
		}
	}
	return language.Und, fmt.Errorf("%s: %q", ErrLanguage, tag)
}

// ValidatePort checks that p is a TCP port number.
func ValidatePort(p string) error {
	if p == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return errors.New(ErrPortNumber)
	}
	if n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}

// ValidateScore checks that v lies in the score range.
func ValidateScore(v int) error {
	if v < MinScore || v > MaxScore {
		return errors.New(ErrMinScore)
	}
	return nil
}
