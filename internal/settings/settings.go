// Package settings reads the push settings file: named feeds, their stored
// API keys and the symbol feeds paired with them.
package settings

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings is wrapped by every validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Source is one named feed.
type Source struct {
	Name         string `yaml:"name"`
	URL          string `yaml:"url"`
	APIKey       string `yaml:"apiKey,omitempty"`
	SymbolSource string `yaml:"symbolSource,omitempty"`
}

// Settings is the parsed settings file. It is read-only once loaded and
// safe for concurrent use.
type Settings struct {
	DefaultPushSource   string   `yaml:"defaultPushSource,omitempty"`
	DefaultSymbolSource string   `yaml:"defaultSymbolSource,omitempty"`
	Sources             []Source `yaml:"sources,omitempty"`
}

// Load reads the settings file at path. A missing file yields empty settings.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading settings file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates settings YAML.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	seen := make(map[string]bool, len(s.Sources))
	for i, src := range s.Sources {
		if strings.TrimSpace(src.Name) == "" {
			return fmt.Errorf("%w: sources[%d]: name is required", ErrInvalidSettings, i)
		}
		if strings.TrimSpace(src.URL) == "" {
			return fmt.Errorf("%w: source %q: url is required", ErrInvalidSettings, src.Name)
		}
		key := strings.ToLower(src.Name)
		if seen[key] {
			return fmt.Errorf("%w: source %q is defined twice", ErrInvalidSettings, src.Name)
		}
		seen[key] = true
	}
	return nil
}

// WithDefaults fills the default push and symbol sources when the file left
// them empty.
func (s *Settings) WithDefaults(pushSource, symbolSource string) *Settings {
	out := *s
	if out.DefaultPushSource == "" {
		out.DefaultPushSource = pushSource
	}
	if out.DefaultSymbolSource == "" {
		out.DefaultSymbolSource = symbolSource
	}
	return &out
}

// ResolveSource maps a source name to its URL. Anything that is not a known
// name is returned as given; an empty source selects the default push source.
func (s *Settings) ResolveSource(source string) (string, error) {
	if source == "" {
		source = s.DefaultPushSource
	}
	if src, ok := s.lookup(source); ok {
		return src.URL, nil
	}
	return source, nil
}

// SymbolSource returns the symbol feed paired with source, falling back to
// the default symbol source.
func (s *Settings) SymbolSource(source string) string {
	if src, ok := s.lookup(source); ok && src.SymbolSource != "" {
		if paired, ok := s.lookup(src.SymbolSource); ok {
			return paired.URL
		}
		return src.SymbolSource
	}
	if paired, ok := s.lookup(s.DefaultSymbolSource); ok {
		return paired.URL
	}
	return s.DefaultSymbolSource
}

// APIKey returns the key stored for source, matched by name or URL.
func (s *Settings) APIKey(source string) string {
	if src, ok := s.lookup(source); ok {
		return src.APIKey
	}
	return ""
}

func (s *Settings) lookup(source string) (Source, bool) {
	if source == "" {
		return Source{}, false
	}
	for _, src := range s.Sources {
		if strings.EqualFold(src.Name, source) || sameURL(src.URL, source) {
			return src, true
		}
	}
	return Source{}, false
}

func sameURL(a, b string) bool {
	return strings.EqualFold(strings.TrimRight(a, "/"), strings.TrimRight(b, "/"))
}
