// Package config holds the immutable configuration of one corpus run: the
// phrase set, the ordered character roster and the analysis knobs, compiled
// once and shared read-only by every document analysis.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kittclouds/talestat/pkg/matcher"
	"github.com/kittclouds/talestat/pkg/scanner/discovery"
	"github.com/kittclouds/talestat/pkg/scanner/frequency"
	"github.com/kittclouds/talestat/pkg/scanner/narrative"
	"github.com/kittclouds/talestat/pkg/scanner/quotes"
	"github.com/kittclouds/talestat/pkg/scanner/resolver"
)

// ErrInvalidConfiguration is wrapped by every validation failure.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ValidationError names the offending option.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfiguration, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Options is the user-facing configuration.
type Options struct {
	Phrases            []string `yaml:"phrases"`
	Characters         []string `yaml:"characters"`
	TopN               int      `yaml:"top_n"`
	ContextWindow      int      `yaml:"context_window"`
	Delimiters         string   `yaml:"delimiters"`
	Workers            int      `yaml:"workers"`             // 0 = one per CPU
	StopwordLanguage   string   `yaml:"stopword_language"`   // "" disables content words
	DiscoveryThreshold int      `yaml:"discovery_threshold"` // 0 disables discovery
	PageScale          float64  `yaml:"page_scale"`
	SpeechVerbs        []string `yaml:"speech_verbs"` // added to the built-in lexicon
}

// DefaultOptions returns the historical defaults.
func DefaultOptions() Options {
	return Options{
		Phrases: []string{
			"cicatrice", "mais", "dumbledore", "harry", "hermione", "ron",
			"severus", "rogue", "avada kedavra", "sang", "mort",
		},
		Characters: []string{
			"Harry", "Hermione", "Ron", "Dumbledore", "Severus",
			"Snape", "Rogue", "Voldemort", "Draco", "Hagrid",
		},
		TopN:          40,
		ContextWindow: resolver.DefaultWindow,
		Delimiters:    quotes.DefaultDelimiters,
		PageScale:     100,
	}
}

// Config is a validated, compiled Options. It is never mutated after New.
type Config struct {
	phrases            []string
	characters         []string
	topN               int
	contextWindow      int
	workers            int
	pageScale          float64
	discoveryThreshold int

	phraseMatcher *matcher.PhraseMatcher
	nameMatcher   *matcher.NameMatcher
	segmenter     *quotes.Segmenter
	stopwords     *frequency.Stopwords
	verbs         *narrative.NarrativeMatcher
	discovery     *discovery.DiscoveryEngine
}

// New validates opts and compiles the matchers.
func New(opts Options) (*Config, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}

	phrases, err := matcher.CompilePhrases(opts.Phrases)
	if err != nil {
		return nil, invalid("phrases", "%v", err)
	}
	names, err := matcher.CompileNames(opts.Characters)
	if err != nil {
		return nil, invalid("characters", "%v", err)
	}
	seg, err := quotes.New(opts.Delimiters)
	if err != nil {
		return nil, invalid("delimiters", "%v", err)
	}

	var sw *frequency.Stopwords
	if opts.StopwordLanguage != "" {
		sw, err = frequency.LoadStopwords(opts.StopwordLanguage)
		if err != nil {
			return nil, invalid("stopword_language", "%v", err)
		}
	}

	verbs := narrative.New()
	for _, v := range opts.SpeechVerbs {
		verbs.AddVerb(v)
	}

	// Discovery always filters English function words, plus the
	// configured language.
	lists := []discovery.StopList{}
	if en, err := frequency.LoadStopwords("en"); err == nil {
		lists = append(lists, en)
	}
	if sw != nil && sw.Lang != "en" {
		lists = append(lists, sw)
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	return &Config{
		phrases:            append([]string(nil), opts.Phrases...),
		characters:         append([]string(nil), opts.Characters...),
		topN:               opts.TopN,
		contextWindow:      opts.ContextWindow,
		workers:            workers,
		pageScale:          opts.PageScale,
		discoveryThreshold: opts.DiscoveryThreshold,
		phraseMatcher:      phrases,
		nameMatcher:        names,
		segmenter:          seg,
		stopwords:          sw,
		verbs:              verbs,
		discovery:          discovery.NewEngine(opts.DiscoveryThreshold, opts.Characters, verbs, lists...),
	}, nil
}

func validate(opts Options) error {
	seen := make(map[string]bool, len(opts.Phrases))
	for i, p := range opts.Phrases {
		if p == "" {
			return invalid("phrases", "entry %d is empty", i)
		}
		key := matcher.Fold(p)
		if seen[key] {
			return invalid("phrases", "duplicate phrase %q", p)
		}
		seen[key] = true
	}

	seen = make(map[string]bool, len(opts.Characters))
	for i, c := range opts.Characters {
		if strings.TrimSpace(c) == "" {
			return invalid("characters", "entry %d is empty", i)
		}
		key := matcher.Fold(c)
		if key == resolver.Unknown {
			return invalid("characters", "%q is reserved", c)
		}
		if seen[key] {
			return invalid("characters", "duplicate name %q", c)
		}
		seen[key] = true
	}

	switch {
	case opts.TopN < 0:
		return invalid("top_n", "must be >= 0, got %d", opts.TopN)
	case opts.ContextWindow <= 0:
		return invalid("context_window", "must be > 0, got %d", opts.ContextWindow)
	case opts.Delimiters == "":
		return invalid("delimiters", "empty delimiter set")
	case opts.Workers < 0:
		return invalid("workers", "must be >= 0, got %d", opts.Workers)
	case opts.DiscoveryThreshold < 0:
		return invalid("discovery_threshold", "must be >= 0, got %d", opts.DiscoveryThreshold)
	case opts.PageScale <= 0:
		return invalid("page_scale", "must be > 0, got %g", opts.PageScale)
	}
	return nil
}

// Load reads a YAML file on top of DefaultOptions and validates it.
func Load(path string) (*Config, error) {
	opts, err := LoadOptions(path)
	if err != nil {
		return nil, err
	}
	return New(opts)
}

// LoadOptions reads a YAML file on top of DefaultOptions without compiling
// it. Lists present in the file replace the defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return opts, nil
}

// Phrases returns the phrase set in configuration order.
func (c *Config) Phrases() []string { return append([]string(nil), c.phrases...) }

// Characters returns the roster in precedence order.
func (c *Config) Characters() []string { return append([]string(nil), c.characters...) }

func (c *Config) TopN() int { return c.topN }
func (c *Config) ContextWindow() int { return c.contextWindow }
func (c *Config) Workers() int { return c.workers }
func (c *Config) PageScale() float64 { return c.pageScale }
func (c *Config) DiscoveryThreshold() int { return c.discoveryThreshold }

func (c *Config) PhraseMatcher() *matcher.PhraseMatcher { return c.phraseMatcher }
func (c *Config) NameMatcher() *matcher.NameMatcher { return c.nameMatcher }
func (c *Config) Segmenter() *quotes.Segmenter { return c.segmenter }
func (c *Config) Verbs() *narrative.NarrativeMatcher { return c.verbs }
func (c *Config) Discovery() *discovery.DiscoveryEngine { return c.discovery }

// Stopwords returns the content-word filter, or nil when disabled.
func (c *Config) Stopwords() *frequency.Stopwords { return c.stopwords }
