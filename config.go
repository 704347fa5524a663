package remotedev

import (
	"fmt"
	"net/url"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/remotedev/pkg/domain"
	"github.com/aretw0/remotedev/pkg/filter"
	"github.com/aretw0/remotedev/pkg/sanitize"
	"github.com/aretw0/remotedev/pkg/serialize"
	"github.com/aretw0/remotedev/pkg/transport"
)

// Predicate inspects the state produced by an action.
type Predicate func(state any, action domain.Action) bool

// BeforeSendingFunc intercepts a report before delivery. The report is a copy
// that may be edited; it is only delivered if send is called.
type BeforeSendingFunc func(report *domain.Report, send func(*domain.Report))

// Mode is the reporting policy derived from a Config.
type Mode int

const (
	// ModeBatched buffers entries and sends them when a trigger fires.
	ModeBatched Mode = iota
	// ModeEvery sends each observed entry on its own.
	ModeEvery
	// ModeOnlyState tracks the latest state only and sends it when a trigger fires.
	ModeOnlyState
)

func (m Mode) String() string {
	switch m {
	case ModeEvery:
		return "every"
	case ModeOnlyState:
		return "only_state"
	default:
		return "batched"
	}
}

// Config holds the recognized options. It must not be modified once passed to New.
//
// Fields with a mapstructure tag can be loaded from YAML with LoadConfig;
// function-valued fields are set in code.
type Config struct {
	// SendTo is the collector URL used by the default HTTP transport.
	SendTo string `mapstructure:"send_to"`
	// Sender replaces the HTTP transport.
	Sender transport.Sender `mapstructure:"-"`

	// SendOn lists action types that trigger a send.
	SendOn []string `mapstructure:"send_on"`
	// SendOnFunc triggers a send whenever it returns true.
	SendOnFunc Predicate `mapstructure:"-"`
	// SendOnCondition triggers a send the first time it returns true, and never again.
	SendOnCondition Predicate `mapstructure:"-"`
	// SendOnError reports host errors delivered through the error source,
	// ReportError or Recover.
	SendOnError bool `mapstructure:"send_on_error"`

	Every     bool `mapstructure:"every"`
	OnlyState bool `mapstructure:"only_state"`
	WithState bool `mapstructure:"with_state"`
	// MaxAge bounds the history. Zero keeps everything.
	MaxAge int `mapstructure:"max_age"`

	ActionsWhitelist []string `mapstructure:"actions_whitelist"`
	ActionsBlacklist []string `mapstructure:"actions_blacklist"`

	ActionSanitizer sanitize.ActionFunc `mapstructure:"-"`
	StateSanitizer  sanitize.StateFunc  `mapstructure:"-"`

	Title       string            `mapstructure:"title"`
	Description string            `mapstructure:"description"`
	Screenshot  string            `mapstructure:"screenshot"`
	Version     string            `mapstructure:"version"`
	AppID       string            `mapstructure:"app_id"`
	InstanceID  string            `mapstructure:"instance_id"`
	User        any               `mapstructure:"user"`
	Meta        any               `mapstructure:"meta"`
	UserAgent   string            `mapstructure:"user_agent"`
	Headers     map[string]string `mapstructure:"headers"`

	StringifyReplacer serialize.Replacer `mapstructure:"-"`
	BeforeSending     BeforeSendingFunc  `mapstructure:"-"`
	SendingStatus     domain.StatusHooks `mapstructure:"-"`
}

// Validate checks the configuration. Errors are *ConfigError values.
func (c *Config) Validate() error {
	if c.SendTo == "" && c.Sender == nil {
		return &ConfigError{Field: "SendTo", Err: ErrMissingTransport}
	}
	if c.Sender == nil {
		u, err := url.Parse(c.SendTo)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &ConfigError{Field: "SendTo", Err: fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.SendTo)}
		}
	}
	if c.Every && c.OnlyState {
		return &ConfigError{Field: "Every", Err: ErrConflictingModes}
	}
	if c.MaxAge < 0 {
		return &ConfigError{Field: "MaxAge", Err: ErrInvalidMaxAge}
	}
	if _, err := filter.New(c.ActionsWhitelist, c.ActionsBlacklist); err != nil {
		return &ConfigError{Field: "ActionsWhitelist", Err: err}
	}
	return nil
}

// Mode returns the active reporting policy.
func (c *Config) Mode() Mode {
	switch {
	case c.Every:
		return ModeEvery
	case c.OnlyState:
		return ModeOnlyState
	default:
		return ModeBatched
	}
}

// ReportType returns the report type implied by the mode.
func (c *Config) ReportType() domain.ReportType {
	switch c.Mode() {
	case ModeEvery:
		return domain.ReportAction
	case ModeOnlyState:
		return domain.ReportState
	}
	if c.WithState {
		return domain.ReportStates
	}
	return domain.ReportActions
}

// LoadConfig reads the declarative part of a Config from a YAML file.
// Unknown keys are rejected. The result is validated by New.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is like LoadConfig for in-memory YAML.
func ParseConfig(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, &ConfigError{Field: "yaml", Err: err}
	}

	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, &ConfigError{Field: "yaml", Err: err}
	}
	return cfg, nil
}
