// Package config turns viper settings (flags, SCHOLARTREND_* environment
// variables and an optional config file) into a validated Config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FranksOps/scholartrend/internal/fingerprint"
	"github.com/FranksOps/scholartrend/internal/query"
	"github.com/FranksOps/scholartrend/pkg/ratelimit"
	"github.com/FranksOps/scholartrend/pkg/useragent"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. SCHOLARTREND_DELAY_MIN.
const EnvPrefix = "SCHOLARTREND"

// Keys shared by flags, environment and config file.
const (
	KeySince         = "since"
	KeyTo            = "to"
	KeyFilter        = "filter"
	KeyPlot          = "plot"
	KeyCSV           = "csv"
	KeyOutputDir     = "output-dir"
	KeyInfoFile      = "info-file"
	KeyFetcher       = "fetcher"
	KeyEntries       = "entries"
	KeyDelayMin      = "delay-min"
	KeyDelayMax      = "delay-max"
	KeyTimeout       = "timeout"
	KeyFingerprint   = "fingerprint"
	KeyUAStrategy    = "ua-strategy"
	KeyCookies       = "cookies"
	KeyBaseURL       = "base-url"
	KeyRespectRobots = "respect-robots"
	KeyWaitSelector  = "wait-selector"
	KeyShowBrowser   = "show-browser"
	KeyChromePath    = "chrome-path"
	KeyReport        = "report"
	KeyMetricsPort   = "metrics-port"
	KeyLogLevel      = "log-level"
)

// Fetcher kinds.
const (
	FetcherHTTP    = "http"
	FetcherBrowser = "browser"
)

// Report formats.
const (
	ReportText = "text"
	ReportJSON = "json"
	ReportHTML = "html"
	ReportNone = "none"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the resolved run configuration.
type Config struct {
	Since  int    `mapstructure:"since"`
	To     int    `mapstructure:"to"`
	Filter string `mapstructure:"filter"`

	Plot      bool   `mapstructure:"plot"`
	CSV       string `mapstructure:"csv"`
	OutputDir string `mapstructure:"output-dir"`
	InfoFile  string `mapstructure:"info-file"`

	Fetcher       string        `mapstructure:"fetcher"`
	Entries       bool          `mapstructure:"entries"`
	DelayMin      time.Duration `mapstructure:"delay-min"`
	DelayMax      time.Duration `mapstructure:"delay-max"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Fingerprint   string        `mapstructure:"fingerprint"`
	UAStrategy    string        `mapstructure:"ua-strategy"`
	Cookies       bool          `mapstructure:"cookies"`
	BaseURL       string        `mapstructure:"base-url"`
	RespectRobots bool          `mapstructure:"respect-robots"`

	WaitSelector string `mapstructure:"wait-selector"`
	ShowBrowser  bool   `mapstructure:"show-browser"`
	ChromePath   string `mapstructure:"chrome-path"`

	Report      string `mapstructure:"report"`
	MetricsPort int    `mapstructure:"metrics-port"`
	LogLevel    string `mapstructure:"log-level"`
}

// SetDefaults registers every key so environment variables resolve even
// for keys no flag or file mentions. delay-max has no default; when unset
// it follows delay-min.
func SetDefaults(v *viper.Viper, now time.Time) {
	v.SetDefault(KeySince, 2020)
	v.SetDefault(KeyTo, now.Year())
	v.SetDefault(KeyFilter, string(query.And))
	v.SetDefault(KeyPlot, false)
	v.SetDefault(KeyCSV, "")
	v.SetDefault(KeyOutputDir, ".")
	v.SetDefault(KeyInfoFile, "search_info.txt")
	v.SetDefault(KeyFetcher, FetcherHTTP)
	v.SetDefault(KeyEntries, false)
	v.SetDefault(KeyDelayMin, time.Second)
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyFingerprint, string(fingerprint.ProfileChrome))
	v.SetDefault(KeyUAStrategy, string(useragent.Sticky))
	v.SetDefault(KeyCookies, true)
	v.SetDefault(KeyBaseURL, query.DefaultBaseURL)
	v.SetDefault(KeyRespectRobots, false)
	v.SetDefault(KeyWaitSelector, "")
	v.SetDefault(KeyShowBrowser, false)
	v.SetDefault(KeyChromePath, "")
	v.SetDefault(KeyReport, ReportText)
	v.SetDefault(KeyMetricsPort, 0)
	v.SetDefault(KeyLogLevel, "info")
}

// BindEnv maps SCHOLARTREND_OUTPUT_DIR style variables onto the keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Keys without a default are only seen through an explicit binding.
	_ = v.BindEnv(KeyDelayMax)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	c.Filter = strings.ToUpper(strings.TrimSpace(c.Filter))
	c.Fetcher = strings.ToLower(strings.TrimSpace(c.Fetcher))
	c.Report = strings.ToLower(strings.TrimSpace(c.Report))
	if !v.IsSet(KeyDelayMax) {
		c.DelayMax = c.DelayMin
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values that can be judged without the keywords.
func (c Config) Validate() error {
	var errs []error
	if _, err := query.ParseCombinator(c.Filter); err != nil {
		errs = append(errs, err)
	}
	if err := c.Range().Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Fetcher {
	case FetcherHTTP, FetcherBrowser:
	default:
		errs = append(errs, fmt.Errorf("%w: fetcher %q (want http or browser)", ErrInvalid, c.Fetcher))
	}
	switch c.Report {
	case ReportText, ReportJSON, ReportHTML, ReportNone:
	default:
		errs = append(errs, fmt.Errorf("%w: report %q (want text, json, html or none)", ErrInvalid, c.Report))
	}
	if _, err := ratelimit.Uniform(c.DelayMin, c.DelayMax); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be positive", ErrInvalid))
	}
	if _, err := fingerprint.ParseProfile(c.Fingerprint); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	if _, err := useragent.ParseStrategy(c.UAStrategy); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("%w: metrics port %d", ErrInvalid, c.MetricsPort))
	}
	if _, err := query.NewProvider(c.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	return errors.Join(errs...)
}

// Range is the configured year span.
func (c Config) Range() query.YearRange {
	return query.YearRange{Since: c.Since, To: c.To}
}

// Query builds the keyword query with the configured combinator.
func (c Config) Query(keywords []string) (query.Query, error) {
	comb, err := query.ParseCombinator(c.Filter)
	if err != nil {
		return query.Query{}, err
	}
	q := query.New(keywords, comb)
	if err := q.Validate(); err != nil {
		return query.Query{}, err
	}
	return q, nil
}

// Delay is the pacing policy between years.
func (c Config) Delay() *ratelimit.Delay {
	d, err := ratelimit.Uniform(c.DelayMin, c.DelayMax)
	if err != nil {
		return ratelimit.Fixed(c.DelayMin)
	}
	return d
}

// Provider is the search front end at BaseURL.
func (c Config) Provider() (query.Provider, error) {
	return query.NewProvider(c.BaseURL)
}
