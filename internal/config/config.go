// Package config loads the posko dashboard configuration from viper and
// turns it into the immutable pipeline configuration.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Veraticus/posko/internal/common"
	"github.com/Veraticus/posko/internal/model"
	"github.com/Veraticus/posko/internal/pipeline"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Keywords overrides the header heuristics. Empty lists keep the defaults.
type Keywords struct {
	PrimaryDate    []string `mapstructure:"primary_date"`
	SecondaryDate  []string `mapstructure:"secondary_date"`
	DateSubstrings []string `mapstructure:"date_substrings"`
	Numeric        []string `mapstructure:"numeric"`
	Exclude        []string `mapstructure:"exclude"`
	Issue          []string `mapstructure:"issue"`
	Status         []string `mapstructure:"status"`
	IssueMinLength int      `mapstructure:"issue_min_length" validate:"gte=0"`
}

// Server configures `posko serve`.
type Server struct {
	Addr         string        `mapstructure:"addr" validate:"required,hostname_port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	// TLS serves HTTPS with a self-signed certificate kept in the config
	// directory. TLSHosts are extra names or IPs it must cover.
	TLS      bool     `mapstructure:"tls"`
	TLSHosts []string `mapstructure:"tls_hosts"`
}

// Logging configures the default slog logger.
type Logging struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
	// File receives log output; the TUI needs one to keep the screen clean.
	File string `mapstructure:"file"`
}

// Dashboard is the whole configuration file.
type Dashboard struct {
	LogSource       *model.Source  `mapstructure:"log_source"`
	Occupancy       map[string]int `mapstructure:"occupancy" validate:"dive,gte=0,lte=100"`
	Theme           string         `mapstructure:"theme" validate:"oneof=default catppuccin-mocha"`
	Sources         []model.Source `mapstructure:"sources" validate:"required,min=1,dive"`
	Logging         Logging        `mapstructure:"logging"`
	Server          Server         `mapstructure:"server"`
	Keywords        Keywords       `mapstructure:"keywords"`
	RefreshInterval time.Duration  `mapstructure:"refresh_interval" validate:"gte=1s"`
	CacheTTL        time.Duration  `mapstructure:"cache_ttl" validate:"gte=0"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("refresh_interval", "10s")
	v.SetDefault("cache_ttl", "10s")
	v.SetDefault("theme", "default")
	v.SetDefault("server.addr", "127.0.0.1:8090")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load decodes and validates the dashboard configuration held by v.
func Load(v *viper.Viper) (*Dashboard, error) {
	SetDefaults(v)

	var d Dashboard
	if err := v.Unmarshal(&d); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	if len(d.Sources) == 0 {
		return nil, common.NewUserError(
			"no sources configured; add a `sources:` list to config.yaml",
			common.ErrMissingConfig)
	}

	for i := range d.Sources {
		d.Sources[i].Path = ExpandPath(d.Sources[i].Path)
	}
	if d.LogSource != nil {
		d.LogSource.Path = ExpandPath(d.LogSource.Path)
	}
	d.Logging.File = ExpandPath(d.Logging.File)

	if err := newValidator().Struct(d); err != nil {
		return nil, describe(err)
	}

	return &d, nil
}

// PipelineConfig freezes the dashboard into a pipeline configuration.
func (d *Dashboard) PipelineConfig() (pipeline.Config, error) {
	return pipeline.NewConfig(pipeline.Options{
		Sources:         d.Sources,
		LogSource:       d.LogSource,
		Occupancy:       d.Occupancy,
		PrimaryDates:    d.Keywords.PrimaryDate,
		SecondaryDates:  d.Keywords.SecondaryDate,
		DateSubstrings:  d.Keywords.DateSubstrings,
		NumericKeywords: d.Keywords.Numeric,
		ExcludeKeywords: d.Keywords.Exclude,
		IssueKeywords:   d.Keywords.Issue,
		StatusKeywords:  d.Keywords.Status,
		IssueMinLength:  d.Keywords.IssueMinLength,
	})
}

// Backends returns the distinct backends used by the sources, in first-use
// order.
func (d *Dashboard) Backends() []model.Backend {
	var out []model.Backend
	seen := make(map[model.Backend]bool)
	all := d.Sources
	if d.LogSource != nil {
		all = append(append([]model.Source(nil), all...), *d.LogSource)
	}
	for _, src := range all {
		if !seen[src.Backend] {
			seen[src.Backend] = true
			out = append(out, src.Backend)
		}
	}
	return out
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report config keys, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	// Namespace starts with the struct name ("Dashboard.sources[0].id").
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
