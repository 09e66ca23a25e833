// Package config loads and validates the simulator configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/kenykau/reinforcement-forex/indicators"
	"github.com/kenykau/reinforcement-forex/instrument"
	"github.com/kenykau/reinforcement-forex/journal"
	"github.com/kenykau/reinforcement-forex/market"
	"github.com/kenykau/reinforcement-forex/risk"
)

// Config represents the complete simulation configuration
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Data       DataConfig       `json:"data" yaml:"data"`
	Symbols    []SymbolConfig   `json:"symbols" yaml:"symbols" validate:"required,min=1,dive"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Features   []FeatureConfig  `json:"features,omitempty" yaml:"features,omitempty" validate:"dive"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID                     string   `json:"id" yaml:"id"`
	Currency               string   `json:"currency" yaml:"currency" validate:"required,len=3"`
	Balance                float64  `json:"balance" yaml:"balance" validate:"gt=0"`
	StopOut                float64  `json:"stop_out" yaml:"stop_out" validate:"gte=0,lte=1"`
	MinEquityFraction      *float64 `json:"min_equity_fraction,omitempty" yaml:"min_equity_fraction,omitempty" validate:"omitempty,gte=0,lte=1"`
	AllowMultiplePositions bool     `json:"allow_multiple_positions" yaml:"allow_multiple_positions"`
}

// EquityFloor is the configured min_equity_fraction, or
// risk.DefaultMinEquityFraction when the key is absent. An explicit 0
// turns the floor off.
func (a AccountConfig) EquityFloor() float64 {
	if a.MinEquityFraction == nil {
		return risk.DefaultMinEquityFraction
	}
	return *a.MinEquityFraction
}

func floatPtr(v float64) *float64 { return &v }

// DataConfig locates the bar file and maps its columns.
type DataConfig struct {
	File       string            `json:"file" yaml:"file"`
	TimeLayout string            `json:"time_layout,omitempty" yaml:"time_layout,omitempty"`
	Fields     map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Mapping overlays Fields and TimeLayout on market.DefaultMapping.
func (d DataConfig) Mapping() market.FieldMapping {
	m := market.DefaultMapping()
	for role, col := range d.Fields {
		m.Columns[role] = col
	}
	if d.TimeLayout != "" {
		m.TimeLayout = d.TimeLayout
	}
	return m
}

// SymbolConfig is the file form of instrument.Spec. Spread quantities are
// in points.
type SymbolConfig struct {
	Name            string          `json:"name" yaml:"name" validate:"required"`
	Asset           string          `json:"asset" yaml:"asset" validate:"omitempty,oneof=forex fx cfd"`
	Leverage        float64         `json:"leverage" yaml:"leverage" validate:"gt=0"`
	Base            string          `json:"base,omitempty" yaml:"base,omitempty"`
	Quote           string          `json:"quote,omitempty" yaml:"quote,omitempty"`
	Digits          int             `json:"digits" yaml:"digits" validate:"gte=0,lte=10"`
	Commission      float64         `json:"commission" yaml:"commission" validate:"gte=0"`
	MinLot          float64         `json:"min_lot" yaml:"min_lot" validate:"gt=0"`
	MaxLot          float64         `json:"max_lot" yaml:"max_lot" validate:"gtefield=MinLot"`
	LotStep         float64         `json:"lot_step" yaml:"lot_step" validate:"gt=0"`
	LotSize         float64         `json:"lot_size" yaml:"lot_size" validate:"gt=0"`
	SwapLong        float64         `json:"swap_long" yaml:"swap_long"`
	SwapShort       float64         `json:"swap_short" yaml:"swap_short"`
	SwapDay         string          `json:"swap_day,omitempty" yaml:"swap_day,omitempty"`
	Spread          SpreadSettings  `json:"spread" yaml:"spread"`
	Sessions        []SessionConfig `json:"sessions,omitempty" yaml:"sessions,omitempty" validate:"dive"`
	FixedPointValue float64         `json:"fixed_point_value,omitempty" yaml:"fixed_point_value,omitempty" validate:"gte=0"`
}

type SpreadSettings struct {
	Mode  string  `json:"mode" yaml:"mode"`
	Min   float64 `json:"min,omitempty" yaml:"min,omitempty" validate:"gte=0"`
	Max   float64 `json:"max,omitempty" yaml:"max,omitempty" validate:"gtefield=Min"`
	Fixed float64 `json:"fixed,omitempty" yaml:"fixed,omitempty" validate:"gte=0"`
}

// SessionConfig is one time-of-day spread range, "HH:MM" to "HH:MM".
type SessionConfig struct {
	Begin  string  `json:"begin" yaml:"begin" validate:"required"`
	End    string  `json:"end" yaml:"end" validate:"required"`
	Spread float64 `json:"spread" yaml:"spread" validate:"gte=0"`
}

// SimulationConfig selects what a run trades and how it is driven.
type SimulationConfig struct {
	Symbol       string  `json:"symbol" yaml:"symbol" validate:"required"`
	Lots         float64 `json:"lots" yaml:"lots" validate:"gt=0"`
	AppliedPrice string  `json:"applied_price,omitempty" yaml:"applied_price,omitempty"`
	Strategy     string  `json:"strategy" yaml:"strategy" validate:"required"`
	Feature      string  `json:"feature,omitempty" yaml:"feature,omitempty"` // column read by the feature strategy
	WindowSize   int     `json:"window_size,omitempty" yaml:"window_size,omitempty" validate:"gte=0"`
	WarmupBars   int     `json:"warmup_bars,omitempty" yaml:"warmup_bars,omitempty" validate:"gte=0"`
	Seed         int64   `json:"seed" yaml:"seed"`
	MaxSteps     int     `json:"max_steps,omitempty" yaml:"max_steps,omitempty" validate:"gte=0"`
	CloseEnd     bool    `json:"close_end" yaml:"close_end"`
	RiskPct      float64 `json:"risk_pct,omitempty" yaml:"risk_pct,omitempty" validate:"gte=0,lte=1"`
	RiskPoints   float64 `json:"risk_points,omitempty" yaml:"risk_points,omitempty" validate:"gte=0"`
	Parallel     int     `json:"parallel,omitempty" yaml:"parallel,omitempty" validate:"gte=0"`
}

// Applied parses AppliedPrice, defaulting to the bar open.
func (s SimulationConfig) Applied() (market.Field, error) {
	if s.AppliedPrice == "" {
		return market.Open, nil
	}
	return market.ParseField(s.AppliedPrice)
}

type FeatureConfig struct {
	Symbol string `json:"symbol" yaml:"symbol" validate:"required"`
	Kind   string `json:"kind" yaml:"kind" validate:"required"`
	Period int    `json:"period,omitempty" yaml:"period,omitempty" validate:"gte=0"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
}

func (f FeatureConfig) Feature() (indicators.Feature, error) {
	k, err := indicators.ParseKind(f.Kind)
	if err != nil {
		return indicators.Feature{}, err
	}
	return indicators.Feature{Symbol: f.Symbol, Kind: k, Period: f.Period, Name: f.Name}, nil
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type" validate:"omitempty,oneof=csv sqlite none"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrgDir     string `json:"org_dir,omitempty" yaml:"org_dir,omitempty"`
}

func (j JournalConfig) Options() journal.Options {
	return journal.Options{
		Kind:       j.Type,
		TradesPath: j.TradesFile,
		EquityPath: j.EquityFile,
		DBPath:     j.DBPath,
	}
}

type LoggingConfig struct {
	Level            string   `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Encoding         string   `json:"encoding" yaml:"encoding" validate:"omitempty,oneof=console json"`
	Development      bool     `json:"development" yaml:"development"`
	OutputPaths      []string `json:"output_paths,omitempty" yaml:"output_paths,omitempty"`
	ErrorOutputPaths []string `json:"error_output_paths,omitempty" yaml:"error_output_paths,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file, as YAML for .yaml/.yml paths
// and JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Symbol returns the configuration of the named symbol.
func (c *Config) Symbol(name string) (SymbolConfig, bool) {
	for _, s := range c.Symbols {
		if s.Name == name {
			return s, true
		}
	}
	return SymbolConfig{}, false
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:                "SIM-001",
			Currency:          "USD",
			Balance:           10000,
			StopOut:           0.5,
			MinEquityFraction: floatPtr(risk.DefaultMinEquityFraction),
		},
		Data: DataConfig{
			File:       "./bars.csv",
			TimeLayout: "2006-01-02 15:04:05",
		},
		Symbols: []SymbolConfig{
			{
				Name: "EURUSD", Asset: "forex", Leverage: 100, Base: "EUR", Quote: "USD", Digits: 5,
				MinLot: 0.01, MaxLot: 1, LotStep: 0.01, LotSize: 100000, SwapDay: "wednesday",
				Spread: SpreadSettings{Mode: "ignore", Min: 1, Max: 10, Fixed: 3},
			},
			{
				Name: "USDJPY", Asset: "forex", Leverage: 100, Base: "USD", Quote: "JPY", Digits: 3,
				Commission: 7, MinLot: 0.01, MaxLot: 1, LotStep: 0.01, LotSize: 100000,
				SwapLong: 2.3, SwapShort: 2.75, SwapDay: "wednesday",
				Spread: SpreadSettings{Mode: "random", Min: 1, Max: 10, Fixed: 3},
			},
		},
		Simulation: SimulationConfig{
			Symbol:       "EURUSD",
			Lots:         0.1,
			AppliedPrice: "open",
			Strategy:     "hold",
			WindowSize:   12,
			Seed:         1,
			CloseEnd:     true,
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the configuration and reports every violation.
func (c *Config) Validate() error {
	var err error

	if verr := validate.Struct(c); verr != nil {
		var fields validator.ValidationErrors
		if !errors.As(verr, &fields) {
			return verr
		}
		for _, fe := range fields {
			err = multierr.Append(err, fieldError(fe))
		}
	}

	seen := map[string]bool{}
	for i, s := range c.Symbols {
		if seen[s.Name] {
			err = multierr.Append(err, fmt.Errorf("symbols[%d]: duplicate symbol %s", i, s.Name))
		}
		seen[s.Name] = true
		if _, serr := s.Spec(); serr != nil {
			err = multierr.Append(err, fmt.Errorf("symbols[%d]: %w", i, serr))
			continue
		}
		if _, serr := s.SessionTable(); serr != nil {
			err = multierr.Append(err, fmt.Errorf("symbols[%d]: %w", i, serr))
		}
	}

	if c.Simulation.Symbol != "" && !seen[c.Simulation.Symbol] {
		err = multierr.Append(err, fmt.Errorf("simulation.symbol %s is not configured", c.Simulation.Symbol))
	}
	if _, aerr := c.Simulation.Applied(); aerr != nil {
		err = multierr.Append(err, fmt.Errorf("simulation.applied_price: %w", aerr))
	}
	if (c.Simulation.RiskPct > 0) != (c.Simulation.RiskPoints > 0) {
		err = multierr.Append(err, errors.New("simulation.risk_pct and simulation.risk_points must be set together"))
	}

	for i, f := range c.Features {
		if _, ferr := f.Feature(); ferr != nil {
			err = multierr.Append(err, fmt.Errorf("features[%d]: %w", i, ferr))
		}
		if f.Symbol != "" && !seen[f.Symbol] {
			err = multierr.Append(err, fmt.Errorf("features[%d]: symbol %s is not configured", i, f.Symbol))
		}
	}

	switch c.Journal.Type {
	case journal.KindCSV:
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			err = multierr.Append(err, errors.New("journal trades_file and equity_file required for CSV type"))
		}
	case journal.KindSQLite:
		if c.Journal.DBPath == "" {
			err = multierr.Append(err, errors.New("journal db_path required for SQLite type"))
		}
	}

	return err
}

func fieldError(fe validator.FieldError) error {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", ns)
	case "gt":
		return fmt.Errorf("%s must be greater than %s", ns, fe.Param())
	case "gte":
		return fmt.Errorf("%s must be at least %s", ns, fe.Param())
	case "lte":
		return fmt.Errorf("%s must be at most %s", ns, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s]", ns, fe.Param())
	case "gtefield":
		return fmt.Errorf("%s must not be below %s", ns, fe.Param())
	default:
		return fmt.Errorf("%s failed %s=%s", ns, fe.Tag(), fe.Param())
	}
}

// Spec converts the file form into an instrument.Spec.
func (s SymbolConfig) Spec() (instrument.Spec, error) {
	asset := instrument.Forex
	if s.Asset != "" {
		a, err := instrument.ParseAssetClass(s.Asset)
		if err != nil {
			return instrument.Spec{}, err
		}
		asset = a
	}

	mode := instrument.SpreadIgnore
	if s.Spread.Mode != "" {
		m, err := instrument.ParseSpreadMode(s.Spread.Mode)
		if err != nil {
			return instrument.Spec{}, err
		}
		mode = m
	}

	day, err := parseWeekday(s.SwapDay)
	if err != nil {
		return instrument.Spec{}, err
	}

	spec := instrument.Spec{
		Name:       s.Name,
		Asset:      asset,
		Leverage:   s.Leverage,
		Base:       s.Base,
		Quote:      s.Quote,
		Digits:     s.Digits,
		Commission: s.Commission,
		MinLot:     s.MinLot,
		MaxLot:     s.MaxLot,
		LotStep:    s.LotStep,
		LotSize:    s.LotSize,
		SwapLong:   s.SwapLong,
		SwapShort:  s.SwapShort,
		SwapDay:    day,
		Spread: instrument.SpreadConfig{
			Mode:  mode,
			Min:   s.Spread.Min,
			Max:   s.Spread.Max,
			Fixed: s.Spread.Fixed,
		},
		FixedPointValue: s.FixedPointValue,
	}
	if err := spec.Validate(); err != nil {
		return instrument.Spec{}, err
	}
	return spec, nil
}

// SessionTable builds the session spread table, or nil when none is configured.
// A configured table must cover the whole day.
func (s SymbolConfig) SessionTable() (*instrument.SessionTable, error) {
	if len(s.Sessions) == 0 {
		return nil, nil
	}
	t := &instrument.SessionTable{}
	for _, r := range s.Sessions {
		begin, err := instrument.ParseClock(r.Begin)
		if err != nil {
			return nil, err
		}
		end, err := instrument.ParseClock(r.End)
		if err != nil {
			return nil, err
		}
		if err := t.Add(begin, end, r.Spread); err != nil {
			return nil, err
		}
	}
	if !t.Covers() {
		return nil, fmt.Errorf("%w: sessions leave part of the day uncovered", instrument.ErrConfig)
	}
	return t, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	if s == "" {
		return time.Wednesday, nil
	}
	want := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if want == name || want == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown swap day %q", instrument.ErrConfig, s)
}
