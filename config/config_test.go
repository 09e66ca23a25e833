package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/kenykau/reinforcement-forex/indicators"
	"github.com/kenykau/reinforcement-forex/instrument"
	"github.com/kenykau/reinforcement-forex/market"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "USD", cfg.Account.Currency)
	assert.Equal(t, 10000.0, cfg.Account.Balance)
	assert.Equal(t, 0.5, cfg.Account.StopOut)
	assert.Equal(t, "EURUSD", cfg.Simulation.Symbol)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing currency", func(c *Config) { c.Account.Currency = "" }, "account.currency is required"},
		{"negative balance", func(c *Config) { c.Account.Balance = -1000 }, "account.balance must be greater than 0"},
		{"stop out above one", func(c *Config) { c.Account.StopOut = 1.5 }, "account.stop_out must be at most 1"},
		{"equity floor above one", func(c *Config) { c.Account.MinEquityFraction = floatPtr(1.5) }, "account.min_equity_fraction must be at most 1"},
		{"no symbols", func(c *Config) { c.Symbols = nil; c.Simulation.Symbol = "" }, "symbols is required"},
		{"zero leverage", func(c *Config) { c.Symbols[0].Leverage = 0 }, "symbols[0].leverage must be greater than 0"},
		{"max lot below min", func(c *Config) { c.Symbols[1].MaxLot = 0.001 }, "symbols[1].max_lot must not be below MinLot"},
		{"bad asset", func(c *Config) { c.Symbols[0].Asset = "bond" }, "symbols[0].asset must be one of"},
		{"bad spread mode", func(c *Config) { c.Symbols[0].Spread.Mode = "wide" }, "unknown spread mode"},
		{"bad swap day", func(c *Config) { c.Symbols[0].SwapDay = "someday" }, "unknown swap day"},
		{"duplicate symbol", func(c *Config) { c.Symbols[1].Name = "EURUSD" }, "duplicate symbol EURUSD"},
		{"unknown simulation symbol", func(c *Config) { c.Simulation.Symbol = "GBPUSD" }, "simulation.symbol GBPUSD is not configured"},
		{"zero lots", func(c *Config) { c.Simulation.Lots = 0 }, "simulation.lots must be greater than 0"},
		{"applied price", func(c *Config) { c.Simulation.AppliedPrice = "high-ish" }, "simulation.applied_price"},
		{"risk pair", func(c *Config) { c.Simulation.RiskPct = 0.01 }, "must be set together"},
		{"feature kind", func(c *Config) {
			c.Features = []FeatureConfig{{Symbol: "EURUSD", Kind: "macd"}}
		}, "features[0]"},
		{"feature symbol", func(c *Config) {
			c.Features = []FeatureConfig{{Symbol: "XAUUSD", Kind: "ema"}}
		}, "features[0]: symbol XAUUSD is not configured"},
		{"overlapping sessions", func(c *Config) {
			c.Symbols[0].Sessions = []SessionConfig{{"00:00", "12:00", 1}, {"11:00", "24:00", 2}}
		}, "overlaps"},
		{"session gap", func(c *Config) {
			c.Symbols[0].Sessions = []SessionConfig{{"00:00", "08:00", 1}, {"09:00", "24:00", 2}}
		}, "uncovered"},
		{"journal type", func(c *Config) { c.Journal.Type = "parquet" }, "journal.type must be one of [csv sqlite none]"},
		{"csv paths", func(c *Config) { c.Journal.EquityFile = "" }, "journal trades_file and equity_file required for CSV type"},
		{"sqlite path", func(c *Config) { c.Journal.Type = "sqlite" }, "journal db_path required for SQLite type"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level must be one of"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Account.Currency = ""
	cfg.Account.Balance = 0
	cfg.Simulation.Lots = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
		{"yml format", ".yml"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			cfg.Symbols[0].Sessions = []SessionConfig{{"00:00", "08:00", 12}, {"08:00", "24:00", 4}}
			cfg.Features = []FeatureConfig{{Symbol: "EURUSD", Kind: "rsi", Period: 14}}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))
			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("account: [unterminated"), 0644))
	_, err = LoadFromFile(bad)
	assert.ErrorContains(t, err, "parse config")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("account:\n  currency: USD\n"), 0644))
	_, err = LoadFromFile(invalid)
	assert.ErrorContains(t, err, "invalid config")
}

func TestEquityFloor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want float64
	}{
		{"absent", "currency: USD\n", 0.5},
		{"explicit zero turns it off", "currency: USD\nmin_equity_fraction: 0\n", 0},
		{"set", "currency: USD\nmin_equity_fraction: 0.2\n", 0.2},
	}
	for _, tt := range tests {
		var a AccountConfig
		require.NoError(t, yaml.Unmarshal([]byte(tt.yaml), &a), tt.name)
		assert.Equal(t, tt.want, a.EquityFloor(), tt.name)
	}
	assert.Equal(t, 0.5, Default().Account.EquityFloor())
}

func TestSymbolSpec(t *testing.T) {
	t.Parallel()

	cfg := Default()
	sc, ok := cfg.Symbol("USDJPY")
	require.True(t, ok)

	spec, err := sc.Spec()
	require.NoError(t, err)
	assert.Equal(t, instrument.Forex, spec.Asset)
	assert.Equal(t, 3, spec.Digits)
	assert.Equal(t, 7.0, spec.Commission)
	assert.Equal(t, time.Wednesday, spec.SwapDay)
	assert.Equal(t, instrument.SpreadConfig{Mode: instrument.SpreadRandom, Min: 1, Max: 10, Fixed: 3}, spec.Spread)

	_, ok = cfg.Symbol("GBPUSD")
	assert.False(t, ok)

	gold := SymbolConfig{
		Name: "XAUUSD", Asset: "cfd", Leverage: 20, Digits: 2,
		MinLot: 0.01, MaxLot: 10, LotStep: 0.01, LotSize: 100, SwapDay: "Fri",
	}
	_, err = gold.Spec()
	assert.ErrorIs(t, err, instrument.ErrConfig)

	gold.FixedPointValue = 1
	spec, err = gold.Spec()
	require.NoError(t, err)
	assert.Equal(t, instrument.CFD, spec.Asset)
	assert.Equal(t, time.Friday, spec.SwapDay)
	assert.Equal(t, instrument.SpreadIgnore, spec.Spread.Mode)
}

func TestSymbolSessions(t *testing.T) {
	t.Parallel()

	sc := SymbolConfig{}
	table, err := sc.SessionTable()
	require.NoError(t, err)
	assert.Nil(t, table)

	sc.Sessions = []SessionConfig{{"08:00", "24:00", 4}, {"00:00", "08:00", 12}}
	table, err = sc.SessionTable()
	require.NoError(t, err)
	assert.True(t, table.Covers())
	ranges := table.Ranges()
	require.Len(t, ranges, 2)
	assert.Equal(t, 8*time.Hour, ranges[0].End)

	sc.Sessions = []SessionConfig{{"08:00", "24:00", 4}}
	_, err = sc.SessionTable()
	assert.ErrorContains(t, err, "uncovered")

	sc.Sessions = []SessionConfig{{"8am", "24:00", 4}}
	_, err = sc.SessionTable()
	assert.True(t, errors.Is(err, instrument.ErrConfig))
}

func TestDataMapping(t *testing.T) {
	t.Parallel()

	m := DataConfig{}.Mapping()
	assert.Equal(t, market.DefaultMapping(), m)

	m = DataConfig{
		TimeLayout: time.RFC3339,
		Fields:     map[string]string{market.ColVolume: "vol", market.RoleTime: "timestamp"},
	}.Mapping()
	assert.Equal(t, time.RFC3339, m.TimeLayout)
	assert.Equal(t, "vol", m.Columns[market.ColVolume])
	assert.Equal(t, "timestamp", m.Columns[market.RoleTime])
	assert.Equal(t, "open", m.Columns[market.ColOpen])
	// the default mapping is not shared
	assert.Equal(t, "volume", market.DefaultMapping().Columns[market.ColVolume])
}

func TestAdapters(t *testing.T) {
	t.Parallel()

	f, err := FeatureConfig{Symbol: "EURUSD", Kind: "BB", Period: 20, Name: "band"}.Feature()
	require.NoError(t, err)
	assert.Equal(t, indicators.Feature{Symbol: "EURUSD", Kind: indicators.Bollinger, Period: 20, Name: "band"}, f)

	applied, err := SimulationConfig{}.Applied()
	require.NoError(t, err)
	assert.Equal(t, market.Open, applied)
	applied, err = SimulationConfig{AppliedPrice: "close"}.Applied()
	require.NoError(t, err)
	assert.Equal(t, market.Close, applied)

	opts := JournalConfig{Type: "sqlite", DBPath: "j.db"}.Options()
	assert.Equal(t, "sqlite", opts.Kind)
	assert.Equal(t, "j.db", opts.DBPath)
}
