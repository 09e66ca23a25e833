package backtest

import (
	"fmt"
	"math/rand"

	"github.com/kenykau/reinforcement-forex/config"
	"github.com/kenykau/reinforcement-forex/indicators"
	"github.com/kenykau/reinforcement-forex/instrument"
	"github.com/kenykau/reinforcement-forex/market"
	"github.com/kenykau/reinforcement-forex/risk"
	"github.com/kenykau/reinforcement-forex/sim"
	"github.com/kenykau/reinforcement-forex/strategies"
)

// Env is a prepared dataset and the symbol traded on it. Preparing attaches
// the spread and feature columns, so an Env belongs to one symbol setup;
// sessions may share it read-only.
type Env struct {
	Data   *market.Dataset
	Symbol *instrument.Symbol
}

// Prepare loads rows with the configured mapping, attaches the configured
// features and binds the simulated symbol. seed drives random spreads.
func Prepare(cfg *config.Config, rows []market.RawRow, seed int64) (*Env, error) {
	data, err := market.Load(rows, cfg.Data.Mapping())
	if err != nil {
		return nil, err
	}

	features := make([]indicators.Feature, 0, len(cfg.Features))
	for _, fc := range cfg.Features {
		f, err := fc.Feature()
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	if err := indicators.AttachAll(data, features); err != nil {
		return nil, err
	}

	sc, ok := cfg.Symbol(cfg.Simulation.Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: symbol %s is not configured", instrument.ErrConfig, cfg.Simulation.Symbol)
	}
	spec, err := sc.Spec()
	if err != nil {
		return nil, err
	}
	sessions, err := sc.SessionTable()
	if err != nil {
		return nil, err
	}
	sym, err := instrument.New(spec, cfg.Account.Currency, data, sessions, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	return &Env{Data: data, Symbol: sym}, nil
}

// OptionsFromConfig translates the simulation and account sections.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	applied, err := cfg.Simulation.Applied()
	if err != nil {
		return Options{}, err
	}
	stop, err := risk.NewStopOut(cfg.Account.StopOut, cfg.Account.EquityFloor(), cfg.Account.Balance)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Lots:       cfg.Simulation.Lots,
		Applied:    applied,
		WarmupBars: cfg.Simulation.WarmupBars,
		MaxSteps:   cfg.Simulation.MaxSteps,
		CloseEnd:   cfg.Simulation.CloseEnd,
		RiskPct:    cfg.Simulation.RiskPct,
		RiskPoints: cfg.Simulation.RiskPoints,
		StopOut:    stop,
		Account: sim.Config{
			StartingBalance:        cfg.Account.Balance,
			Currency:               cfg.Account.Currency,
			AllowMultiplePositions: cfg.Account.AllowMultiplePositions,
		},
	}, nil
}

// StrategyFromConfig builds the configured strategy, or name when it is set.
func StrategyFromConfig(cfg *config.Config, name string) (strategies.Strategy, error) {
	if name == "" {
		name = cfg.Simulation.Strategy
	}
	return strategies.New(name, strategies.Params{
		Symbol:  cfg.Simulation.Symbol,
		Feature: cfg.Simulation.Feature,
	})
}
