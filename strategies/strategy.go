// Package strategies holds the built-in decision policies that drive a
// session when no external agent is attached.
package strategies

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kenykau/reinforcement-forex/market"
	"github.com/kenykau/reinforcement-forex/sim"
)

// Strategy is the minimal interface a backtest strategy must implement.
// It is called once per bar, after the cursor has moved and before the
// portfolio applies the returned action.
type Strategy interface {
	Decide(c *market.Cursor, p *sim.Portfolio) (sim.Action, error)
}

// Params carry everything a factory may read.
type Params struct {
	Symbol  string
	Side    sim.Side // open-once
	Feature string   // feature, ema-cross
}

type Factory func(Params) (Strategy, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[normalize(name)] = f
}

// Names lists the registered strategies in order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds the named strategy.
func New(name string, p Params) (Strategy, error) {
	mu.RLock()
	f, ok := registry[normalize(name)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(p)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func init() {
	Register("hold", func(Params) (Strategy, error) { return Hold{}, nil })
	Register("open-once", func(p Params) (Strategy, error) {
		if p.Side == 0 {
			p.Side = sim.Long
		}
		return NewOpenOnce(p.Side)
	})
	Register("feature", func(p Params) (Strategy, error) { return NewFeature(p.Symbol, p.Feature) })
	Register("ema-cross", func(p Params) (Strategy, error) {
		if p.Feature == "" {
			p.Feature = "ema"
		}
		return NewCross(p.Symbol, p.Feature)
	})
}

// target turns a desired side into the action that reaches it from the
// portfolio's current exposure: reversing closes first, a position already
// on the right side is held.
func target(p *sim.Portfolio, want sim.Side) sim.Action {
	for _, pos := range p.Open() {
		if pos.Side == want {
			return sim.ActionHold
		}
	}
	if want == sim.Long {
		return sim.ActionLong
	}
	return sim.ActionShort
}
