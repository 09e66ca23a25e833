package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kenykau/reinforcement-forex/backtest"
	"github.com/kenykau/reinforcement-forex/config"
	"github.com/kenykau/reinforcement-forex/journal"
)

// recorder journals finished sessions. Record is safe for concurrent use.
type recorder struct {
	mu     sync.Mutex
	cfg    *config.Config
	raw    []byte
	j      journal.Journal
	closed bool
}

func newRecorder(cfg *config.Config) (*recorder, error) {
	j, err := journal.New(cfg.Journal.Options())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		j.Close()
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if cfg.Journal.OrgDir != "" {
		if err := os.MkdirAll(cfg.Journal.OrgDir, 0755); err != nil {
			j.Close()
			return nil, err
		}
	}
	return &recorder{cfg: cfg, raw: raw, j: j}, nil
}

func (r *recorder) Record(ctx context.Context, res backtest.Result, s *backtest.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := s.Portfolio()
	if err := journal.Export(r.j, res.RunID, p.Closed(), p.History().Rows(), s.CloseReasons()); err != nil {
		return err
	}

	btr := res.BacktestRun(time.Now().UTC(), filepath.Base(r.cfg.Data.File))
	btr.Config = r.raw
	if r.cfg.Journal.OrgDir != "" {
		btr.OrgPath = filepath.Join(r.cfg.Journal.OrgDir, res.RunID+".org")
		if err := btr.WriteBacktestOrg(); err != nil {
			return fmt.Errorf("write org: %w", err)
		}
	}
	if sj, ok := r.j.(*journal.SQLiteJournal); ok {
		if err := sj.RecordBacktest(ctx, btr); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}
	return nil
}

// Close closes the journal once; later calls return nil.
func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.j.Close()
}
