package recon

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically force-fails contacts stuck non-terminal past the
// stale window. It backstops the in-process timers, which do not survive a
// restart.
type Sweeper struct {
	cron *cron.Cron
	log  *slog.Logger
}

func NewSweeper(svc *Service, spec string, log *slog.Logger) (*Sweeper, error) {
	if log == nil {
		log = slog.Default()
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		swept, err := svc.SweepStale(context.Background())
		if err != nil {
			log.Error("stale sweep failed", "err", err)
			return
		}
		if swept > 0 {
			log.Info("stale sweep force-failed contacts", "count", swept)
		}
	})
	if err != nil {
		return nil, err
	}
	return &Sweeper{cron: c, log: log}, nil
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
