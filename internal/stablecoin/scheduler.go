package stablecoin

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/stablecoin_layer/internal/logging"
	"github.com/R3E-Network/stablecoin_layer/internal/metrics"
)

// DefaultCheckpointSchedule runs a checkpoint once a minute.
const DefaultCheckpointSchedule = "@every 1m"

// Scheduler periodically saves the token and checks the supply invariant.
type Scheduler struct {
	token   *Token
	cron    *cron.Cron
	log     *logging.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewScheduler validates spec and registers the checkpoint job.
func NewScheduler(t *Token, spec string, log *logging.Logger, m *metrics.Metrics) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultCheckpointSchedule
	}
	if log == nil {
		log = logging.NewDiscard()
	}
	s := &Scheduler{
		token:   t,
		log:     log,
		metrics: m,
		timeout: 10 * time.Second,
	}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(log)),
		cron.SkipIfStillRunning(cron.PrintfLogger(log)),
	))
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("checkpoint schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("entries", len(s.cron.Entries())).Info("checkpoint scheduler started")
}

// Stop waits for a running checkpoint to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_ = s.Checkpoint(ctx)
}

// Checkpoint reconciles the supply counter against balances and saves the
// snapshot. A mismatch is reported, never repaired.
func (s *Scheduler) Checkpoint(ctx context.Context) error {
	counter, sum := s.token.Ledger().Reconcile()
	if counter != sum {
		s.metrics.RecordInvariantViolation()
		s.log.WithFields(map[string]interface{}{
			"mint":         s.token.MintAddress(),
			"total_supply": counter,
			"balance_sum":  sum,
		}).Error("supply invariant violated")
	}
	s.metrics.SetTotalSupply(counter)

	if err := s.token.Save(ctx); err != nil {
		s.log.WithContext(ctx).WithError(err).Error("checkpoint save failed")
		return err
	}
	return nil
}
