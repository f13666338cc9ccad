package monitor

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/monadflip/flip-monitor/config"
	"github.com/monadflip/flip-monitor/contract"
	"github.com/monadflip/flip-monitor/contract/abi"
	"github.com/monadflip/flip-monitor/ethclient"
	"github.com/monadflip/flip-monitor/logging"
	"github.com/monadflip/flip-monitor/utils"
)

// Monitor drives the poll cycle: it owns the scan cursor, the re-entrancy
// guard, and the backoff state machine. One Monitor runs per process; all of
// its mutable state lives in fields so independent instances can be tested
// side by side.
type Monitor struct {
	logger   logging.Logger
	cfg      *config.MonitorConfig
	client   ethclient.Client
	contract *contract.Contract
	handler  *FlipEventHandler

	// cursor is the last block fully scanned. It only moves forward and is
	// deliberately not persisted: a restart resumes from the chain head.
	cursor  uint64
	polling atomic.Bool
	// errorStreak counts consecutive failed cycles; it feeds the backoff
	// formula and the circuit breaker, and resets on any successful cycle.
	errorStreak uint

	headBlockMetric      prometheus.Gauge
	processedBlockMetric prometheus.Gauge
	gamesMetric          prometheus.Counter
	referralsMetric      prometheus.Counter
	skippedMetric        prometheus.Counter
}

// NewMonitor builds a Monitor with its cursor initialized to the current
// chain head. Failing to read the head is a startup failure.
func NewMonitor(ctx context.Context, logger logging.Logger, client ethclient.Client, flipContract *contract.Contract, handler *FlipEventHandler, cfg *config.MonitorConfig) (*Monitor, error) {
	head, err := client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("can't fetch chain head for initial cursor: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"chain_id":      client.ChainID(),
		"address":       flipContract.Address,
		"current_block": head,
	}).Info("starting from current chain head")

	commonLabels := prometheus.Labels{
		"chain_id": client.ChainID(),
		"address":  flipContract.Address.String(),
	}
	return &Monitor{
		logger:               logger,
		cfg:                  cfg,
		client:               client,
		contract:             flipContract,
		handler:              handler,
		cursor:               head,
		headBlockMetric:      LatestHeadBlock.With(commonLabels),
		processedBlockMetric: LatestProcessedBlock.With(commonLabels),
		gamesMetric:          IngestedEvents.MustCurryWith(commonLabels).WithLabelValues(abi.GameResolved),
		referralsMetric:      IngestedEvents.MustCurryWith(commonLabels).WithLabelValues(abi.ReferralReward),
		skippedMetric:        SkippedLogs.With(commonLabels),
	}, nil
}

// Cursor returns the last fully scanned block.
func (m *Monitor) Cursor() uint64 {
	return m.cursor
}

// Start launches the poll loop. It returns immediately; the loop stops when
// ctx is cancelled, including any in-progress backoff sleep.
func (m *Monitor) Start(ctx context.Context) {
	go m.run(ctx)
}

func (m *Monitor) run(ctx context.Context) {
	// Give the RPC endpoint a moment after connect before the first cycle.
	if utils.ContextSleep(ctx, m.cfg.StartupDelay.Duration) == nil {
		return
	}
	m.logger.WithField("poll_interval", m.cfg.PollInterval.Duration).Info("starting poll loop")

	ticker := time.NewTicker(m.cfg.PollInterval.Duration)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("poll loop stopped")
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs one poll cycle and applies the failure policy. A tick arriving
// while a cycle is still in flight (or sleeping off a backoff) is dropped,
// not queued, so at most one cycle ever runs at a time.
func (m *Monitor) Tick(ctx context.Context) {
	if !m.polling.CompareAndSwap(false, true) {
		return
	}
	defer m.polling.Store(false)

	err := m.RunCycle(ctx)
	if err == nil {
		m.errorStreak = 0
		return
	}
	if ctx.Err() != nil {
		return
	}
	m.errorStreak++

	backoffCfg := m.cfg.Backoff
	if m.errorStreak >= backoffCfg.ErrorThreshold {
		CycleErrors.With(prometheus.Labels{
			"chain_id": m.client.ChainID(),
			"address":  m.contract.Address.String(),
			"class":    "circuit_breaker",
		}).Inc()
		m.logger.WithError(err).WithFields(logrus.Fields{
			"consecutive_errors": m.errorStreak,
			"cooldown":           backoffCfg.Cooldown.Duration,
		}).Error("too many consecutive poll errors, pausing")
		m.errorStreak = 0
		utils.ContextSleep(ctx, backoffCfg.Cooldown.Duration)
		return
	}

	if IsRateLimitError(err) {
		delay := BackoffDelay(backoffCfg.Base.Duration, backoffCfg.Max.Duration, m.errorStreak)
		CycleErrors.With(prometheus.Labels{
			"chain_id": m.client.ChainID(),
			"address":  m.contract.Address.String(),
			"class":    "rate_limit",
		}).Inc()
		m.logger.WithError(err).WithField("delay", delay).Warn("rate limited, backing off")
		utils.ContextSleep(ctx, delay)
		return
	}

	CycleErrors.With(prometheus.Labels{
		"chain_id": m.client.ChainID(),
		"address":  m.contract.Address.String(),
		"class":    "transient",
	}).Inc()
	m.logger.WithError(err).Error("poll cycle failed")
}

// RunCycle scans the next block window. The cursor advances only when the
// whole cycle succeeds, and only to the window's upper bound: blocks beyond
// maxRange stay pending for the next cycle so a backlog never produces an
// unbounded log query.
func (m *Monitor) RunCycle(ctx context.Context) error {
	head, err := m.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("can't fetch latest block number: %w", err)
	}
	m.headBlockMetric.Set(float64(head))

	if head <= m.cursor {
		return nil
	}
	window := BlocksRange{
		From: m.cursor + 1,
		To:   m.cursor + m.cfg.MaxBlockRangeSize,
	}
	if window.To > head {
		window.To = head
	}

	games, err := m.fetchLogs(ctx, abi.GameResolved, window)
	if err != nil {
		return fmt.Errorf("can't fetch %s logs: %w", abi.GameResolved, err)
	}
	if err = m.processLogs(ctx, abi.GameResolved, games); err != nil {
		return err
	}

	// Courtesy pause between the two ranged queries.
	if utils.ContextSleep(ctx, m.cfg.RequestDelay.Duration) == nil {
		return ctx.Err()
	}

	rewards, err := m.fetchLogs(ctx, abi.ReferralReward, window)
	if err != nil {
		return fmt.Errorf("can't fetch %s logs: %w", abi.ReferralReward, err)
	}
	if err = m.processLogs(ctx, abi.ReferralReward, rewards); err != nil {
		return err
	}

	m.cursor = window.To
	m.processedBlockMetric.Set(float64(m.cursor))
	if len(games) > 0 || len(rewards) > 0 {
		m.logger.WithFields(logrus.Fields{
			"from_block": window.From,
			"to_block":   window.To,
			"games":      len(games),
			"referrals":  len(rewards),
		}).Info("processed block window")
	}
	return nil
}

func (m *Monitor) fetchLogs(ctx context.Context, event string, window BlocksRange) ([]types.Log, error) {
	return m.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(window.From),
		ToBlock:   new(big.Int).SetUint64(window.To),
		Addresses: []common.Address{m.contract.Address},
		Topics:    [][]common.Hash{{m.contract.EventID(event)}},
	})
}

// processLogs handles fetched logs one at a time, preserving log order and
// keeping the ingestion writer single-threaded. A log that cannot be decoded
// is skipped; a handler failure drops that event and moves on.
func (m *Monitor) processLogs(ctx context.Context, event string, logs []types.Log) error {
	for _, log := range logs {
		name, values, err := m.contract.ParseLog(log)
		if err != nil || name != event {
			m.skippedMetric.Inc()
			m.logger.WithError(err).WithFields(logrus.Fields{
				"block_number": log.BlockNumber,
				"tx_hash":      log.TxHash,
				"log_index":    log.Index,
			}).Warn("skipping undecodable log")
			continue
		}

		// Fetched only for logs that decode.
		timestamp, err := m.client.BlockTimestamp(ctx, log.BlockNumber)
		if err != nil {
			return fmt.Errorf("can't fetch timestamp of block %d: %w", log.BlockNumber, err)
		}

		switch event {
		case abi.GameResolved:
			ev, err := decodeGameResolved(log, values, timestamp)
			if err != nil {
				m.skippedMetric.Inc()
				m.logger.WithError(err).WithField("tx_hash", log.TxHash).Warn("skipping malformed game event")
				continue
			}
			if err = m.handler.HandleGameResolved(ctx, ev); err != nil {
				m.logger.WithError(err).WithField("tx_hash", log.TxHash).Error("dropping game event after storage failure")
				continue
			}
			m.gamesMetric.Inc()
		case abi.ReferralReward:
			ev, err := decodeReferralReward(log, values, timestamp)
			if err != nil {
				m.skippedMetric.Inc()
				m.logger.WithError(err).WithField("tx_hash", log.TxHash).Warn("skipping malformed referral event")
				continue
			}
			if err = m.handler.HandleReferralReward(ctx, ev); err != nil {
				m.logger.WithError(err).WithField("tx_hash", log.TxHash).Error("dropping referral event after storage failure")
				continue
			}
			m.referralsMetric.Inc()
		}
	}
	return nil
}

// BackoffDelay computes min(max, base * 2^(streak-1)).
func BackoffDelay(base, max time.Duration, streak uint) time.Duration {
	if streak == 0 {
		return 0
	}
	delay := base
	for i := uint(1); i < streak; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
