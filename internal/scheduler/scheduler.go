package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"StockSeer/internal/notifier"
	"StockSeer/internal/pipeline"
)

// Scheduler manages cron tasks and Telegram commands.
type Scheduler struct {
	Cron      *cron.Cron
	Pipeline  *pipeline.Pipeline
	Notifier  *notifier.TelegramNotifier
	Tickers   []string
	WatchList []string
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline, tn *notifier.TelegramNotifier, tickers, watchList []string) *Scheduler {
	if len(watchList) == 0 {
		watchList = tickers
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Pipeline:  p,
		Notifier:  tn,
		Tickers:   tickers,
		WatchList: watchList,
		Ctx:       ctx,
	}
}

// RegisterAll registers the cache warm-up and digest tasks. An empty
// expression skips that task.
func (s *Scheduler) RegisterAll(warmCron, digestCron string) error {
	if warmCron != "" {
		if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
			return fmt.Errorf("register warm task: %w", err)
		}
	}
	if digestCron != "" {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunWarmNow executes the warm-up task immediately (for RUN_ON_START).
func (s *Scheduler) RunWarmNow() {
	s.warmTask()
}

func (s *Scheduler) warmTask() {
	log.Println("[INFO] running cache warm-up")
	n, err := s.Pipeline.Warm(s.Ctx, s.Tickers)
	if err != nil {
		log.Printf("[ERROR] warm-up: %v", err)
		return
	}
	log.Printf("[INFO] warmed %d/%d tickers", n, len(s.Tickers))
}

// Digest runs the watch list and returns one line per ticker.
func (s *Scheduler) Digest(ctx context.Context) []notifier.DigestLine {
	lines := make([]notifier.DigestLine, 0, len(s.WatchList))
	for _, t := range s.WatchList {
		res, err := s.Pipeline.Run(ctx, pipeline.Params{Ticker: t, Months: pipeline.MinMonths})
		lines = append(lines, notifier.DigestLine{Ticker: strings.ToUpper(t), Result: res, Err: err})
	}
	return lines
}

func (s *Scheduler) digestTask() {
	if !s.Notifier.Enabled() {
		log.Println("[INFO] digest skipped: telegram disabled")
		return
	}
	log.Println("[INFO] running digest task")
	s.trySend(notifier.FormatDigest(s.Digest(s.Ctx), time.Now()))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Commands may be addressed as /forecast@BotName in groups.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/forecast":
		if len(fields) < 2 {
			return "Usage: /forecast TICKER [MONTHS]"
		}
		params := pipeline.Params{Ticker: fields[1], Months: pipeline.MinMonths}
		if len(fields) > 2 {
			m, err := strconv.Atoi(fields[2])
			if err != nil {
				return fmt.Sprintf("Months must be a number between %d and %d", pipeline.MinMonths, pipeline.MaxMonths)
			}
			params.Months = m
		}
		res, err := s.Pipeline.Run(ctx, params)
		if err != nil {
			return notifier.FormatError(params.Normalize().Ticker, err)
		}
		return notifier.FormatForecast(res)
	case "/tickers":
		return notifier.FormatTickers(s.Tickers)
	case "/runs":
		runs, err := s.Pipeline.RecentRuns(10)
		if err != nil {
			log.Printf("[ERROR] list runs: %v", err)
			return "Failed to list runs"
		}
		return notifier.FormatRuns(runs)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
