// Package pipeline orchestrates a sweep: pull tickets page by page, filter,
// analyze, plan, execute, and fold every outcome into run statistics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/tuannvm/jiraclean/internal/analyzer"
	"github.com/tuannvm/jiraclean/internal/assessment"
	"github.com/tuannvm/jiraclean/internal/executor"
	"github.com/tuannvm/jiraclean/internal/filter"
	"github.com/tuannvm/jiraclean/internal/jira"
	log "github.com/tuannvm/jiraclean/internal/logging"
	"github.com/tuannvm/jiraclean/internal/models"
	"github.com/tuannvm/jiraclean/internal/planner"
)

// ErrBreakerOpen is returned when a collaborator has failed repeatedly and
// the run was aborted early. Statistics gathered so far remain valid.
var ErrBreakerOpen = errors.New("collaborator circuit breaker open")

// Stats are the run counters. Every ticket pulled from the source lands in
// exactly one of the five outcome buckets, so
// Processed == NeedsAction + NoAction + AssessmentFailures + Skipped + Errors.
type Stats struct {
	Processed          int
	NeedsAction        int
	NoAction           int
	AssessmentFailures int
	ActionsExecuted    int
	Skipped            int
	Errors             int
}

// TicketResult is the per-ticket record handed to the OnResult callback,
// used by the CLI for progress output and dry-run previews.
type TicketResult struct {
	Ticket          models.Ticket
	Assessment      assessment.Result
	Outcome         *executor.Outcome
	SkippedByFilter bool
	Err             error
}

// Config carries the resolved inputs of a run. Everything is decided before
// the processor is constructed; the processor never consults global state.
type Config struct {
	Criteria filter.Criteria
	// MaxTickets caps how many tickets are pulled; 0 means no cap.
	MaxTickets int
	PageSize   int
	// Workers bounds concurrent ticket processing; 1 means sequential.
	Workers int
	// BreakerThreshold is the consecutive-failure count that trips a
	// collaborator breaker and aborts the run.
	BreakerThreshold int
	// Now supplies the clock; defaults to time.Now.
	Now func() time.Time
	// OnResult, if set, observes every ticket outcome. Calls are
	// serialized by the processor.
	OnResult func(TicketResult)
}

// Processor runs the assessment pipeline over one project.
type Processor struct {
	source   jira.TicketSource
	analyzer analyzer.Analyzer
	exec     *executor.Executor
	cfg      Config

	llmBreaker     *gobreaker.CircuitBreaker
	trackerBreaker *gobreaker.CircuitBreaker

	mu    sync.Mutex
	stats Stats
}

// New creates a processor from fully resolved collaborators.
func New(source jira.TicketSource, an analyzer.Analyzer, exec *executor.Executor, cfg Config) *Processor {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 50
	}
	threshold := uint32(cfg.BreakerThreshold)
	if threshold < 1 {
		threshold = 5
	}
	return &Processor{
		source:         source,
		analyzer:       an,
		exec:           exec,
		cfg:            cfg,
		llmBreaker:     newBreaker("llm", threshold),
		trackerBreaker: newBreaker("tracker", threshold),
	}
}

func newBreaker(name string, threshold uint32) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
}

// Run pulls tickets until the source is exhausted, the max-ticket cap is
// reached, or ctx is done. Per-ticket failures are counted and the run
// continues; a tripped breaker aborts with ErrBreakerOpen. The returned
// Stats are complete for everything processed before the return.
func (p *Processor) Run(ctx context.Context) (Stats, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	pulled := 0
	startAt := 0
	var fetchErr error

fetch:
	for {
		if gctx.Err() != nil {
			break
		}
		limit := p.cfg.PageSize
		if p.cfg.MaxTickets > 0 && p.cfg.MaxTickets-pulled < limit {
			limit = p.cfg.MaxTickets - pulled
		}
		if limit <= 0 {
			break
		}

		page, err := p.source.SearchTickets(gctx, startAt, limit)
		if err != nil {
			fetchErr = fmt.Errorf("ticket search failed: %w", err)
			break
		}
		if page.Fetched == 0 {
			break
		}

		for _, ticket := range page.Tickets {
			if p.cfg.MaxTickets > 0 && pulled >= p.cfg.MaxTickets {
				break fetch
			}
			pulled++
			t := ticket
			g.Go(func() error {
				return p.processOne(gctx, t)
			})
		}

		if page.IsLast() {
			break
		}
		// Advance by the raw fetched count, not len(Tickets): the adapter may
		// have dropped malformed issues, and re-fetching their window would
		// process the surviving tickets twice.
		startAt = page.StartAt + page.Fetched
	}

	err := g.Wait()
	stats := p.Snapshot()

	switch {
	case err != nil:
		return stats, err
	case fetchErr != nil && !errors.Is(fetchErr, context.Canceled):
		return stats, fetchErr
	default:
		return stats, nil
	}
}

// processOne walks a single ticket through filter, analysis, planning and
// execution, recording exactly one outcome. It only returns an error for
// run-fatal conditions.
func (p *Processor) processOne(ctx context.Context, ticket models.Ticket) error {
	now := p.cfg.Now()

	if !p.cfg.Criteria.Passes(ticket, now) {
		log.Debugf("Ticket %s skipped by pre-filter", ticket.Key)
		p.record(TicketResult{Ticket: ticket, SkippedByFilter: true}, func(s *Stats) {
			s.Skipped++
		})
		return nil
	}

	result, err := p.assess(ctx, ticket)
	if err != nil {
		if errors.Is(err, ErrBreakerOpen) {
			return err
		}
		log.Errorf("Analysis failed for %s: %v", ticket.Key, err)
		p.record(TicketResult{Ticket: ticket, Err: err}, func(s *Stats) {
			s.Errors++
		})
		return nil
	}

	if result.Failed() {
		p.record(TicketResult{Ticket: ticket, Assessment: result}, func(s *Stats) {
			s.AssessmentFailures++
		})
		return nil
	}

	action := planner.Plan(ticket, result)
	if action == nil {
		p.record(TicketResult{Ticket: ticket, Assessment: result}, func(s *Stats) {
			s.NoAction++
		})
		return nil
	}

	outcome, err := p.execute(ctx, action)
	if err != nil {
		if errors.Is(err, ErrBreakerOpen) {
			return err
		}
		log.Errorf("Action failed for %s: %v", ticket.Key, err)
		p.record(TicketResult{Ticket: ticket, Assessment: result, Err: err}, func(s *Stats) {
			s.Errors++
		})
		return nil
	}

	p.record(TicketResult{Ticket: ticket, Assessment: result, Outcome: &outcome}, func(s *Stats) {
		s.NeedsAction++
		s.ActionsExecuted++
	})
	return nil
}

// assess runs the analyzer behind the LLM breaker. Only collaborator
// failures count against the breaker; failed assessments are values.
func (p *Processor) assess(ctx context.Context, ticket models.Ticket) (assessment.Result, error) {
	out, err := p.llmBreaker.Execute(func() (interface{}, error) {
		return p.analyzer.Assess(ctx, ticket)
	})
	if err != nil {
		if breakerTripped(err) {
			return nil, fmt.Errorf("llm collaborator: %w", ErrBreakerOpen)
		}
		return nil, err
	}
	return out.(assessment.Result), nil
}

func (p *Processor) execute(ctx context.Context, action *planner.PlannedAction) (executor.Outcome, error) {
	out, err := p.trackerBreaker.Execute(func() (interface{}, error) {
		return p.exec.Execute(ctx, action)
	})
	if err != nil {
		if breakerTripped(err) {
			return executor.Outcome{}, fmt.Errorf("tracker collaborator: %w", ErrBreakerOpen)
		}
		return executor.Outcome{}, err
	}
	return out.(executor.Outcome), nil
}

func breakerTripped(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// record is the single accumulation point for statistics and result
// observation; concurrent workers serialize here.
func (p *Processor) record(res TicketResult, update func(*Stats)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Processed++
	update(&p.stats)
	if p.cfg.OnResult != nil {
		p.cfg.OnResult(res)
	}
}

// Snapshot returns a copy of the current statistics.
func (p *Processor) Snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
