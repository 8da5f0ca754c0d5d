// Package analyzer drives the LLM assessment of a single ticket: prompt
// construction, completion calls with bounded re-prompting, response
// parsing, and deterministic post-processing of the parsed result.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/tuannvm/jiraclean/internal/assessment"
	"github.com/tuannvm/jiraclean/internal/filter"
	"github.com/tuannvm/jiraclean/internal/llm"
	log "github.com/tuannvm/jiraclean/internal/logging"
	"github.com/tuannvm/jiraclean/internal/models"
	"github.com/tuannvm/jiraclean/internal/prompts"
)

// systemPreamble heads every assessment prompt. It front-loads the JSON
// formatting rules that models violate most often.
const systemPreamble = "You are an expert Jira ticket analyst. Provide JSON output only. " +
	"For all JSON string values, especially in the planned_comment field, format all text " +
	"as a single line with no line breaks. If you need to represent a line break, use the " +
	"\\n escape sequence. All special characters in JSON strings must be properly escaped " +
	"according to JSON formatting rules."

// retryDirective is appended when a previous completion failed to parse.
const retryDirective = "IMPORTANT: Your previous response contained invalid JSON. " +
	"Ensure the JSON object is complete with proper closing braces, all property names " +
	"are enclosed in double quotes, and no text appears outside the JSON object."

// Analyzer assesses one ticket and returns a tagged result. A returned
// error means the LLM collaborator itself failed; exhausted parse retries
// are reported as a failed-assessment result, not an error.
type Analyzer interface {
	Kind() assessment.Kind
	Assess(ctx context.Context, ticket models.Ticket) (assessment.Result, error)
}

// Options tune analysis behavior independent of the analysis kind.
type Options struct {
	// MaxRetries is the number of extra completion calls allowed after a
	// malformed response. Total calls per ticket never exceed MaxRetries+1.
	MaxRetries int
	// ClosureWarningAfter is the real-inactivity threshold beyond which the
	// prompt asks the model to include a closing warning in its comment.
	ClosureWarningAfter time.Duration
	// Now supplies the clock; defaults to time.Now.
	Now func() time.Time
}

func (o Options) clock() func() time.Time {
	if o.Now == nil {
		return time.Now
	}
	return o.Now
}

type ticketAnalyzer struct {
	kind     assessment.Kind
	template string
	llm      llm.Client
	registry *prompts.Registry
	opts     Options
}

// NewQuiescent builds the analyzer that detects stalled tickets.
func NewQuiescent(client llm.Client, registry *prompts.Registry, opts Options) Analyzer {
	return &ticketAnalyzer{
		kind:     assessment.KindQuiescent,
		template: "quiescent_assessment",
		llm:      client,
		registry: registry,
		opts:     opts,
	}
}

// NewQuality builds the analyzer that reviews ticket quality.
func NewQuality(client llm.Client, registry *prompts.Registry, opts Options) Analyzer {
	return &ticketAnalyzer{
		kind:     assessment.KindQuality,
		template: "quality_assessment",
		llm:      client,
		registry: registry,
		opts:     opts,
	}
}

// ForKind returns the analyzer for a kind selector from the CLI.
func ForKind(kind assessment.Kind, client llm.Client, registry *prompts.Registry, opts Options) (Analyzer, error) {
	switch kind {
	case assessment.KindQuiescent:
		return NewQuiescent(client, registry, opts), nil
	case assessment.KindQuality:
		return NewQuality(client, registry, opts), nil
	default:
		return nil, fmt.Errorf("unknown analyzer kind %q", kind)
	}
}

func (a *ticketAnalyzer) Kind() assessment.Kind { return a.kind }

func (a *ticketAnalyzer) Assess(ctx context.Context, ticket models.Ticket) (assessment.Result, error) {
	now := a.opts.clock()()

	prompt, err := a.buildPrompt(ticket, now)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt <= a.opts.MaxRetries; attempt++ {
		p := prompt
		if attempt > 0 {
			p = prompt + "\n\n" + retryDirective
		}

		completion, err := a.llm.Complete(ctx, p)
		if err != nil {
			// Collaborator failure is a distinct failure mode from
			// malformed output; surface it so the pipeline counts it.
			return nil, fmt.Errorf("completion failed for %s: %w", ticket.Key, err)
		}

		result, perr := assessment.Parse(a.kind, completion)
		if perr != nil {
			log.Warnf("Attempt %d: unparseable assessment for %s: %v", attempt+1, ticket.Key, perr)
			continue
		}

		a.postProcess(result, ticket, now)
		log.Infof("Assessed ticket %s on attempt %d", ticket.Key, attempt+1)
		return result, nil
	}

	log.Warnf("Giving up on %s after %d attempts", ticket.Key, a.opts.MaxRetries+1)
	return assessment.NewFailedResult(a.kind, "model output unparseable after retries"), nil
}

func (a *ticketAnalyzer) buildPrompt(ticket models.Ticket, now time.Time) (string, error) {
	tpl, err := a.registry.Get(a.template)
	if err != nil {
		return "", err
	}

	doc, err := ticketYAML(ticket)
	if err != nil {
		return "", err
	}

	body, err := tpl.Render(map[string]string{
		"current_date":      now.Format("2006-01-02"),
		"ticket_yaml":       doc,
		"closure_directive": a.closureDirective(ticket, now),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt for %s: %w", ticket.Key, err)
	}

	return systemPreamble + "\n\n" + body, nil
}

// closureDirective asks for a closing warning once real inactivity crosses
// the configured threshold. The threshold is configuration, not a constant.
func (a *ticketAnalyzer) closureDirective(ticket models.Ticket, now time.Time) string {
	if a.opts.ClosureWarningAfter <= 0 {
		return ""
	}
	if now.Sub(ticket.Updated) < a.opts.ClosureWarningAfter {
		return ""
	}
	days := int(a.opts.ClosureWarningAfter / (24 * time.Hour))
	return fmt.Sprintf("This ticket has had no activity for more than %d days. "+
		"If action is needed, the planned comment must warn that the ticket will be "+
		"closed unless there is a response.", days)
}

// postProcess overwrites fields the system can compute deterministically,
// so numbers like inactivity days are never solely trusted to the model.
func (a *ticketAnalyzer) postProcess(result assessment.Result, ticket models.Ticket, now time.Time) {
	switch r := result.(type) {
	case *assessment.QuiescentResult:
		r.InactivityDays = filter.InactivityDays(ticket, now)
		r.StalenessScore = clampScore(r.StalenessScore)
	case *assessment.QualityResult:
		r.QualityScore = int(clampScore(float64(r.QualityScore)))
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
