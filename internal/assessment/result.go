// Package assessment defines the result variants produced by ticket analysis
// and the parser that turns raw model completions into them.
package assessment

import (
	"fmt"
	"strings"
)

// Kind identifies an analysis variant.
type Kind string

const (
	KindQuiescent Kind = "quiescent"
	KindQuality   Kind = "quality"
)

// FailedJustification is the sentinel justification carried by results for
// tickets the model could not be made to assess.
const FailedJustification = "failed to assess ticket"

// Result is the capability set shared by all assessment variants. The
// concrete variants form a closed union: QuiescentResult, QualityResult and
// FailedResult. A Result is produced once per ticket and consumed once by
// the action planner.
type Result interface {
	Kind() Kind
	NeedsAction() bool
	Justification() string
	ResponsibleParty() string
	SuggestedAction() string
	SuggestedDeadline() string
	PlannedComment() string
	// Failed reports whether this is the terminal "assessment failed"
	// variant rather than a real model verdict.
	Failed() bool
}

// QuiescentResult is the model's verdict on whether a ticket has gone
// quiet with no sign of planned activity.
type QuiescentResult struct {
	IsQuiescent       bool    `json:"is_quiescent"`
	StalenessScore    float64 `json:"staleness_score"`
	InactivityDays    int     `json:"inactivity_days"`
	Reason            string  `json:"justification"`
	Responsible       string  `json:"responsible_party"`
	Action            string  `json:"suggested_action"`
	Deadline          string  `json:"suggested_deadline"`
	Comment           string  `json:"planned_comment"`
}

func (r *QuiescentResult) Kind() Kind                { return KindQuiescent }
func (r *QuiescentResult) NeedsAction() bool         { return r.IsQuiescent }
func (r *QuiescentResult) Justification() string     { return r.Reason }
func (r *QuiescentResult) ResponsibleParty() string  { return r.Responsible }
func (r *QuiescentResult) SuggestedAction() string   { return r.Action }
func (r *QuiescentResult) SuggestedDeadline() string { return r.Deadline }
func (r *QuiescentResult) PlannedComment() string    { return r.Comment }
func (r *QuiescentResult) Failed() bool              { return false }

// QualityResult is the model's verdict on ticket quality and completeness.
type QualityResult struct {
	NeedsImprovement bool     `json:"needs_improvement"`
	QualityScore     int      `json:"quality_score"`
	Assessment       string   `json:"quality_assessment"`
	Suggestions      []string `json:"improvement_suggestions"`
	Responsible      string   `json:"responsible_party"`
	Deadline         string   `json:"suggested_deadline"`
	Comment          string   `json:"planned_comment"`
}

func (r *QualityResult) Kind() Kind                { return KindQuality }
func (r *QualityResult) NeedsAction() bool         { return r.NeedsImprovement }
func (r *QualityResult) Justification() string     { return r.Assessment }
func (r *QualityResult) ResponsibleParty() string  { return r.Responsible }
func (r *QualityResult) SuggestedDeadline() string { return r.Deadline }
func (r *QualityResult) PlannedComment() string    { return r.Comment }
func (r *QualityResult) Failed() bool              { return false }

func (r *QualityResult) SuggestedAction() string {
	if len(r.Suggestions) == 0 {
		return "Improve ticket quality"
	}
	n := len(r.Suggestions)
	if n > 2 {
		n = 2
	}
	return fmt.Sprintf("Improve ticket quality: %s", strings.Join(r.Suggestions[:n], ", "))
}

// FailedResult is the terminal variant for tickets whose assessment could
// not be completed. It never needs action; producing one is normal control
// flow, not an error.
type FailedResult struct {
	Variant Kind
	Detail  string
}

func NewFailedResult(kind Kind, detail string) *FailedResult {
	return &FailedResult{Variant: kind, Detail: detail}
}

func (r *FailedResult) Kind() Kind                { return r.Variant }
func (r *FailedResult) NeedsAction() bool         { return false }
func (r *FailedResult) Justification() string     { return FailedJustification }
func (r *FailedResult) ResponsibleParty() string  { return "Unknown" }
func (r *FailedResult) SuggestedAction() string   { return "None" }
func (r *FailedResult) SuggestedDeadline() string { return "None" }
func (r *FailedResult) PlannedComment() string    { return "" }
func (r *FailedResult) Failed() bool              { return true }
