package engine

import (
	"errors"
	"time"
)

// Order-rejection conditions. All are non-fatal: the step is recorded and the
// simulation continues with no state change.
var (
	ErrInsufficientCash     = errors.New("insufficient cash for buy")
	ErrInsufficientPosition = errors.New("insufficient position for sell")
)

type DiagnosticCode string

const (
	DiagInsufficientPosition DiagnosticCode = "INSUFFICIENT_POSITION"
	DiagInsufficientCash     DiagnosticCode = "INSUFFICIENT_CASH"
	DiagUnfillableOrder      DiagnosticCode = "UNFILLABLE_ORDER"
)

// Diagnostic records a skipped step at a decision bar.
type Diagnostic struct {
	BarIndex int            `json:"bar_index"`
	Time     time.Time      `json:"time"`
	Code     DiagnosticCode `json:"code"`
	Detail   string         `json:"detail"`
}

// DiagnosticLog collects every non-fatal condition raised during a run.
// Nothing is swallowed silently; the full list is surfaced on the Result.
type DiagnosticLog struct {
	Entries []Diagnostic
}

func (l *DiagnosticLog) Append(d Diagnostic) { l.Entries = append(l.Entries, d) }
