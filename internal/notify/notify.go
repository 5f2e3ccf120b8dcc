// Package notify delivers regression alerts to external channels.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/hamed0406/portalcheck/internal/report"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RegressionMessage renders the alert for a check that just went red: the
// failing steps with their reasons, plus run context for triage.
func RegressionMessage(r *report.Report, check string) (title, text string) {
	title = fmt.Sprintf("Portal check regression: %s", check)

	var b strings.Builder
	for _, l := range r.Lines {
		if l.Check != check || !l.Verdict.Failed() {
			continue
		}
		fmt.Fprintf(&b, "• %s — %s", l.Step, l.Verdict)
		if l.Reason != "" {
			fmt.Fprintf(&b, ": %s", l.Reason)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "run %s (%s, %s)", r.ID, r.Environment, r.BaseURL)
	return title, b.String()
}

// RecoveryMessage renders the all-clear once a previously red check passes.
func RecoveryMessage(r *report.Report, check string) (title, text string) {
	title = fmt.Sprintf("Portal check recovered: %s", check)
	text = fmt.Sprintf("run %s (%s, %s)", r.ID, r.Environment, r.BaseURL)
	return title, text
}
