// Package notify dispatches alert emails to the subscriber list and
// enforces the minimum delivery success ratio.
//
// The guiding rule is "better to miss an alert than send a false or
// redundant one": an empty alert set never touches the network, and a
// mostly-failed dispatch is reported as a failure so the caller leaves
// the ledger alone and the alerts are retried next run.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fiftyclub/alerter/internal/scorer"
)

// ErrBelowThreshold marks a dispatch whose delivery success ratio did
// not meet the configured minimum.
var ErrBelowThreshold = errors.New("dispatch success ratio below threshold")

// SendResult reports delivery counts for one dispatch.
type SendResult struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Ratio returns the observed delivery success ratio.
func (r SendResult) Ratio() float64 {
	if r.Attempted == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(r.Attempted)
}

// Mailer is the outbound mailing provider. It composes one message for
// the alerts and sends it to the full subscriber list, reporting
// per-recipient or aggregate delivery counts.
type Mailer interface {
	SendToList(ctx context.Context, alerts []scorer.PerformanceRecord) (SendResult, error)
}

// Notifier sends one message per run covering every new alert.
type Notifier struct {
	Mailer          Mailer
	MinSuccessRatio float64
	Logger          *slog.Logger
}

// Dispatch sends a single campaign for the given alerts.
//
// An empty alert set is a no-op with no network call. A result with zero
// attempts (no subscribers yet) is also success: there was nothing to
// deliver, and the caller must not advance the ledger since nobody was
// told. On ErrBelowThreshold the ledger must likewise stay untouched.
func (n *Notifier) Dispatch(ctx context.Context, alerts []scorer.PerformanceRecord) (SendResult, error) {
	if len(alerts) == 0 {
		return SendResult{}, nil
	}

	res, err := n.Mailer.SendToList(ctx, alerts)
	if err != nil {
		return res, fmt.Errorf("send to list: %w", err)
	}
	if res.Attempted == 0 {
		n.Logger.Info("No subscribers, nothing dispatched", "alerts", len(alerts))
		return res, nil
	}
	if res.Ratio() < n.MinSuccessRatio {
		return res, fmt.Errorf("%w: %.0f%% < %.0f%% (attempted=%d succeeded=%d failed=%d)",
			ErrBelowThreshold, res.Ratio()*100, n.MinSuccessRatio*100,
			res.Attempted, res.Succeeded, res.Failed)
	}

	n.Logger.Info("Campaign dispatched",
		"alerts", len(alerts), "attempted", res.Attempted,
		"succeeded", res.Succeeded, "failed", res.Failed)
	return res, nil
}
