// Package notifier
package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/simple-ta/internal/strategy"
)

// Notifier interface for sending notifications (e.g., Telegram, email).
type Notifier interface {
	Send(ctx context.Context, msg string) error
	SendWithRetry(ctx context.Context, msg string) error
}

// FormatSignals renders the signals of one bar as a short text message.
// It returns an empty string when there is nothing to report.
func FormatSignals(symbol, timeframe string, signals []strategy.Signal) string {
	if len(signals) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", symbol, timeframe)
	if t := signals[0].Time; !t.IsZero() {
		fmt.Fprintf(&b, " @ %s", t.UTC().Format("2006-01-02 15:04"))
	}
	for _, s := range signals {
		fmt.Fprintf(&b, "\n%s %s at %g (%s)",
			strings.ToUpper(s.StrategyName), strings.ToUpper(s.Position.String()), s.TriggerPrice, s.Reason)
	}
	return b.String()
}
