// Package notify delivers scanner and ledger events to chat channels.
// Messages are dispatched to all registered senders (Discord, Telegram) and
// can be filtered by event type so operators receive only the alerts they
// care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/betgo/internal/arbitrage"
	"github.com/alanyoungcy/betgo/internal/domain"
)

// Event types accepted by Notify.
const (
	EventBetPlaced   = "bet_placed"
	EventScanSummary = "scan_summary"
)

// Embed colors used by the message composers.
const (
	colorGreen = 0x00FF00
	colorBlue  = 0x3498DB
)

// Field is one name/value pair inside a message. Inline fields render side
// by side on channels that support it.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a channel-agnostic rich notification. Senders render it using
// whatever their channel supports; plain-text channels flatten the fields.
type Message struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
}

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a single message.
	Send(ctx context.Context, msg Message) error
	// Name returns a human-readable identifier for the sender (e.g. "discord").
	Name() string
}

// Notifier dispatches messages to one or more Senders. It maintains a set of
// allowed event types; Notify only forwards messages whose event type is in
// the allowed set. If no events were configured, all types are allowed.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed event types
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders.
// Only events whose type appears in the events slice will be forwarded by
// Notify. If events is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a message to all senders if the event type is allowed.
func (n *Notifier) Notify(ctx context.Context, event string, msg Message) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}

	return n.dispatch(ctx, msg)
}

// BetPlaced announces a placed simulation bet: the opportunity's headline
// numbers plus one field per leg.
func (n *Notifier) BetPlaced(ctx context.Context, bet domain.VirtualBet) error {
	sport := bet.SportTitle
	if sport == "" {
		sport = "Unknown"
	}

	fields := []Field{
		{Name: "Sport", Value: sport, Inline: true},
		{Name: "ROI", Value: fmt.Sprintf("%.2f%%", bet.ExpectedROI), Inline: true},
		{Name: "Investment", Value: "€" + bet.TotalStake.StringFixed(2), Inline: true},
		{Name: "Match", Value: bet.Event},
	}
	for i, leg := range bet.Legs {
		fields = append(fields, Field{
			Name:   fmt.Sprintf("Bet %d: %s", i+1, leg.Bookmaker),
			Value:  fmt.Sprintf("%s @ %.2f - €%s", leg.Outcome, leg.Odds, leg.Stake.StringFixed(2)),
			Inline: true,
		})
	}

	return n.Notify(ctx, EventBetPlaced, Message{
		Title:       "New simulation bet placed",
		Description: fmt.Sprintf("Arbitrage opportunity with %.2f%% ROI", bet.ExpectedROI),
		Color:       colorGreen,
		Fields:      fields,
	})
}

// ScanSummary announces the outcome of one scan cycle.
func (n *Notifier) ScanSummary(ctx context.Context, found, placed int) error {
	return n.Notify(ctx, EventScanSummary, Message{
		Title:       "Scan complete",
		Description: fmt.Sprintf("Found %d opportunities, placed %d simulation bets", found, placed),
		Color:       colorBlue,
	})
}

// ScanCycle implements the scanner's cycle sink: one message per placed bet,
// then a summary. Empty cycles stay silent so off-hours scans do not spam
// the channel. Delivery failures are logged, never propagated.
func (n *Notifier) ScanCycle(ctx context.Context, res arbitrage.Result, placed []domain.VirtualBet) {
	for _, bet := range placed {
		if err := n.BetPlaced(ctx, bet); err != nil {
			n.logger.WarnContext(ctx, "bet notification failed",
				slog.Int64("bet_id", bet.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if len(res.Opportunities) == 0 {
		return
	}
	if err := n.ScanSummary(ctx, len(res.Opportunities), len(placed)); err != nil {
		n.logger.WarnContext(ctx, "scan summary notification failed",
			slog.String("error", err.Error()),
		)
	}
}

// dispatch iterates over all senders and delivers the message. Errors from
// individual senders are collected and returned as a combined error; a
// single sender failure does not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, msg Message) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, msg); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "notification sent",
				slog.String("sender", s.Name()),
				slog.String("title", msg.Title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
