// Package notify fans new expenses out to every participant and retracts
// them on request.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"wydatki/internal/core"
	"wydatki/internal/report"
)

// Notice is what a recipient sees about a new expense.
type Notice struct {
	ExpenseID int64
	Text      string
}

// MessageRef points at a notice already delivered to one chat.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Sender delivers notices over the chat transport.
type Sender interface {
	// SendExpense delivers the notice with a control that retracts
	// ExpenseID.
	SendExpense(ctx context.Context, recipient int64, n Notice) error
	// MarkRetracted replaces the message with text and drops its controls.
	MarkRetracted(ctx context.Context, ref MessageRef, text string) error
}

type Deleter interface {
	DeleteExpense(ctx context.Context, id int64) (bool, error)
}

// Outcome is the delivery result for one recipient. Err is nil on success.
type Outcome struct {
	Recipient int64
	Err       error
}

type Broadcaster struct {
	sender      Sender
	deleter     Deleter
	recipients  []int64
	currency    string
	concurrency int
	logger      *slog.Logger
}

type Options struct {
	Currency    string
	Concurrency int
	Logger      *slog.Logger
}

func NewBroadcaster(sender Sender, deleter Deleter, recipients []int64, opts Options) *Broadcaster {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Broadcaster{
		sender:      sender,
		deleter:     deleter,
		recipients:  append([]int64(nil), recipients...),
		currency:    opts.Currency,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}
}

// Broadcast sends the expense to every recipient, the author included. A
// failed delivery never stops the others; outcomes follow recipient order.
func (b *Broadcaster) Broadcast(ctx context.Context, e core.Expense) []Outcome {
	n := Notice{ExpenseID: e.ID, Text: FormatNotice(e, b.currency)}
	outcomes := make([]Outcome, len(b.recipients))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, rcpt := range b.recipients {
		g.Go(func() error {
			err := b.sender.SendExpense(ctx, rcpt, n)
			outcomes[i] = Outcome{Recipient: rcpt, Err: err}
			if err != nil {
				b.logger.WarnContext(ctx, "Notification delivery failed",
					"recipient", rcpt,
					"expense_id", e.ID,
					"error", err)
			}
			return nil
		})
	}
	g.Wait()

	return outcomes
}

// Retract deletes the expense and strikes through the message the control
// was pressed on. Deleting an already deleted expense is not an error.
func (b *Broadcaster) Retract(ctx context.Context, id int64, ref MessageRef, original string) error {
	deleted, err := b.deleter.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if !deleted {
		b.logger.InfoContext(ctx, "Retracting an expense that is already gone", "expense_id", id)
	}

	if err := b.sender.MarkRetracted(ctx, ref, RetractedText(original)); err != nil {
		return fmt.Errorf("mark message retracted: %w", err)
	}
	return nil
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// FormatNotice renders a new expense as Telegram HTML.
func FormatNotice(e core.Expense, currency string) string {
	return fmt.Sprintf("✅ <b>%s</b> dodał(a) %s\n🏷 %s\n📝 %s",
		html.EscapeString(e.Author.Name),
		report.FormatAmount(e.Amount, currency),
		html.EscapeString(string(e.Category)),
		html.EscapeString(e.Description))
}

// RetractedText strikes the original plain text through and marks it
// deleted.
func RetractedText(original string) string {
	return "<s>" + html.EscapeString(original) + "</s>\n🗑 usunięto"
}
