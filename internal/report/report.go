// Package report builds pay-cycle spending summaries and the recent history.
package report

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wydatki/internal/core"
	"wydatki/internal/paycycle"
	"wydatki/internal/store"
)

// EmptyMessage is the whole report when a cycle has no expenses.
const EmptyMessage = "📭 Brak wydatków w tym okresie."

type Source interface {
	store.ReportReader
	store.HistoryReader
}

type CycleSource interface {
	Current() paycycle.Cycle
	Location() *time.Location
}

// Report holds the numbers for one cycle. GrandTotal is the sum of Totals.
type Report struct {
	Cycle      paycycle.Cycle
	Detailed   []core.UserCategoryTotal
	Totals     []core.CategoryTotal
	GrandTotal decimal.Decimal
}

// Empty reports whether the cycle has no expenses.
func (r Report) Empty() bool {
	return len(r.Detailed) == 0
}

type Aggregator struct {
	source       Source
	cycles       CycleSource
	historyLimit int
	currency     string
	logger       *slog.Logger
}

type Options struct {
	HistoryLimit int
	Currency     string
	Logger       *slog.Logger
}

func NewAggregator(source Source, cycles CycleSource, opts Options) *Aggregator {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Aggregator{
		source:       source,
		cycles:       cycles,
		historyLimit: opts.HistoryLimit,
		currency:     opts.Currency,
		logger:       opts.Logger,
	}
}

// Build collects the report for the active cycle.
func (a *Aggregator) Build(ctx context.Context) (Report, error) {
	return a.BuildFor(ctx, a.cycles.Current())
}

// BuildFor collects the report for the given cycle.
func (a *Aggregator) BuildFor(ctx context.Context, cycle paycycle.Cycle) (Report, error) {
	r := Report{Cycle: cycle, GrandTotal: decimal.Zero}

	detailed, err := a.source.QueryDetailed(ctx, cycle.Start, cycle.End)
	if err != nil {
		return r, fmt.Errorf("query detailed breakdown: %w", err)
	}
	r.Detailed = detailed
	if r.Empty() {
		return r, nil
	}

	totals, err := a.source.QueryTotals(ctx, cycle.Start, cycle.End)
	if err != nil {
		return r, fmt.Errorf("query category totals: %w", err)
	}
	r.Totals = totals
	r.GrandTotal = core.GrandTotal(totals)

	// Both queries read the same rows; they can only disagree when a write
	// lands between them.
	if detailedSum := core.DetailedTotal(detailed); !detailedSum.Equal(r.GrandTotal) {
		a.logger.WarnContext(ctx, "Report totals disagree",
			"detailed_total", detailedSum.String(),
			"grand_total", r.GrandTotal.String(),
			"cycle_start", cycle.Start,
			"cycle_end", cycle.End)
	}

	return r, nil
}

// Text builds and formats the active cycle report.
func (a *Aggregator) Text(ctx context.Context) (string, error) {
	r, err := a.Build(ctx)
	if err != nil {
		return "", err
	}
	return Format(r, a.currency), nil
}

// History returns the most recent expenses, newest first.
func (a *Aggregator) History(ctx context.Context) ([]core.Expense, error) {
	items, err := a.source.QueryRecent(ctx, a.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return items, nil
}

// HistoryText formats History in the configured timezone.
func (a *Aggregator) HistoryText(ctx context.Context) (string, error) {
	items, err := a.History(ctx)
	if err != nil {
		return "", err
	}
	return FormatHistory(items, a.currency, a.cycles.Location()), nil
}

// FormatAmount renders an amount with two decimals and the currency suffix.
func FormatAmount(d decimal.Decimal, currency string) string {
	s := d.StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// Format renders a report as Telegram HTML.
func Format(r Report, currency string) string {
	if r.Empty() {
		return EmptyMessage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>📊 Raport %s – %s</b>\n",
		r.Cycle.Start.Format("02.01.2006"), r.Cycle.End.Format("02.01.2006"))

	b.WriteString("\n<b>👤 Według osób:</b>\n")
	var lastUser int64
	for i, row := range r.Detailed {
		if i == 0 || row.User.ID != lastUser {
			fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(row.User.Name))
			lastUser = row.User.ID
		}
		fmt.Fprintf(&b, "  • %s: %s\n", html.EscapeString(string(row.Category)), FormatAmount(row.Amount, currency))
	}

	b.WriteString("\n<b>🗂 Według kategorii:</b>\n")
	for _, row := range r.Totals {
		fmt.Fprintf(&b, "• %s: %s\n", html.EscapeString(string(row.Category)), FormatAmount(row.Amount, currency))
	}

	fmt.Fprintf(&b, "\n<b>💰 Razem: %s</b>", FormatAmount(r.GrandTotal, currency))
	return b.String()
}

// FormatHistory renders the recent expenses with their identifiers.
func FormatHistory(items []core.Expense, currency string, loc *time.Location) string {
	if len(items) == 0 {
		return "📭 Brak zapisanych wydatków."
	}
	if loc == nil {
		loc = time.Local
	}

	var b strings.Builder
	b.WriteString("<b>🧾 Ostatnie wpisy:</b>\n")
	for _, e := range items {
		fmt.Fprintf(&b, "#%d %s %s: %s (%s) – %s\n",
			e.ID,
			e.CreatedAt.In(loc).Format("02.01 15:04"),
			html.EscapeString(e.Author.Name),
			FormatAmount(e.Amount, currency),
			html.EscapeString(string(e.Category)),
			html.EscapeString(e.Description))
	}
	return strings.TrimRight(b.String(), "\n")
}
