package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wydatki/internal/core"
	"wydatki/internal/paycycle"
	"wydatki/internal/store/memory"
)

var now = time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

func calculator() *paycycle.Calculator {
	return paycycle.NewCalculator(time.UTC, func() time.Time { return now })
}

func add(t *testing.T, s *memory.Store, user int64, name string, cat core.Category, amount string, at time.Time) {
	t.Helper()
	_, err := s.Create(context.Background(), core.Draft{
		Author:      core.Author{ID: user, Name: name},
		Category:    cat,
		Amount:      decimal.RequireFromString(amount),
		Description: "opis",
		CreatedAt:   at,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestBuildGroupsWithinCycle(t *testing.T) {
	s := memory.New()
	add(t, s, 1, "A", "Food", "30", now)
	add(t, s, 1, "A", "Food", "20", now.Add(-time.Hour))
	add(t, s, 2, "B", "Food", "5.555", now)
	add(t, s, 2, "B", "Other", "1", now)
	// Previous cycle ended on March 10.
	add(t, s, 1, "A", "Food", "1000", time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC))

	a := NewAggregator(s, calculator(), Options{Currency: "zł"})
	r, err := a.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(r.Detailed) != 3 {
		t.Fatalf("expected 3 detailed rows, got %+v", r.Detailed)
	}
	if r.Detailed[0].User.Name != "A" || !r.Detailed[0].Amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected first row: %+v", r.Detailed[0])
	}
	if len(r.Totals) != 2 || !r.Totals[0].Amount.Equal(decimal.RequireFromString("55.555")) {
		t.Fatalf("unexpected totals: %+v", r.Totals)
	}
	if !r.GrandTotal.Equal(decimal.RequireFromString("56.555")) {
		t.Fatalf("unexpected grand total %s", r.GrandTotal)
	}
	if !r.GrandTotal.Equal(core.DetailedTotal(r.Detailed)) {
		t.Fatalf("grand total must equal the detailed sum")
	}
}

func TestFormatEmptyCycle(t *testing.T) {
	a := NewAggregator(memory.New(), calculator(), Options{Currency: "zł"})
	text, err := a.Text(context.Background())
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if text != EmptyMessage {
		t.Fatalf("expected only the empty message, got %q", text)
	}
}

func TestFormatSections(t *testing.T) {
	s := memory.New()
	add(t, s, 1, "A<b>", "Food", "30", now)
	add(t, s, 1, "A<b>", "Food", "20", now)
	add(t, s, 2, "B", "Other", "0.005", now)

	a := NewAggregator(s, calculator(), Options{Currency: "zł"})
	text, err := a.Text(context.Background())
	if err != nil {
		t.Fatalf("text: %v", err)
	}

	for _, want := range []string{
		"11.03.2025 – 10.04.2025",
		"A&lt;b&gt;",
		"• Food: 50.00 zł",
		"• Other: 0.01 zł",
		"Razem: 50.01 zł",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func TestFormatRoundsForDisplayOnly(t *testing.T) {
	r := Report{
		Detailed:   []core.UserCategoryTotal{{User: core.Author{ID: 1, Name: "A"}, Category: "X", Amount: decimal.RequireFromString("0.004")}},
		Totals:     []core.CategoryTotal{{Category: "X", Amount: decimal.RequireFromString("0.004")}},
		GrandTotal: decimal.RequireFromString("0.004"),
	}
	if !strings.Contains(Format(r, ""), "Razem: 0.00") {
		t.Fatalf("expected two-decimal rendering")
	}
	if !r.GrandTotal.Equal(decimal.RequireFromString("0.004")) {
		t.Fatalf("formatting must not change the sum")
	}
}

type failingSource struct {
	*memory.Store
}

func (failingSource) QueryDetailed(context.Context, time.Time, time.Time) ([]core.UserCategoryTotal, error) {
	return nil, errors.New("db gone")
}

func TestBuildPropagatesStoreErrors(t *testing.T) {
	a := NewAggregator(failingSource{memory.New()}, calculator(), Options{})
	if _, err := a.Text(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestHistory(t *testing.T) {
	s := memory.New()
	for i := 0; i < 4; i++ {
		add(t, s, 1, "A", "Food", "1", now.Add(time.Duration(i)*time.Minute))
	}
	a := NewAggregator(s, calculator(), Options{HistoryLimit: 2, Currency: "zł"})

	items, err := a.History(context.Background())
	if err != nil || len(items) != 2 || items[0].ID != 4 {
		t.Fatalf("unexpected history: %+v err=%v", items, err)
	}

	text, err := a.HistoryText(context.Background())
	if err != nil {
		t.Fatalf("history text: %v", err)
	}
	if !strings.Contains(text, "#4 20.03 12:03 A: 1.00 zł (Food) – opis") {
		t.Fatalf("unexpected history text:\n%s", text)
	}
	if strings.Contains(text, "#2") {
		t.Fatalf("history should be limited:\n%s", text)
	}
}

func TestFormatHistoryEmpty(t *testing.T) {
	if got := FormatHistory(nil, "zł", time.UTC); !strings.Contains(got, "Brak") {
		t.Fatalf("unexpected empty history: %q", got)
	}
}
