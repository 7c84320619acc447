package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wydatki/internal/core"
)

type fakeSender struct {
	mu        sync.Mutex
	sent      map[int64]Notice
	fail      map[int64]error
	retracted []string
	refs      []MessageRef
	markErr   error
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: map[int64]Notice{}, fail: map[int64]error{}}
}

func (s *fakeSender) SendExpense(_ context.Context, recipient int64, n Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[recipient]; err != nil {
		return err
	}
	s.sent[recipient] = n
	return nil
}

func (s *fakeSender) MarkRetracted(_ context.Context, ref MessageRef, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	s.refs = append(s.refs, ref)
	s.retracted = append(s.retracted, text)
	return nil
}

type fakeDeleter struct {
	mu      sync.Mutex
	deleted map[int64]bool
	err     error
}

func (d *fakeDeleter) DeleteExpense(_ context.Context, id int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.deleted[id] {
		return false, nil
	}
	d.deleted[id] = true
	return true, nil
}

func expense() core.Expense {
	return core.Expense{
		ID:          7,
		Author:      core.Author{ID: 1, Name: "Ania"},
		Category:    "Jedzenie",
		Amount:      decimal.RequireFromString("12.5"),
		Description: "biedronka",
		CreatedAt:   time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestBroadcastReachesEveryRecipient(t *testing.T) {
	sender := newFakeSender()
	b := NewBroadcaster(sender, &fakeDeleter{deleted: map[int64]bool{}}, []int64{1, 2, 3}, Options{Currency: "zł"})

	outcomes := b.Broadcast(context.Background(), expense())
	if len(outcomes) != 3 || len(Failed(outcomes)) != 0 {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
	for _, id := range []int64{1, 2, 3} {
		n, ok := sender.sent[id]
		if !ok {
			t.Fatalf("recipient %d not notified", id)
		}
		if n.ExpenseID != 7 {
			t.Fatalf("notice must carry the expense id, got %d", n.ExpenseID)
		}
		for _, want := range []string{"Ania", "12.50 zł", "Jedzenie", "biedronka"} {
			if !strings.Contains(n.Text, want) {
				t.Fatalf("notice missing %q: %s", want, n.Text)
			}
		}
	}
}

func TestBroadcastPartialFailure(t *testing.T) {
	sender := newFakeSender()
	blocked := errors.New("Forbidden: bot was blocked by the user")
	sender.fail[2] = blocked
	b := NewBroadcaster(sender, &fakeDeleter{deleted: map[int64]bool{}}, []int64{1, 2, 3}, Options{Concurrency: 1})

	outcomes := b.Broadcast(context.Background(), expense())
	if len(outcomes) != 3 {
		t.Fatalf("expected an outcome per recipient, got %+v", outcomes)
	}
	if outcomes[1].Recipient != 2 || !errors.Is(outcomes[1].Err, blocked) {
		t.Fatalf("expected failure for recipient 2, got %+v", outcomes[1])
	}
	failed := Failed(outcomes)
	if len(failed) != 1 || failed[0].Recipient != 2 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	if _, ok := sender.sent[3]; !ok {
		t.Fatalf("recipient after the failure must still be notified")
	}
}

func TestRetractTwice(t *testing.T) {
	sender := newFakeSender()
	deleter := &fakeDeleter{deleted: map[int64]bool{}}
	b := NewBroadcaster(sender, deleter, []int64{1}, Options{})
	ref := MessageRef{ChatID: 1, MessageID: 99}

	for i := 0; i < 2; i++ {
		if err := b.Retract(context.Background(), 7, ref, "✅ Ania dodał(a) 12.50"); err != nil {
			t.Fatalf("retract %d: %v", i, err)
		}
	}
	if !deleter.deleted[7] {
		t.Fatalf("expense not deleted")
	}
	if len(sender.retracted) != 2 || sender.refs[0] != ref {
		t.Fatalf("expected both presses to update the message, got %+v", sender.refs)
	}
	if !strings.HasPrefix(sender.retracted[0], "<s>") || !strings.Contains(sender.retracted[0], "usunięto") {
		t.Fatalf("unexpected retracted text: %q", sender.retracted[0])
	}
}

func TestRetractStoreFailureKeepsMessage(t *testing.T) {
	sender := newFakeSender()
	b := NewBroadcaster(sender, &fakeDeleter{err: errors.New("db down")}, []int64{1}, Options{})

	if err := b.Retract(context.Background(), 7, MessageRef{ChatID: 1, MessageID: 1}, "x"); err == nil {
		t.Fatalf("expected error")
	}
	if len(sender.retracted) != 0 {
		t.Fatalf("message must not be struck through when the delete failed")
	}
}

func TestRetractedTextEscapes(t *testing.T) {
	got := RetractedText("a <b> & c")
	if got != "<s>a &lt;b&gt; &amp; c</s>\n🗑 usunięto" {
		t.Fatalf("unexpected text: %q", got)
	}
}
