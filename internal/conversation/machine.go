// Package conversation tracks each user's in-progress expense entry.
//
// A user first picks a category, then sends "<amount> [description]". Every
// user owns a slot with its own lock, so messages from different users never
// contend and two messages from the same user are applied one after another.
package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"wydatki/internal/core"
)

// Step is where a user is in the entry flow.
type Step int

const (
	Idle Step = iota
	AwaitingAmount
)

func (s Step) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingAmount:
		return "awaiting_amount"
	default:
		return "unknown"
	}
}

// State is the pending entry of one user. Category is set only while
// AwaitingAmount.
type State struct {
	Step      Step
	Category  core.Category
	UpdatedAt time.Time
}

// Creator persists a completed entry.
type Creator interface {
	CreateExpense(ctx context.Context, d core.Draft) (core.Expense, error)
}

// Outcome classifies the result of HandleText.
type Outcome int

const (
	// OutcomeIdle means text arrived with no category selected.
	OutcomeIdle Outcome = iota
	// OutcomeInvalidAmount means the text had no usable amount; the pending
	// category is kept.
	OutcomeInvalidAmount
	// OutcomeCreated means an expense was stored and the state cleared.
	OutcomeCreated
)

type Result struct {
	Outcome  Outcome
	Category core.Category
	Expense  core.Expense
	// Err explains an OutcomeInvalidAmount.
	Err error
}

// slot holds one user's state. Slots live as long as the Machine; an Idle
// state stands for "no entry".
type slot struct {
	mu    sync.Mutex
	state State
}

// Machine tracks every user's pending entry.
type Machine struct {
	creator Creator
	now     func() time.Time
	ttl     time.Duration

	mu    sync.Mutex
	slots map[int64]*slot
}

// Options tune a Machine. Zero values keep pending entries forever and read
// the wall clock.
type Options struct {
	Now        func() time.Time
	PendingTTL time.Duration
}

// NewMachine returns a Machine that stores completed entries through creator.
func NewMachine(creator Creator, opts Options) *Machine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Machine{
		creator: creator,
		now:     now,
		ttl:     opts.PendingTTL,
		slots:   make(map[int64]*slot),
	}
}

func (m *Machine) slotFor(userID int64) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[userID]
	if !ok {
		s = &slot{}
		m.slots[userID] = s
	}
	return s
}

// SelectCategory moves the user to AwaitingAmount, replacing any category
// chosen earlier.
func (m *Machine) SelectCategory(author core.Author, category core.Category) State {
	s := m.slotFor(author.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Step: AwaitingAmount, Category: category, UpdatedAt: m.now()}
	return s.state
}

// HandleText advances the user's entry with a free-text message. A store
// failure is returned as an error and leaves the pending category in place
// so the same message can be sent again.
func (m *Machine) HandleText(ctx context.Context, author core.Author, text string) (Result, error) {
	s := m.slotFor(author.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := m.now()
	if m.expired(s.state, now) {
		s.state = State{}
	}
	if s.state.Step != AwaitingAmount {
		return Result{Outcome: OutcomeIdle}, nil
	}

	category := s.state.Category
	entry, err := core.ParseEntry(text)
	if err != nil {
		if errors.Is(err, core.ErrNoAmount) || errors.Is(err, core.ErrNegativeAmount) {
			return Result{Outcome: OutcomeInvalidAmount, Category: category, Err: err}, nil
		}
		return Result{}, err
	}

	e, err := m.creator.CreateExpense(ctx, core.Draft{
		Author:      author,
		Category:    category,
		Amount:      entry.Amount,
		Description: entry.Description,
		CreatedAt:   now,
	})
	if err != nil {
		return Result{}, err
	}

	s.state = State{}
	return Result{Outcome: OutcomeCreated, Category: category, Expense: e}, nil
}

// Cancel drops the pending entry. It reports whether one existed.
func (m *Machine) Cancel(author core.Author) bool {
	s := m.slotFor(author.ID)
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.state.Step == AwaitingAmount && !m.expired(s.state, m.now())
	s.state = State{}
	return pending
}

// State returns a snapshot of the user's entry.
func (m *Machine) State(userID int64) State {
	m.mu.Lock()
	s, ok := m.slots[userID]
	m.mu.Unlock()
	if !ok {
		return State{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.expired(s.state, m.now()) {
		return State{}
	}
	return s.state
}

// Pending counts users with an entry in progress.
func (m *Machine) Pending() int {
	m.mu.Lock()
	slots := make([]*slot, 0, len(m.slots))
	for _, s := range m.slots {
		slots = append(slots, s)
	}
	m.mu.Unlock()

	now := m.now()
	n := 0
	for _, s := range slots {
		s.mu.Lock()
		if s.state.Step == AwaitingAmount && !m.expired(s.state, now) {
			n++
		}
		s.mu.Unlock()
	}
	return n
}

func (m *Machine) expired(st State, now time.Time) bool {
	return m.ttl > 0 && st.Step == AwaitingAmount && now.Sub(st.UpdatedAt) > m.ttl
}
