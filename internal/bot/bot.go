// Package bot routes Telegram updates to the conversation machine, the
// report aggregator and the notification broadcaster.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wydatki/internal/conversation"
	"wydatki/internal/core"
	"wydatki/internal/log"
	"wydatki/internal/notify"
)

const (
	msgGreeting       = "👋 Cześć! Wybierz kategorię, a potem wpisz kwotę i opis, np. <code>50 biedronka</code>."
	msgAskAmount      = "🏷 Kategoria <b>%s</b>. Podaj kwotę i opis, np. <code>50 biedronka</code>."
	msgPickCategory   = "Najpierw wybierz kategorię z klawiatury."
	msgInvalidAmount  = "❌ Nie rozpoznano kwoty. Wpisz np. <code>12,50 taxi</code>."
	msgNegativeAmount = "❌ Kwota nie może być ujemna."
	msgStoreFailed    = "⚠️ Nie udało się zapisać wydatku. Spróbuj ponownie."
	msgQueryFailed    = "⚠️ Nie udało się pobrać danych. Spróbuj później."
	msgCancelled      = "Anulowano."
	msgNothingPending = "Nie ma nic do anulowania."
	msgDeliveryFailed = "⚠️ Nie wszyscy dostali powiadomienie (%d)."

	callbackDeleted = "Usunięto"
	callbackFailed  = "Błąd, spróbuj ponownie"
)

// Reports renders the on-demand views.
type Reports interface {
	Text(ctx context.Context) (string, error)
	HistoryText(ctx context.Context) (string, error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, e core.Expense) []notify.Outcome
	Retract(ctx context.Context, id int64, ref notify.MessageRef, original string) error
}

type Deps struct {
	Categories   core.Categories
	AllowedUsers []int64
	Machine      *conversation.Machine
	Reports      Reports
	Broadcaster  Broadcaster
	Logger       *log.Logger
}

type Bot struct {
	api         API
	categories  core.Categories
	allowed     map[int64]struct{}
	machine     *conversation.Machine
	reports     Reports
	broadcaster Broadcaster
	logger      *log.Logger
	keyboard    tgbotapi.ReplyKeyboardMarkup

	wg sync.WaitGroup
}

func New(api API, deps Deps) *Bot {
	allowed := make(map[int64]struct{}, len(deps.AllowedUsers))
	for _, id := range deps.AllowedUsers {
		allowed[id] = struct{}{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Bot{
		api:         api,
		categories:  deps.Categories,
		allowed:     allowed,
		machine:     deps.Machine,
		reports:     deps.Reports,
		broadcaster: deps.Broadcaster,
		logger:      logger.WithComponent(log.ComponentBot),
		keyboard:    mainKeyboard(deps.Categories),
	}
}

// Run handles updates until ctx is done or the channel closes, one
// goroutine per update. It returns after in-flight handlers finish.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, u)
			}()
		}
	}
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	switch {
	case u.CallbackQuery != nil:
		if !b.authorized(u.CallbackQuery.From) {
			return
		}
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		if !b.authorized(u.Message.From) || u.Message.Chat == nil {
			return
		}
		b.handleMessage(ctx, u.Message)
	}
}

func (b *Bot) authorized(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if _, ok := b.allowed[from.ID]; !ok {
		b.logger.Debug("Ignoring update from unknown user", log.FieldUserID, from.ID)
		return false
	}
	return true
}

func authorOf(from *tgbotapi.User) core.Author {
	name := strings.TrimSpace(from.FirstName)
	if name == "" {
		name = from.UserName
	}
	if name == "" {
		name = fmt.Sprintf("id%d", from.ID)
	}
	return core.Author{ID: from.ID, Name: name}
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	author := authorOf(m.From)
	chatID := m.Chat.ID

	if m.IsCommand() {
		switch m.Command() {
		case "start", "help":
			b.reply(chatID, msgGreeting)
		case "report":
			b.sendReport(ctx, chatID)
		case "history":
			b.sendHistory(ctx, chatID)
		case "cancel":
			b.cancel(chatID, author)
		}
		return
	}

	text := strings.TrimSpace(m.Text)
	switch text {
	case ButtonReport:
		b.sendReport(ctx, chatID)
		return
	case ButtonHistory:
		b.sendHistory(ctx, chatID)
		return
	case ButtonCancel:
		b.cancel(chatID, author)
		return
	}

	if cat, err := b.categories.Lookup(text); err == nil {
		st := b.machine.SelectCategory(author, cat)
		b.logger.Debug("Category selected",
			log.FieldUserID, author.ID,
			log.FieldCategory, string(cat),
			log.FieldStep, st.Step.String())
		b.reply(chatID, fmt.Sprintf(msgAskAmount, html.EscapeString(string(cat))))
		return
	}

	b.handleAmount(ctx, chatID, author, text)
}

func (b *Bot) handleAmount(ctx context.Context, chatID int64, author core.Author, text string) {
	res, err := b.machine.HandleText(ctx, author, text)
	if err != nil {
		b.logger.LogError(ctx, "Failed to store expense", err, log.OpCreate,
			log.NewFields().WithUser(author.ID, author.Name))
		b.reply(chatID, msgStoreFailed)
		return
	}

	switch res.Outcome {
	case conversation.OutcomeIdle:
		b.reply(chatID, msgPickCategory)
	case conversation.OutcomeInvalidAmount:
		b.logger.DebugContext(ctx, "Rejected amount message",
			log.FieldUserID, author.ID,
			log.FieldOperation, log.OpParse,
			log.FieldError, res.Err)
		if errors.Is(res.Err, core.ErrNegativeAmount) {
			b.reply(chatID, msgNegativeAmount)
			return
		}
		b.reply(chatID, msgInvalidAmount)
	case conversation.OutcomeCreated:
		e := res.Expense
		b.logger.InfoContext(ctx, "Expense created",
			log.NewFields().
				WithUser(author.ID, author.Name).
				WithExpense(e.ID, string(e.Category), e.Amount.String()).
				ToSlice()...)

		outcomes := b.broadcaster.Broadcast(ctx, e)
		failed := notify.Failed(outcomes)
		if len(failed) > 0 {
			b.logger.WarnContext(ctx, "Some notifications were not delivered",
				log.FieldOperation, log.OpBroadcast,
				log.FieldExpenseID, e.ID,
				log.FieldRecipients, len(outcomes),
				log.FieldFailed, len(failed))
			b.reply(chatID, fmt.Sprintf(msgDeliveryFailed, len(failed)))
		}
	}
}

func (b *Bot) cancel(chatID int64, author core.Author) {
	if b.machine.Cancel(author) {
		b.reply(chatID, msgCancelled)
		return
	}
	b.reply(chatID, msgNothingPending)
}

func (b *Bot) sendReport(ctx context.Context, chatID int64) {
	text, err := b.reports.Text(ctx)
	if err != nil {
		b.logger.LogError(ctx, "Failed to build report", err, log.OpReport, nil)
		b.reply(chatID, msgQueryFailed)
		return
	}
	b.reply(chatID, text)
}

func (b *Bot) sendHistory(ctx context.Context, chatID int64) {
	text, err := b.reports.HistoryText(ctx)
	if err != nil {
		b.logger.LogError(ctx, "Failed to load history", err, log.OpHistory, nil)
		b.reply(chatID, msgQueryFailed)
		return
	}
	b.reply(chatID, text)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	id, ok := ParseDeleteData(cq.Data)
	if !ok || cq.Message == nil || cq.Message.Chat == nil {
		b.answer(cq.ID, "")
		return
	}

	ref := notify.MessageRef{ChatID: cq.Message.Chat.ID, MessageID: cq.Message.MessageID}
	if err := b.broadcaster.Retract(ctx, id, ref, cq.Message.Text); err != nil {
		b.logger.LogError(ctx, "Failed to retract expense", err, log.OpDelete,
			log.NewFields().WithUser(cq.From.ID, cq.From.FirstName))
		b.answer(cq.ID, callbackFailed)
		return
	}
	b.logger.InfoContext(ctx, "Expense retracted",
		log.FieldExpenseID, id,
		log.FieldUserID, cq.From.ID)
	b.answer(cq.ID, callbackDeleted)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = b.keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Failed to send reply", log.FieldChatID, chatID, log.FieldError, err)
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Warn("Failed to answer callback", log.FieldError, err)
	}
}
