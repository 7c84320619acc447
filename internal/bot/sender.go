package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wydatki/internal/notify"
)

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

const deletePrefix = "del:"

// DeleteData is the callback payload of the delete control.
func DeleteData(id int64) string {
	return deletePrefix + strconv.FormatInt(id, 10)
}

// ParseDeleteData extracts the expense id from a delete callback payload.
func ParseDeleteData(data string) (int64, bool) {
	if !strings.HasPrefix(data, deletePrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, deletePrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Sender implements notify.Sender on top of the Telegram Bot API.
type Sender struct {
	api API
}

func NewSender(api API) *Sender {
	return &Sender{api: api}
}

func (s *Sender) SendExpense(_ context.Context, recipient int64, n notify.Notice) error {
	msg := tgbotapi.NewMessage(recipient, n.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Usuń", DeleteData(n.ExpenseID)),
		),
	)
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("send to %d: %w", recipient, err)
	}
	return nil
}

// MarkRetracted edits the message in place. Leaving out the reply markup
// removes the delete control.
func (s *Sender) MarkRetracted(_ context.Context, ref notify.MessageRef, text string) error {
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := s.api.Request(edit); err != nil {
		// A second press on the same control edits to identical text.
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return fmt.Errorf("edit message %d in chat %d: %w", ref.MessageID, ref.ChatID, err)
	}
	return nil
}
