package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wydatki/internal/core"
)

const (
	ButtonReport  = "📊 Raport"
	ButtonHistory = "🧾 Historia"
	ButtonCancel  = "✖️ Anuluj"

	categoriesPerRow = 2
)

// mainKeyboard lists the categories two per row, then the report, history
// and cancel buttons.
func mainKeyboard(categories core.Categories) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, c := range categories {
		row = append(row, tgbotapi.NewKeyboardButton(string(c)))
		if len(row) == categoriesPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(ButtonReport),
		tgbotapi.NewKeyboardButton(ButtonHistory),
	))
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonCancel)))

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}
