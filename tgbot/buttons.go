package tgbot

import (
	"fmt"
	"strconv"
	"strings"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// Callback data prefixes. Postpone carries the delay in minutes between the
// prefix and the vitamin ID: postpone_10_7.
const (
	cbqTaken        = "taken"
	cbqDelete       = "delete"
	cbqPostpone     = "postpone"
	cbqToggleRepeat = "toggle_repeat"
)

// Main menu reply keyboard labels. HandleMessage routes on them.
const (
	btnMyVitamins = "💊 My vitamins"
	btnAddVitamin = "➕ Add vitamin"
	btnStatistics = "📊 Statistics"
	btnSettings   = "⚙️ Settings"
)

var postponeDelays = []int{5, 10, 20}

var mainKeyboard = tg.NewReplyKeyboard(
	tg.NewKeyboardButtonRow(
		tg.NewKeyboardButton(btnMyVitamins),
		tg.NewKeyboardButton(btnAddVitamin),
	),
	tg.NewKeyboardButtonRow(
		tg.NewKeyboardButton(btnStatistics),
		tg.NewKeyboardButton(btnSettings),
	),
)

// reminderKeyboard is attached to every reminder: acknowledge plus the three
// postpone delays.
func reminderKeyboard(vitaminID int64) tg.InlineKeyboardMarkup {
	row := []tg.InlineKeyboardButton{
		tg.NewInlineKeyboardButtonData("✅ Taken", fmt.Sprintf("%s_%d", cbqTaken, vitaminID)),
	}
	for _, d := range postponeDelays {
		row = append(row, tg.NewInlineKeyboardButtonData(
			fmt.Sprintf("⏰ %d min", d),
			fmt.Sprintf("%s_%d_%d", cbqPostpone, d, vitaminID)))
	}
	return tg.NewInlineKeyboardMarkup(row)
}

func vitaminListKeyboard(ids []int64, names []string) tg.InlineKeyboardMarkup {
	rows := [][]tg.InlineKeyboardButton{}
	for i, id := range ids {
		rows = append(rows,
			tg.NewInlineKeyboardRow(tg.NewInlineKeyboardButtonData("✅ Taken "+names[i], fmt.Sprintf("%s_%d", cbqTaken, id))),
			tg.NewInlineKeyboardRow(tg.NewInlineKeyboardButtonData("❌ Delete "+names[i], fmt.Sprintf("%s_%d", cbqDelete, id))))
	}
	return tg.NewInlineKeyboardMarkup(rows...)
}

func settingsKeyboard(repeatsOn bool) tg.InlineKeyboardMarkup {
	label := "🔄 Enable repeat reminders"
	if repeatsOn {
		label = "🔄 Disable repeat reminders"
	}
	return tg.NewInlineKeyboardMarkup(
		tg.NewInlineKeyboardRow(tg.NewInlineKeyboardButtonData(label, cbqToggleRepeat)))
}

type callbackAction struct {
	kind      string
	vitaminID int64
	delayMin  int
}

var errUnknownCallback = errors.New("unknown callback data")

// parseCallback decodes button-press data back into an action.
func parseCallback(data string) (*callbackAction, error) {
	if data == cbqToggleRepeat {
		return &callbackAction{kind: cbqToggleRepeat}, nil
	}

	parts := strings.Split(data, "_")
	switch {
	case len(parts) == 2 && (parts[0] == cbqTaken || parts[0] == cbqDelete):
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "bad vitamin ID in callback")
		}
		return &callbackAction{kind: parts[0], vitaminID: id}, nil

	case len(parts) == 3 && parts[0] == cbqPostpone:
		delay, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.Wrap(err, "bad delay in callback")
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "bad vitamin ID in callback")
		}
		return &callbackAction{kind: cbqPostpone, vitaminID: id, delayMin: delay}, nil
	}

	return nil, errUnknownCallback
}
