package tgbot

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRemindTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"09:00", "09:00", true},
		{"9:00", "09:00", true},
		{" 18:30 ", "18:30", true},
		{"00:00", "00:00", true},
		{"23:59", "23:59", true},
		{"24:00", "", false},
		{"09:60", "", false},
		{"whenever", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		got, err := parseRemindTime(tc.in)
		if tc.ok {
			require.NoError(t, err, "input %q", tc.in)
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		} else {
			assert.Error(t, err, "input %q", tc.in)
		}
	}
}

func TestParseCallbackTaken(t *testing.T) {
	a, err := parseCallback("taken_7")
	require.NoError(t, err)
	assert.Equal(t, cbqTaken, a.kind)
	assert.Equal(t, int64(7), a.vitaminID)
}

func TestParseCallbackDelete(t *testing.T) {
	a, err := parseCallback("delete_12")
	require.NoError(t, err)
	assert.Equal(t, cbqDelete, a.kind)
	assert.Equal(t, int64(12), a.vitaminID)
}

func TestParseCallbackPostpone(t *testing.T) {
	a, err := parseCallback("postpone_10_7")
	require.NoError(t, err)
	assert.Equal(t, cbqPostpone, a.kind)
	assert.Equal(t, int64(7), a.vitaminID)
	assert.Equal(t, 10, a.delayMin)
}

func TestParseCallbackToggle(t *testing.T) {
	a, err := parseCallback("toggle_repeat")
	require.NoError(t, err)
	assert.Equal(t, cbqToggleRepeat, a.kind)
}

func TestParseCallbackRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "taken", "taken_x", "postpone_7", "postpone_x_7", "postpone_5_y", "selfdestruct_1"} {
		_, err := parseCallback(data)
		assert.Error(t, err, "data %q", data)
	}
}

func TestReminderKeyboardControls(t *testing.T) {
	kb := reminderKeyboard(7)
	require.Len(t, kb.InlineKeyboard, 1)
	row := kb.InlineKeyboard[0]
	require.Len(t, row, 4)

	assert.Equal(t, "taken_7", *row[0].CallbackData)
	assert.Equal(t, "postpone_5_7", *row[1].CallbackData)
	assert.Equal(t, "postpone_10_7", *row[2].CallbackData)
	assert.Equal(t, "postpone_20_7", *row[3].CallbackData)
}

func TestVitaminListKeyboard(t *testing.T) {
	kb := vitaminListKeyboard([]int64{1, 2}, []string{"Vitamin D", "Zinc"})
	require.Len(t, kb.InlineKeyboard, 4)
	assert.Equal(t, "taken_1", *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "delete_1", *kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "taken_2", *kb.InlineKeyboard[2][0].CallbackData)
	assert.Equal(t, "delete_2", *kb.InlineKeyboard[3][0].CallbackData)
}

func TestEscalationTextCarriesAttemptCount(t *testing.T) {
	txt := fmt.Sprintf(fmtEscalation, "Vitamin D", 1, 3)
	assert.Contains(t, txt, "Vitamin D")
	assert.Contains(t, txt, "attempt 1 of 3")
}
