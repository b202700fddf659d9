package tgbot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"vitaminbot/config"
	"vitaminbot/db"
	"vitaminbot/scheduler"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Stage int

const (
	stageIdle Stage = iota
	stageName
	stageTime
)

const (
	txtWelcomeMessage = "Hello! I keep track of your vitamins and nag you until you actually take them. Use the buttons below to manage your list"
	txtNoAccess       = "❌ Sorry, this bot is private"
	txtUseMenu        = "Use the menu buttons to navigate"
	txtNoVitamins     = "📝 You don't have any vitamins yet. Use '" + btnAddVitamin + "' to add one"
	txtEnterName      = "💊 What's the vitamin called?"
	txtEnterTimeFmt   = "⏰ When should I remind you about %q? Send the time as HH:MM, e.g. 09:00 or 18:30"
	txtBadTimeFormat  = "❌ I expect a valid time in the format HH:MM, e.g. 09:00. Try again"
	txtStorageTrouble = "❌ I couldn't reach the storage. Please try again later"
	txtIntakeLogged   = "✅ Great! Intake logged"
	txtVitaminDeleted = "🗑 Vitamin removed. Its intake history stays"
	txtVitaminGone    = "❌ I don't know this vitamin anymore"
	txtNoStats        = "📊 No intake records yet"

	fmtVitaminAdded  = "✅ Added %q, I'll remind you at %s every day"
	fmtReminder      = "⏰ Time to take %s (scheduled for %s)!"
	fmtEscalation    = "🔄 Still waiting: take %s! (attempt %d of %d)"
	fmtPostponed     = "⏰ Fine, I'll remind you again in %d minutes"
	fmtRepeatsToggle = "Repeat reminders are now %s"
	fmtStats         = "📊 Your statistics:\n\n✅ Taken: %d\n🚫 Skipped: %d"
	fmtSettings      = "⚙️ Your settings:\n\nRepeat reminders: %s\nTime zone: %s"
)

type state struct {
	stage Stage
	name  string // vitamin name collected by the add wizard
}

// TBot routes Telegram traffic to the store and the scheduler, and delivers
// reminders back. It implements scheduler.Notifier.
type TBot struct {
	Bot       *tg.BotAPI
	DB        *db.Database
	Cfg       *config.Config
	Prefs     *scheduler.Prefs
	Postponer *scheduler.Postponer
	Logger    *zap.SugaredLogger

	mu     sync.Mutex
	states map[int64]*state
}

func NewTBot(cfg *config.Config, d *db.Database, prefs *scheduler.Prefs, l *zap.SugaredLogger) (*TBot, error) {
	b, err := tg.NewBotAPI(cfg.TgToken)
	if err != nil {
		l.Errorw("failed to initialize Telegram Bot", "err", err)
		return nil, errors.Wrap(err, "failed to initialize Telegram Bot")
	}

	b.Debug = false

	l.Infof("authorized on account %q (%q, %d)", b.Self.FirstName, b.Self.UserName, b.Self.ID)

	return &TBot{
		Bot:    b,
		DB:     d,
		Cfg:    cfg,
		Prefs:  prefs,
		Logger: l,
		states: make(map[int64]*state),
	}, nil
}

// Run receives updates until the context is canceled. Every message is
// gated by the allow-list before it reaches a handler.
func (b *TBot) Run(ctx context.Context) {
	uCfg := tg.NewUpdate(0)
	uCfg.Timeout = 60
	updates := b.Bot.GetUpdatesChan(uCfg)

	for {
		select {
		case <-ctx.Done():
			b.Bot.StopReceivingUpdates()
			return

		case u := <-updates:
			switch {
			case u.Message != nil:
				usr := u.Message.From.ID
				if !b.Cfg.IsAllowed(usr) {
					b.Logger.Infow("rejected message from unknown user", "user", usr)
					b.SendMessage(usr, txtNoAccess, -1, nil)
					continue
				}
				if u.Message.IsCommand() {
					go b.HandleCommand(ctx, u.Message)
				} else {
					go b.HandleMessage(ctx, u.Message)
				}

			case u.CallbackQuery != nil:
				usr := u.CallbackQuery.From.ID
				if !b.Cfg.IsAllowed(usr) {
					b.Logger.Infow("rejected callback from unknown user", "user", usr)
					continue
				}
				go b.HandleCallback(ctx, u.CallbackQuery)
			}
		}
	}
}

func (b *TBot) userState(usr int64) *state {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.states[usr]
	if s == nil {
		s = &state{stage: stageIdle}
		b.states[usr] = s
	}
	return s
}

func (b *TBot) HandleCommand(ctx context.Context, msg *tg.Message) {
	usr := msg.From.ID

	// commands interrupt any ongoing wizard
	st := b.userState(usr)
	st.stage = stageIdle

	switch msg.Command() {
	case "start":
		b.SendMessage(usr, txtWelcomeMessage, -1, mainKeyboard)
	default:
		b.SendMessage(usr, txtUseMenu, msg.MessageID, nil)
	}
}

func (b *TBot) HandleMessage(ctx context.Context, msg *tg.Message) {
	usr := msg.From.ID
	st := b.userState(usr)
	txt := strings.TrimSpace(msg.Text)

	switch st.stage {
	case stageIdle:
		switch txt {
		case btnMyVitamins:
			b.showVitamins(ctx, usr)
		case btnAddVitamin:
			st.stage = stageName
			b.SendMessage(usr, txtEnterName, -1, nil)
		case btnStatistics:
			b.showStatistics(ctx, usr)
		case btnSettings:
			b.showSettings(usr)
		default:
			b.SendMessage(usr, txtUseMenu, msg.MessageID, nil)
		}

	case stageName:
		if txt == "" {
			b.SendMessage(usr, txtEnterName, msg.MessageID, nil)
			return
		}
		st.name = txt
		st.stage = stageTime
		b.SendMessage(usr, fmt.Sprintf(txtEnterTimeFmt, txt), -1, nil)

	case stageTime:
		remindAt, err := parseRemindTime(txt)
		if err != nil {
			// stay in the wizard, just ask again
			b.SendMessage(usr, txtBadTimeFormat, msg.MessageID, nil)
			return
		}

		if _, err := b.DB.AddVitamin(ctx, usr, st.name, remindAt); err != nil {
			b.Logger.Errorw("failed adding vitamin", "user", usr, "err", err)
			b.SendMessage(usr, txtStorageTrouble, msg.MessageID, nil)
			st.stage = stageIdle
			return
		}

		b.SendMessage(usr, fmt.Sprintf(fmtVitaminAdded, st.name, remindAt), -1, nil)
		st.stage = stageIdle
	}
}

func (b *TBot) HandleCallback(ctx context.Context, cbq *tg.CallbackQuery) {
	usr := cbq.From.ID

	if _, err := b.Bot.Request(tg.NewCallback(cbq.ID, "")); err != nil {
		b.Logger.Warnw("failed answering callback query", "user", usr, "err", err)
	}

	action, err := parseCallback(cbq.Data)
	if err != nil {
		b.Logger.Errorw("failed parsing callback", "user", usr, "data", cbq.Data, "err", err)
		return
	}

	switch action.kind {
	case cbqTaken:
		if err := b.DB.RecordIntake(ctx, action.vitaminID, usr, db.StatusTaken); err != nil {
			b.Logger.Errorw("failed recording intake", "user", usr, "vitamin", action.vitaminID, "err", err)
			b.ReplaceMessage(usr, txtStorageTrouble, cbq.Message.MessageID, nil)
			return
		}
		b.ReplaceMessage(usr, txtIntakeLogged, cbq.Message.MessageID, nil)

	case cbqDelete:
		if err := b.DB.DeactivateVitamin(ctx, action.vitaminID, usr); err != nil {
			b.Logger.Errorw("failed deactivating vitamin", "user", usr, "vitamin", action.vitaminID, "err", err)
			b.ReplaceMessage(usr, txtStorageTrouble, cbq.Message.MessageID, nil)
			return
		}
		b.ReplaceMessage(usr, txtVitaminDeleted, cbq.Message.MessageID, nil)

	case cbqPostpone:
		v, err := b.DB.GetVitamin(ctx, action.vitaminID, usr)
		if err != nil {
			b.Logger.Errorw("failed fetching vitamin", "user", usr, "vitamin", action.vitaminID, "err", err)
			b.ReplaceMessage(usr, txtStorageTrouble, cbq.Message.MessageID, nil)
			return
		}
		if v == nil {
			b.ReplaceMessage(usr, txtVitaminGone, cbq.Message.MessageID, nil)
			return
		}

		b.Postponer.Defer(usr, v.ID, v.Name, v.RemindAt, time.Duration(action.delayMin)*time.Minute)
		b.ReplaceMessage(usr, fmt.Sprintf(fmtPostponed, action.delayMin), cbq.Message.MessageID, nil)

	case cbqToggleRepeat:
		enabled := b.Prefs.Toggle(usr)
		b.ReplaceMessage(usr, fmt.Sprintf(fmtRepeatsToggle, onOff(enabled)), cbq.Message.MessageID, nil)
	}
}

func (b *TBot) showVitamins(ctx context.Context, usr int64) {
	vitamins, err := b.DB.ListActiveVitamins(ctx, usr)
	if err != nil {
		b.Logger.Errorw("failed listing vitamins", "user", usr, "err", err)
		b.SendMessage(usr, txtStorageTrouble, -1, nil)
		return
	}

	if len(vitamins) == 0 {
		b.SendMessage(usr, txtNoVitamins, -1, nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("💊 Your vitamins:\n\n")
	ids := make([]int64, 0, len(vitamins))
	names := make([]string, 0, len(vitamins))
	for _, v := range vitamins {
		fmt.Fprintf(&sb, "• %s — %s\n", v.Name, v.RemindAt)
		ids = append(ids, v.ID)
		names = append(names, v.Name)
	}

	b.SendMessage(usr, sb.String(), -1, vitaminListKeyboard(ids, names))
}

func (b *TBot) showStatistics(ctx context.Context, usr int64) {
	stats, err := b.DB.IntakeStats(ctx, usr)
	if err != nil {
		b.Logger.Errorw("failed fetching statistics", "user", usr, "err", err)
		b.SendMessage(usr, txtStorageTrouble, -1, nil)
		return
	}

	if len(stats) == 0 {
		b.SendMessage(usr, txtNoStats, -1, nil)
		return
	}

	b.SendMessage(usr, fmt.Sprintf(fmtStats, stats[db.StatusTaken], stats[db.StatusSkipped]), -1, nil)
}

func (b *TBot) showSettings(usr int64) {
	enabled := b.Prefs.Enabled(usr)
	txt := fmt.Sprintf(fmtSettings, onOff(enabled), b.Cfg.TimeZone)
	b.SendMessage(usr, txt, -1, settingsKeyboard(enabled))
}

// SendReminder delivers the first (or a postponed) reminder with the
// acknowledge and postpone controls. Part of scheduler.Notifier.
func (b *TBot) SendReminder(usr int64, vitaminID int64, name, remindAt string) error {
	txt := fmt.Sprintf(fmtReminder, name, remindAt)
	return b.SendMessage(usr, txt, -1, reminderKeyboard(vitaminID))
}

// SendEscalation delivers a repeat reminder carrying the attempt counter.
// Part of scheduler.Notifier.
func (b *TBot) SendEscalation(usr int64, vitaminID int64, name string, attempt, maxAttempts int) error {
	txt := fmt.Sprintf(fmtEscalation, name, attempt, maxAttempts)
	return b.SendMessage(usr, txt, -1, reminderKeyboard(vitaminID))
}

// SendMessage sends a message to the user. Pass replyID -1 to send a plain
// message rather than a reply.
func (b *TBot) SendMessage(usr int64, txt string, replyID int, markup any) error {
	msg := tg.NewMessage(usr, txt)
	if replyID >= 0 {
		msg.ReplyToMessageID = replyID
	}
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	if _, err := b.Bot.Send(msg); err != nil {
		b.Logger.Errorw("failed sending message", "user", usr, "err", err)
		return errors.Wrap(err, "failed sending message")
	}
	return nil
}

// ReplaceMessage edits a previously sent message in place, used to confirm
// button presses.
func (b *TBot) ReplaceMessage(usr int64, txt string, msgID int, markup *tg.InlineKeyboardMarkup) error {
	var c tg.Chattable
	if markup != nil {
		m := tg.NewEditMessageTextAndMarkup(usr, msgID, txt, *markup)
		c = m
	} else {
		c = tg.NewEditMessageText(usr, msgID, txt)
	}

	if _, err := b.Bot.Send(c); err != nil {
		b.Logger.Errorw("failed replacing message", "user", usr, "err", err)
		return errors.Wrap(err, "failed replacing message")
	}
	return nil
}

// parseRemindTime validates user-supplied HH:MM input and canonicalizes it
// to the zero-padded form the evaluator matches against.
func parseRemindTime(s string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", errors.Wrap(err, "invalid remind time")
	}
	return t.Format("15:04"), nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
