package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"levelquiz/internal/models"
)

// Main menu labels. Incoming text is matched against them.
const (
	btnStartQuiz   = "📝 Start quiz"
	btnMyResults   = "📊 My results"
	btnLeaderboard = "🏆 Leaderboard"
	btnDailyBonus  = "🎁 Daily bonus"
	btnInfo        = "ℹ️ Info"
)

// Callback data prefixes
const (
	cbLevel       = "level:"
	cbAnswer      = "ans:"
	cbHint        = "hint"
	cbReport      = "report:"
	cbMenu        = "menu"
	cbAdminStats  = "admin:stats"
	cbAdminBan    = "admin:ban"
	cbAdminUnban  = "admin:unban"
	cbAdminReport = "admin:reports"
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnStartQuiz),
			tgbotapi.NewKeyboardButton(btnLeaderboard),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnMyResults),
			tgbotapi.NewKeyboardButton(btnDailyBonus),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnInfo),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// levelKeyboard lists the levels two per row followed by the full test
func levelKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, l := range models.Levels {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(string(l), cbLevel+string(l)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🎯 Full test", cbLevel+models.AllLevels.String()),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// answerKeyboard puts each option on its own row. The question id travels
// with every answer so presses on an outdated message can be ignored.
func answerKeyboard(q models.Question, hasHint bool) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options)+1)
	for i, opt := range q.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt, answerData(q.ID, i)),
		))
	}

	var bottom []tgbotapi.InlineKeyboardButton
	if hasHint {
		bottom = append(bottom, tgbotapi.NewInlineKeyboardButtonData("💡 Hint", cbHint))
	}
	bottom = append(bottom, tgbotapi.NewInlineKeyboardButtonData("⚠️ Report",
		cbReport+strconv.FormatInt(q.ID, 10)))
	rows = append(rows, bottom)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func finishKeyboard(filter models.LevelFilter) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔁 Retake", cbLevel+filter.String())),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Main menu", cbMenu)),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbMenu)),
	)
}

func adminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 Stats", cbAdminStats),
			tgbotapi.NewInlineKeyboardButtonData("⚠️ Reports", cbAdminReport),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚫 Ban", cbAdminBan),
			tgbotapi.NewInlineKeyboardButtonData("✅ Unban", cbAdminUnban),
		),
	)
}

func answerData(questionID int64, choice int) string {
	return fmt.Sprintf("%s%d:%d", cbAnswer, questionID, choice)
}

// parseAnswerData splits "ans:<question id>:<choice>"
func parseAnswerData(data string) (questionID int64, choice int, ok bool) {
	rest, found := strings.CutPrefix(data, cbAnswer)
	if !found {
		return 0, 0, false
	}
	qid, idx, found := strings.Cut(rest, ":")
	if !found {
		return 0, 0, false
	}
	questionID, err := strconv.ParseInt(qid, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	choice, err = strconv.Atoi(idx)
	if err != nil {
		return 0, 0, false
	}
	return questionID, choice, true
}
