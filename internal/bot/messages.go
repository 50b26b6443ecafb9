package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"levelquiz/internal/models"
	"levelquiz/internal/service"
)

const (
	welcomeText = "🇬🇧 English Level Quiz\n\nHi! This bot finds out your English level.\n\nUse the buttons below:"
	chooseLevel = "Which level do you want to be tested on?\n\nOr pick the full test:"
	infoText    = `🇬🇧 English Level Quiz

🎯 Goal: find your English level (A1-C1)

📚 Levels:
• A1 - Beginner
• A2 - Elementary
• B1 - Intermediate
• B2 - Upper Intermediate
• C1 - Advanced

❓ How it works:
1. Start the test
2. Answer the questions
3. See your level

❤️ Three wrong answers end the test early.
💡 Hints reveal the answer. Claim one free hint every day.`

	bannedText       = "❌ You are banned."
	notAdminText     = "❌ You are not an admin."
	genericError     = "Something went wrong. Please try again."
	resultNotSaved   = "😔 Your result could not be saved. Tap the button to try again."
	previousNotSaved = "😔 Your last result is still not saved. Please try again in a moment."
	reportPrompt     = "Describe the problem with this question (or /cancel):"
	reportThanks     = "✅ Report sent, thank you!"
	banPrompt        = "Send the user id to ban, optionally followed by a reason (or /cancel):"
	unbanPrompt      = "Send the user id to unban (or /cancel):"
	cancelledText    = "Cancelled."
	noSessionText    = "This quiz is no longer active."
	noQuestionsText  = "There are no questions for this level yet."

	// wrongAnswersShown caps the review list in the finish message
	wrongAnswersShown = 5
	// progressCells is the width of the progress bar
	progressCells = 10
	// leaderboardSize and historySize bound the chat listings
	leaderboardSize = 10
	historySize     = 5
)

// progressBar draws how far through the quiz the current question is
func progressBar(number, total int) string {
	if total <= 0 {
		return ""
	}
	filled := number * progressCells / total
	if filled > progressCells {
		filled = progressCells
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", progressCells-filled)
}

func questionText(v *service.QuestionView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❓ %s\n\n", v.Question.Text)
	fmt.Fprintf(&b, "📊 Progress: %d/%d\n%s\n", v.Number, v.Total, progressBar(v.Number, v.Total))
	if v.LivesEnabled {
		fmt.Fprintf(&b, "❤️ Lives: %d\n", v.Lives)
	}
	fmt.Fprintf(&b, "\nLevel: %s", v.Question.Level)
	return b.String()
}

func finishText(f *service.FinalResult) string {
	r := f.Result
	var b strings.Builder
	if f.EarlyEnd {
		b.WriteString("💔 Out of lives!\n\n")
	} else {
		b.WriteString("🎉 Test finished!\n\n")
	}
	fmt.Fprintf(&b, "📊 Score: %d/%d (%d%%)\n", r.Score, r.Total, int(f.Percentage))
	fmt.Fprintf(&b, "🎯 Level: %s (%s)\n", r.Level, r.Level.Description())
	fmt.Fprintf(&b, "⏱️ Time: %d seconds\n", r.ElapsedSeconds)
	if f.LivesEnabled {
		fmt.Fprintf(&b, "❤️ Lives left: %d\n", f.LivesLeft)
	}
	if f.HintsUsed > 0 {
		fmt.Fprintf(&b, "💡 Hints used: %d\n", f.HintsUsed)
	}
	if f.CertificateEligible {
		b.WriteString("📄 You qualify for a certificate!\n")
	}

	if len(f.WrongAnswers) > 0 {
		b.WriteString("\n❌ Wrong answers:\n")
		for i, q := range f.WrongAnswers {
			if i == wrongAnswersShown {
				fmt.Fprintf(&b, "…and %d more\n", len(f.WrongAnswers)-wrongAnswersShown)
				break
			}
			fmt.Fprintf(&b, "• %s → %s\n", truncate(q.Text, 30), q.CorrectOption())
		}
	}
	return b.String()
}

func historyText(results []models.Result) string {
	if len(results) == 0 {
		return "You have no results yet."
	}
	var b strings.Builder
	b.WriteString("📊 Your latest results:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "\n📅 %s\n🎯 Level: %s\n✅ %d/%d (%d%%)\n",
			r.CompletedAt.Format("2006-01-02 15:04"), r.Level, r.Score, r.Total, int(r.Percentage()))
	}
	return b.String()
}

var medals = []string{"🥇", "🥈", "🥉"}

func leaderboardText(entries []models.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "Nobody has taken the test yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 Top %d:\n\n", len(entries))
	for _, e := range entries {
		medal := "🏅"
		if e.Rank <= len(medals) {
			medal = medals[e.Rank-1]
		}
		fmt.Fprintf(&b, "%s %s - %s (%d%%)\n", medal, e.Name, e.Level, int(e.Percentage))
	}
	return b.String()
}

func bonusText(o *service.BonusOutcome) string {
	if o.AlreadyClaimedToday {
		return fmt.Sprintf("✅ Today's bonus is already claimed!\n💡 You have %d hints.", o.NewBalance)
	}
	return fmt.Sprintf("🎉 Daily bonus claimed! +1 hint.\n💡 You have %d hints.", o.NewBalance)
}

func statsText(s *models.Stats) string {
	return fmt.Sprintf("📈 Statistics\n\n👥 Users: %d (web: %d)\n❓ Questions: %d\n📝 Results: %d\n⚠️ Reports: %d\n🚫 Bans: %d",
		s.Users, s.WebUsers, s.Questions, s.Results, s.Reports, s.Bans)
}

func reportsText(reports []models.QuestionReport) string {
	if len(reports) == 0 {
		return "No reports."
	}
	var b strings.Builder
	b.WriteString("⚠️ Reports:\n")
	for i, r := range reports {
		if i == 10 {
			fmt.Fprintf(&b, "\n…and %d more", len(reports)-10)
			break
		}
		fmt.Fprintf(&b, "\n#%d question %d by user %s\n%s\n“%s”\n",
			r.ID, r.QuestionID, r.UserID, truncate(r.QuestionText, 40), r.Reason)
	}
	return b.String()
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
