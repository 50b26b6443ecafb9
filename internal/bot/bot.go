// Package bot is the Telegram front-end of the quiz. It turns chat updates
// into calls on the assessment engine and renders the outcomes as messages
// and inline keyboards.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"levelquiz/internal/models"
	"levelquiz/internal/service"
	"levelquiz/internal/validation"
)

const cbRetryFinish = "retry"

// Sender is the part of the Telegram client the bot talks through
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps are the services the bot drives
type Deps struct {
	Auth       *service.AuthService
	Assessment *service.AssessmentService
	Results    *service.ResultService
	Admin      *service.AdminService
	Bans       service.BanChecker
	// IsAdmin reports whether a Telegram user may open the admin panel
	IsAdmin func(telegramID int64) bool
}

type pendingKind int

const (
	awaitReportReason pendingKind = iota + 1
	awaitBanID
	awaitUnbanID
)

// pending is a question the bot asked and is waiting for a text reply to
type pending struct {
	kind       pendingKind
	questionID int64
}

// Bot handles Telegram updates
type Bot struct {
	api  Sender
	deps Deps

	mu      sync.Mutex
	pending map[int64]pending
	// queues holds the updates waiting per chat; an entry exists only while
	// a worker is draining it
	queues map[int64]*chatQueue
}

type chatQueue struct {
	updates []tgbotapi.Update
}

// New creates a bot sending through api
func New(api Sender, deps Deps) *Bot {
	if deps.IsAdmin == nil {
		deps.IsAdmin = func(int64) bool { return false }
	}
	return &Bot{
		api:     api,
		deps:    deps,
		pending: make(map[int64]pending),
		queues:  make(map[int64]*chatQueue),
	}
}

// Run handles updates until ctx is cancelled or the channel closes. Updates
// from different chats are handled concurrently; updates from one chat are
// handled one at a time in order of arrival.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()

	// In-flight updates finish even when shutdown begins
	handleCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			chatID, ok := chatOf(update)
			if !ok {
				continue
			}
			if b.enqueue(chatID, update) {
				wg.Add(1)
				go func() {
					defer wg.Done()
					b.drain(handleCtx, chatID)
				}()
			}
		}
	}
}

// enqueue appends update to the chat's queue and reports whether a new
// worker must be started for it
func (b *Bot) enqueue(chatID int64, update tgbotapi.Update) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[chatID]; ok {
		q.updates = append(q.updates, update)
		return false
	}
	b.queues[chatID] = &chatQueue{updates: []tgbotapi.Update{update}}
	return true
}

// drain handles the chat's queued updates until it is empty, then drops it
func (b *Bot) drain(ctx context.Context, chatID int64) {
	for {
		b.mu.Lock()
		q := b.queues[chatID]
		if len(q.updates) == 0 {
			delete(b.queues, chatID)
			b.mu.Unlock()
			return
		}
		update := q.updates[0]
		q.updates = q.updates[1:]
		b.mu.Unlock()

		b.HandleUpdate(ctx, update)
	}
}

func chatOf(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID, true
	}
	return 0, false
}

// HandleUpdate dispatches a single update. Run never calls it concurrently
// for the same chat.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil && update.Message.Chat != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	user, err := b.user(ctx, msg.From)
	if err != nil {
		log.Printf("Error resolving telegram user %d: %v", msg.From.ID, err)
		b.send(chatID, genericError, nil)
		return
	}

	if msg.IsCommand() {
		b.takePending(chatID)
		switch msg.Command() {
		case "start":
			b.start(ctx, chatID, user)
		case "admin":
			b.adminPanel(chatID, msg.From.ID)
		case "cancel":
			b.send(chatID, cancelledText, mainKeyboard())
		case "help":
			b.send(chatID, infoText, nil)
		default:
			b.send(chatID, welcomeText, mainKeyboard())
		}
		return
	}

	if p, ok := b.takePending(chatID); ok {
		b.handleReply(ctx, chatID, msg.From.ID, user, p, msg.Text)
		return
	}

	switch msg.Text {
	case btnStartQuiz:
		b.send(chatID, chooseLevel, levelKeyboard())
	case btnMyResults:
		results, err := b.deps.Results.History(ctx, user.ID, historySize)
		if err != nil {
			log.Printf("Error loading results for user %s: %v", user.ID, err)
			b.send(chatID, genericError, nil)
			return
		}
		b.send(chatID, historyText(results), backKeyboard())
	case btnLeaderboard:
		entries, err := b.deps.Results.Leaderboard(ctx, leaderboardSize)
		if err != nil {
			log.Printf("Error loading leaderboard: %v", err)
			b.send(chatID, genericError, nil)
			return
		}
		b.send(chatID, leaderboardText(entries), backKeyboard())
	case btnDailyBonus:
		outcome, err := b.deps.Assessment.ClaimDailyBonus(ctx, user.ID)
		if err != nil {
			log.Printf("Error claiming daily bonus for user %s: %v", user.ID, err)
			b.send(chatID, genericError, nil)
			return
		}
		b.send(chatID, bonusText(outcome), nil)
	case btnInfo:
		b.send(chatID, infoText, backKeyboard())
	default:
		b.send(chatID, welcomeText, mainKeyboard())
	}
}

func (b *Bot) start(ctx context.Context, chatID int64, user *models.User) {
	banned, err := b.deps.Bans.IsBanned(ctx, user.ID)
	if err != nil {
		log.Printf("Error checking ban for user %s: %v", user.ID, err)
		b.send(chatID, genericError, nil)
		return
	}
	if banned {
		b.send(chatID, bannedText, nil)
		return
	}
	b.send(chatID, welcomeText, mainKeyboard())
}

func (b *Bot) adminPanel(chatID, telegramID int64) {
	if !b.deps.IsAdmin(telegramID) {
		b.send(chatID, notAdminText, nil)
		return
	}
	b.send(chatID, "👨‍💼 Admin panel:", adminKeyboard())
}

// handleReply consumes the text answer to a prompt the bot sent earlier
func (b *Bot) handleReply(ctx context.Context, chatID, telegramID int64, user *models.User, p pending, text string) {
	switch p.kind {
	case awaitReportReason:
		_, err := b.deps.Admin.ReportQuestion(ctx, user.ID, p.questionID, text)
		var validationErr validation.ValidationError
		switch {
		case errors.As(err, &validationErr):
			b.setPending(chatID, p)
			b.send(chatID, validationErr.Message+"\n\n"+reportPrompt, nil)
		case errors.Is(err, service.ErrQuestionNotFound):
			b.send(chatID, "That question no longer exists.", nil)
		case err != nil:
			log.Printf("Error reporting question %d: %v", p.questionID, err)
			b.send(chatID, genericError, nil)
		default:
			b.send(chatID, reportThanks, nil)
		}

	case awaitBanID, awaitUnbanID:
		if !b.deps.IsAdmin(telegramID) {
			return
		}
		b.send(chatID, b.moderate(ctx, p.kind, text), adminKeyboard())
	}
}

// moderate applies a ban or unban typed by an admin as "<user id> [reason]"
func (b *Bot) moderate(ctx context.Context, kind pendingKind, text string) string {
	idText, reason, _ := strings.Cut(strings.TrimSpace(text), " ")
	userID, err := models.ParseUserID(idText)
	if err != nil {
		return "❌ Not a user id: " + idText
	}

	if kind == awaitBanID {
		err = b.deps.Admin.Ban(ctx, userID, strings.TrimSpace(reason))
	} else {
		err = b.deps.Admin.Unban(ctx, userID)
	}
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return fmt.Sprintf("❌ User %s not found.", userID)
	case errors.Is(err, service.ErrNotBanned):
		return fmt.Sprintf("User %s is not banned.", userID)
	case err != nil:
		log.Printf("Error changing ban of user %s: %v", userID, err)
		return genericError
	case kind == awaitBanID:
		return fmt.Sprintf("🚫 User %s banned.", userID)
	default:
		return fmt.Sprintf("✅ User %s unbanned.", userID)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		b.ack(cb.ID, "", false)
		return
	}
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	user, err := b.user(ctx, cb.From)
	if err != nil {
		log.Printf("Error resolving telegram user %d: %v", cb.From.ID, err)
		b.ack(cb.ID, genericError, true)
		return
	}

	var reply string
	var alert bool
	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbLevel):
		reply, alert = b.startQuiz(ctx, chatID, messageID, user, strings.TrimPrefix(data, cbLevel))
	case strings.HasPrefix(data, cbAnswer):
		reply, alert = b.answer(ctx, chatID, messageID, user, data)
	case data == cbHint:
		reply, alert = b.hint(ctx, chatID, messageID, user)
	case data == cbRetryFinish:
		reply, alert = b.retryFinish(ctx, chatID, messageID, user)
	case strings.HasPrefix(data, cbReport):
		questionID, err := strconv.ParseInt(strings.TrimPrefix(data, cbReport), 10, 64)
		if err == nil {
			b.setPending(chatID, pending{kind: awaitReportReason, questionID: questionID})
			b.send(chatID, reportPrompt, nil)
		}
	case data == cbMenu:
		b.send(chatID, welcomeText, mainKeyboard())
	case strings.HasPrefix(data, "admin:"):
		reply, alert = b.adminAction(ctx, chatID, cb.From.ID, data)
	}
	b.ack(cb.ID, reply, alert)
}

func (b *Bot) startQuiz(ctx context.Context, chatID int64, messageID int, user *models.User, filterText string) (string, bool) {
	filter, err := models.ParseLevelFilter(filterText)
	if err != nil {
		return "Unknown level.", true
	}

	started, err := b.deps.Assessment.Start(ctx, user.ID, filter, service.StartOptions{LivesEnabled: true})
	switch {
	case errors.Is(err, service.ErrEmptyPool):
		return noQuestionsText, true
	case errors.Is(err, service.ErrUserBanned):
		return bannedText, true
	case errors.Is(err, service.ErrResultNotSaved):
		log.Printf("Error saving previous result for user %s: %v", user.ID, err)
		return previousNotSaved, true
	case err != nil:
		log.Printf("Error starting quiz for user %s: %v", user.ID, err)
		return genericError, true
	}

	b.edit(chatID, messageID, questionText(&started.First), answerKeyboard(started.First.Question, started.HintBalance > 0))
	return "", false
}

func (b *Bot) answer(ctx context.Context, chatID int64, messageID int, user *models.User, data string) (string, bool) {
	questionID, choice, ok := parseAnswerData(data)
	if !ok {
		return "", false
	}

	current, err := b.deps.Assessment.Current(ctx, user.ID)
	if errors.Is(err, service.ErrNoActiveSession) {
		return noSessionText, false
	}
	if err != nil {
		log.Printf("Error loading session for user %s: %v", user.ID, err)
		return genericError, true
	}
	if current.Question.ID != questionID {
		// A button on an older question message
		return "", false
	}

	outcome, err := b.deps.Assessment.SubmitAnswer(ctx, user.ID, choice)
	switch {
	case errors.Is(err, service.ErrNoActiveSession):
		return noSessionText, false
	case errors.Is(err, service.ErrInvalidChoice):
		return "", false
	case errors.Is(err, service.ErrResultNotSaved):
		log.Printf("Error saving result for user %s: %v", user.ID, err)
		b.edit(chatID, messageID, resultNotSaved, retryKeyboard())
		return "", false
	case err != nil:
		log.Printf("Error submitting answer for user %s: %v", user.ID, err)
		return genericError, true
	}

	reply := "✅ Correct!"
	if !outcome.Correct {
		reply = "❌ Wrong! Answer: " + current.Question.Options[outcome.CorrectIndex]
	}

	if outcome.Finished() {
		b.edit(chatID, messageID, finishText(outcome.Final), finishKeyboard(outcome.Final.Filter))
		return reply, false
	}
	b.showQuestion(ctx, chatID, messageID, user, outcome.Next)
	return reply, false
}

func (b *Bot) hint(ctx context.Context, chatID int64, messageID int, user *models.User) (string, bool) {
	outcome, err := b.deps.Assessment.UseHint(ctx, user.ID)
	if errors.Is(err, service.ErrNoActiveSession) {
		return noSessionText, false
	}
	if err != nil {
		log.Printf("Error using hint for user %s: %v", user.ID, err)
		return genericError, true
	}
	if !outcome.Granted {
		return "You have no hints left!", true
	}

	current, err := b.deps.Assessment.Current(ctx, user.ID)
	if err != nil {
		return fmt.Sprintf("💡 Hint used! Option %d is correct.", outcome.CorrectIndex+1), true
	}
	// Refresh the keyboard so the hint button disappears once the balance runs out
	b.edit(chatID, messageID, questionText(current), answerKeyboard(current.Question, outcome.Remaining > 0))
	return fmt.Sprintf("💡 Hint used! The answer is: %s\nHints left: %d",
		current.Question.Options[outcome.CorrectIndex], outcome.Remaining), true
}

func (b *Bot) retryFinish(ctx context.Context, chatID int64, messageID int, user *models.User) (string, bool) {
	final, err := b.deps.Assessment.RetryFinish(ctx, user.ID)
	switch {
	case errors.Is(err, service.ErrNoActiveSession):
		return noSessionText, false
	case errors.Is(err, service.ErrSessionInProgress):
		current, err := b.deps.Assessment.Current(ctx, user.ID)
		if err != nil {
			return genericError, true
		}
		b.showQuestion(ctx, chatID, messageID, user, current)
		return "", false
	case err != nil:
		log.Printf("Error retrying result for user %s: %v", user.ID, err)
		return "Still could not save your result. Please try again later.", true
	}
	b.edit(chatID, messageID, finishText(final), finishKeyboard(final.Filter))
	return "", false
}

func (b *Bot) showQuestion(ctx context.Context, chatID int64, messageID int, user *models.User, view *service.QuestionView) {
	balance, err := b.deps.Assessment.HintBalance(ctx, user.ID)
	if err != nil {
		log.Printf("Error loading hint balance for user %s: %v", user.ID, err)
	}
	b.edit(chatID, messageID, questionText(view), answerKeyboard(view.Question, balance > 0))
}

func (b *Bot) adminAction(ctx context.Context, chatID, telegramID int64, data string) (string, bool) {
	if !b.deps.IsAdmin(telegramID) {
		return notAdminText, true
	}

	switch data {
	case cbAdminStats:
		stats, err := b.deps.Admin.Stats(ctx)
		if err != nil {
			log.Printf("Error loading stats: %v", err)
			return genericError, true
		}
		b.send(chatID, statsText(stats), adminKeyboard())
	case cbAdminReport:
		reports, err := b.deps.Admin.ListReports(ctx)
		if err != nil {
			log.Printf("Error loading reports: %v", err)
			return genericError, true
		}
		b.send(chatID, reportsText(reports), adminKeyboard())
	case cbAdminBan:
		b.setPending(chatID, pending{kind: awaitBanID})
		b.send(chatID, banPrompt, nil)
	case cbAdminUnban:
		b.setPending(chatID, pending{kind: awaitUnbanID})
		b.send(chatID, unbanPrompt, nil)
	}
	return "", false
}

// user resolves the account behind a Telegram sender, registering it on first contact
func (b *Bot) user(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	fullName := strings.TrimSpace(from.FirstName + " " + from.LastName)
	return b.deps.Auth.TelegramUser(ctx, from.ID, from.UserName, fullName)
}

func (b *Bot) setPending(chatID int64, p pending) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[chatID] = p
}

func (b *Bot) takePending(chatID int64) (pending, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[chatID]
	delete(b.pending, chatID)
	return p, ok
}

func (b *Bot) send(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Error editing message %d in chat %d: %v", messageID, chatID, err)
	}
}

func (b *Bot) ack(callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	if _, err := b.api.Request(cfg); err != nil {
		log.Printf("Error answering callback: %v", err)
	}
}

func retryKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔁 Save my result", cbRetryFinish)),
	)
}
