package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"levelquiz/internal/models"
	"levelquiz/internal/session"
)

var (
	ErrEmptyPool         = errors.New("no questions available for the selected level")
	ErrUserBanned        = errors.New("user is banned")
	ErrNoActiveSession   = errors.New("no active quiz session")
	ErrInvalidChoice     = errors.New("answer choice is out of range")
	ErrSessionInProgress = errors.New("quiz is still in progress")
	// ErrResultNotSaved wraps a failed result write. The ended session is
	// kept so RetryFinish can write it later.
	ErrResultNotSaved = errors.New("result could not be saved")
)

// CertificateThreshold is the percentage at which a result earns a certificate
const CertificateThreshold = 60.0

// QuestionBank supplies the randomized question pool for a filter. It may
// report an empty pool either with an empty slice or with ErrEmptyPool.
type QuestionBank interface {
	FetchQuestions(ctx context.Context, filter models.LevelFilter) ([]models.Question, error)
}

// ResultSink persists finished results
type ResultSink interface {
	RecordResult(ctx context.Context, result *models.Result) error
}

// BanChecker is the moderation gate consulted before a quiz starts
type BanChecker interface {
	IsBanned(ctx context.Context, userID models.UserID) (bool, error)
}

// HintLedger holds hint balances. Consume and ClaimDailyBonus must be atomic
// per user at the storage layer.
type HintLedger interface {
	Balance(ctx context.Context, userID models.UserID) (int, error)
	Consume(ctx context.Context, userID models.UserID) (granted bool, remaining int, err error)
	ClaimDailyBonus(ctx context.Context, userID models.UserID, day string) (alreadyClaimed bool, balance int, err error)
}

// ResultNotifier is told about every recorded result. Failures are logged only.
type ResultNotifier interface {
	NotifyResult(ctx context.Context, result *models.Result) error
}

// AssessmentDeps are the collaborators of the assessment engine.
// Notifier is optional.
type AssessmentDeps struct {
	Questions QuestionBank
	Results   ResultSink
	Bans      BanChecker
	Hints     HintLedger
	Sessions  session.Store
	Notifier  ResultNotifier
}

// AssessmentService runs quiz sessions for every front-end. Calls for the
// same user are serialized; different users never wait on each other.
type AssessmentService struct {
	deps         AssessmentDeps
	initialLives int
	location     *time.Location
	now          func() time.Time
	newID        func() string
	locks        *userLocks
}

// NewAssessmentService creates the engine. initialLives applies to sessions
// started with the life mechanic on; calendar days for the daily bonus are
// counted in loc.
func NewAssessmentService(deps AssessmentDeps, initialLives int, loc *time.Location) *AssessmentService {
	if loc == nil {
		loc = time.UTC
	}
	if initialLives <= 0 {
		initialLives = 3
	}
	return &AssessmentService{
		deps:         deps,
		initialLives: initialLives,
		location:     loc,
		now:          time.Now,
		newID:        uuid.NewString,
		locks:        newUserLocks(),
	}
}

// StartOptions are the per-front-end session settings
type StartOptions struct {
	LivesEnabled bool
}

// QuestionView is a question together with the progress shown alongside it
type QuestionView struct {
	Question     models.Question
	Number       int
	Total        int
	Score        int
	LivesEnabled bool
	Lives        int
}

// StartResult is returned when a quiz begins
type StartResult struct {
	SessionID   string
	Filter      models.LevelFilter
	First       QuestionView
	HintBalance int
}

// FinalResult describes a finished quiz
type FinalResult struct {
	Result              *models.Result
	Filter              models.LevelFilter
	Percentage          float64
	EarlyEnd            bool
	LivesEnabled        bool
	LivesLeft           int
	HintsUsed           int
	WrongAnswers        []models.Question
	CertificateEligible bool
}

// AnswerOutcome is the result of submitting one answer. Exactly one of Next
// and Final is set.
type AnswerOutcome struct {
	Correct      bool
	CorrectIndex int
	Next         *QuestionView
	Final        *FinalResult
}

// Finished reports whether the answer ended the quiz
func (o *AnswerOutcome) Finished() bool {
	return o.Final != nil
}

// HintOutcome is the result of asking for a hint
type HintOutcome struct {
	Granted   bool
	Remaining int
	// CorrectIndex is the answer to the current question; only meaningful when Granted
	CorrectIndex int
}

// BonusOutcome is the result of claiming the daily bonus
type BonusOutcome struct {
	AlreadyClaimedToday bool
	NewBalance          int
}

// DetermineLevel maps accuracy to a level: at least 90% is C1, 80% B2,
// 70% B1, 60% A2 and anything lower A1. The requested filter plays no part.
func DetermineLevel(score, total int) models.Level {
	if total <= 0 {
		return models.LevelA1
	}
	pct := score * 100
	switch {
	case pct >= 90*total:
		return models.LevelC1
	case pct >= 80*total:
		return models.LevelB2
	case pct >= 70*total:
		return models.LevelB1
	case pct >= 60*total:
		return models.LevelA2
	default:
		return models.LevelA1
	}
}

// Start begins a new quiz for the user, replacing any session they had
func (s *AssessmentService) Start(ctx context.Context, userID models.UserID, filter models.LevelFilter, opts StartOptions) (*StartResult, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	banned, err := s.deps.Bans.IsBanned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ban status: %w", err)
	}
	if banned {
		return nil, ErrUserBanned
	}

	if err := s.flushPending(ctx, userID); err != nil {
		return nil, err
	}

	questions, err := s.deps.Questions.FetchQuestions(ctx, filter)
	if err != nil {
		if errors.Is(err, ErrEmptyPool) {
			return nil, ErrEmptyPool
		}
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrEmptyPool
	}

	sess := &models.Session{
		ID:           s.newID(),
		UserID:       userID,
		Filter:       filter,
		Questions:    questions,
		LivesEnabled: opts.LivesEnabled,
		StartedAt:    s.now(),
	}
	if opts.LivesEnabled {
		sess.Lives = s.initialLives
	}

	if err := s.save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	balance, err := s.deps.Hints.Balance(ctx, userID)
	if err != nil {
		log.Printf("Failed to load hint balance for user %s: %v", userID, err)
	}

	return &StartResult{
		SessionID:   sess.ID,
		Filter:      filter,
		First:       viewOf(sess),
		HintBalance: balance,
	}, nil
}

// SubmitAnswer scores choiceIndex against the current question and advances
// the session. When the attempt ends the result is recorded and the session
// discarded. If recording fails the error is returned and the ended session
// is kept so RetryFinish can write it later.
func (s *AssessmentService) SubmitAnswer(ctx context.Context, userID models.UserID, choiceIndex int) (*AnswerOutcome, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	q := sess.Current()
	if choiceIndex < 0 || choiceIndex >= len(q.Options) {
		return nil, ErrInvalidChoice
	}

	outcome := &AnswerOutcome{
		Correct:      q.IsCorrect(choiceIndex),
		CorrectIndex: q.CorrectIndex,
	}
	if outcome.Correct {
		sess.Score++
	} else {
		if sess.LivesEnabled {
			sess.Lives--
		}
		sess.WrongAnswers = append(sess.WrongAnswers, *q)
	}
	sess.Cursor++

	if !sess.Ended() {
		if err := s.save(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		next := viewOf(sess)
		outcome.Next = &next
		return outcome, nil
	}

	sess.EndedAt = s.now()
	final, err := s.finish(ctx, sess)
	if err != nil {
		return nil, err
	}
	outcome.Final = final
	return outcome, nil
}

// RetryFinish writes the result of an ended session whose earlier write failed
func (s *AssessmentService) RetryFinish(ctx context.Context, userID models.UserID) (*FinalResult, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.deps.Sessions.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, ErrNoActiveSession
	}
	if !sess.Ended() {
		return nil, ErrSessionInProgress
	}
	return s.finish(ctx, sess)
}

// Current returns the question the user is expected to answer next
func (s *AssessmentService) Current(ctx context.Context, userID models.UserID) (*QuestionView, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := viewOf(sess)
	return &view, nil
}

// Abandon discards the user's session without recording a result.
// It reports whether there was a session to discard.
func (s *AssessmentService) Abandon(ctx context.Context, userID models.UserID) (bool, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.deps.Sessions.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return false, nil
	}
	if err := s.deps.Sessions.Delete(ctx, userID); err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return true, nil
}

// UseHint spends one hint on the current question. With an empty balance
// nothing changes and Granted is false.
func (s *AssessmentService) UseHint(ctx context.Context, userID models.UserID) (*HintOutcome, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	granted, remaining, err := s.deps.Hints.Consume(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to use hint: %w", err)
	}
	outcome := &HintOutcome{Granted: granted, Remaining: remaining}
	if !granted {
		return outcome, nil
	}

	outcome.CorrectIndex = sess.Current().CorrectIndex
	sess.HintsUsed++
	if err := s.save(ctx, sess); err != nil {
		// The hint is already spent; the counter is informational only
		log.Printf("Failed to save hint usage for user %s: %v", userID, err)
	}
	return outcome, nil
}

// HintBalance returns the user's current number of hints
func (s *AssessmentService) HintBalance(ctx context.Context, userID models.UserID) (int, error) {
	balance, err := s.deps.Hints.Balance(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get hint balance: %w", err)
	}
	return balance, nil
}

// ClaimDailyBonus grants one hint per calendar day. Repeated claims on the
// same day report AlreadyClaimedToday and leave the balance unchanged.
func (s *AssessmentService) ClaimDailyBonus(ctx context.Context, userID models.UserID) (*BonusOutcome, error) {
	day := s.now().In(s.location).Format("2006-01-02")
	already, balance, err := s.deps.Hints.ClaimDailyBonus(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to claim daily bonus: %w", err)
	}
	return &BonusOutcome{AlreadyClaimedToday: already, NewBalance: balance}, nil
}

// activeSession loads a session that still accepts answers
func (s *AssessmentService) activeSession(ctx context.Context, userID models.UserID) (*models.Session, error) {
	sess, err := s.deps.Sessions.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil || sess.Ended() {
		return nil, ErrNoActiveSession
	}
	return sess, nil
}

// flushPending writes the result of an ended session left behind by a failed
// write, so starting over never drops a finished attempt
func (s *AssessmentService) flushPending(ctx context.Context, userID models.UserID) error {
	sess, err := s.deps.Sessions.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil || !sess.Ended() {
		return nil
	}
	final, err := s.finish(ctx, sess)
	if err != nil {
		return err
	}
	log.Printf("Recorded pending result %d/%d for user %s before a new quiz", final.Result.Score, final.Result.Total, userID)
	return nil
}

// save stores the session and stamps its activity time
func (s *AssessmentService) save(ctx context.Context, sess *models.Session) error {
	sess.LastActivityAt = s.now()
	return s.deps.Sessions.Save(ctx, sess)
}

// finish records the result of an ended session and then discards it
func (s *AssessmentService) finish(ctx context.Context, sess *models.Session) (*FinalResult, error) {
	total := sess.Cursor
	result := &models.Result{
		UserID:           sess.UserID,
		Level:            DetermineLevel(sess.Score, total),
		Score:            sess.Score,
		Total:            total,
		WrongQuestionIDs: sess.WrongQuestionIDs(),
		ElapsedSeconds:   sess.Elapsed(sess.EndedAt),
		CompletedAt:      sess.EndedAt,
	}

	if err := s.deps.Results.RecordResult(ctx, result); err != nil {
		if saveErr := s.save(ctx, sess); saveErr != nil {
			log.Printf("Failed to keep unrecorded session for user %s: %v", sess.UserID, saveErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrResultNotSaved, err)
	}

	if err := s.deps.Sessions.Delete(ctx, sess.UserID); err != nil {
		log.Printf("Failed to delete finished session for user %s: %v", sess.UserID, err)
	}

	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.NotifyResult(ctx, result); err != nil {
			log.Printf("Failed to send result notification for user %s: %v", sess.UserID, err)
		}
	}

	pct := result.Percentage()
	return &FinalResult{
		Result:              result,
		Filter:              sess.Filter,
		Percentage:          pct,
		EarlyEnd:            sess.OutOfLives(),
		LivesEnabled:        sess.LivesEnabled,
		LivesLeft:           sess.Lives,
		HintsUsed:           sess.HintsUsed,
		WrongAnswers:        sess.WrongAnswers,
		CertificateEligible: pct >= CertificateThreshold,
	}, nil
}

func viewOf(sess *models.Session) QuestionView {
	return QuestionView{
		Question:     *sess.Current(),
		Number:       sess.Cursor + 1,
		Total:        len(sess.Questions),
		Score:        sess.Score,
		LivesEnabled: sess.LivesEnabled,
		Lives:        sess.Lives,
	}
}
