package handlers

import (
	"levelquiz/internal/models"
	"levelquiz/internal/service"
)

// questionDTO is a question as shown to a quiz taker; the answer is withheld
type questionDTO struct {
	ID      int64        `json:"id"`
	Level   models.Level `json:"level"`
	Text    string       `json:"text"`
	Options []string     `json:"options"`
}

type questionStateDTO struct {
	Question     questionDTO `json:"question"`
	Number       int         `json:"number"`
	Total        int         `json:"total"`
	Score        int         `json:"score"`
	LivesEnabled bool        `json:"lives_enabled"`
	Lives        int         `json:"lives,omitempty"`
}

type startResponse struct {
	SessionID   string           `json:"session_id"`
	Level       string           `json:"level"`
	Current     questionStateDTO `json:"current"`
	HintBalance int              `json:"hint_balance"`
}

type wrongAnswerDTO struct {
	QuestionID    int64  `json:"question_id"`
	Text          string `json:"text"`
	CorrectAnswer string `json:"correct_answer"`
}

type finalDTO struct {
	Level               models.Level     `json:"level"`
	Description         string           `json:"description"`
	Filter              string           `json:"filter"`
	Score               int              `json:"score"`
	Total               int              `json:"total"`
	Percentage          float64          `json:"percentage"`
	ElapsedSeconds      int              `json:"elapsed_seconds"`
	EarlyEnd            bool             `json:"early_end"`
	LivesEnabled        bool             `json:"lives_enabled"`
	LivesLeft           int              `json:"lives_left,omitempty"`
	HintsUsed           int              `json:"hints_used"`
	WrongAnswers        []wrongAnswerDTO `json:"wrong_answers"`
	CertificateEligible bool             `json:"certificate_eligible"`
}

type answerResponse struct {
	Correct      bool              `json:"correct"`
	CorrectIndex int               `json:"correct_index"`
	Finished     bool              `json:"finished"`
	Next         *questionStateDTO `json:"next,omitempty"`
	Result       *finalDTO         `json:"result,omitempty"`
}

type hintResponse struct {
	Granted      bool `json:"granted"`
	Remaining    int  `json:"remaining"`
	CorrectIndex *int `json:"correct_index,omitempty"`
}

type bonusResponse struct {
	AlreadyClaimedToday bool `json:"already_claimed_today"`
	HintBalance         int  `json:"hint_balance"`
}

type levelDTO struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type resultDTO struct {
	models.Result
	Percentage float64 `json:"percentage"`
}

type sessionResponse struct {
	User        *models.User `json:"user"`
	HintBalance int          `json:"hint_balance"`
}

func toQuestionState(v service.QuestionView) questionStateDTO {
	return questionStateDTO{
		Question: questionDTO{
			ID:      v.Question.ID,
			Level:   v.Question.Level,
			Text:    v.Question.Text,
			Options: v.Question.Options,
		},
		Number:       v.Number,
		Total:        v.Total,
		Score:        v.Score,
		LivesEnabled: v.LivesEnabled,
		Lives:        v.Lives,
	}
}

func toFinal(f *service.FinalResult) *finalDTO {
	wrong := make([]wrongAnswerDTO, 0, len(f.WrongAnswers))
	for _, q := range f.WrongAnswers {
		wrong = append(wrong, wrongAnswerDTO{QuestionID: q.ID, Text: q.Text, CorrectAnswer: q.CorrectOption()})
	}
	return &finalDTO{
		Level:               f.Result.Level,
		Description:         f.Result.Level.Description(),
		Filter:              f.Filter.String(),
		Score:               f.Result.Score,
		Total:               f.Result.Total,
		Percentage:          f.Percentage,
		ElapsedSeconds:      f.Result.ElapsedSeconds,
		EarlyEnd:            f.EarlyEnd,
		LivesEnabled:        f.LivesEnabled,
		LivesLeft:           f.LivesLeft,
		HintsUsed:           f.HintsUsed,
		WrongAnswers:        wrong,
		CertificateEligible: f.CertificateEligible,
	}
}

func toResults(results []models.Result) []resultDTO {
	out := make([]resultDTO, 0, len(results))
	for _, r := range results {
		out = append(out, resultDTO{Result: r, Percentage: r.Percentage()})
	}
	return out
}
