package models

import (
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Level
		wantErr bool
	}{
		{name: "upper case", input: "B2", want: LevelB2},
		{name: "lower case with spaces", input: " c1 ", want: LevelC1},
		{name: "unknown", input: "C2", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelOrdering(t *testing.T) {
	for i := 1; i < len(Levels); i++ {
		if Levels[i-1].Rank() >= Levels[i].Rank() {
			t.Errorf("%s should rank below %s", Levels[i-1], Levels[i])
		}
	}
	if Level("X").Rank() != 0 {
		t.Error("unknown level should rank 0")
	}
	if LevelA1.Description() == "" {
		t.Error("A1 should have a description")
	}
}

func TestParseLevelFilter(t *testing.T) {
	tests := []struct {
		input   string
		wantAll bool
		want    Level
		wantErr bool
	}{
		{input: "full", wantAll: true},
		{input: "ALL", wantAll: true},
		{input: "", wantAll: true},
		{input: "a2", want: LevelA2},
		{input: "Z9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseLevelFilter(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if f.IsAll() != tt.wantAll {
				t.Errorf("IsAll() = %v, want %v", f.IsAll(), tt.wantAll)
			}
			if !tt.wantAll && f.Level != tt.want {
				t.Errorf("Level = %q, want %q", f.Level, tt.want)
			}
		})
	}

	if !AllLevels.Matches(LevelC1) {
		t.Error("all-levels filter should match every level")
	}
	if FilterFor(LevelA1).Matches(LevelA2) {
		t.Error("A1 filter should not match A2")
	}
}

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Question
		wantErr bool
	}{
		{
			name: "valid",
			q:    Question{Level: LevelA1, Text: "How are you?", Options: []string{"Fine", "Blue"}, CorrectIndex: 0},
		},
		{
			name:    "single option",
			q:       Question{Level: LevelA1, Text: "How are you?", Options: []string{"Fine"}},
			wantErr: true,
		},
		{
			name:    "correct index past end",
			q:       Question{Level: LevelA1, Text: "How are you?", Options: []string{"Fine", "Blue"}, CorrectIndex: 2},
			wantErr: true,
		},
		{
			name:    "negative correct index",
			q:       Question{Level: LevelA1, Text: "How are you?", Options: []string{"Fine", "Blue"}, CorrectIndex: -1},
			wantErr: true,
		},
		{
			name:    "missing level",
			q:       Question{Text: "How are you?", Options: []string{"Fine", "Blue"}},
			wantErr: true,
		},
		{
			name:    "missing text",
			q:       Question{Level: LevelB1, Options: []string{"Fine", "Blue"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuestionIsCorrect(t *testing.T) {
	q := Question{Options: []string{"a", "b", "c"}, CorrectIndex: 1}
	if !q.IsCorrect(1) {
		t.Error("choice 1 should be correct")
	}
	for _, choice := range []int{0, 2, -1, 3, 99} {
		if q.IsCorrect(choice) {
			t.Errorf("choice %d should not be correct", choice)
		}
	}
	if q.CorrectOption() != "b" {
		t.Errorf("CorrectOption() = %q, want b", q.CorrectOption())
	}
}

func TestSessionHelpers(t *testing.T) {
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	s := Session{
		Questions:    []Question{{ID: 1}, {ID: 2}},
		WrongAnswers: []Question{{ID: 2}},
		LivesEnabled: true,
		Lives:        1,
		StartedAt:    start,
	}

	if got := s.Current(); got == nil || got.ID != 1 {
		t.Fatalf("Current() = %v, want question 1", got)
	}
	s.Cursor = 2
	if s.Current() != nil {
		t.Error("Current() should be nil past the end")
	}
	if !s.Exhausted() {
		t.Error("session should be exhausted")
	}
	if s.OutOfLives() {
		t.Error("one life left is not out of lives")
	}
	s.Lives = 0
	if !s.OutOfLives() {
		t.Error("zero lives should be out of lives")
	}
	s.LivesEnabled = false
	if s.OutOfLives() {
		t.Error("lives are ignored when the mechanic is off")
	}
	if ids := s.WrongQuestionIDs(); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("WrongQuestionIDs() = %v, want [2]", ids)
	}
	if got := s.Elapsed(start.Add(90 * time.Second)); got != 90 {
		t.Errorf("Elapsed() = %d, want 90", got)
	}
	if got := s.Elapsed(start.Add(-time.Second)); got != 0 {
		t.Errorf("Elapsed() before start = %d, want 0", got)
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(1, 2); got != 50 {
		t.Errorf("Percentage(1, 2) = %v, want 50", got)
	}
	if got := Percentage(0, 0); got != 0 {
		t.Errorf("Percentage(0, 0) = %v, want 0", got)
	}
	r := Result{Score: 9, Total: 10}
	if got := r.Percentage(); got != 90 {
		t.Errorf("Result.Percentage() = %v, want 90", got)
	}
}

func TestReadQuestionsCSV(t *testing.T) {
	input := `level,question,option1,option2,option3,option4,correct
A1,What colour is the sky?,Blue,Red,Green,Yellow,1
b2,She succeeded ___ passing the exam.,in,on,,,1

A2,Where ___ you from?,is,are,am,be,2
`
	questions, err := ReadQuestionsCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadQuestionsCSV() error = %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}
	if questions[0].CorrectIndex != 0 || questions[0].Level != LevelA1 {
		t.Errorf("first question = %+v", questions[0])
	}
	if len(questions[1].Options) != 2 {
		t.Errorf("blank options should be dropped, got %v", questions[1].Options)
	}
	if questions[2].CorrectIndex != 1 || questions[2].CorrectOption() != "are" {
		t.Errorf("third question = %+v", questions[2])
	}
}

func TestReadQuestionsCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "missing correct column", input: "level,question,option1,option2\nA1,Q,a,b\n"},
		{name: "correct out of range", input: "level,question,option1,option2,correct\nA1,Q,a,b,3\n"},
		{name: "unknown level", input: "level,question,option1,option2,correct\nD4,Q,a,b,1\n"},
		{name: "non numeric correct", input: "level,question,option1,option2,correct\nA1,Q,a,b,x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadQuestionsCSV(strings.NewReader(tt.input)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		user User
		want string
	}{
		{user: User{ID: 7, FullName: "Ann Lee", Username: "ann"}, want: "Ann Lee"},
		{user: User{ID: 7, Username: "ann"}, want: "ann"},
		{user: User{ID: 7}, want: "User 7"},
	}
	for _, tt := range tests {
		if got := tt.user.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}
