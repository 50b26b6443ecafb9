package models

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadQuestionsCSV parses a question sheet with the header
// level,question,option1,option2,option3,option4,correct where correct is the
// 1-based number of the right option. Blank trailing options are dropped.
func ReadQuestionsCSV(r io.Reader) ([]Question, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	cols, err := questionColumns(header)
	if err != nil {
		return nil, err
	}

	var questions []Question
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlankRecord(record) {
			continue
		}

		q, err := questionFromRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

type csvColumns struct {
	level    int
	question int
	options  []int
	correct  int
}

func questionColumns(header []string) (csvColumns, error) {
	cols := csvColumns{level: -1, question: -1, correct: -1}
	optionCols := map[int]int{}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		switch {
		case name == "level":
			cols.level = i
		case name == "question":
			cols.question = i
		case name == "correct":
			cols.correct = i
		case strings.HasPrefix(name, "option"):
			n, err := strconv.Atoi(strings.TrimPrefix(name, "option"))
			if err == nil && n > 0 {
				optionCols[n] = i
			}
		}
	}
	if cols.level < 0 || cols.question < 0 || cols.correct < 0 {
		return cols, errors.New("csv header must contain level, question and correct")
	}
	for n := 1; ; n++ {
		idx, ok := optionCols[n]
		if !ok {
			break
		}
		cols.options = append(cols.options, idx)
	}
	if len(cols.options) < 2 {
		return cols, errors.New("csv header must contain option1 and option2")
	}
	return cols, nil
}

func questionFromRecord(record []string, cols csvColumns) (Question, error) {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	level, err := ParseLevel(field(cols.level))
	if err != nil {
		return Question{}, err
	}

	var options []string
	for _, idx := range cols.options {
		if opt := field(idx); opt != "" {
			options = append(options, opt)
		}
	}

	correct, err := strconv.Atoi(field(cols.correct))
	if err != nil {
		return Question{}, fmt.Errorf("correct must be a number: %w", err)
	}

	q := Question{
		Level:        level,
		Text:         field(cols.question),
		Options:      options,
		CorrectIndex: correct - 1,
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
