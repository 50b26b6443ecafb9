package models

import (
	"fmt"
	"strings"
)

// Level is a proficiency level on the ordered scale A1 < A2 < B1 < B2 < C1
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
)

// Levels lists every level in ascending order
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1}

var levelDescriptions = map[Level]string{
	LevelA1: "Beginner - Basic phrases and vocabulary",
	LevelA2: "Elementary - Simple conversations",
	LevelB1: "Intermediate - Everyday language",
	LevelB2: "Upper Intermediate - Complex topics",
	LevelC1: "Advanced - Fluent and natural",
}

// ParseLevel accepts a level code in any case
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}

// Valid reports whether l is one of the five known levels
func (l Level) Valid() bool {
	_, ok := levelDescriptions[l]
	return ok
}

// Rank returns the position of the level on the scale, starting at 1.
// Unknown levels rank 0.
func (l Level) Rank() int {
	for i, lvl := range Levels {
		if lvl == l {
			return i + 1
		}
	}
	return 0
}

// Description returns the human readable label for the level
func (l Level) Description() string {
	return levelDescriptions[l]
}

func (l Level) String() string {
	return string(l)
}

// LevelFilter selects the question pool for a quiz: one level or all of them.
// The zero value means all levels.
type LevelFilter struct {
	Level Level `json:"level,omitempty"`
}

// AllLevels is the filter that draws from every level
var AllLevels = LevelFilter{}

// FilterFor returns a filter restricted to a single level
func FilterFor(l Level) LevelFilter {
	return LevelFilter{Level: l}
}

// ParseLevelFilter reads the wire form of a filter. "full", "all" and the
// empty string select every level.
func ParseLevelFilter(s string) (LevelFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "full":
		return AllLevels, nil
	}
	l, err := ParseLevel(s)
	if err != nil {
		return LevelFilter{}, err
	}
	return FilterFor(l), nil
}

// IsAll reports whether the filter spans every level
func (f LevelFilter) IsAll() bool {
	return f.Level == ""
}

// Matches reports whether a question of level l belongs to the pool
func (f LevelFilter) Matches(l Level) bool {
	return f.IsAll() || f.Level == l
}

func (f LevelFilter) String() string {
	if f.IsAll() {
		return "full"
	}
	return string(f.Level)
}
