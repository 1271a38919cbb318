package data

import (
	"testing"

	"exams.zzh.net/internal/validator"
)

func sampleQuestions() []*Question {
    return []*Question{
        {ID: 1, Options: []string{"2", "3", "4"}, AnswerIndex: 2, Points: 2},
        {ID: 2, Options: []string{"true", "false"}, AnswerIndex: 0, Points: 1},
        {ID: 3, Options: []string{"a", "b", "c", "d"}, AnswerIndex: 3, Points: 5},
    }
}

func TestGrade(t *testing.T) {
    tests := []struct {
        name    string
        answers map[int64]int
        score   int
    }{
        {"all correct", map[int64]int{1: 2, 2: 0, 3: 3}, 8},
        {"one wrong", map[int64]int{1: 2, 2: 1, 3: 3}, 7},
        {"partially answered", map[int64]int{3: 3}, 5},
        {"nothing answered", map[int64]int{}, 0},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            score, maxScore := Grade(sampleQuestions(), tt.answers)
            if score != tt.score {
                t.Errorf("score = %d, want %d", score, tt.score)
            }
            if maxScore != 8 {
                t.Errorf("maxScore = %d, want 8", maxScore)
            }
        })
    }
}

func TestValidateAnswers(t *testing.T) {
    tests := []struct {
        name    string
        answers map[int64]int
        valid   bool
    }{
        {"valid", map[int64]int{1: 0, 3: 1}, true},
        {"empty", map[int64]int{}, false},
        {"foreign question", map[int64]int{99: 0}, false},
        {"option out of range", map[int64]int{2: 2}, false},
        {"negative option", map[int64]int{1: -1}, false},
    }

    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            v := validator.New()
            ValidateAnswers(v, sampleQuestions(), tt.answers)
            if v.Valid() != tt.valid {
                t.Errorf("Valid() = %v, want %v (%v)", v.Valid(), tt.valid, v.Errors)
            }
        })
    }
}
