package quiz

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/korjavin/quizbot/models"
)

// LikelyCorrectThreshold is the score at or above which a free response is
// reported as likely correct.
const LikelyCorrectThreshold = 0.5

// maxLetteredOptions is the number of options that can be picked by letter.
const maxLetteredOptions = 26

var (
	// ErrUnresolvableAnswer means the question data does not identify a correct option.
	ErrUnresolvableAnswer = errors.New("unable to determine correct answer")
	// ErrNotMultipleChoice is returned when an MCQ check is run against a question without options.
	ErrNotMultipleChoice = errors.New("question has no options")
)

// InvalidChoiceError reports a user answer that does not name an option.
type InvalidChoiceError struct {
	Options int
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("Invalid choice. Please enter a letter between A and %s.", OptionLetter(min(e.Options, maxLetteredOptions)-1))
}

// MCQResult is the outcome of checking a multiple choice answer.
type MCQResult struct {
	Chosen    int
	Correct   int
	IsCorrect bool
}

// CheckMCQ grades a free-text answer to a multiple choice question. Only the
// first letter A-Z in the input counts; option text is never matched here.
func CheckMCQ(q models.Question, input string) (MCQResult, error) {
	if len(q.Options) == 0 {
		return MCQResult{}, ErrNotMultipleChoice
	}
	chosen, ok := extractChoice(input)
	if !ok || chosen >= len(q.Options) {
		return MCQResult{}, &InvalidChoiceError{Options: len(q.Options)}
	}
	correct, ok := ResolveCorrectIndex(q)
	if !ok {
		return MCQResult{}, ErrUnresolvableAnswer
	}
	return MCQResult{
		Chosen:    chosen,
		Correct:   correct,
		IsCorrect: chosen == correct,
	}, nil
}

func extractChoice(input string) (int, bool) {
	for _, r := range strings.ToUpper(strings.TrimSpace(input)) {
		if r < 'A' || r > 'Z' {
			continue
		}
		return int(r - 'A'), true
	}
	return 0, false
}

// FRQResult is the classified outcome of a free response grade.
type FRQResult struct {
	Score         float64
	LikelyCorrect bool
}

// ClassifyScore clamps a grading score into [0,1] and applies the likely-correct threshold.
func ClassifyScore(score float64) FRQResult {
	switch {
	case math.IsNaN(score) || score < 0:
		score = 0
	case score > 1:
		score = 1
	}
	return FRQResult{Score: score, LikelyCorrect: score >= LikelyCorrectThreshold}
}
