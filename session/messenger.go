package session

import (
	"context"
	"errors"

	"github.com/korjavin/quizbot/api"
	"github.com/korjavin/quizbot/models"
	"github.com/korjavin/quizbot/render"
)

var (
	// ErrMessageGone is returned by a Messenger when the target message no longer exists.
	ErrMessageGone = errors.New("message no longer exists")
	// ErrInteractionExpired is returned when a control activation can no longer be answered.
	ErrInteractionExpired = errors.New("interaction expired")
	// ErrAnswerPending means the user already has an open answer prompt in the chat.
	ErrAnswerPending = errors.New("answer prompt already open")
)

// MessageRef identifies a posted message. Caption is set when the message
// text lives in a photo caption.
type MessageRef struct {
	ChatID    int64
	MessageID int
	Caption   bool
}

// Messenger is the chat platform as seen by sessions.
type Messenger interface {
	// Send posts a new message, replying to replyTo when it is non-zero.
	Send(ctx context.Context, chatID int64, replyTo int, v render.View) (MessageRef, error)
	// Edit redraws a posted message, including its controls.
	Edit(ctx context.Context, ref MessageRef, v render.View) error
	// Prompt asks the user for a typed reply.
	Prompt(ctx context.Context, chatID int64, replyTo int, p render.AnswerPrompt) (MessageRef, error)
	// Alert answers a control activation with a notice only the activating user sees.
	Alert(ctx context.Context, callbackID, text string) error
	// Ack answers a control activation without a notice.
	Ack(ctx context.Context, callbackID string) error
}

// Grader scores free responses.
type Grader interface {
	Grade(ctx context.Context, q models.Question, answer string) (float64, error)
}

// Explainer produces explanations. It never fails; see api.Explanation.
type Explainer interface {
	Explain(ctx context.Context, q models.Question, userAnswer string) api.Explanation
}

// Reporter submits removal requests.
type Reporter interface {
	Report(ctx context.Context, q models.Question) (api.ReportResult, error)
}

// Callback is one control activation.
type Callback struct {
	ID        string
	ChatID    int64
	MessageID int
	UserID    int64
	Data      string
}

// Reply is a text message that may answer an open prompt.
type Reply struct {
	ChatID int64
	UserID int64
	Text   string
}
