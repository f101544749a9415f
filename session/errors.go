package session

import (
	"errors"

	"github.com/korjavin/quizbot/api"
)

// User-facing notices.
const (
	msgNotOwner            = "Only the original requester can use these controls."
	msgSessionEnded        = "This question is no longer active."
	msgUnknownControl      = "Unknown control."
	msgBusyAnswering       = "Finish answering this question first."
	msgBusyDeleting        = "A removal request is already waiting for confirmation."
	msgAnswerPending       = "You already have an open answer prompt in this chat. Reply to it first."
	msgExplainInProgress   = "An explanation is already being generated."
	msgEmptyAnswer         = "Please provide an answer."
	msgAnswerTimeout       = "Time's up. Press Check answer to try again."
	msgConfirmationExpired = "This confirmation is no longer active."
	msgGradingFailed       = "Grading failed. Please try again."
	msgRemovalFailed       = "The removal request failed. Please try again."

	MsgRateLimited    = "The question service is busy right now (rate limited). Please try again shortly."
	MsgAuthFailed     = "Authentication with the question service failed. Please check the API key."
	MsgGenericFailure = "Something went wrong. Please try again."
)

// UpstreamErrorMessage maps a question service failure to a notice, using
// fallback for anything that is not rate limiting or an auth failure.
func UpstreamErrorMessage(err error, fallback string) string {
	switch {
	case api.IsRateLimited(err):
		return MsgRateLimited
	case api.IsAuthFailure(err):
		return MsgAuthFailed
	case errors.Is(err, api.ErrNoQuestions):
		return "No questions found for these filters. Try a broader search."
	case errors.Is(err, api.ErrIDUnsupported):
		return "This event does not have identification questions."
	default:
		return fallback
	}
}
