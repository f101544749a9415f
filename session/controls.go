package session

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/korjavin/quizbot/quiz"
	"github.com/korjavin/quizbot/render"
)

// check asks the owner for an answer and grades it.
func (s *Session) check(ctx context.Context, cb Callback) {
	if !s.transition(StateActive, StateAwaitingAnswer) {
		s.m.alert(ctx, cb.ID, s.busyMessage())
		return
	}
	defer s.transition(StateAwaitingAnswer, StateActive)

	answers, release, err := s.m.expectAnswer(s)
	if err != nil {
		s.m.alert(ctx, cb.ID, msgAnswerPending)
		return
	}
	defer release()
	s.m.ack(ctx, cb.ID)

	prompt := render.PromptFor(s.question, s.m.opts.AnswerTimeout)
	if _, err := s.m.messenger.Prompt(ctx, s.ref.ChatID, s.ref.MessageID, prompt); err != nil {
		log.Printf("session: answer prompt for %s failed: %v", s.id, err)
		return
	}

	answer, res := Wait(ctx, s.life.Done(), answers, s.m.opts.AnswerTimeout)
	switch res {
	case TimedOut:
		s.reply(ctx, render.Notice(msgAnswerTimeout))
		return
	case Cancelled:
		return
	}
	s.grade(ctx, answer)
}

func (s *Session) grade(ctx context.Context, answer string) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		s.reply(ctx, render.Notice(msgEmptyAnswer))
		return
	}

	q := s.question
	if len(q.Options) > 0 {
		res, err := quiz.CheckMCQ(q, answer)
		var invalid *quiz.InvalidChoiceError
		switch {
		case errors.As(err, &invalid):
			s.reply(ctx, render.Notice(invalid.Error()))
		case errors.Is(err, quiz.ErrUnresolvableAnswer):
			log.Printf("session: cannot resolve correct answer for id=%q base52=%q answers=%q options=%q",
				q.ID, q.ShortCode, q.AnswerStrings(), q.Options)
			s.reply(ctx, render.Notice(MsgGenericFailure))
		case err != nil:
			log.Printf("session: answer check for %s failed: %v", s.id, err)
			s.reply(ctx, render.Notice(MsgGenericFailure))
		default:
			s.reply(ctx, render.MCQResultView(q, res))
		}
		return
	}

	score, err := s.m.grader.Grade(ctx, q, answer)
	if err != nil {
		log.Printf("session: grading for id=%q base52=%q failed (answers=%q): %v", q.ID, q.ShortCode, q.AnswerStrings(), err)
		s.reply(ctx, render.Notice(UpstreamErrorMessage(err, msgGradingFailed)))
		return
	}
	s.reply(ctx, render.FRQResultView(q, answer, quiz.ClassifyScore(score)))
}

// explain posts an explanation of the question. One explanation per session
// runs at a time.
func (s *Session) explain(ctx context.Context, cb Callback) {
	s.mu.Lock()
	if s.explaining {
		s.mu.Unlock()
		s.m.alert(ctx, cb.ID, msgExplainInProgress)
		return
	}
	s.explaining = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.explaining = false
		s.mu.Unlock()
	}()

	s.m.ack(ctx, cb.ID)
	exp := s.m.explainer.Explain(ctx, s.question, "")
	if exp.Fallback {
		log.Printf("session: no usable explanation for %s, sending fallback", s.id)
	}
	s.reply(ctx, render.ExplainView(s.question, exp.Text))
}

// requestRemoval runs the confirmation dialog and, when confirmed, the
// removal request.
func (s *Session) requestRemoval(ctx context.Context, cb Callback) {
	if !s.transition(StateActive, StateConfirmingDeletion) {
		s.m.alert(ctx, cb.ID, s.busyMessage())
		return
	}
	decisions := make(chan bool, 1)
	s.setDecisions(decisions)
	s.m.ack(ctx, cb.ID)

	wait := s.m.opts.ConfirmTimeout
	confirmRef, err := s.m.messenger.Send(ctx, s.ref.ChatID, s.ref.MessageID, render.DeleteConfirmView(s.id, wait))
	if err != nil {
		log.Printf("session: removal confirmation for %s failed: %v", s.id, err)
		s.setDecisions(nil)
		s.transition(StateConfirmingDeletion, StateActive)
		return
	}
	key := messageKey{confirmRef.ChatID, confirmRef.MessageID}
	s.m.registerAlias(key, s)
	confirmed, res := Wait(ctx, s.life.Done(), decisions, wait)
	// Later presses on the dialog are answered as expired.
	s.setDecisions(nil)
	s.m.unregisterAlias(key, s)

	switch {
	case res == Cancelled:
		return
	case res == TimedOut || !confirmed:
		s.edit(ctx, confirmRef, render.DeleteCancelledView(res == TimedOut))
		s.transition(StateConfirmingDeletion, StateActive)
		return
	}

	result, err := s.m.reporter.Report(ctx, s.question)
	if err != nil {
		log.Printf("session: removal request for id=%q base52=%q failed: %v", s.question.ID, s.question.ShortCode, err)
		s.edit(ctx, confirmRef, render.Notice(UpstreamErrorMessage(err, msgRemovalFailed)))
		s.transition(StateConfirmingDeletion, StateActive)
		return
	}
	log.Printf("session: removal request for %s answered: success=%v decision=%q", s.id, result.Success, result.Decision)
	s.edit(ctx, confirmRef, render.DeleteDecisionView(result.Success, result.Decision, result.Reasoning))
	if !result.Success {
		s.transition(StateConfirmingDeletion, StateActive)
		return
	}
	s.retire()
}

func (s *Session) setDecisions(ch chan bool) {
	s.mu.Lock()
	s.decisions = ch
	s.mu.Unlock()
}

// decideRemoval resolves an open confirmation dialog. Only the first
// decision counts.
func (s *Session) decideRemoval(ctx context.Context, cb Callback, confirmed bool) {
	s.mu.Lock()
	decisions := s.decisions
	s.mu.Unlock()
	if decisions == nil {
		s.m.alert(ctx, cb.ID, msgConfirmationExpired)
		return
	}
	select {
	case decisions <- confirmed:
		s.m.ack(ctx, cb.ID)
	default:
		s.m.alert(ctx, cb.ID, msgConfirmationExpired)
	}
}
