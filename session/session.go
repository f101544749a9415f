package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/korjavin/quizbot/models"
	"github.com/korjavin/quizbot/render"
)

// State is the position of a session in its state machine.
type State int

const (
	StateActive State = iota
	StateAwaitingAnswer
	StateConfirmingDeletion
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateAwaitingAnswer:
		return "awaiting answer"
	case StateConfirmingDeletion:
		return "confirming deletion"
	default:
		return "terminated"
	}
}

// Session is one posted question and its live controls. The question is
// never modified after the session starts.
type Session struct {
	m        *Manager
	ref      MessageRef
	owner    int64
	id       string
	question models.Question
	started  time.Time
	life     *Lifecycle

	// editMu serializes redraws of the question message.
	editMu sync.Mutex

	mu         sync.Mutex
	state      State
	controls   bool
	explaining bool
	decisions  chan bool
}

func newSession(m *Manager, ref MessageRef, owner int64, id string, q models.Question) *Session {
	s := &Session{
		m:        m,
		ref:      ref,
		owner:    owner,
		id:       id,
		question: q,
		started:  m.opts.Now(),
		state:    StateActive,
		controls: true,
	}
	s.life = NewLifecycle(s.teardown)
	return s
}

// ID returns the safe id used in the session's control data.
func (s *Session) ID() string { return s.id }

// Message returns the posted question message.
func (s *Session) Message() MessageRef { return s.ref }

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.life.Done() }

// Reason returns why the session ended.
func (s *Session) Reason() Reason { return s.life.Reason() }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stop ends the session without touching the message.
func (s *Session) Stop() {
	s.life.Terminate(ReasonStopped)
}

func (s *Session) run() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session: recovered from panic in %s: %v", s.id, r)
			s.life.Terminate(ReasonStopped)
		}
	}()

	ticker := time.NewTicker(s.m.opts.TickInterval)
	defer ticker.Stop()
	timeout := time.NewTimer(s.m.opts.SessionTimeout)
	defer timeout.Stop()

	// A nil tick channel blocks forever: after a failed redraw the session
	// stays live until it times out or is ended.
	tick := ticker.C
	for {
		select {
		case <-s.life.Done():
			return
		case <-timeout.C:
			s.expire()
			return
		case <-tick:
			err := s.refresh()
			switch {
			case err == nil:
			case errors.Is(err, ErrMessageGone):
				s.life.Terminate(ReasonMessageDeleted)
				return
			default:
				log.Printf("session: redraw of %s failed, stopping timer: %v", s.id, err)
				ticker.Stop()
				tick = nil
			}
		}
	}
}

// refresh redraws the question with the current elapsed time.
func (s *Session) refresh() error {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	if s.life.Terminated() {
		return nil
	}
	target := ""
	if s.controlsEnabled() {
		target = s.id
	}
	return s.m.messenger.Edit(s.m.ctx, s.ref, render.QuestionView(s.question, s.elapsed(), target))
}

func (s *Session) expire() {
	if !s.life.Terminate(ReasonTimeout) {
		return
	}
	s.finalDraw(render.ExpiredView(s.question, s.elapsed()))
}

// retire ends the session after its question was removed upstream.
func (s *Session) retire() {
	s.mu.Lock()
	s.controls = false
	s.mu.Unlock()
	if !s.life.Terminate(ReasonRemoved) {
		return
	}
	s.finalDraw(render.ClosedView(s.question, s.elapsed()))
}

func (s *Session) finalDraw(v render.View) {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	if err := s.m.messenger.Edit(s.m.ctx, s.ref, v); err != nil && !errors.Is(err, ErrMessageGone) {
		log.Printf("session: final redraw of %s failed: %v", s.id, err)
	}
}

func (s *Session) teardown(reason Reason) {
	s.mu.Lock()
	s.state = StateTerminated
	s.mu.Unlock()
	s.m.unregister(s)
	log.Printf("session: %s ended after %v (%s)", s.id, s.elapsed().Round(time.Second), reason)
}

func (s *Session) elapsed() time.Duration {
	return s.m.opts.Now().Sub(s.started)
}

func (s *Session) controlsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controls
}

// transition moves from one state to another and fails if the session is
// not in from.
func (s *Session) transition(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

func (s *Session) busyMessage() string {
	switch s.State() {
	case StateAwaitingAnswer:
		return msgBusyAnswering
	case StateConfirmingDeletion:
		return msgBusyDeleting
	default:
		return msgSessionEnded
	}
}

// reply posts v as a reply to the question message.
func (s *Session) reply(ctx context.Context, v render.View) {
	if _, err := s.m.messenger.Send(ctx, s.ref.ChatID, s.ref.MessageID, v); err != nil {
		log.Printf("session: reply for %s failed: %v", s.id, err)
	}
}

func (s *Session) edit(ctx context.Context, ref MessageRef, v render.View) {
	if err := s.m.messenger.Edit(ctx, ref, v); err != nil && !errors.Is(err, ErrMessageGone) {
		log.Printf("session: edit of message %d failed: %v", ref.MessageID, err)
	}
}
