// Package session drives the interactive lifecycle of a posted question:
// the elapsed timer, the check, explain and delete controls, and teardown.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/korjavin/quizbot/models"
	"github.com/korjavin/quizbot/quiz"
	"github.com/korjavin/quizbot/render"
)

// Default timings.
const (
	DefaultTickInterval   = 2 * time.Second
	DefaultSessionTimeout = 30 * time.Minute
	DefaultAnswerTimeout  = 5 * time.Minute
	DefaultConfirmTimeout = 15 * time.Second
)

// Options tunes session timings. Zero values use the defaults.
type Options struct {
	TickInterval   time.Duration
	SessionTimeout time.Duration
	AnswerTimeout  time.Duration
	ConfirmTimeout time.Duration
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.SessionTimeout <= 0 {
		o.SessionTimeout = DefaultSessionTimeout
	}
	if o.AnswerTimeout <= 0 {
		o.AnswerTimeout = DefaultAnswerTimeout
	}
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = DefaultConfirmTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type messageKey struct {
	chat    int64
	message int
}

type answerKey struct {
	chat int64
	user int64
}

type pendingAnswer struct {
	ch      chan string
	session *Session
}

// Manager owns the registry of live sessions.
type Manager struct {
	messenger Messenger
	grader    Grader
	explainer Explainer
	reporter  Reporter
	opts      Options

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[messageKey]*Session
	answers  map[answerKey]*pendingAnswer
}

// NewManager creates a session manager.
func NewManager(messenger Messenger, grader Grader, explainer Explainer, reporter Reporter, opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		messenger: messenger,
		grader:    grader,
		explainer: explainer,
		reporter:  reporter,
		opts:      opts.withDefaults(),
		ctx:       ctx,
		cancel:    cancel,
		sessions:  make(map[messageKey]*Session),
		answers:   make(map[answerKey]*pendingAnswer),
	}
}

// StartRequest describes a question to post.
type StartRequest struct {
	ChatID int64
	UserID int64
	// InteractionID is the id of the message that requested the question.
	InteractionID int
	Question      models.Question
}

// Start posts the question and begins its session.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Session, error) {
	q := req.Question
	id := quiz.SafeID(q.ShortCode, q.ID, strconv.Itoa(req.InteractionID))

	view := render.QuestionView(q, 0, id)
	img, err := render.QuestionImage(q)
	if err != nil {
		log.Printf("session: question %s image unusable, sending text only: %v", id, err)
	}
	view.Image = img

	ref, err := m.messenger.Send(ctx, req.ChatID, req.InteractionID, view)
	if err != nil {
		return nil, fmt.Errorf("post question: %w", err)
	}

	s := newSession(m, ref, req.UserID, id, q)
	m.mu.Lock()
	m.sessions[messageKey{ref.ChatID, ref.MessageID}] = s
	m.mu.Unlock()

	log.Printf("session: started %s for user %d in chat %d (message %d)", id, req.UserID, ref.ChatID, ref.MessageID)
	go s.run()
	return s, nil
}

// HandleCallback dispatches a control activation to its session.
func (m *Manager) HandleCallback(ctx context.Context, cb Callback) {
	action, target, ok := render.ParseCallback(cb.Data)
	if !ok {
		m.alert(ctx, cb.ID, msgUnknownControl)
		return
	}
	s := m.lookup(messageKey{cb.ChatID, cb.MessageID})
	if s == nil || s.id != target || s.life.Terminated() {
		m.alert(ctx, cb.ID, msgSessionEnded)
		return
	}
	if cb.UserID != s.owner {
		m.alert(ctx, cb.ID, msgNotOwner)
		return
	}

	switch action {
	case render.ActionCheck:
		s.check(ctx, cb)
	case render.ActionExplain:
		s.explain(ctx, cb)
	case render.ActionDelete:
		s.requestRemoval(ctx, cb)
	case render.ActionConfirmDelete:
		s.decideRemoval(ctx, cb, true)
	case render.ActionCancelDelete:
		s.decideRemoval(ctx, cb, false)
	}
}

// HandleMessage delivers a text message to the sender's open answer prompt.
// It reports whether the message was consumed.
func (m *Manager) HandleMessage(msg Reply) bool {
	key := answerKey{msg.ChatID, msg.UserID}
	m.mu.Lock()
	p, ok := m.answers[key]
	if ok {
		delete(m.answers, key)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case p.ch <- msg.Text:
	default:
	}
	return true
}

// Active returns the number of live sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[*Session]bool)
	for _, s := range m.sessions {
		seen[s] = true
	}
	return len(seen)
}

// Shutdown ends every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.Unlock()

	for _, s := range live {
		s.Stop()
	}
	m.cancel()
}

func (m *Manager) lookup(key messageKey) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[key]
}

func (m *Manager) registerAlias(key messageKey, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.life.Terminated() {
		return
	}
	m.sessions[key] = s
}

func (m *Manager) unregisterAlias(key messageKey, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[key] == s {
		delete(m.sessions, key)
	}
}

// unregister drops every registry entry and open prompt of s.
func (m *Manager) unregister(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, owner := range m.sessions {
		if owner == s {
			delete(m.sessions, key)
		}
	}
	for key, p := range m.answers {
		if p.session == s {
			delete(m.answers, key)
		}
	}
}

func (m *Manager) expectAnswer(s *Session) (<-chan string, func(), error) {
	key := answerKey{s.ref.ChatID, s.owner}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.answers[key]; busy {
		return nil, nil, ErrAnswerPending
	}
	p := &pendingAnswer{ch: make(chan string, 1), session: s}
	m.answers[key] = p
	release := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.answers[key] == p {
			delete(m.answers, key)
		}
	}
	return p.ch, release, nil
}

func (m *Manager) alert(ctx context.Context, callbackID, text string) {
	if err := m.messenger.Alert(ctx, callbackID, text); err != nil && !errors.Is(err, ErrInteractionExpired) {
		log.Printf("session: alert failed: %v", err)
	}
}

func (m *Manager) ack(ctx context.Context, callbackID string) {
	if err := m.messenger.Ack(ctx, callbackID); err != nil && !errors.Is(err, ErrInteractionExpired) {
		log.Printf("session: callback ack failed: %v", err)
	}
}
