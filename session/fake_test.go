package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/korjavin/quizbot/api"
	"github.com/korjavin/quizbot/models"
	"github.com/korjavin/quizbot/render"
)

type sentMessage struct {
	ref     MessageRef
	replyTo int
	view    render.View
}

type editCall struct {
	ref  MessageRef
	view render.View
}

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	edits   []editCall
	prompts []render.AnswerPrompt
	alerts  []string
	acks    int
	editErr error
	// onEdit, when set, runs after an edit is recorded.
	onEdit func(editCall)
}

func (f *fakeMessenger) Send(_ context.Context, chatID int64, replyTo int, v render.View) (MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	ref := MessageRef{ChatID: chatID, MessageID: 100 + f.nextID}
	f.sent = append(f.sent, sentMessage{ref: ref, replyTo: replyTo, view: v})
	return ref, nil
}

func (f *fakeMessenger) Edit(_ context.Context, ref MessageRef, v render.View) error {
	f.mu.Lock()
	call := editCall{ref: ref, view: v}
	f.edits = append(f.edits, call)
	err, hook := f.editErr, f.onEdit
	f.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return err
}

func (f *fakeMessenger) Prompt(_ context.Context, chatID int64, _ int, p render.AnswerPrompt) (MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.prompts = append(f.prompts, p)
	return MessageRef{ChatID: chatID, MessageID: 100 + f.nextID}, nil
}

func (f *fakeMessenger) Alert(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, text)
	return nil
}

func (f *fakeMessenger) Ack(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks++
	return nil
}

func (f *fakeMessenger) setEditErr(err error) {
	f.mu.Lock()
	f.editErr = err
	f.mu.Unlock()
}

func (f *fakeMessenger) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeMessenger) alertTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.alerts...)
}

func (f *fakeMessenger) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

func (f *fakeMessenger) lastEdit() editCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return editCall{}
	}
	return f.edits[len(f.edits)-1]
}

func (f *fakeMessenger) sentViews() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

// findSent returns the first sent message whose title or description contains text.
func (f *fakeMessenger) findSent(text string) (sentMessage, bool) {
	for _, m := range f.sentViews() {
		if strings.Contains(m.view.Title, text) || strings.Contains(m.view.Description, text) {
			return m, true
		}
	}
	return sentMessage{}, false
}

type fakeServices struct {
	mu          sync.Mutex
	gradeScore  float64
	gradeErr    error
	explanation api.Explanation
	report      api.ReportResult
	reportErr   error
	reports     int
	explains    int
}

func (f *fakeServices) Grade(context.Context, models.Question, string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gradeScore, f.gradeErr
}

func (f *fakeServices) Explain(context.Context, models.Question, string) api.Explanation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.explains++
	return f.explanation
}

func (f *fakeServices) Report(context.Context, models.Question) (api.ReportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports++
	return f.report, f.reportErr
}

func (f *fakeServices) reportCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports
}

const (
	testChat  int64 = 555
	testOwner int64 = 42
)

func newTestManager(t *testing.T, opts Options) (*Manager, *fakeMessenger, *fakeServices) {
	t.Helper()
	if opts.TickInterval == 0 {
		opts.TickInterval = time.Hour
	}
	msgr := &fakeMessenger{}
	svc := &fakeServices{}
	m := NewManager(msgr, svc, svc, svc, opts)
	t.Cleanup(m.Shutdown)
	return m, msgr, svc
}

func startSession(t *testing.T, m *Manager, q models.Question) *Session {
	t.Helper()
	s, err := m.Start(context.Background(), StartRequest{ChatID: testChat, UserID: testOwner, InteractionID: 9, Question: q})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func press(m *Manager, s *Session, action render.Action, user int64) {
	m.HandleCallback(context.Background(), Callback{
		ID:        "cb",
		ChatID:    s.ref.ChatID,
		MessageID: s.ref.MessageID,
		UserID:    user,
		Data:      render.Button{Action: action, Target: s.id}.Data(),
	})
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session %s did not end", s.id)
	}
}

func mcqQuestion() models.Question {
	return models.Question{
		ShortCode: "Qm1",
		Text:      "Which gas do plants absorb?",
		Event:     "Botany",
		Options:   []string{"Oxygen", "Carbon dioxide", "Helium"},
		Answers:   []models.AnswerValue{models.TextAnswer("B")},
	}
}

func frqQuestion() models.Question {
	return models.Question{
		ShortCode: "Qf1",
		Text:      "Name the process plants use to make food.",
		Event:     "Botany",
		Answers:   []models.AnswerValue{models.TextAnswer("Photosynthesis")},
	}
}

var errBoom = errors.New("boom")
