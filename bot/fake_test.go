package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/quizbot/api"
	"github.com/korjavin/quizbot/commands"
	"github.com/korjavin/quizbot/models"
	"github.com/korjavin/quizbot/ratelimit"
	"github.com/korjavin/quizbot/session"
)

const (
	testChat  int64 = 555
	testOwner int64 = 42
)

// fakeTelegram records everything the bot sends.
type fakeTelegram struct {
	mu       sync.Mutex
	nextID   int
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	reqErr   error
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: 100 + f.nextID, Chat: &tgbotapi.Chat{ID: testChat}}, nil
}

func (f *fakeTelegram) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.reqErr != nil {
		return nil, f.reqErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeTelegram) StopReceivingUpdates() {}

// texts returns the text of every plain message sent so far.
func (f *fakeTelegram) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

func (f *fakeTelegram) lastSent() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeTelegram) callbacks() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

// fakeSource serves canned questions and counts fetches.
type fakeSource struct {
	mu       sync.Mutex
	question models.Question
	err      error
	panicky  bool
	fetches  []api.SearchParams
	idCalls  []string
}

func (f *fakeSource) FetchQuestion(_ context.Context, params api.SearchParams) (models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicky {
		panic("source exploded")
	}
	f.fetches = append(f.fetches, params)
	return f.question, f.err
}

func (f *fakeSource) FetchIDQuestion(_ context.Context, event, division string) (models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.idCalls = append(f.idCalls, event+"/"+division)
	if _, ok := api.IdentificationDivisions(event); !ok {
		return models.Question{}, api.ErrIDUnsupported
	}
	return f.question, f.err
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches) + len(f.idCalls)
}

type fakeServices struct{}

func (fakeServices) Grade(context.Context, models.Question, string) (float64, error) { return 1, nil }

func (fakeServices) Explain(context.Context, models.Question, string) api.Explanation {
	return api.Explanation{Text: "Because."}
}

func (fakeServices) Report(context.Context, models.Question) (api.ReportResult, error) {
	return api.ReportResult{Success: true}, nil
}

func newTestBot(t *testing.T, limits ratelimit.Config) (*Bot, *fakeTelegram, *fakeSource) {
	t.Helper()
	catalog, err := commands.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	tg := &fakeTelegram{}
	src := &fakeSource{question: mcqQuestion()}
	b := New(tg, Deps{
		Questions: src,
		Grader:    fakeServices{},
		Explainer: fakeServices{},
		Reporter:  fakeServices{},
		Catalog:   catalog,
		Limiter:   ratelimit.New(limits),
		Sessions:  session.Options{TickInterval: time.Hour},
	})
	t.Cleanup(b.sessions.Shutdown)
	return b, tg, src
}

var roomyLimits = ratelimit.Config{MaxRequests: 100, Window: time.Second, Block: time.Second}

func mcqQuestion() models.Question {
	return models.Question{
		ShortCode: "Qm1",
		Text:      "Which planet is known as the red planet?",
		Options:   []string{"Venus", "Mars", "Jupiter"},
		Answers:   []models.AnswerValue{models.TextAnswer("B")},
	}
}

var nextMessageID = 1

// commandUpdate builds a private-chat command update from user.
func commandUpdate(user int64, text string) tgbotapi.Update {
	nextMessageID++
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		cmdLen = i
	}
	return tgbotapi.Update{
		UpdateID: nextMessageID,
		Message: &tgbotapi.Message{
			MessageID: nextMessageID,
			From:      &tgbotapi.User{ID: user, UserName: "tester"},
			Chat:      &tgbotapi.Chat{ID: testChat, Type: "private"},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
		},
	}
}

func textUpdate(user int64, text string) tgbotapi.Update {
	nextMessageID++
	return tgbotapi.Update{
		UpdateID: nextMessageID,
		Message: &tgbotapi.Message{
			MessageID: nextMessageID,
			From:      &tgbotapi.User{ID: user},
			Chat:      &tgbotapi.Chat{ID: testChat, Type: "private"},
			Text:      text,
		},
	}
}

func callbackUpdate(user int64, messageID int, data string) tgbotapi.Update {
	nextMessageID++
	return tgbotapi.Update{
		UpdateID: nextMessageID,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-" + data,
			From:    &tgbotapi.User{ID: user},
			Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: testChat}},
			Data:    data,
		},
	}
}

func containsText(texts []string, sub string) bool {
	for _, s := range texts {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
