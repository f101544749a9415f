package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/quizbot/api"
	"github.com/korjavin/quizbot/commands"
	"github.com/korjavin/quizbot/models"
	"github.com/korjavin/quizbot/ratelimit"
	"github.com/korjavin/quizbot/session"
)

const (
	cmdStart = "start"
	cmdHelp  = "help"

	msgFetchFailed = "Sorry, I couldn't fetch a question right now. Please try again later."
)

// TelegramClient is the part of *tgbotapi.BotAPI the bot uses.
type TelegramClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// QuestionSource fetches questions from the question service.
type QuestionSource interface {
	FetchQuestion(ctx context.Context, params api.SearchParams) (models.Question, error)
	FetchIDQuestion(ctx context.Context, event, division string) (models.Question, error)
}

// Deps are the collaborators of a Bot.
type Deps struct {
	Questions QuestionSource
	Grader    session.Grader
	Explainer session.Explainer
	Reporter  session.Reporter
	Catalog   *commands.Catalog
	Limiter   *ratelimit.Limiter
	Sessions  session.Options
}

// Bot represents the Telegram bot
type Bot struct {
	api       TelegramClient
	questions QuestionSource
	catalog   *commands.Catalog
	limiter   *ratelimit.Limiter
	sessions  *session.Manager
}

// New creates a new bot instance
func New(client TelegramClient, deps Deps) *Bot {
	return &Bot{
		api:       client,
		questions: deps.Questions,
		catalog:   deps.Catalog,
		limiter:   deps.Limiter,
		sessions:  session.NewManager(&messenger{api: client}, deps.Grader, deps.Explainer, deps.Reporter, deps.Sessions),
	}
}

// Start listens for updates until ctx is cancelled. Every update is handled
// in its own goroutine.
func (b *Bot) Start(ctx context.Context) {
	log.Println("Starting bot polling...")
	b.registerCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.sessions.Shutdown()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stopping bot polling...")
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate is the last line of defence: nothing escaping a handler may
// take the process down.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic while handling update %d: %v", update.UpdateID, r)
			if chat := update.FromChat(); chat != nil {
				b.sendMessage(chat.ID, session.MsgGenericFailure)
			}
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}
	userID := message.From.ID

	if !message.IsCommand() {
		if b.sessions.HandleMessage(session.Reply{ChatID: message.Chat.ID, UserID: userID, Text: message.Text}) {
			return
		}
		if message.Chat.IsPrivate() {
			b.sendMessage(message.Chat.ID, "Use /help to see the available quiz commands.")
		}
		return
	}

	log.Printf("Received command from %s (ID: %d): %s", message.From.UserName, userID, message.Text)

	if decision := b.limiter.Allow(userID); !decision.Allowed {
		log.Printf("Rate limited user %d for %v", userID, decision.RetryAfter)
		b.replyTo(message, fmt.Sprintf("You're sending commands too quickly. Please wait %.1f seconds and try again.", decision.RetryAfter.Seconds()))
		return
	}

	switch command := strings.ToLower(message.Command()); command {
	case cmdStart, cmdHelp:
		b.replyTo(message, b.helpText())
	default:
		def, ok := b.catalog.Lookup(command)
		if !ok {
			b.replyTo(message, "Unknown command. Use /help to see the available quiz commands.")
			return
		}
		b.handleEventCommand(ctx, message, def)
	}
}

// handleEventCommand fetches a question for one event and starts its session.
func (b *Bot) handleEventCommand(ctx context.Context, message *tgbotapi.Message, def commands.Definition) {
	req, err := def.Parse(message.CommandArguments())
	if err != nil {
		var argErr *commands.ArgumentError
		if errors.As(err, &argErr) {
			b.replyTo(message, argErr.Msg+"\n\nUsage: "+def.Usage())
			return
		}
		log.Printf("Error parsing arguments %q: %v", message.CommandArguments(), err)
		b.replyTo(message, session.MsgGenericFailure)
		return
	}

	startTime := time.Now()
	q, err := b.fetch(ctx, req)
	if err != nil {
		log.Printf("Error fetching %s question (division=%q subtopic=%q type=%q): %v", req.Event, req.Division, req.Subtopic, req.Type, err)
		b.replyTo(message, session.UpstreamErrorMessage(err, msgFetchFailed))
		return
	}
	log.Printf("Fetched %s question %s/%s in %.2fs", req.Event, q.ShortCode, q.ID, time.Since(startTime).Seconds())

	_, err = b.sessions.Start(ctx, session.StartRequest{
		ChatID:        message.Chat.ID,
		UserID:        message.From.ID,
		InteractionID: message.MessageID,
		Question:      q,
	})
	if err != nil {
		log.Printf("Error posting question: %v", err)
		b.replyTo(message, session.MsgGenericFailure)
	}
}

// fetch gets a question for req. Identification requests for events without
// identification questions fail; they are not retried as another type.
func (b *Bot) fetch(ctx context.Context, req commands.Request) (models.Question, error) {
	var (
		q   models.Question
		err error
	)
	if req.Type == models.TypeID {
		q, err = b.questions.FetchIDQuestion(ctx, req.Event, req.Division)
	} else {
		q, err = b.questions.FetchQuestion(ctx, req.SearchParams())
	}
	if err != nil {
		return models.Question{}, err
	}
	if q.Event == "" {
		q.Event = req.Event
	}
	return q, nil
}

// handleCallback processes callback queries from inline buttons
func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	log.Printf("Handling callback from user %s (ID: %d) with data: %s",
		callback.From.UserName, callback.From.ID, callback.Data)

	if callback.Message == nil || callback.Message.Chat == nil {
		b.sendCallbackResponse(callback.ID, "This control is no longer available.")
		return
	}

	b.sessions.HandleCallback(ctx, session.Callback{
		ID:        callback.ID,
		ChatID:    callback.Message.Chat.ID,
		MessageID: callback.Message.MessageID,
		UserID:    callback.From.ID,
		Data:      callback.Data,
	})
}

func (b *Bot) helpText() string {
	var sb strings.Builder
	sb.WriteString("Welcome to the quiz bot!\n\n")
	sb.WriteString("Pick an event command to get a question. Press Check answer to reply, Explain for an explanation, or Delete to report a bad question.\n\n")
	sb.WriteString("Options: division:<B|C> subtopic:<name or number> type:<mcq|frq|id> difficulty:<very_easy|easy|medium|hard|very_hard>\n\n")
	sb.WriteString("Commands:\n")
	for _, def := range b.catalog.Definitions() {
		fmt.Fprintf(&sb, "/%s - %s", def.Command, def.Name)
		if divs, ok := api.IdentificationDivisions(def.Name); ok {
			fmt.Fprintf(&sb, " (identification: %s)", strings.Join(divs, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// registerCommands publishes the command list shown in Telegram clients.
func (b *Bot) registerCommands() {
	cmds := []tgbotapi.BotCommand{
		{Command: cmdHelp, Description: "List quiz commands"},
	}
	for _, def := range b.catalog.Definitions() {
		cmds = append(cmds, tgbotapi.BotCommand{Command: def.Command, Description: def.Name + " question"})
	}
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		log.Printf("Error registering commands: %v", err)
	}
}

// sendMessage sends a plain text message
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// replyTo answers a message with plain text
func (b *Bot) replyTo(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	msg.AllowSendingWithoutReply = true
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending reply: %v", err)
	}
}

// sendCallbackResponse sends a response to a callback query
func (b *Bot) sendCallbackResponse(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		log.Printf("Error sending callback response: %v", err)
	}
}
