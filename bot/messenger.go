package bot

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/quizbot/render"
	"github.com/korjavin/quizbot/session"
)

// maxCaptionLength is Telegram's limit for photo captions.
const maxCaptionLength = 1024

// messenger draws session views as Telegram messages.
type messenger struct {
	api TelegramClient
}

func (m *messenger) Send(_ context.Context, chatID int64, replyTo int, v render.View) (session.MessageRef, error) {
	text := formatView(v)

	if v.Image != nil {
		photo := tgbotapi.NewPhoto(chatID, imageFile(v.Image))
		photo.ReplyToMessageID = replyTo
		photo.AllowSendingWithoutReply = true
		if utf8.RuneCountInString(text) <= maxCaptionLength {
			photo.Caption = text
			photo.ParseMode = tgbotapi.ModeHTML
			if kb := keyboard(v.Buttons); kb != nil {
				photo.ReplyMarkup = *kb
			}
			sent, err := m.api.Send(photo)
			if err == nil {
				return session.MessageRef{ChatID: chatID, MessageID: sent.MessageID, Caption: true}, nil
			}
			log.Printf("Error sending photo, falling back to text: %v", err)
		} else if _, err := m.api.Send(photo); err != nil {
			// The caption would be too long: the picture goes first and the
			// text with the controls follows.
			log.Printf("Error sending photo: %v", err)
		}
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyToMessageID = replyTo
	msg.AllowSendingWithoutReply = true
	if kb := keyboard(v.Buttons); kb != nil {
		msg.ReplyMarkup = *kb
	}
	sent, err := m.api.Send(msg)
	if err != nil {
		return session.MessageRef{}, classifyError(err)
	}
	return session.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (m *messenger) Edit(_ context.Context, ref session.MessageRef, v render.View) error {
	text := formatView(v)
	kb := keyboard(v.Buttons)
	if kb == nil {
		empty := tgbotapi.NewInlineKeyboardMarkup()
		empty.InlineKeyboard = [][]tgbotapi.InlineKeyboardButton{}
		kb = &empty
	}

	var edit tgbotapi.Chattable
	if ref.Caption {
		e := tgbotapi.NewEditMessageCaption(ref.ChatID, ref.MessageID, text)
		e.ParseMode = tgbotapi.ModeHTML
		e.ReplyMarkup = kb
		edit = e
	} else {
		e := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
		e.ParseMode = tgbotapi.ModeHTML
		e.DisableWebPagePreview = true
		e.ReplyMarkup = kb
		edit = e
	}
	_, err := m.api.Request(edit)
	return classifyError(err)
}

func (m *messenger) Prompt(_ context.Context, chatID int64, replyTo int, p render.AnswerPrompt) (session.MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, p.Text)
	msg.ReplyToMessageID = replyTo
	msg.AllowSendingWithoutReply = true
	msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true, InputFieldPlaceholder: p.Placeholder}
	sent, err := m.api.Send(msg)
	if err != nil {
		return session.MessageRef{}, classifyError(err)
	}
	return session.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (m *messenger) Alert(_ context.Context, callbackID, text string) error {
	_, err := m.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text))
	return classifyError(err)
}

func (m *messenger) Ack(_ context.Context, callbackID string) error {
	_, err := m.api.Request(tgbotapi.NewCallback(callbackID, ""))
	return classifyError(err)
}

// classifyError maps Telegram errors onto the session sentinels. Edits that
// change nothing are not errors.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "message is not modified"):
		return nil
	case strings.Contains(msg, "message to edit not found"),
		strings.Contains(msg, "message can't be edited"),
		strings.Contains(msg, "message to delete not found"),
		strings.Contains(msg, "chat not found"),
		strings.Contains(msg, "bot was blocked"),
		strings.Contains(msg, "bot was kicked"):
		return fmt.Errorf("%w: %v", session.ErrMessageGone, err)
	case strings.Contains(msg, "query is too old"),
		strings.Contains(msg, "query id is invalid"):
		return fmt.Errorf("%w: %v", session.ErrInteractionExpired, err)
	}
	return err
}

// formatView renders a view as Telegram HTML.
func formatView(v render.View) string {
	var sections []string
	head := ""
	if v.Title != "" {
		head = "<b>" + html.EscapeString(v.Title) + "</b>"
	}
	if v.Description != "" {
		if head != "" {
			head += "\n"
		}
		head += html.EscapeString(v.Description)
	}
	if head != "" {
		sections = append(sections, head)
	}
	if len(v.Fields) > 0 {
		lines := make([]string, 0, len(v.Fields))
		for _, f := range v.Fields {
			lines = append(lines, "<b>"+html.EscapeString(f.Name)+":</b> "+html.EscapeString(f.Value))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if v.Footer != "" {
		sections = append(sections, "<i>"+html.EscapeString(v.Footer)+"</i>")
	}
	return strings.Join(sections, "\n\n")
}

func keyboard(buttons []render.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data()))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(row)
	return &kb
}

func imageFile(img *render.Image) tgbotapi.RequestFileData {
	if img.URL != "" {
		return tgbotapi.FileURL(img.URL)
	}
	return tgbotapi.FileBytes{Name: img.Name, Bytes: img.Data}
}
