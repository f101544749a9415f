// Package render builds the platform-neutral views of a quiz session: the
// question itself, answer results, explanations and the deletion dialog.
package render

import (
	"strings"
	"unicode/utf8"
)

// Action identifies an interactive control.
type Action string

const (
	ActionCheck         Action = "check"
	ActionExplain       Action = "explain"
	ActionDelete        Action = "delete"
	ActionConfirmDelete Action = "delyes"
	ActionCancelDelete  Action = "delno"
)

// MaxTextLength is the longest message text the chat platform accepts.
const MaxTextLength = 4096

// bodyLimit leaves room in MaxTextLength for the title, fields and footer.
const bodyLimit = MaxTextLength - 512

// TruncationMarker is appended to text cut to fit MaxTextLength.
const TruncationMarker = "\n\n… (truncated)"

// Button is one interactive control bound to a session's safe id.
type Button struct {
	Label  string
	Action Action
	Target string
}

// Data encodes the button as callback data.
func (b Button) Data() string {
	return string(b.Action) + ":" + b.Target
}

// ParseCallback splits callback data produced by Button.Data.
func ParseCallback(data string) (Action, string, bool) {
	action, target, ok := strings.Cut(data, ":")
	if !ok || action == "" || target == "" {
		return "", "", false
	}
	switch Action(action) {
	case ActionCheck, ActionExplain, ActionDelete, ActionConfirmDelete, ActionCancelDelete:
		return Action(action), target, true
	}
	return "", "", false
}

// Field is a named value shown under the description.
type Field struct {
	Name  string
	Value string
}

// Image is a picture attached to a question message, by URL or as raw bytes.
type Image struct {
	URL  string
	Data []byte
	Name string
}

// View is everything needed to draw one message.
type View struct {
	Title       string
	Description string
	Fields      []Field
	Footer      string
	Buttons     []Button
	Image       *Image
}

// Field returns the value of the named field.
func (v View) Field(name string) (string, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Notice is a plain single-line message.
func Notice(text string) View {
	return View{Description: text}
}

// Truncate shortens s to at most limit runes, ending with TruncationMarker
// when anything was cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(TruncationMarker)
	if keep < 0 {
		keep = 0
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:keep]), " \n") + TruncationMarker
}
