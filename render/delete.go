package render

import (
	"fmt"
	"time"
)

// DeleteConfirmView asks the requester to confirm a removal request.
func DeleteConfirmView(target string, wait time.Duration) View {
	return View{
		Title:       "🗑 Remove this question?",
		Description: fmt.Sprintf("The question will be sent for moderation review. Confirm within %d seconds.", int(wait/time.Second)),
		Buttons: []Button{
			{Label: "Yes, remove", Action: ActionConfirmDelete, Target: target},
			{Label: "No, keep it", Action: ActionCancelDelete, Target: target},
		},
	}
}

// DeleteCancelledView replaces the confirmation when nothing was sent.
func DeleteCancelledView(timedOut bool) View {
	if timedOut {
		return View{Title: "Deletion cancelled", Description: "No confirmation was received in time."}
	}
	return View{Title: "Deletion cancelled", Description: "The question was kept."}
}

// DeleteDecisionView shows the moderation outcome.
func DeleteDecisionView(removed bool, decision, reasoning string) View {
	title := "Question kept"
	if removed {
		title = "🗑 Question removed"
	}
	if decision == "" {
		decision = "No decision returned"
	}
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}
	return View{
		Title: title,
		Fields: []Field{
			{Name: "Decision", Value: decision},
			{Name: "Reasoning", Value: Truncate(reasoning, 1000)},
		},
	}
}
