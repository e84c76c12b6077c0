package actions

import (
	"fmt"
	"strings"

	"github.com/propertystewards/steward/internal/models"
	"github.com/propertystewards/steward/internal/store"
)

// FormatWorkOrders renders a day's jobs for WhatsApp.
func FormatWorkOrders(jobs []store.Job) string {
	if len(jobs) == 0 {
		return "No jobs scheduled for the requested date."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d job(s) scheduled:\n\n", len(jobs))
	for i, j := range jobs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, j.ClientName)
		fmt.Fprintf(&b, "   Address: %s\n", j.Address)
		fmt.Fprintf(&b, "   Time: %s\n", j.ScheduledDate.Format("3:04 PM"))
		fmt.Fprintf(&b, "   Job ID: %d\n", j.WorkOrderID)
		fmt.Fprintf(&b, "   Contract ID: %d\n\n", j.ContractID)
	}
	return b.String()
}

// FormatChecklist renders a room's checklist for WhatsApp.
func FormatChecklist(items []models.ChecklistItem, roomName string) string {
	if len(items) == 0 {
		return fmt.Sprintf("No checklist items found for %s.", roomName)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Checklist for %s:\n\n", roomName)
	for i, item := range items {
		mark := "⬜"
		if item.Status == models.ChecklistCompleted {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %d. %s\n", mark, i+1, item.TaskName)
	}
	return b.String()
}

// FormatComment renders a single comment.
func FormatComment(c *models.Comment) string {
	return fmt.Sprintf("Comment #%d on %s: %s", c.ID, c.TaskName, c.CommentText)
}
