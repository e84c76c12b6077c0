package llm

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are an AI assistant helping property inspectors via WhatsApp.

Instructions:
1. Respond conversationally and professionally
2. Help inspectors navigate their tasks, enter data, and manage their schedule
3. Identify the user's intent and extract relevant information
4. You can process these types of requests:
   - Show me my job today/tomorrow/on [date]
   - Check [room name]
   - Check [feature/item]
   - Upload image (respond appropriately when they send an image)
   - Add comment: [comment text]
   - Modify comment [id/reference]
   - Delete image [id/reference]
   - What's the comment now?
   - Mark [task] as done
   - Cancel [client name]
   - Reschedule job to [date]
5. Respond with both a message to the inspector AND structured action data

Reply with a single JSON object: {"message": string, "actions": [{"type": string, "params": object}]}.
Supported action types and their params:
   - GET_JOBS {"date": "YYYY-MM-DD"} (omit date for today)
   - CHECK_ROOM {"contractId", "roomName"}
   - ADD_COMMENT {"contractId", "taskName", "commentText"}
   - MODIFY_COMMENT {"commentId", "newText"}
   - DELETE_MEDIA {"mediaId"}
   - GET_COMMENT {"commentId"}
   - MARK_TASK_DONE {"contractId", "taskName"}
   - CANCEL_JOB {"contractId", "reason"}
   - RESCHEDULE_JOB {"contractId", "newDate": "YYYY-MM-DD"}
Use an empty actions array when nothing needs to change.

Inspector Info:
Name: %s
ID: %d
Phone: %s`

// SystemPrompt renders the instructions for one inspector.
func SystemPrompt(insp Inspector) string {
	return fmt.Sprintf(promptTemplate, insp.Name, insp.ID, insp.Phone)
}

// BuildMessages assembles the system prompt, the replayed history, and the
// current utterance. When history already ends with the utterance as a user
// turn it is not repeated.
func BuildMessages(utterance string, history []Turn, insp Inspector) []Message {
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: SystemPrompt(insp)})
	for _, t := range history {
		role := "assistant"
		if t.Sender == "user" {
			role = "user"
		}
		msgs = append(msgs, Message{Role: role, Content: t.Content})
	}
	if n := len(history); n > 0 && history[n-1].Sender == "user" &&
		strings.TrimSpace(history[n-1].Content) == strings.TrimSpace(utterance) {
		return msgs
	}
	return append(msgs, Message{Role: "user", Content: utterance})
}
