package generator

import (
	"fmt"
	"strings"

	"social_post_generator/responseparser"
)

// Prompt is the message set sent to the LLM.
type Prompt struct {
	System  string
	User    string
	History []Message
}

// Message carries a small amount of prior conversation (optional).
type Message struct {
	Role    string
	Content string
}

const schemaInstructions = `Reply ONLY with JSON, no prose before or after, using exactly this shape:
{"posts": [{"fecha": "YYYY-MM-DD", "titulo": "...", "imagen": "...", "descripcion": "..."}]}
Field rules:
- fecha: real calendar date, zero-padded YYYY-MM-DD
- titulo: 5 to 200 characters
- imagen: detailed image description, at least 10 characters
- descripcion: post body with hashtags, at least 20 characters`

// BuildPostsPrompt asks for a fresh batch of posts for the spec.
func BuildPostsPrompt(spec Spec) Prompt {
	var sb strings.Builder
	sb.WriteString("You write social media posts for a community organization.\n")
	sb.WriteString(schemaInstructions)
	sb.WriteString("\nRequirements:\n")
	if spec.Count > 0 {
		sb.WriteString(fmt.Sprintf("- Produce exactly %d posts.\n", spec.Count))
	}
	if spec.Tone != "" {
		sb.WriteString(fmt.Sprintf("- Tone: %s.\n", spec.Tone))
	}
	if spec.Audience != "" {
		sb.WriteString(fmt.Sprintf("- Audience: %s.\n", spec.Audience))
	}
	for _, c := range spec.Constraints {
		sb.WriteString(fmt.Sprintf("- %s\n", c))
	}

	var ub strings.Builder
	ub.WriteString(fmt.Sprintf("Topic: %s\n", spec.Topic))
	if spec.Date != "" {
		ub.WriteString(fmt.Sprintf("Anchor date for the posts: %s\n", spec.Date))
	}
	if spec.Ephemerides != "" {
		ub.WriteString("Ephemerides and context for that date:\n")
		ub.WriteString(spec.Ephemerides)
		ub.WriteString("\n")
	}
	if len(spec.PastTitles) > 0 {
		ub.WriteString("Recent post titles, do not repeat them:\n")
		for _, t := range spec.PastTitles {
			ub.WriteString(fmt.Sprintf("- %s\n", t))
		}
	}
	ub.WriteString("Return the JSON now.")

	return Prompt{
		System:  sb.String(),
		User:    ub.String(),
		History: nil,
	}
}

// BuildRevisionPrompt asks for a minimally-changed batch based on feedback.
func BuildRevisionPrompt(spec Spec, prev *responseparser.Batch, comment string, history []Turn) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an editor. Apply the user's feedback to the posts with the smallest necessary change.\n")
	sb.WriteString(schemaInstructions)
	sb.WriteString("\n- Keep posts the user did not mention untouched.\n")
	for _, c := range spec.Constraints {
		sb.WriteString(fmt.Sprintf("- %s\n", c))
	}

	var ub strings.Builder
	ub.WriteString("Current posts:\n")
	for _, p := range prev.Posts {
		ub.WriteString(fmt.Sprintf("- %s | %s | %s\n", p.Date, p.Title, p.Body))
	}
	ub.WriteString(fmt.Sprintf("\nUser feedback: %s\nReturn the full revised JSON now.", comment))

	var msgs []Message
	for _, t := range history {
		if t.Comment == "" {
			continue
		}
		msgs = append(msgs, Message{Role: "user", Content: t.Comment})
	}

	return Prompt{
		System:  sb.String(),
		User:    ub.String(),
		History: msgs,
	}
}

// BuildCorrectivePrompt re-asks after unusable output, telling the model what
// went wrong with its previous reply.
func BuildCorrectivePrompt(prev Prompt, parseErr error) Prompt {
	next := prev
	next.History = append(next.History, Message{Role: "user", Content: prev.User})
	next.User = fmt.Sprintf(
		"Your previous reply could not be used: %v.\nReply again with ONLY the JSON document, nothing else.", parseErr)
	return next
}
