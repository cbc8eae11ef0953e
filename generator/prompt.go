package generator

import (
	"fmt"
	"strings"

	"careerplan/locale"
)

// Prompt is the set of messages sent to the model.
type Prompt struct {
	System  string
	User    string
	History []Message
}

// Message is one optional history entry.
type Message struct {
	Role    string
	Content string
}

// dialectRules keeps model output inside what the plan renderer supports.
var dialectRules = []string{
	"Use only: # headers, single-line paragraphs, - or 1. lists without nesting, > quotes, ``` code fences, **bold**, *italic*, `code` and [label](url) links.",
	"No tables, images, HTML or nested lists.",
	"Start with a level 1 header holding the plan title, followed by a one-paragraph summary.",
}

// BuildInitialPrompt builds the prompt for the first plan of a survey.
func BuildInitialPrompt(a Answers) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an experienced career coach. Reply with Markdown only, no extra explanation.\n")
	sb.WriteString(fmt.Sprintf("Write the whole plan in %s.\n", locale.DisplayName(a.Language)))
	sb.WriteString("Rules:\n")
	for _, r := range dialectRules {
		sb.WriteString(fmt.Sprintf("- %s\n", r))
	}
	if a.Timeline != "" {
		sb.WriteString(fmt.Sprintf("- Fit the plan into this timeline: %s.\n", a.Timeline))
	}
	if a.Budget != "" {
		sb.WriteString(fmt.Sprintf("- Keep recommended resources within this budget: %s.\n", a.Budget))
	}

	return Prompt{
		System: sb.String(),
		User:   describe(a) + "\nWrite a complete, actionable career plan.",
	}
}

// BuildRevisionPrompt builds the prompt that revises prev after feedback.
// Earlier comments are replayed as history.
func BuildRevisionPrompt(a Answers, prev Plan, comment string, history []Turn) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an experienced career coach revising a plan you wrote. Make the smallest changes that address the feedback and keep the Markdown structure.\n")
	sb.WriteString(fmt.Sprintf("Keep writing in %s.\n", locale.DisplayName(a.Language)))
	for _, r := range dialectRules {
		sb.WriteString(fmt.Sprintf("- %s\n", r))
	}

	if comment == "" {
		comment = "Regenerate the plan with fresh ideas."
	}
	user := fmt.Sprintf("%s\nCurrent plan:\n%s\n\nFeedback: %s\nReply with the complete revised plan.", describe(a), prev.Markdown, comment)

	var msgs []Message
	for _, t := range history {
		if t.Comment == "" {
			continue
		}
		msgs = append(msgs, Message{Role: "user", Content: t.Comment})
	}

	return Prompt{
		System:  sb.String(),
		User:    user,
		History: msgs,
	}
}

func describe(a Answers) string {
	var sb strings.Builder
	sb.WriteString("Survey answers:\n")
	sb.WriteString(fmt.Sprintf("- Experience: %s\n", a.Experience))
	if len(a.Interests) > 0 {
		sb.WriteString(fmt.Sprintf("- Interests: %s\n", strings.Join(a.Interests, ", ")))
	}
	if a.Skills != "" {
		sb.WriteString(fmt.Sprintf("- Skills: %s\n", a.Skills))
	}
	sb.WriteString(fmt.Sprintf("- Goal: %s\n", a.Goal))
	return sb.String()
}
