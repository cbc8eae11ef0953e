package generator

import (
	"context"
	"fmt"
	"strings"
)

// MockLLM returns a fixed plan shaped like real model output so the service
// can run locally without a model.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	var sb strings.Builder
	sb.WriteString("# Your Career Plan\n\n")
	sb.WriteString("A **step-by-step** plan built from your survey answers.\n\n")
	sb.WriteString("## Where you are\n\n")
	sb.WriteString("> Every plan starts from an honest look at the present.\n\n")
	sb.WriteString("## Next steps\n\n")
	sb.WriteString("1. Review your *current skills*\n")
	sb.WriteString("2. Pick one `learning track`\n")
	sb.WriteString("3. Build a small portfolio project\n\n")
	sb.WriteString("## Resources\n\n")
	sb.WriteString("- [Roadmaps](https://roadmap.sh)\n")
	sb.WriteString("- Weekly review with a mentor\n\n")
	if len(prompt.History) > 0 {
		sb.WriteString("## Changes\n\n")
		for _, h := range prompt.History {
			sb.WriteString(fmt.Sprintf("- %s\n", h.Content))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("### Your request\n\n")
	sb.WriteString("```\n")
	sb.WriteString(prompt.User)
	sb.WriteString("\n```\n")
	return sb.String(), nil
}
