package generator

import (
	"context"
	"errors"

	"github.com/tliron/commonlog"
)

// replyAttempts bounds how often an unusable reply is asked for again.
const replyAttempts = 2

var log = commonlog.GetLogger("careerplan.generator")

// Agent writes or revises career plans from survey answers and feedback.
type Agent struct {
	llm LLMClient
}

func NewAgent(llm LLMClient) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm}, nil
}

// Generate writes a first plan when prev is nil and a revision otherwise.
// A reply that holds no markdown is requested again once; transport errors
// are returned immediately.
func (a *Agent) Generate(ctx context.Context, answers Answers, prev *Plan, history []Turn, comment string) (Plan, error) {
	var prompt Prompt
	if prev == nil {
		prompt = BuildInitialPrompt(answers)
	} else {
		prompt = BuildRevisionPrompt(answers, *prev, comment, history)
	}

	var lastErr error
	for attempt := 1; attempt <= replyAttempts; attempt++ {
		raw, err := a.llm.Complete(ctx, prompt)
		if err != nil {
			return Plan{}, err
		}
		plan, err := PostProcess(raw, answers)
		if err == nil {
			return plan, nil
		}
		log.Warningf("unusable model reply (attempt %d/%d): %s", attempt, replyAttempts, err)
		lastErr = err
	}
	return Plan{}, lastErr
}
