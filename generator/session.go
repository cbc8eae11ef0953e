package generator

import (
	"context"
	"time"
)

// Session holds the answers and the revision history of one survey's plan.
type Session struct {
	ID      string
	Answers Answers
	Plan    Plan
	History []Turn
	agent   *Agent
}

// NewSession creates a session without a plan.
func NewSession(id string, answers Answers, agent *Agent) *Session {
	return &Session{
		ID:      id,
		Answers: answers,
		agent:   agent,
	}
}

// Resume continues a session from a stored plan and history.
func Resume(id string, answers Answers, plan Plan, history []Turn, agent *Agent) *Session {
	return &Session{
		ID:      id,
		Answers: answers,
		Plan:    plan,
		History: history,
		agent:   agent,
	}
}

// Propose writes the first plan, or a fresh one after the answers changed.
func (s *Session) Propose(ctx context.Context) (Plan, error) {
	plan, err := s.agent.Generate(ctx, s.Answers, nil, s.History, "")
	if err != nil {
		return Plan{}, err
	}
	s.Plan = plan
	s.appendTurn("", plan, "initial")
	return plan, nil
}

// Revise rewrites the plan after a comment. An empty comment regenerates.
func (s *Session) Revise(ctx context.Context, comment string) (Plan, error) {
	if s.Plan.Markdown == "" {
		return s.Propose(ctx)
	}
	plan, err := s.agent.Generate(ctx, s.Answers, &s.Plan, s.History, comment)
	if err != nil {
		return Plan{}, err
	}
	s.Plan = plan
	summary := "revision"
	if comment == "" {
		summary = "regenerated"
	}
	s.appendTurn(comment, plan, summary)
	return plan, nil
}

func (s *Session) appendTurn(comment string, plan Plan, summary string) {
	s.History = append(s.History, Turn{
		Comment:   comment,
		Plan:      plan,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	})
}
