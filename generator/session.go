package generator

import (
	"context"
	"time"

	"social_post_generator/responseparser"
)

// Session holds the multi-turn generate/revise context for one topic.
type Session struct {
	ID      string
	Spec    Spec
	Batch   *responseparser.Batch
	History []Turn
	agent   *Agent
}

// NewSession creates the session without generating anything yet.
func NewSession(id string, spec Spec, agent *Agent) *Session {
	return &Session{
		ID:    id,
		Spec:  spec,
		agent: agent,
	}
}

// Propose generates the first batch.
func (s *Session) Propose(ctx context.Context) (*responseparser.Batch, error) {
	batch, err := s.agent.Generate(ctx, s.Spec, nil, s.History, "")
	if err != nil {
		return nil, err
	}
	s.Batch = batch
	s.appendTurn("", batch, "initial batch")
	return batch, nil
}

// Revise applies user feedback to the current batch.
func (s *Session) Revise(ctx context.Context, comment string) (*responseparser.Batch, error) {
	batch, err := s.agent.Generate(ctx, s.Spec, s.Batch, s.History, comment)
	if err != nil {
		return nil, err
	}
	s.Batch = batch
	s.appendTurn(comment, batch, "revision")
	return batch, nil
}

func (s *Session) appendTurn(comment string, batch *responseparser.Batch, summary string) {
	s.History = append(s.History, Turn{
		Comment:   comment,
		Batch:     batch,
		Summary:   summary,
		CreatedAt: time.Now(),
	})
}
