package generator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"social_post_generator/responseparser"
)

// Agent turns a Spec into a validated post batch. When the model's reply is
// unusable (no JSON, unparseable, nothing valid) it regenerates with
// corrective feedback up to maxRegenerations extra calls.
type Agent struct {
	llm              LLMClient
	parser           *responseparser.Parser
	maxRegenerations int
	logger           *logrus.Logger
}

func NewAgent(llm LLMClient, parser *responseparser.Parser, maxRegenerations int, logger *logrus.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if parser == nil {
		return nil, errors.New("response parser is required")
	}
	if maxRegenerations < 0 {
		maxRegenerations = 0
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Agent{llm: llm, parser: parser, maxRegenerations: maxRegenerations, logger: logger}, nil
}

// Generate produces the first batch when prev is nil, otherwise a revision
// driven by comment.
func (a *Agent) Generate(ctx context.Context, spec Spec, prev *responseparser.Batch, history []Turn, comment string) (*responseparser.Batch, error) {
	var prompt Prompt
	if prev == nil {
		prompt = BuildPostsPrompt(spec)
	} else {
		prompt = BuildRevisionPrompt(spec, prev, comment, history)
	}

	var lastErr error
	for attempt := 0; attempt <= a.maxRegenerations; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := a.llm.Complete(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("llm call failed: %w", err)
		}

		batch, perr := a.parser.Parse(raw, spec.Count)
		if perr == nil {
			for _, r := range batch.Rejections {
				a.logger.WithFields(logrus.Fields{"index": r.Index, "field": r.Field}).
					Warnf("post dropped: %s", r.Reason)
			}
			return batch, nil
		}

		lastErr = perr
		a.logger.WithFields(logrus.Fields{"attempt": attempt + 1, "max": a.maxRegenerations + 1}).
			Warnf("model output unusable: %v", perr)
		prompt = BuildCorrectivePrompt(prompt, perr)
	}
	return nil, fmt.Errorf("model output unusable after %d generations: %w", a.maxRegenerations+1, lastErr)
}
