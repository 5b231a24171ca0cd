// Package responseparser turns free-form model output into validated social
// post batches. Models asked to "reply only with JSON" rarely do, so the
// pipeline locates the payload, repairs the common defects, and validates the
// result against the post schema, degrading with typed failures instead of
// panics on anything malformed.
package responseparser

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// candidateLogLimit bounds the snippet carried inside UnparseableError.
const candidateLogLimit = 500

// Parser is the pipeline entry point. It holds only configuration, so a
// single instance is safe for concurrent use.
type Parser struct {
	cfg    Config
	logger *logrus.Logger
}

// New builds a Parser. Retry and size bounds fall back to DefaultConfig when
// left at zero; a nil logger discards output.
func New(cfg Config, logger *logrus.Logger) *Parser {
	def := DefaultConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.MinPosts <= 0 {
		cfg.MinPosts = def.MinPosts
	}
	if cfg.MaxPosts <= 0 {
		cfg.MaxPosts = def.MaxPosts
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Parser{cfg: cfg, logger: logger}
}

// Parse runs locate → clean/repair/parse loop → validate on raw model output.
//
// expectedCount is advisory: a mismatch is logged, never rejected. Failures
// come back as ErrNoJSONFound, *UnparseableError, or *NoValidPostsError; the
// function itself performs no file or network I/O.
func (p *Parser) Parse(raw string, expectedCount int) (*Batch, error) {
	candidate, ok := locate(raw)
	if !ok {
		p.logger.WithField("response_len", len(raw)).Debug("no json candidate located")
		return nil, ErrNoJSONFound
	}
	p.logger.WithField("candidate_len", len(candidate)).Debug("candidate extracted")

	cleaned, attempts, err := p.parseWithRetry(candidate)
	if err != nil {
		return nil, err
	}

	batch, err := p.validate(cleaned)
	if err != nil {
		return nil, err
	}
	batch.Meta.ParseAttempts = attempts

	if expectedCount > 0 && batch.Meta.Accepted != expectedCount {
		p.logger.WithFields(logrus.Fields{
			"expected": expectedCount,
			"accepted": batch.Meta.Accepted,
		}).Warn("accepted post count differs from expectation")
	}
	return batch, nil
}

// parseWithRetry cleans and parses the candidate, applying the quote repair
// between failed attempts. It returns the cleaned text that parsed and the
// number of attempts used.
func (p *Parser) parseWithRetry(candidate string) (string, int, error) {
	var lastErr error
	var cleaned string
	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		cleaned = p.clean(candidate)

		var probe any
		err := json.Unmarshal([]byte(cleaned), &probe)
		if err == nil {
			return cleaned, attempt, nil
		}
		lastErr = err
		p.logger.WithFields(logrus.Fields{"attempt": attempt, "max": p.cfg.MaxRetries}).
			Debugf("parse attempt failed: %v", err)

		if attempt < p.cfg.MaxRetries {
			candidate = repairQuotes(candidate)
			if p.cfg.RetryDelay > 0 {
				time.Sleep(p.cfg.RetryDelay)
			}
		}
	}
	return "", p.cfg.MaxRetries, &UnparseableError{
		LastErr:   lastErr,
		Attempts:  p.cfg.MaxRetries,
		Candidate: truncateForLog(cleaned, candidateLogLimit),
	}
}

func truncateForLog(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return fmt.Sprintf("%s... (%d characters omitted)", string(runes[:limit]), len(runes)-limit)
}
