// Package images turns approved image descriptions into PNG files on disk
// using the OpenAI images API.
package images

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

// defaultStylePrefix keeps generated images on one visual line when no style
// guide is configured.
const defaultStylePrefix = "Flat illustration style, warm colors, community-focused, no embedded text."

// Generator wraps the images endpoint and the on-disk naming convention.
type Generator struct {
	client      openai.Client
	dir         string
	stylePrefix string
	logger      *logrus.Logger
}

// Settings configures the generator. Dir is required; the rest has working
// defaults.
type Settings struct {
	APIKey      string
	BaseURL     string
	Dir         string
	StylePrefix string
}

func New(cfg Settings, logger *logrus.Logger) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("images api key missing; provide llm.api_key or OPENAI_API_KEY")
	}
	if cfg.Dir == "" {
		return nil, errors.New("images output directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	if cfg.StylePrefix == "" {
		cfg.StylePrefix = defaultStylePrefix
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Generator{
		client:      openai.NewClient(opts...),
		dir:         cfg.Dir,
		stylePrefix: cfg.StylePrefix,
		logger:      logger,
	}, nil
}

// PromptFor is the exact prompt Generate will send, exposed so users can
// preview it before spending a generation.
func (g *Generator) PromptFor(description string) string {
	return g.stylePrefix + "\n\n" + strings.TrimSpace(description)
}

// Generate renders the description as a 1024x1024 PNG named after the post
// date and title, and returns the file path. Re-generating for the same post
// overwrites the previous file.
func (g *Generator) Generate(ctx context.Context, title, description, date string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", errors.New("image description is empty")
	}

	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         g.PromptFor(description),
		Model:          openai.ImageModelDallE3,
		Size:           openai.ImageGenerateParamsSize1024x1024,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		N:              openai.Int(1),
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", errors.New("image generation returned no data")
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return "", fmt.Errorf("image payload is not valid base64: %w", err)
	}

	path := filepath.Join(g.dir, FileName(date, title))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", err
	}
	g.logger.WithFields(logrus.Fields{"path": path, "bytes": len(raw)}).Info("image generated")
	return path, nil
}

// FileName builds the stable on-disk name for a post's image.
func FileName(date, title string) string {
	return fmt.Sprintf("%s_%s.png", date, slugify(title))
}

// slugify folds a title into a safe lowercase file name fragment.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "post"
	}
	const maxSlug = 60
	if len(out) > maxSlug {
		out = strings.Trim(out[:maxSlug], "-")
	}
	return out
}
