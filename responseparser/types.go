package responseparser

import "time"

// Post is one validated social-media post candidate. JSON keys follow the
// schema the generation prompts ask the model for.
type Post struct {
	Date             string `json:"fecha"`
	Title            string `json:"titulo"`
	ImageDescription string `json:"imagen"`
	Body             string `json:"descripcion"`
}

// Batch holds the accepted posts in their original relative order, plus
// diagnostics about the run that produced them.
type Batch struct {
	Posts []Post
	Meta  Meta
	// Rejections keeps per-record near-misses even when the batch as a whole
	// succeeded, so callers can log them.
	Rejections []Rejection
}

// Meta summarizes a parse run.
type Meta struct {
	TotalSeen     int
	Accepted      int
	ParseAttempts int
}

// Rejection records why a single candidate record was dropped.
type Rejection struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Config carries the parsing policy knobs. Start from DefaultConfig and
// adjust; the zero value is not usable on its own.
type Config struct {
	// MaxRetries bounds the parse attempts on a single candidate.
	MaxRetries int
	// RetryDelay paces failed attempts. The pipeline itself does no I/O, so
	// tests set this to zero; callers that regenerate between attempts keep
	// it at the default to avoid hammering the model.
	RetryDelay time.Duration
	// MinPosts/MaxPosts bound the accepted batch size. Overflow is truncated
	// with a warning rather than rejected.
	MinPosts int
	MaxPosts int
	// CollapseWhitespace folds whitespace runs to single spaces during
	// cleaning. It raises the repair rate on mangled output but can flatten
	// intentional formatting inside long bodies; turn it off to preserve
	// multi-paragraph text verbatim.
	CollapseWhitespace bool
}

// DefaultConfig mirrors the policy the generation agent runs with.
func DefaultConfig() Config {
	return Config{
		MaxRetries:         3,
		RetryDelay:         time.Second,
		MinPosts:           1,
		MaxPosts:           10,
		CollapseWhitespace: true,
	}
}
