package generator

import (
	"time"

	"social_post_generator/responseparser"
)

// Spec describes the batch of posts the model is asked for.
type Spec struct {
	Topic       string
	Date        string // anchor date for the batch, YYYY-MM-DD
	Count       int
	Tone        string
	Audience    string
	Constraints []string
	// Research context injected into the prompt.
	Ephemerides string
	PastTitles  []string
}

// Turn records one comment-driven revision of the batch.
type Turn struct {
	Comment   string
	Batch     *responseparser.Batch
	Summary   string
	CreatedAt time.Time
}
