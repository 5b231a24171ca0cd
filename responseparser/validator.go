package responseparser

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	dateLayout     = "2006-01-02"
	minTitleRunes  = 5
	maxTitleRunes  = 200
	minImageRunes  = 10
	minBodyRunes   = 20
	wrapperPostKey = "posts"
)

// validate maps the parsed candidate onto posts. A record that fails any
// field constraint is dropped on its own; the batch only fails as a whole
// when the top-level shape is wrong or nothing survives.
func (p *Parser) validate(cleaned string) (*Batch, error) {
	items, err := recordsOf(cleaned)
	if err != nil {
		return nil, err
	}

	var posts []Post
	var rejections []Rejection
	for i, item := range items {
		post, field, err := buildPost(item)
		if err != nil {
			rejections = append(rejections, Rejection{Index: i, Field: field, Reason: err.Error()})
			p.logger.WithFields(logrus.Fields{"index": i, "field": field}).
				Debugf("post rejected: %v", err)
			continue
		}
		posts = append(posts, post)
	}

	if len(posts) == 0 {
		return nil, &NoValidPostsError{Cause: "every record failed validation", Rejections: rejections}
	}
	if len(posts) < p.cfg.MinPosts {
		return nil, &NoValidPostsError{
			Cause:      fmt.Sprintf("only %d valid posts, minimum is %d", len(posts), p.cfg.MinPosts),
			Rejections: rejections,
		}
	}
	if len(posts) > p.cfg.MaxPosts {
		// Overflow policy: keep the first MaxPosts and warn, never reject an
		// otherwise valid batch.
		p.logger.WithFields(logrus.Fields{"accepted": len(posts), "max": p.cfg.MaxPosts}).
			Warn("batch exceeds the configured maximum, truncating")
		posts = posts[:p.cfg.MaxPosts]
	}

	return &Batch{
		Posts:      posts,
		Meta:       Meta{TotalSeen: len(items), Accepted: len(posts)},
		Rejections: rejections,
	}, nil
}

// recordsOf resolves the accepted top-level shapes: a bare array, the
// conventional {"posts": [...]} wrapper, or a single object treated as a
// one-element list.
func recordsOf(cleaned string) ([]gjson.Result, error) {
	root := gjson.Parse(cleaned)
	var items []gjson.Result
	switch {
	case root.IsArray():
		items = root.Array()
	case root.IsObject():
		if posts := root.Get(wrapperPostKey); posts.IsArray() {
			items = posts.Array()
		} else {
			items = []gjson.Result{root}
		}
	default:
		return nil, &NoValidPostsError{
			Cause: fmt.Sprintf("unexpected top-level JSON shape (%s)", strings.ToLower(root.Type.String())),
		}
	}
	if len(items) == 0 {
		return nil, &NoValidPostsError{Cause: "response contained no records"}
	}
	return items, nil
}

// buildPost applies the field rules to one candidate record. The returned
// field names which constraint failed, for diagnostics.
func buildPost(item gjson.Result) (Post, string, error) {
	if !item.IsObject() {
		return Post{}, "record", fmt.Errorf("record is not a JSON object (%s)", strings.ToLower(item.Type.String()))
	}

	date := strings.TrimSpace(item.Get("fecha").String())
	if date == "" {
		return Post{}, "fecha", fmt.Errorf("date is missing or empty")
	}
	if utf8.RuneCountInString(date) != len(dateLayout) {
		return Post{}, "fecha", fmt.Errorf("date %q is not 10 characters in YYYY-MM-DD form", date)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return Post{}, "fecha", fmt.Errorf("date %q is not a real calendar date: %v", date, err)
	}

	title := strings.TrimSpace(item.Get("titulo").String())
	if n := utf8.RuneCountInString(title); n < minTitleRunes || n > maxTitleRunes {
		return Post{}, "titulo", fmt.Errorf("title length %d outside [%d, %d]", n, minTitleRunes, maxTitleRunes)
	}

	image := strings.TrimSpace(item.Get("imagen").String())
	if n := utf8.RuneCountInString(image); n < minImageRunes {
		return Post{}, "imagen", fmt.Errorf("image description length %d below minimum %d", n, minImageRunes)
	}

	body := strings.TrimSpace(item.Get("descripcion").String())
	if n := utf8.RuneCountInString(body); n < minBodyRunes {
		return Post{}, "descripcion", fmt.Errorf("body length %d below minimum %d", n, minBodyRunes)
	}

	return Post{Date: date, Title: title, ImageDescription: image, Body: body}, "", nil
}
