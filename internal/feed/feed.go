// Package feed turns the post collection into the list a view renders.
//
// Assembly is pure: no store access, no side effects. The caller hands in
// hydrated posts (authors attached) in collection order and gets back the
// visible subset in the same order.
//
// Filters run in a fixed order:
//
//  1. posts by blocked authors are dropped, whatever the query
//  2. profile views keep only the subject's posts
//  3. a non-empty search keeps posts whose selected field contains the query
//
// An empty result is a normal outcome.
package feed

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sakif/meydan/internal/model"
)

// Field selects what a search query is matched against.
type Field string

const (
	FieldContent Field = "content"
	FieldAuthor  Field = "author"
	FieldDate    Field = "date"
)

func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldContent, FieldAuthor, FieldDate:
		return f, nil
	case "":
		return FieldContent, nil
	}
	return "", fmt.Errorf("unknown search field %q", s)
}

// Query describes one feed request. For profile views SubjectID must be the
// profile owner: the viewer for ViewProfile, the other user for ViewUserProfile.
type Query struct {
	Mode      model.ViewMode
	SubjectID string
	Search    string
	Field     Field
}

// IsProfile reports whether the query is restricted to one author.
func (q Query) IsProfile() bool {
	return q.Mode == model.ViewProfile || q.Mode == model.ViewUserProfile
}

// Assembler applies feed filters. The zero value is not usable; call New.
type Assembler struct {
	dates DateFormatter
}

func New(dates DateFormatter) *Assembler {
	return &Assembler{dates: dates}
}

// Assemble returns the posts visible for q. blocked holds author ids to hide.
func (a *Assembler) Assemble(posts []model.PostView, blocked map[string]bool, q Query) []model.PostView {
	needle := a.lower(q.Search)
	out := make([]model.PostView, 0, len(posts))

	for _, p := range posts {
		if blocked[p.User.ID] {
			continue
		}
		if q.IsProfile() && p.User.ID != q.SubjectID {
			continue
		}
		if needle != "" && !strings.Contains(a.lower(a.field(p, q.Field)), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (a *Assembler) field(p model.PostView, f Field) string {
	switch f {
	case FieldAuthor:
		return p.User.Name
	case FieldDate:
		return a.dates.FormatDate(p.CreatedAt)
	default:
		return p.Content
	}
}

// lower folds case. A cases.Caser keeps state between calls and is not safe
// for concurrent use, so each call builds its own.
func (a *Assembler) lower(s string) string {
	if s == "" {
		return ""
	}
	return cases.Lower(language.Und).String(s)
}
