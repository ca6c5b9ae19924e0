package model

import "time"

// Post is a feed entry as stored.
//
// Authors are referenced by id and hydrated into a PostView at read time, so
// a profile edit shows up on every post without rewriting them.
//
// OriginalPostID is set on reposts and always names the ROOT post: reposting
// a repost points at the post that repost wraps, never at the repost itself.
// It is resolved once, when the repost is created.
type Post struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"authorId"`
	Content        string    `json:"content"`
	Image          string    `json:"image,omitempty"`
	Likes          int       `json:"likes"`
	IsLiked        bool      `json:"isLiked"`
	Comments       []Comment `json:"comments"`
	Shares         int       `json:"shares"`
	CreatedAt      time.Time `json:"timestamp"`
	OriginalPostID string    `json:"originalPostId,omitempty"`
}

// IsRepost reports whether the post wraps another post.
func (p Post) IsRepost() bool {
	return p.OriginalPostID != ""
}

// Clone returns a copy whose comment slice is not shared with p.
func (p Post) Clone() Post {
	comments := make([]Comment, len(p.Comments))
	copy(comments, p.Comments)
	p.Comments = comments
	return p
}

// Comment is appended to a post and never edited afterwards.
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}

// PostView is a post ready to render: authors resolved, repost target attached.
//
// When the root of a repost has been deleted, OriginalPost is nil and
// OriginalMissing is true; OriginalPostID still names what was reposted.
type PostView struct {
	ID              string        `json:"id"`
	User            User          `json:"user"`
	Content         string        `json:"content"`
	Image           string        `json:"image,omitempty"`
	Likes           int           `json:"likes"`
	IsLiked         bool          `json:"isLiked"`
	Comments        []CommentView `json:"comments"`
	Shares          int           `json:"shares"`
	CreatedAt       time.Time     `json:"timestamp"`
	OriginalPostID  string        `json:"originalPostId,omitempty"`
	OriginalPost    *PostView     `json:"originalPost,omitempty"`
	OriginalMissing bool          `json:"originalMissing,omitempty"`
}

type CommentView struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}

// SharePayload is what the platform share sheet receives. Clipboard is the
// fallback text copied when no share sheet is available.
type SharePayload struct {
	PostID    string `json:"postId"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	URL       string `json:"url"`
	Clipboard string `json:"clipboard"`
	Shares    int    `json:"shares"`
}

// ReportReceipt acknowledges a report. Reporting changes nothing else.
type ReportReceipt struct {
	PostID     string    `json:"postId"`
	ReportedAt time.Time `json:"reportedAt"`
	Message    string    `json:"message"`
}
