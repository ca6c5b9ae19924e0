package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/enhance"
	"github.com/sakif/meydan/internal/handler"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/realtime"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	nameColor    = color.New(color.FgCyan, color.Bold)
	metaColor    = color.New(color.FgHiBlack)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	promptColor  = color.New(color.FgYellow, color.Bold)
	unreadColor  = color.New(color.FgMagenta, color.Bold)
)

// Printer renders API results as coloured text or as indented JSON.
type Printer struct {
	w      io.Writer
	format string
}

func NewPrinter(w io.Writer, format string) *Printer {
	return &Printer{w: w, format: format}
}

// emit writes v as JSON in json mode and calls text otherwise.
func (p *Printer) emit(v any, text func()) error {
	if p.format == FormatJSON {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}

func (p *Printer) Posts(posts []model.PostView) error {
	return p.emit(posts, func() {
		if len(posts) == 0 {
			metaColor.Fprintln(p.w, "No posts.")
			return
		}
		for i, post := range posts {
			if i > 0 {
				fmt.Fprintln(p.w)
			}
			p.post(post, "")
		}
	})
}

func (p *Printer) Post(post model.PostView) error {
	return p.emit(post, func() { p.post(post, "") })
}

func (p *Printer) post(post model.PostView, indent string) {
	nameColor.Fprintf(p.w, "%s%s", indent, post.User.Name)
	metaColor.Fprintf(p.w, "  %s · %s\n", post.ID, ago(post.CreatedAt))
	if post.Content != "" {
		fmt.Fprintf(p.w, "%s%s\n", indent, post.Content)
	}
	if post.Image != "" {
		metaColor.Fprintf(p.w, "%s[image] %s\n", indent, post.Image)
	}
	switch {
	case post.OriginalPost != nil:
		p.post(*post.OriginalPost, indent+"  │ ")
	case post.OriginalMissing:
		warnColor.Fprintf(p.w, "%s  │ original post was deleted\n", indent)
	}
	if indent != "" {
		return
	}

	like := "♡"
	if post.IsLiked {
		like = "♥"
	}
	metaColor.Fprintf(p.w, "%s %d  💬 %d  ↻ %d\n", like, post.Likes, len(post.Comments), post.Shares)
	for _, c := range post.Comments {
		fmt.Fprintf(p.w, "  ")
		nameColor.Fprintf(p.w, "%s", c.User.Name)
		fmt.Fprintf(p.w, ": %s\n", c.Text)
	}
}

func (p *Printer) Users(users []model.User) error {
	return p.emit(users, func() {
		if len(users) == 0 {
			metaColor.Fprintln(p.w, "No users.")
			return
		}
		for _, u := range users {
			nameColor.Fprintf(p.w, "%-24s", u.Name)
			metaColor.Fprintf(p.w, " %-14s %d followers · %d following\n", u.ID, u.Followers, u.Following)
		}
	})
}

func (p *Printer) Profile(v model.ProfileView) error {
	return p.emit(v, func() {
		u := v.User
		nameColor.Fprintf(p.w, "%s", u.Name)
		if u.Username != "" {
			metaColor.Fprintf(p.w, " @%s", u.Username)
		}
		fmt.Fprintln(p.w)
		if u.Bio != "" {
			fmt.Fprintln(p.w, u.Bio)
		}
		for _, f := range []struct{ label, value string }{
			{"Job", u.Job}, {"Country", u.Country}, {"Qualification", u.Qualification},
		} {
			if f.value != "" {
				metaColor.Fprintf(p.w, "%s: ", f.label)
				fmt.Fprintln(p.w, f.value)
			}
		}
		fmt.Fprintf(p.w, "%d posts · %d followers · %d following\n", v.PostCount, u.Followers, u.Following)

		switch {
		case v.IsSelf:
			metaColor.Fprintln(p.w, "(you)")
		case v.IsBlocked:
			warnColor.Fprintln(p.w, "blocked")
		case v.IsFollowing:
			successColor.Fprintln(p.w, "following")
		}
	})
}

func (p *Printer) Conversations(list model.ConversationList) error {
	return p.emit(list, func() {
		if len(list.Active) == 0 {
			metaColor.Fprintln(p.w, "No conversations yet.")
		}
		for _, c := range list.Active {
			nameColor.Fprintf(p.w, "%s", c.User.Name)
			metaColor.Fprintf(p.w, "  %s · %s\n", c.User.ID, ago(c.LastMessage.CreatedAt))
			fmt.Fprintf(p.w, "  %s\n", c.LastMessage.Content)
		}
		if len(list.Suggested) > 0 {
			fmt.Fprintln(p.w)
			metaColor.Fprintln(p.w, "Start a chat with:")
			for _, u := range list.Suggested {
				fmt.Fprintf(p.w, "  %s (%s)\n", u.Name, u.ID)
			}
		}
	})
}

// Thread prints messages oldest first. Messages from viewerID are marked "you".
func (p *Printer) Thread(viewerID string, msgs []model.Message) error {
	return p.emit(msgs, func() {
		if len(msgs) == 0 {
			metaColor.Fprintln(p.w, "No messages.")
			return
		}
		for _, m := range msgs {
			p.message(viewerID, m)
		}
	})
}

func (p *Printer) Message(viewerID string, m model.Message) error {
	return p.emit(m, func() { p.message(viewerID, m) })
}

func (p *Printer) message(viewerID string, m model.Message) {
	who := m.SenderID
	c := nameColor
	if m.SenderID == viewerID {
		who = "you"
		c = successColor
	}
	metaColor.Fprintf(p.w, "[%s] ", m.CreatedAt.Local().Format("15:04"))
	c.Fprintf(p.w, "%s", who)
	fmt.Fprintf(p.w, ": %s\n", m.Content)
}

func (p *Printer) Notifications(res handler.NotificationsResponse) error {
	return p.emit(res, func() {
		metaColor.Fprintf(p.w, "%d unread\n", res.Unread)
		for _, n := range res.Notifications {
			marker := "  "
			if !n.Read {
				marker = unreadColor.Sprint("● ")
			}
			fmt.Fprint(p.w, marker)
			nameColor.Fprintf(p.w, "%s", n.User.Name)
			fmt.Fprintf(p.w, " %s", describe(n.Type))
			if n.Content != "" {
				fmt.Fprintf(p.w, ": %s", n.Content)
			}
			metaColor.Fprintf(p.w, "  %s\n", ago(n.CreatedAt))
		}
	})
}

func describe(t model.NotificationType) string {
	switch t {
	case model.NotificationLike:
		return "liked your post"
	case model.NotificationComment:
		return "commented on your post"
	case model.NotificationFollow:
		return "started following you"
	}
	return string(t)
}

func (p *Printer) Share(s model.SharePayload) error {
	return p.emit(s, func() {
		successColor.Fprintln(p.w, "Share link ready")
		fmt.Fprintln(p.w, s.URL)
		metaColor.Fprintln(p.w, "Copy:")
		fmt.Fprintln(p.w, s.Clipboard)
	})
}

func (p *Printer) Enhanced(r enhance.Result) error {
	return p.emit(r, func() {
		if !r.Enhanced {
			warnColor.Fprintf(p.w, "Not enhanced (%s)\n", r.Reason)
		}
		fmt.Fprintln(p.w, r.Text)
	})
}

func (p *Printer) Outcome(out confirm.Outcome) error {
	return p.emit(out, func() {
		switch out.State {
		case confirm.StateCommitted:
			successColor.Fprintf(p.w, "✓ %s done\n", out.Kind)
			if r, ok := out.Result.(map[string]any); ok {
				if msg, ok := r["message"].(string); ok {
					fmt.Fprintln(p.w, msg)
				}
			}
		case confirm.StateCancelled:
			metaColor.Fprintf(p.w, "%s cancelled\n", out.Kind)
		default:
			warnColor.Fprintf(p.w, "%s %s\n", out.Kind, out.State)
		}
	})
}

func (p *Printer) User(u model.User, verb string) error {
	return p.emit(u, func() {
		successColor.Fprintf(p.w, "✓ %s ", verb)
		nameColor.Fprintln(p.w, u.Name)
	})
}

func (p *Printer) Event(ev realtime.Event) error {
	if p.format == FormatJSON {
		// one object per line, so the stream can be piped
		return json.NewEncoder(p.w).Encode(ev)
	}
	metaColor.Fprintf(p.w, "[%s] ", ev.At.Local().Format(time.TimeOnly))
	nameColor.Fprintf(p.w, "%s", ev.Type)
	if ev.Data != nil {
		b, err := json.Marshal(ev.Data)
		if err == nil {
			fmt.Fprintf(p.w, " %s", b)
		}
	}
	fmt.Fprintln(p.w)
	return nil
}

// ago renders a coarse relative time.
func ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
	return strings.TrimSpace(t.Local().Format("2 Jan 2006"))
}
