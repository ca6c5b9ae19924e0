// Package client is a typed client for the Meydan HTTP API.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"github.com/sakif/meydan/internal/confirm"
	"github.com/sakif/meydan/internal/enhance"
	"github.com/sakif/meydan/internal/handler"
	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/realtime"
)

const userAgent = "meydanctl/0.1"

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%d] %s: %s (%s)", e.StatusCode, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

type Client struct {
	http    *resty.Client
	baseURL string
}

// New creates a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	h := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	h.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("http request", slog.String("method", req.Method), slog.String("url", req.URL))
		return nil
	})
	h.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("http response",
			slog.Int("status", resp.StatusCode()),
			slog.Duration("duration", resp.Time()),
		)
		return nil
	})

	return &Client{http: h, baseURL: baseURL}
}

// do sends one request and decodes a 2xx body into T.
func do[T any](ctx context.Context, c *Client, method, path string, body any, query url.Values) (T, error) {
	var out T
	var apiErr handler.ErrorResponse

	req := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return out, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		if apiErr.Error == "" {
			apiErr.Error = "unknown_error"
			apiErr.Message = strings.TrimSpace(resp.String())
		}
		return out, &APIError{
			StatusCode: resp.StatusCode(),
			Code:       apiErr.Error,
			Message:    apiErr.Message,
			Field:      apiErr.Field,
		}
	}
	return out, nil
}

func (c *Client) Session(ctx context.Context) (handler.SessionResponse, error) {
	return do[handler.SessionResponse](ctx, c, http.MethodGet, "/api/session", nil, nil)
}

// FeedQuery mirrors the feed endpoint's query parameters. Empty fields are
// left to the server's defaults.
type FeedQuery struct {
	View   string
	User   string
	Search string
	By     string
}

func (q FeedQuery) values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("view", q.View)
	set("user", q.User)
	set("q", q.Search)
	set("by", q.By)
	return v
}

func (c *Client) Feed(ctx context.Context, q FeedQuery) ([]model.PostView, error) {
	return do[[]model.PostView](ctx, c, http.MethodGet, "/api/feed", nil, q.values())
}

// === POSTS ===

func (c *Client) CreatePost(ctx context.Context, text, image string) (model.PostView, error) {
	return do[model.PostView](ctx, c, http.MethodPost, "/api/posts", map[string]string{"text": text, "image": image}, nil)
}

func (c *Client) Post(ctx context.Context, id string) (model.PostView, error) {
	return do[model.PostView](ctx, c, http.MethodGet, "/api/posts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) EditPost(ctx context.Context, id, content string) (model.PostView, error) {
	return do[model.PostView](ctx, c, http.MethodPatch, "/api/posts/"+url.PathEscape(id), map[string]string{"content": content}, nil)
}

func (c *Client) DeletePost(ctx context.Context, id string) (confirm.Pending, error) {
	return do[confirm.Pending](ctx, c, http.MethodDelete, "/api/posts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Like(ctx context.Context, id string) (model.PostView, error) {
	return do[model.PostView](ctx, c, http.MethodPost, postPath(id, "like"), nil, nil)
}

func (c *Client) Comment(ctx context.Context, id, text string) (model.PostView, error) {
	return do[model.PostView](ctx, c, http.MethodPost, postPath(id, "comments"), map[string]string{"text": text}, nil)
}

func (c *Client) Repost(ctx context.Context, id string) (model.PostView, error) {
	return do[model.PostView](ctx, c, http.MethodPost, postPath(id, "repost"), nil, nil)
}

func (c *Client) Share(ctx context.Context, id string) (model.SharePayload, error) {
	return do[model.SharePayload](ctx, c, http.MethodPost, postPath(id, "share"), nil, nil)
}

func (c *Client) ReportPost(ctx context.Context, id string) (confirm.Pending, error) {
	return do[confirm.Pending](ctx, c, http.MethodPost, postPath(id, "report"), nil, nil)
}

func (c *Client) Enhance(ctx context.Context, text string) (enhance.Result, error) {
	return do[enhance.Result](ctx, c, http.MethodPost, "/api/enhance", map[string]string{"text": text}, nil)
}

func postPath(id, action string) string {
	return "/api/posts/" + url.PathEscape(id) + "/" + action
}

// === USERS ===

func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	return do[[]model.User](ctx, c, http.MethodGet, "/api/users", nil, nil)
}

func (c *Client) Profile(ctx context.Context, id string) (model.ProfileView, error) {
	return do[model.ProfileView](ctx, c, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Following(ctx context.Context) ([]model.User, error) {
	return do[[]model.User](ctx, c, http.MethodGet, "/api/following", nil, nil)
}

func (c *Client) Blocked(ctx context.Context) ([]model.User, error) {
	return do[[]model.User](ctx, c, http.MethodGet, "/api/blocked", nil, nil)
}

func (c *Client) Follow(ctx context.Context, id string) (confirm.Pending, error) {
	return do[confirm.Pending](ctx, c, http.MethodPost, userPath(id, "follow"), nil, nil)
}

func (c *Client) Unfollow(ctx context.Context, id string) (confirm.Pending, error) {
	return do[confirm.Pending](ctx, c, http.MethodPost, userPath(id, "unfollow"), nil, nil)
}

func (c *Client) Block(ctx context.Context, id string) (confirm.Pending, error) {
	return do[confirm.Pending](ctx, c, http.MethodPost, userPath(id, "block"), nil, nil)
}

func (c *Client) Unblock(ctx context.Context, id string) (model.User, error) {
	return do[model.User](ctx, c, http.MethodDelete, userPath(id, "block"), nil, nil)
}

func userPath(id, action string) string {
	return "/api/users/" + url.PathEscape(id) + "/" + action
}

// === MESSAGES ===

func (c *Client) Conversations(ctx context.Context) (model.ConversationList, error) {
	return do[model.ConversationList](ctx, c, http.MethodGet, "/api/conversations", nil, nil)
}

func (c *Client) Thread(ctx context.Context, userID string) ([]model.Message, error) {
	return do[[]model.Message](ctx, c, http.MethodGet, "/api/conversations/"+url.PathEscape(userID), nil, nil)
}

func (c *Client) Send(ctx context.Context, userID, content string) (model.Message, error) {
	return do[model.Message](ctx, c, http.MethodPost, "/api/conversations/"+url.PathEscape(userID), map[string]string{"content": content}, nil)
}

// === NOTIFICATIONS ===

func (c *Client) Notifications(ctx context.Context) (handler.NotificationsResponse, error) {
	return do[handler.NotificationsResponse](ctx, c, http.MethodGet, "/api/notifications", nil, nil)
}

// OpenNotifications marks everything read and returns the list as it was.
func (c *Client) OpenNotifications(ctx context.Context) (handler.NotificationsResponse, error) {
	return do[handler.NotificationsResponse](ctx, c, http.MethodPost, "/api/notifications/open", nil, nil)
}

// === SESSION & CONFIRMATIONS ===

func (c *Client) Logout(ctx context.Context) (confirm.Pending, error) {
	return do[confirm.Pending](ctx, c, http.MethodPost, "/api/session/logout", nil, nil)
}

func (c *Client) Confirm(ctx context.Context, id string) (confirm.Outcome, error) {
	return do[confirm.Outcome](ctx, c, http.MethodPost, "/api/confirmations/"+url.PathEscape(id)+"/confirm", nil, nil)
}

func (c *Client) Cancel(ctx context.Context, id string) (confirm.Outcome, error) {
	return do[confirm.Outcome](ctx, c, http.MethodPost, "/api/confirmations/"+url.PathEscape(id)+"/cancel", nil, nil)
}

// Watch streams realtime events until ctx is done or the server closes the
// stream. fn is called for each event on the calling goroutine.
func (c *Client) Watch(ctx context.Context, fn func(realtime.Event)) error {
	u, err := url.Parse(c.baseURL + "/api/ws")
	if err != nil {
		return fmt.Errorf("parsing base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), http.Header{"User-Agent": {userAgent}})
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", u, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var ev realtime.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("reading event: %w", err)
		}
		fn(ev)
	}
}
