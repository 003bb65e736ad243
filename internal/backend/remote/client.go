// Package remote talks to the hosted learning platform over JSON/HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/phnplatform/studyterm/internal/backend"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

type Options struct {
	APIURL     string
	ChatbotURL string
	Token      string
	Timeout    time.Duration
	// ProgressRate caps progress reports per second. Zero disables the cap.
	ProgressRate  float64
	ProgressBurst int
	HTTPClient    *http.Client
	Log           *zap.Logger
}

// Client implements backend.Backend against the platform API.
type Client struct {
	apiURL     string
	chatbotURL string
	token      string
	userID     string
	timeout    time.Duration
	progress   *rate.Limiter
	httpClient *http.Client
	log        *zap.Logger
}

var _ backend.Backend = (*Client)(nil)

func New(opts Options) (*Client, error) {
	apiURL := strings.TrimRight(strings.TrimSpace(opts.APIURL), "/")
	if apiURL == "" {
		return nil, fmt.Errorf("remote: api url is required")
	}
	if _, err := url.Parse(apiURL); err != nil {
		return nil, fmt.Errorf("remote: invalid api url: %w", err)
	}
	chatbotURL := strings.TrimRight(strings.TrimSpace(opts.ChatbotURL), "/")
	if chatbotURL == "" {
		chatbotURL = apiURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	limit := rate.Inf
	if opts.ProgressRate > 0 {
		limit = rate.Limit(opts.ProgressRate)
	}
	burst := opts.ProgressBurst
	if burst <= 0 {
		burst = 1
	}

	token := strings.TrimSpace(opts.Token)
	return &Client{
		apiURL:     apiURL,
		chatbotURL: chatbotURL,
		token:      token,
		userID:     SubjectFromToken(token),
		timeout:    timeout,
		progress:   rate.NewLimiter(limit, burst),
		httpClient: hc,
		log:        log,
	}, nil
}

// SubjectFromToken returns the "sub" claim of a bearer token without
// verifying its signature. The server is the party that verifies it.
func SubjectFromToken(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

// UserID is the learner identity sent with assistant turns.
func (c *Client) UserID() string { return c.userID }

// ReportProgress sends a progress report unless the limiter drops it. The
// final 100% report is never dropped.
func (c *Client) ReportProgress(ctx context.Context, contentID string, percent float64) error {
	if percent < 100 && !c.progress.Allow() {
		c.log.Debug("progress report throttled",
			zap.String("content_id", contentID),
			zap.Float64("percent", percent))
		return nil
	}
	body := map[string]float64{"progress": percent}
	return c.doJSON(ctx, http.MethodPost, c.apiURL, "/api/courses/"+url.PathEscape(contentID)+"/progress", body, nil)
}

func (c *Client) ReportComplete(ctx context.Context, contentID string) error {
	return c.doJSON(ctx, http.MethodPost, c.apiURL, "/api/courses/"+url.PathEscape(contentID)+"/complete", nil, nil)
}

func (c *Client) FetchQuiz(ctx context.Context, courseID, quizID string) (*backend.QuizDefinition, error) {
	var def backend.QuizDefinition
	if err := c.doJSON(ctx, http.MethodGet, c.apiURL, quizPath(courseID, quizID), nil, &def); err != nil {
		return nil, fmt.Errorf("fetch quiz %s: %w", quizID, err)
	}
	return &def, nil
}

func (c *Client) SubmitQuiz(ctx context.Context, courseID, quizID string, answers []int) (*backend.QuizResult, error) {
	body := struct {
		Answers []int `json:"answers"`
	}{Answers: answers}
	var res backend.QuizResult
	if err := c.doJSON(ctx, http.MethodPost, c.apiURL, quizPath(courseID, quizID)+"/submit", body, &res); err != nil {
		return nil, fmt.Errorf("submit quiz %s: %w", quizID, err)
	}
	return &res, nil
}

func quizPath(courseID, quizID string) string {
	return "/api/courses/" + url.PathEscape(courseID) + "/quizzes/" + url.PathEscape(quizID)
}

func (c *Client) Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatReply, error) {
	if req.UserID == "" {
		req.UserID = c.userID
	}
	if req.Context == nil {
		req.Context = []string{}
	}
	var reply backend.ChatReply
	if err := c.doJSON(ctx, http.MethodPost, c.chatbotURL, "/api/chat", req, &reply); err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}
	return &reply, nil
}

func (c *Client) Sections(ctx context.Context, courseID string) ([]backend.Section, error) {
	var sections []backend.Section
	if err := c.doJSON(ctx, http.MethodGet, c.apiURL, "/courses/"+url.PathEscape(courseID)+"/sections", nil, &sections); err != nil {
		return nil, fmt.Errorf("course sections: %w", err)
	}
	return sections, nil
}

func (c *Client) Content(ctx context.Context, courseID, contentID string) (*backend.Content, error) {
	var content backend.Content
	path := "/courses/" + url.PathEscape(courseID) + "/content/" + url.PathEscape(contentID)
	if err := c.doJSON(ctx, http.MethodGet, c.apiURL, path, nil, &content); err != nil {
		return nil, fmt.Errorf("content %s: %w", contentID, err)
	}
	return &content, nil
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, base, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, base+path, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	c.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseHTTPError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func parseHTTPError(status int, raw []byte) error {
	body := strings.TrimSpace(string(raw))

	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &env); err == nil {
		msg = strings.TrimSpace(env.Message)
		if msg == "" {
			msg = strings.TrimSpace(env.Error)
		}
	}
	return &backend.HTTPError{StatusCode: status, Message: msg, Body: body}
}
