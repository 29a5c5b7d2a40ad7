// Package client talks to the questionnaire API and holds the student-side
// session and questionnaire state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/zaqqye/questionnaire_backend/internal/config"
	"github.com/zaqqye/questionnaire_backend/internal/models"
)

const DefaultBaseURL = "http://localhost:3000/api"

// ErrUnauthorized is returned (wrapped in *APIError) for any 401. The
// stored session has already been cleared by then.
var ErrUnauthorized = errors.New("unauthorized")

// APIError carries the status and server message of a failed call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	storage    Storage

	mu             sync.Mutex
	onUnauthorized []func()
}

func New(baseURL string, storage Storage) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if storage == nil {
		storage = &MemoryStorage{}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		storage: storage,
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) Storage() Storage { return c.storage }

// OnUnauthorized registers fn to run after a 401 cleared the session.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

func (c *Client) token() string {
	s, err := c.storage.Load()
	if err != nil || s == nil {
		return ""
	}
	return s.Token
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
	}
	if resp.StatusCode >= 400 {
		var envelope struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &envelope)
		return &APIError{Status: resp.StatusCode, Message: envelope.Message}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) handleUnauthorized() {
	_ = c.storage.Clear()
	c.mu.Lock()
	hooks := append([]func(){}, c.onUnauthorized...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

type authResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
	Student User   `json:"student"`
}

// Register creates the account and returns a ready session. The session is
// not persisted here; Auth decides that.
func (c *Client) Register(ctx context.Context, carnet, password string) (*Session, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{"carnet": carnet, "password": password}, &out); err != nil {
		return nil, err
	}
	return &Session{Token: out.Token, User: &out.Student}, nil
}

func (c *Client) Login(ctx context.Context, carnet, password string) (*Session, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"carnet": carnet, "password": password}, &out); err != nil {
		return nil, err
	}
	return &Session{Token: out.Token, User: &out.Student}, nil
}

type Profile struct {
	ID        string    `json:"id"`
	Carnet    string    `json:"carnet"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var out struct {
		Student Profile `json:"student"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.Student, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, http.MethodPut, "/auth/password", map[string]string{
		"currentPassword": current,
		"newPassword":     next,
	}, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

type questionsResponse struct {
	Count     int               `json:"count"`
	Questions []models.Question `json:"questions"`
}

func (c *Client) Questions(ctx context.Context) ([]models.Question, error) {
	var out questionsResponse
	if err := c.do(ctx, http.MethodGet, "/questions", nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *Client) QuestionsByArea(ctx context.Context, area string) ([]models.Question, error) {
	var out questionsResponse
	if err := c.do(ctx, http.MethodGet, "/questions/area/"+url.PathEscape(area), nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *Client) QuestionsByDifficulty(ctx context.Context, level string) ([]models.Question, error) {
	var out questionsResponse
	if err := c.do(ctx, http.MethodGet, "/questions/difficulty/"+url.PathEscape(level), nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *Client) Question(ctx context.Context, id string) (*models.Question, error) {
	var out struct {
		Question models.Question `json:"question"`
	}
	if err := c.do(ctx, http.MethodGet, "/questions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Question, nil
}

// SavedAnswer is the server's echo of a submitted answer.
type SavedAnswer struct {
	StudentCarnet string    `json:"studentCarnet"`
	QuestionID    string    `json:"questionId"`
	Answer        string    `json:"answer"`
	Timestamp     time.Time `json:"timestamp"`
	Updated       bool      `json:"updated"`
}

func (c *Client) SubmitAnswer(ctx context.Context, questionID, answer string) (*SavedAnswer, error) {
	var out struct {
		Data SavedAnswer `json:"data"`
	}
	body := map[string]string{"questionId": questionID, "answer": answer}
	if err := c.do(ctx, http.MethodPost, "/answers", body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

type answersResponse struct {
	Carnet  string          `json:"carnet"`
	Count   int             `json:"count"`
	Answers []models.Answer `json:"answers"`
}

func (c *Client) MyAnswers(ctx context.Context) ([]models.Answer, error) {
	var out answersResponse
	if err := c.do(ctx, http.MethodGet, "/answers/my-answers", nil, &out); err != nil {
		return nil, err
	}
	return out.Answers, nil
}

func (c *Client) AnswersByCarnet(ctx context.Context, carnet string) ([]models.Answer, error) {
	var out answersResponse
	if err := c.do(ctx, http.MethodGet, "/answers/"+url.PathEscape(carnet), nil, &out); err != nil {
		return nil, err
	}
	return out.Answers, nil
}

func (c *Client) Stats(ctx context.Context) (*models.AnswerStats, error) {
	var out struct {
		Stats models.AnswerStats `json:"stats"`
	}
	if err := c.do(ctx, http.MethodGet, "/answers/stats/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.Stats, nil
}

func (c *Client) DeleteAnswer(ctx context.Context, questionID string) error {
	return c.do(ctx, http.MethodDelete, "/answers/"+url.PathEscape(questionID), nil, nil)
}

// SubmissionPolicy fetches the server's questionnaire completeness rule.
// A server that does not publish one means "all".
func (c *Client) SubmissionPolicy(ctx context.Context) (config.SubmissionPolicy, error) {
	var out struct {
		MinimumRequiredAnswers *config.SubmissionPolicy `json:"minimumRequiredAnswers"`
	}
	if err := c.do(ctx, http.MethodGet, "/config/public", nil, &out); err != nil {
		return config.SubmissionPolicy{}, err
	}
	if out.MinimumRequiredAnswers == nil {
		return config.SubmissionPolicy{All: true}, nil
	}
	return *out.MinimumRequiredAnswers, nil
}
