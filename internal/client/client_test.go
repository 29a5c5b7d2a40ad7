package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zaqqye/questionnaire_backend/internal/config"
	"github.com/zaqqye/questionnaire_backend/internal/models"
	"github.com/zaqqye/questionnaire_backend/internal/repository"
	"github.com/zaqqye/questionnaire_backend/internal/routes"
	"github.com/zaqqye/questionnaire_backend/internal/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var seedQuestions = []models.Question{
	{Area: "math", Tipo: "abierta", Dificultad: "facil", Pregunta: "2+2?"},
	{Area: "math", Tipo: "abierta", Dificultad: "media", Pregunta: "3*3?"},
	{Area: "history", Tipo: "abierta", Dificultad: "facil", Pregunta: "1492?"},
}

type testServer struct {
	*httptest.Server
	mem *repository.Memory
}

func newServer(t *testing.T, policy config.SubmissionPolicy, questions []models.Question, wrap func(http.Handler) http.Handler) *testServer {
	t.Helper()
	store, mem := repository.NewMemoryStore()
	if _, err := mem.Seed(context.Background(), questions); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Env: "development", JWTSecret: "client-test", JWTExpires: time.Hour, MinRequiredAnswers: policy}
	var h http.Handler = routes.New(routes.Deps{Store: store, Tokens: token.NewService(cfg.JWTSecret, cfg.JWTExpires), Cfg: cfg})
	if wrap != nil {
		h = wrap(h)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, mem: mem}
}

func (s *testServer) client(storage Storage) *Client {
	return New(s.URL+"/api", storage)
}

func loggedIn(t *testing.T, srv *testServer, carnet string) (*Client, *Auth) {
	t.Helper()
	c := srv.client(&MemoryStorage{})
	auth := NewAuth(c)
	if err := auth.Register(context.Background(), carnet, "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	return c, auth
}

func TestLoginPersistsSessionToFile(t *testing.T) {
	srv := newServer(t, config.SubmissionPolicy{All: true}, seedQuestions, nil)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	auth := NewAuth(srv.client(NewFileStorage(path)))
	if err := auth.Register(ctx, "20250505", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := auth.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("logout should remove the session file, stat err = %v", err)
	}

	if err := auth.Login(ctx, "20250505", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if auth.State() != Authenticated || auth.User().Carnet != "20250505" {
		t.Fatalf("state = %v user = %+v", auth.State(), auth.User())
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session file mode = %o", perm)
	}

	// A fresh process restores the session.
	restored := NewAuth(srv.client(NewFileStorage(path)))
	if got := restored.Boot(); got != Authenticated {
		t.Fatalf("Boot = %v", got)
	}
	if restored.User().Carnet != "20250505" {
		t.Errorf("restored user = %+v", restored.User())
	}
}

func TestBootDiscardsIncompleteSession(t *testing.T) {
	storage := &MemoryStorage{}
	_ = storage.Save(&Session{Token: "abc"})
	auth := NewAuth(New("http://127.0.0.1:1/api", storage))
	if got := auth.Boot(); got != LoggedOut {
		t.Fatalf("Boot = %v", got)
	}
	if s, _ := storage.Load(); s != nil {
		t.Errorf("incomplete session should be cleared, got %+v", s)
	}
}

func TestFailedLoginReturnsToLoggedOut(t *testing.T) {
	srv := newServer(t, config.SubmissionPolicy{All: true}, seedQuestions, nil)
	auth := NewAuth(srv.client(&MemoryStorage{}))

	err := auth.Login(context.Background(), "404", "secret1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Invalid carnet or password" {
		t.Fatalf("err = %v", err)
	}
	if auth.State() != LoggedOut {
		t.Errorf("state = %v", auth.State())
	}
}

func TestUnauthorizedResponseClearsSession(t *testing.T) {
	srv := newServer(t, config.SubmissionPolicy{All: true}, seedQuestions, nil)
	storage := &MemoryStorage{}
	_ = storage.Save(&Session{Token: "forged.token.value", User: &User{Carnet: "1"}})
	c := srv.client(storage)
	auth := NewAuth(c)
	if auth.Boot() != Authenticated {
		t.Fatal("expected stored session to boot")
	}

	fired := 0
	c.OnUnauthorized(func() { fired++ })
	_, err := c.Me(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if s, _ := storage.Load(); s != nil {
		t.Errorf("session should be cleared, got %+v", s)
	}
	if auth.State() != LoggedOut || fired != 1 {
		t.Errorf("state = %v, hook fired %d times", auth.State(), fired)
	}
}

func TestQuestionnaireAllPolicy(t *testing.T) {
	srv := newServer(t, config.SubmissionPolicy{All: true}, seedQuestions, nil)
	c, _ := loggedIn(t, srv, "100")
	ctx := context.Background()

	q := NewQuestionnaire(c, nil)
	if q.State() != Loading {
		t.Fatalf("initial state = %v", q.State())
	}
	if err := q.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if q.State() != Ready || len(q.Questions()) != len(seedQuestions) {
		t.Fatalf("state = %v, %d questions", q.State(), len(q.Questions()))
	}
	if !q.Policy().All || q.Required() != len(seedQuestions) {
		t.Fatalf("policy = %v, required %d", q.Policy(), q.Required())
	}

	qs := q.Questions()
	for _, qu := range qs[:len(qs)-1] {
		if err := q.SetAnswer(qu.ID, "answer to "+qu.Pregunta); err != nil {
			t.Fatal(err)
		}
	}
	_ = q.SetAnswer(qs[len(qs)-1].ID, "   ")
	if q.CanSubmit() {
		t.Fatal("blank answer must not count")
	}
	if _, err := q.Submit(ctx); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("submit incomplete: %v", err)
	}
	if err := q.SetAnswer("6f1c1f1e-1111-4111-8111-111111111111", "x"); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("unknown question: %v", err)
	}

	_ = q.SetAnswer(qs[len(qs)-1].ID, "last")
	if !q.CanSubmit() {
		t.Fatal("all answered, should be submittable")
	}
	report, err := q.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if q.State() != Completed || len(report.Succeeded()) != len(qs) {
		t.Fatalf("state = %v, report = %+v", q.State(), report)
	}

	mine, err := c.MyAnswers(ctx)
	if err != nil || len(mine) != len(qs) {
		t.Fatalf("MyAnswers = %d, %v", len(mine), err)
	}
	stats, err := c.Stats(ctx)
	if err != nil || stats.TotalAnswers != int64(len(qs)) || stats.StudentCarnet != "100" {
		t.Errorf("stats = %+v, %v", stats, err)
	}
}

func TestQuestionnaireMinimumPolicyFromServer(t *testing.T) {
	srv := newServer(t, config.SubmissionPolicy{Minimum: 1}, seedQuestions, nil)
	c, _ := loggedIn(t, srv, "200")
	ctx := context.Background()

	q := NewQuestionnaire(c, nil)
	if err := q.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if q.Policy().All || q.Required() != 1 {
		t.Fatalf("policy = %v, required = %d", q.Policy(), q.Required())
	}
	target := q.Questions()[0].ID
	_ = q.SetAnswer(target, "only one")

	report, err := q.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(report.Items) != 1 || report.Items[0].QuestionID != target || report.Items[0].Saved.Updated {
		t.Fatalf("report = %+v", report)
	}
	if n, _ := srv.mem.CountByStudent(ctx, "200"); n != 1 {
		t.Errorf("server holds %d answers", n)
	}
}

func TestQuestionnaireLocalPolicyCappedByQuestionCount(t *testing.T) {
	srv := newServer(t, config.SubmissionPolicy{All: true}, seedQuestions, nil)
	c, _ := loggedIn(t, srv, "300")
	q := NewQuestionnaire(c, &config.SubmissionPolicy{Minimum: 5})
	if err := q.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if q.Required() != len(seedQuestions) {
		t.Errorf("required = %d", q.Required())
	}
}

func TestQuestionnaireNoQuestions(t *testing.T) {
	srv := newServer(t, config.SubmissionPolicy{All: true}, nil, nil)
	c, _ := loggedIn(t, srv, "400")
	q := NewQuestionnaire(c, nil)
	if err := q.Load(context.Background()); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v", err)
	}
	if q.State() != Error || !errors.Is(q.Err(), ErrNoQuestions) {
		t.Errorf("state = %v, err = %v", q.State(), q.Err())
	}
	if err := q.SetAnswer("x", "y"); !errors.Is(err, ErrNotReady) {
		t.Errorf("SetAnswer in error state: %v", err)
	}
}

func TestSubmitReportsPartialFailure(t *testing.T) {
	var failID atomic.Value
	failID.Store("")
	failing := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost && r.URL.Path == "/api/answers" {
				body, _ := io.ReadAll(r.Body)
				if id := failID.Load().(string); id != "" && strings.Contains(string(body), id) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"success":false,"message":"Error saving answer"}`))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}
			next.ServeHTTP(w, r)
		})
	}
	srv := newServer(t, config.SubmissionPolicy{All: true}, seedQuestions, failing)
	c, _ := loggedIn(t, srv, "500")
	ctx := context.Background()

	q := NewQuestionnaire(c, nil)
	if err := q.Load(ctx); err != nil {
		t.Fatal(err)
	}
	for _, qu := range q.Questions() {
		_ = q.SetAnswer(qu.ID, "a")
	}
	target := q.Questions()[1].ID
	failID.Store(target)

	report, err := q.Submit(ctx)
	if !errors.Is(err, ErrPartialSubmit) {
		t.Fatalf("err = %v", err)
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].QuestionID != target {
		t.Fatalf("failed = %+v", failed)
	}
	if len(report.Succeeded()) != len(seedQuestions)-1 {
		t.Errorf("succeeded = %+v", report.Succeeded())
	}
	if q.State() != Ready {
		t.Errorf("state after partial failure = %v", q.State())
	}
	if n, _ := srv.mem.CountByStudent(ctx, "500"); n != int64(len(seedQuestions)-1) {
		t.Errorf("server holds %d answers", n)
	}

	// Retrying after the fault clears only resubmits, nothing duplicates.
	failID.Store("")
	if _, err := q.Submit(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if n, _ := srv.mem.CountByStudent(ctx, "500"); n != int64(len(seedQuestions)) {
		t.Errorf("server holds %d answers after retry", n)
	}
}

func TestDeleteAnswerAndFetchQuestion(t *testing.T) {
	srv := newServer(t, config.SubmissionPolicy{All: true}, seedQuestions, nil)
	c, _ := loggedIn(t, srv, "600")
	ctx := context.Background()

	all, err := c.Questions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	q, err := c.Question(ctx, all[0].ID)
	if err != nil || q.ID != all[0].ID {
		t.Fatalf("Question = %+v, %v", q, err)
	}
	math, _ := c.QuestionsByArea(ctx, "math")
	if len(math) != 2 {
		t.Errorf("math questions = %d", len(math))
	}

	if _, err := c.SubmitAnswer(ctx, all[0].ID, "x"); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteAnswer(ctx, all[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = c.DeleteAnswer(ctx, all[0].ID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("second delete: %v", err)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	qs := make([]models.Question, 20)
	for i := range qs {
		qs[i].ID = string(rune('a' + i))
	}
	Shuffle(rand.New(rand.NewSource(42)), qs)

	seen := map[string]bool{}
	moved := false
	for i, q := range qs {
		seen[q.ID] = true
		if q.ID != string(rune('a'+i)) {
			moved = true
		}
	}
	if len(seen) != 20 {
		t.Fatalf("shuffle lost elements: %v", qs)
	}
	if !moved {
		t.Error("seeded shuffle left 20 items in order")
	}
}
