package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/zaqqye/questionnaire_backend/internal/config"
	"github.com/zaqqye/questionnaire_backend/internal/models"
)

type QuestionnaireState int

const (
	Loading QuestionnaireState = iota
	Error
	Ready
	Submitting
	Completed
)

func (s QuestionnaireState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Error:
		return "error"
	case Ready:
		return "ready"
	case Submitting:
		return "submitting"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrNoQuestions     = errors.New("no questions available")
	ErrNotReady        = errors.New("questionnaire is not ready")
	ErrIncomplete      = errors.New("not enough questions answered")
	ErrPartialSubmit   = errors.New("some answers could not be saved")
	ErrUnknownQuestion = errors.New("question is not part of this questionnaire")
)

// ItemResult is the outcome of one answer submission.
type ItemResult struct {
	QuestionID string
	Saved      *SavedAnswer
	Err        error
}

// SubmitReport lists every submitted item in questionnaire order.
type SubmitReport struct {
	Items []ItemResult
}

func (r *SubmitReport) Succeeded() []ItemResult { return r.filter(true) }
func (r *SubmitReport) Failed() []ItemResult    { return r.filter(false) }

func (r *SubmitReport) filter(ok bool) []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if (it.Err == nil) == ok {
			out = append(out, it)
		}
	}
	return out
}

// Questionnaire drives a single run: load, answer, submit.
type Questionnaire struct {
	api *Client
	rng *rand.Rand

	mu        sync.Mutex
	state     QuestionnaireState
	err       error
	policy    *config.SubmissionPolicy
	questions []models.Question
	answers   map[string]string
}

// NewQuestionnaire uses policy when given, otherwise asks the server on Load.
func NewQuestionnaire(api *Client, policy *config.SubmissionPolicy) *Questionnaire {
	return &Questionnaire{
		api:     api,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		state:   Loading,
		policy:  policy,
		answers: map[string]string{},
	}
}

// WithRand fixes the shuffle source.
func (q *Questionnaire) WithRand(rng *rand.Rand) *Questionnaire {
	q.rng = rng
	return q
}

func (q *Questionnaire) State() QuestionnaireState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Err is the error that put the questionnaire in the Error state.
func (q *Questionnaire) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

func (q *Questionnaire) Questions() []models.Question {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.Question(nil), q.questions...)
}

func (q *Questionnaire) Policy() config.SubmissionPolicy {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.policy == nil {
		return config.SubmissionPolicy{All: true}
	}
	return *q.policy
}

// Load fetches and shuffles the questions. It can be called again from
// Error or Ready to start over.
func (q *Questionnaire) Load(ctx context.Context) error {
	q.mu.Lock()
	if q.state == Submitting {
		q.mu.Unlock()
		return ErrNotReady
	}
	q.state, q.err = Loading, nil
	needPolicy := q.policy == nil
	q.mu.Unlock()

	var policy *config.SubmissionPolicy
	if needPolicy {
		p, err := q.api.SubmissionPolicy(ctx)
		if err != nil {
			return q.fail(fmt.Errorf("load submission policy: %w", err))
		}
		policy = &p
	}

	questions, err := q.api.Questions(ctx)
	if err != nil {
		return q.fail(err)
	}
	if len(questions) == 0 {
		return q.fail(ErrNoQuestions)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	Shuffle(q.rng, questions)
	if policy != nil {
		q.policy = policy
	}
	q.questions = questions
	q.answers = map[string]string{}
	q.state = Ready
	return nil
}

func (q *Questionnaire) fail(err error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.state, q.err = Error, err
	return err
}

// Shuffle is an in-place Fisher-Yates shuffle.
func Shuffle(rng *rand.Rand, questions []models.Question) {
	for i := len(questions) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}

// SetAnswer records text for a loaded question; blank text clears it.
func (q *Questionnaire) SetAnswer(questionID, text string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != Ready {
		return ErrNotReady
	}
	if !q.hasQuestion(questionID) {
		return ErrUnknownQuestion
	}
	if strings.TrimSpace(text) == "" {
		delete(q.answers, questionID)
		return nil
	}
	q.answers[questionID] = text
	return nil
}

func (q *Questionnaire) hasQuestion(id string) bool {
	for _, qu := range q.questions {
		if qu.ID == id {
			return true
		}
	}
	return false
}

// Answered is the number of questions with a non-blank answer.
func (q *Questionnaire) Answered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.answers)
}

// Required is how many answers the policy demands for the loaded set.
func (q *Questionnaire) Required() int {
	p := q.Policy()
	q.mu.Lock()
	defer q.mu.Unlock()
	return p.Required(len(q.questions))
}

func (q *Questionnaire) CanSubmit() bool {
	return q.State() == Ready && q.Answered() >= q.Required()
}

// Submit posts every answered question concurrently. The questionnaire is
// Completed only if all of them were saved; otherwise it goes back to
// Ready and the report says which ones made it.
func (q *Questionnaire) Submit(ctx context.Context) (*SubmitReport, error) {
	p := q.Policy()
	q.mu.Lock()
	if q.state != Ready {
		q.mu.Unlock()
		return nil, ErrNotReady
	}
	if len(q.answers) < p.Required(len(q.questions)) {
		q.mu.Unlock()
		return nil, ErrIncomplete
	}
	// Questionnaire order, answered subset only.
	var items []ItemResult
	var texts []string
	for _, qu := range q.questions {
		if text, ok := q.answers[qu.ID]; ok {
			items = append(items, ItemResult{QuestionID: qu.ID})
			texts = append(texts, text)
		}
	}
	q.state = Submitting
	q.mu.Unlock()

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			items[i].Saved, items[i].Err = q.api.SubmitAnswer(ctx, items[i].QuestionID, texts[i])
		}(i)
	}
	wg.Wait()

	report := &SubmitReport{Items: items}
	q.mu.Lock()
	defer q.mu.Unlock()
	if failed := report.Failed(); len(failed) > 0 {
		q.state = Ready
		return report, fmt.Errorf("%w: %d of %d failed", ErrPartialSubmit, len(failed), len(items))
	}
	q.state = Completed
	return report, nil
}
