package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zaqqye/questionnaire_backend/internal/apperr"
	"github.com/zaqqye/questionnaire_backend/internal/models"
	"github.com/zaqqye/questionnaire_backend/internal/utils"
)

type answerKey struct {
	carnet     string
	questionID string
}

// Memory is a process-local store implementing all three repositories.
// It backs tests and STORE=memory development runs.
type Memory struct {
	mu        sync.RWMutex
	students  map[string]*models.Student
	questions []models.Question
	answers   map[answerKey]*models.Answer
	nextID    uint
	now       func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		students: make(map[string]*models.Student),
		answers:  make(map[answerKey]*models.Answer),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewMemoryStore wires one Memory into every repository slot.
func NewMemoryStore() (*Store, *Memory) {
	m := NewMemory()
	return &Store{Students: m, Questions: m, Answers: m}, m
}

// ---- students ----

func (m *Memory) Create(_ context.Context, carnet, password string) (*models.Student, error) {
	if carnet == "" || password == "" {
		return nil, errCredentialsRequired
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[carnet]; ok {
		return nil, errCarnetTaken
	}
	now := m.now()
	st := &models.Student{
		ID:           uuid.NewString(),
		Carnet:       carnet,
		PasswordHash: hashed,
		Role:         models.RoleStudent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.students[carnet] = st
	out := *st
	return &out, nil
}

func (m *Memory) FindByCarnet(_ context.Context, carnet string) (*models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.students[carnet]
	if !ok {
		return nil, errStudentNotFound
	}
	out := *st
	return &out, nil
}

func (m *Memory) ValidatePassword(ctx context.Context, carnet, password string) (bool, error) {
	st, err := m.FindByCarnet(ctx, carnet)
	return checkCredentials(st, err, password)
}

func (m *Memory) UpdatePassword(_ context.Context, carnet, newPassword string) (bool, error) {
	if newPassword == "" {
		return false, errCredentialsRequired
	}
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return false, apperr.Internal("failed to hash password", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[carnet]
	if !ok {
		return false, nil
	}
	st.PasswordHash = hashed
	st.UpdatedAt = m.now()
	return true, nil
}

func (m *Memory) SetRole(_ context.Context, carnet, role string) error {
	if !models.IsValidRole(role) {
		return errInvalidRole
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[carnet]
	if !ok {
		return errStudentNotFound
	}
	st.Role = role
	return nil
}

// ---- questions ----

func (m *Memory) ListAll(_ context.Context) ([]models.Question, error) {
	return m.filterQuestions(func(models.Question) bool { return true }), nil
}

func (m *Memory) ListByArea(_ context.Context, area string) ([]models.Question, error) {
	return m.filterQuestions(func(q models.Question) bool { return q.Area == area }), nil
}

func (m *Memory) ListByDifficulty(_ context.Context, level string) ([]models.Question, error) {
	return m.filterQuestions(func(q models.Question) bool { return q.Dificultad == level }), nil
}

func (m *Memory) filterQuestions(keep func(models.Question) bool) []models.Question {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Question{}
	for _, q := range m.questions {
		if keep(q) {
			out = append(out, q)
		}
	}
	return out
}

func (m *Memory) GetByID(_ context.Context, id string) (*models.Question, error) {
	if !ValidQuestionID(id) {
		return nil, errInvalidQuestionID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, q := range m.questions {
		if q.ID == id {
			out := q
			return &out, nil
		}
	}
	return nil, errQuestionNotFound
}

func (m *Memory) Exists(ctx context.Context, id string) (bool, error) {
	_, err := m.GetByID(ctx, id)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *Memory) Seed(_ context.Context, questions []models.Question) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, q := range questions {
		dup := false
		for _, existing := range m.questions {
			if existing.Area == q.Area && existing.Pregunta == q.Pregunta {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		m.questions = append(m.questions, q)
		inserted++
	}
	return inserted, nil
}

// ---- answers ----

func (m *Memory) Upsert(_ context.Context, carnet, questionID string, answer *string) (*models.Answer, bool, error) {
	if carnet == "" || questionID == "" || answer == nil {
		return nil, false, errAnswerFieldsMissing
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := answerKey{carnet: carnet, questionID: questionID}
	now := m.now()
	if existing, ok := m.answers[key]; ok {
		existing.Answer = *answer
		existing.Timestamp = now
		out := *existing
		return &out, true, nil
	}
	m.nextID++
	rec := &models.Answer{
		ID:            m.nextID,
		StudentCarnet: carnet,
		QuestionID:    questionID,
		Answer:        *answer,
		Timestamp:     now,
	}
	m.answers[key] = rec
	out := *rec
	return &out, false, nil
}

func (m *Memory) ListByStudent(_ context.Context, carnet string) ([]models.Answer, error) {
	m.mu.RLock()
	out := []models.Answer{}
	for key, a := range m.answers {
		if key.carnet == carnet {
			out = append(out, *a)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (m *Memory) DeleteOne(_ context.Context, carnet, questionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := answerKey{carnet: carnet, questionID: questionID}
	if _, ok := m.answers[key]; !ok {
		return false, nil
	}
	delete(m.answers, key)
	return true, nil
}

func (m *Memory) CountByStudent(_ context.Context, carnet string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for key := range m.answers {
		if key.carnet == carnet {
			n++
		}
	}
	return n, nil
}
