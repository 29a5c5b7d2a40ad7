package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Env         string // development | production
	Store       string // postgres | memory
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	JWTSecret   string
	JWTExpires  time.Duration
	// Seed / bootstrap
	QuestionsSeedFile string
	AdminCarnet       string
	AdminPassword     string
	// Client-facing policy
	MinRequiredAnswers  SubmissionPolicy
	RestrictAnswerReads bool
}

func Load() *Config {
	expires, err := time.ParseDuration(getenv("JWT_EXPIRES_IN", "24h"))
	if err != nil || expires <= 0 {
		expires = 24 * time.Hour
	}
	policy, err := ParseSubmissionPolicy(getenv("MIN_REQUIRED_ANSWERS", "all"))
	if err != nil {
		policy = SubmissionPolicy{All: true}
	}
	return &Config{
		Port:                getenv("PORT", "3000"),
		Env:                 strings.ToLower(getenv("APP_ENV", "development")),
		Store:               strings.ToLower(getenv("STORE", "postgres")),
		DatabaseURL:         getenv("DATABASE_URL", ""),
		DBHost:              getenv("DB_HOST", "localhost"),
		DBPort:              getenv("DB_PORT", "5432"),
		DBUser:              getenv("DB_USER", "postgres"),
		DBPassword:          getenv("DB_PASSWORD", "postgres"),
		DBName:              getenv("DB_NAME", "BancoDB"),
		DBSSLMode:           getenv("DB_SSLMODE", "disable"),
		JWTSecret:           getenv("JWT_SECRET", "default_secret_key_change_in_production"),
		JWTExpires:          expires,
		QuestionsSeedFile:   getenv("QUESTIONS_SEED_FILE", ""),
		AdminCarnet:         getenv("ADMIN_CARNET", ""),
		AdminPassword:       getenv("ADMIN_PASSWORD", ""),
		MinRequiredAnswers:  policy,
		RestrictAnswerReads: parseBool(getenv("RESTRICT_ANSWER_READS", "false")),
	}
}

// IsProduction reports whether error details should be hidden from responses.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SubmissionPolicy controls how many questions a student must answer
// before the questionnaire can be submitted.
type SubmissionPolicy struct {
	All     bool
	Minimum int
}

// ParseSubmissionPolicy accepts "all" or a non-negative integer.
func ParseSubmissionPolicy(raw string) (SubmissionPolicy, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" || v == "all" {
		return SubmissionPolicy{All: true}, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return SubmissionPolicy{}, fmt.Errorf("invalid submission policy %q: want \"all\" or a non-negative integer", raw)
	}
	return SubmissionPolicy{Minimum: n}, nil
}

// Required returns how many answers are needed out of total questions.
func (p SubmissionPolicy) Required(total int) int {
	if p.All || p.Minimum > total {
		return total
	}
	return p.Minimum
}

func (p SubmissionPolicy) String() string {
	if p.All {
		return "all"
	}
	return strconv.Itoa(p.Minimum)
}

// MarshalJSON emits "all" or the integer minimum, matching what
// ParseSubmissionPolicy accepts.
func (p SubmissionPolicy) MarshalJSON() ([]byte, error) {
	if p.All {
		return []byte(`"all"`), nil
	}
	return []byte(strconv.Itoa(p.Minimum)), nil
}

func (p *SubmissionPolicy) UnmarshalJSON(data []byte) error {
	parsed, err := ParseSubmissionPolicy(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
