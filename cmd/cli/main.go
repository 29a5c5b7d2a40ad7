package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zaqqye/questionnaire_backend/internal/client"
	"github.com/zaqqye/questionnaire_backend/internal/config"
)

type app struct {
	reader *bufio.Reader
	api    *client.Client
	auth   *client.Auth
	policy *config.SubmissionPolicy
}

func main() {
	_ = godotenv.Load()

	base := strings.TrimSpace(os.Getenv("API_URL"))
	sessionFile := strings.TrimSpace(os.Getenv("SESSION_FILE"))
	if sessionFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		sessionFile = filepath.Join(home, ".questionnaire", "session.json")
	}

	var policy *config.SubmissionPolicy
	if raw := strings.TrimSpace(os.Getenv("MIN_REQUIRED_ANSWERS")); raw != "" {
		p, err := config.ParseSubmissionPolicy(raw)
		if err != nil {
			log.Fatalf("MIN_REQUIRED_ANSWERS: %v", err)
		}
		policy = &p
	}

	api := client.New(base, client.NewFileStorage(sessionFile))
	a := &app{
		reader: bufio.NewReader(os.Stdin),
		api:    api,
		auth:   client.NewAuth(api),
		policy: policy,
	}
	api.OnUnauthorized(func() {
		fmt.Println("Session expired, please log in again.")
	})
	if a.auth.Boot() == client.Authenticated {
		fmt.Println("Welcome back,", a.auth.User().Carnet)
	}
	a.loop()
}

func (a *app) loop() {
	for {
		fmt.Println("==== Questionnaire CLI ====")
		if u := a.auth.User(); u != nil {
			fmt.Println("Logged in as", u.Carnet)
		}
		fmt.Println("1) Register")
		fmt.Println("2) Login")
		fmt.Println("3) Take questionnaire")
		fmt.Println("4) My answers")
		fmt.Println("5) My stats")
		fmt.Println("6) Delete an answer")
		fmt.Println("7) Logout")
		fmt.Println("8) Exit")
		choice := a.prompt("Select option: ")
		switch choice {
		case "1":
			a.doRegister()
		case "2":
			a.doLogin()
		case "3":
			a.doQuestionnaire()
		case "4":
			a.doMyAnswers()
		case "5":
			a.doStats()
		case "6":
			a.doDelete()
		case "7":
			a.doLogout()
		case "8", "":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Invalid option")
		}
		fmt.Println()
	}
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	line, err := a.reader.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

func timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func (a *app) requireLogin() bool {
	if a.auth.State() != client.Authenticated {
		fmt.Println("Please log in first.")
		return false
	}
	return true
}

func (a *app) credentials() (string, string) {
	carnet := a.prompt("Carnet: ")
	password := a.prompt("Password: ")
	return carnet, password
}

func (a *app) doRegister() {
	carnet, password := a.credentials()
	ctx, cancel := timeout()
	defer cancel()
	if err := a.auth.Register(ctx, carnet, password); err != nil {
		fmt.Println("Register failed:", describe(err))
		return
	}
	fmt.Println("Registered and logged in as", a.auth.User().Carnet)
}

func (a *app) doLogin() {
	carnet, password := a.credentials()
	ctx, cancel := timeout()
	defer cancel()
	if err := a.auth.Login(ctx, carnet, password); err != nil {
		fmt.Println("Login failed:", describe(err))
		return
	}
	fmt.Println("Logged in as", a.auth.User().Carnet)
}

func (a *app) doLogout() {
	ctx, cancel := timeout()
	defer cancel()
	if err := a.auth.Logout(ctx); err != nil {
		fmt.Println("Logout:", describe(err))
	}
	fmt.Println("Logged out")
}

func (a *app) doQuestionnaire() {
	if !a.requireLogin() {
		return
	}
	ctx, cancel := timeout()
	defer cancel()

	q := client.NewQuestionnaire(a.api, a.policy)
	if err := q.Load(ctx); err != nil {
		fmt.Println("Could not load questionnaire:", describe(err))
		return
	}
	questions := q.Questions()
	fmt.Printf("%d questions, %d answers required (policy: %s). Leave blank to skip.\n",
		len(questions), q.Required(), q.Policy())

	for i, qu := range questions {
		fmt.Printf("\n[%d/%d] %s · %s\n%s\n", i+1, len(questions), qu.Area, qu.Dificultad, qu.Pregunta)
		if err := q.SetAnswer(qu.ID, a.prompt("> ")); err != nil {
			fmt.Println("Error:", err)
		}
	}

	for !q.CanSubmit() {
		fmt.Printf("\nAnswered %d of %d required.\n", q.Answered(), q.Required())
		if strings.ToLower(a.prompt("Answer the rest now? [y/N]: ")) != "y" {
			fmt.Println("Questionnaire not submitted.")
			return
		}
		for _, qu := range questions {
			fmt.Printf("\n%s\n", qu.Pregunta)
			if answer := a.prompt("> (blank keeps current) "); answer != "" {
				_ = q.SetAnswer(qu.ID, answer)
			}
		}
	}

	for {
		report, err := q.Submit(ctx)
		if err == nil {
			fmt.Printf("Submitted %d answers. Thanks!\n", len(report.Items))
			return
		}
		if report == nil {
			fmt.Println("Submit failed:", describe(err))
			return
		}
		fmt.Printf("Saved %d of %d answers.\n", len(report.Succeeded()), len(report.Items))
		for _, it := range report.Failed() {
			fmt.Printf("  %s: %s\n", it.QuestionID, describe(it.Err))
		}
		if strings.ToLower(a.prompt("Retry? [y/N]: ")) != "y" {
			return
		}
	}
}

func (a *app) doMyAnswers() {
	if !a.requireLogin() {
		return
	}
	ctx, cancel := timeout()
	defer cancel()
	answers, err := a.api.MyAnswers(ctx)
	if err != nil {
		fmt.Println("Error:", describe(err))
		return
	}
	if len(answers) == 0 {
		fmt.Println("No answers yet.")
		return
	}
	for _, ans := range answers {
		fmt.Printf("%s  %s  %q\n", ans.Timestamp.Local().Format("2006-01-02 15:04"), ans.QuestionID, ans.Answer)
	}
}

func (a *app) doStats() {
	if !a.requireLogin() {
		return
	}
	ctx, cancel := timeout()
	defer cancel()
	stats, err := a.api.Stats(ctx)
	if err != nil {
		fmt.Println("Error:", describe(err))
		return
	}
	fmt.Printf("Carnet %s has %d answers saved.\n", stats.StudentCarnet, stats.TotalAnswers)
}

func (a *app) doDelete() {
	if !a.requireLogin() {
		return
	}
	id := a.prompt("Question ID: ")
	ctx, cancel := timeout()
	defer cancel()
	if err := a.api.DeleteAnswer(ctx, id); err != nil {
		fmt.Println("Delete failed:", describe(err))
		return
	}
	fmt.Println("Answer deleted")
}

func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
