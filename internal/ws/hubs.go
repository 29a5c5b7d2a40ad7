package ws

import (
	"encoding/json"
	"log"
	"time"
)

const (
	EventAnswerSaved   = "answer_saved"
	EventAnswerDeleted = "answer_deleted"
)

// AnswerEvent is pushed to activity listeners whenever an answer changes.
type AnswerEvent struct {
	Type          string    `json:"type"`
	StudentCarnet string    `json:"studentCarnet"`
	QuestionID    string    `json:"questionId"`
	Updated       bool      `json:"updated,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type Hubs struct {
	Activity *ActivityHub
	Student  *StudentHub
}

func NewHubs() *Hubs {
	return &Hubs{
		Activity: NewActivityHub(),
		Student:  NewStudentHub(),
	}
}

// Run starts the hub loops; they live for the whole process.
func (h *Hubs) Run() {
	go h.Activity.Run()
	go h.Student.Run()
}

// Publish fans an event out to admin listeners and to the student's own
// connection. Safe on a nil *Hubs.
func (h *Hubs) Publish(ev AnswerEvent) {
	if h == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ws: failed to marshal event: %v", err)
		return
	}
	h.Activity.send(activityMessage{carnet: ev.StudentCarnet, payload: data})
	h.Student.notifyRaw(ev.StudentCarnet, data)
}
