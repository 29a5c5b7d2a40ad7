package models

import "time"

// Answer is unique per (StudentCarnet, QuestionID).
type Answer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	StudentCarnet string    `gorm:"size:32;not null;uniqueIndex:uniq_student_question,priority:1" json:"studentCarnet"`
	QuestionID    string    `gorm:"size:64;not null;uniqueIndex:uniq_student_question,priority:2" json:"questionId"`
	Answer        string    `gorm:"type:text" json:"answer"`
	Timestamp     time.Time `gorm:"index" json:"timestamp"`
}

// AnswerStats is the per-student summary served by /answers/stats/me.
type AnswerStats struct {
	TotalAnswers  int64  `json:"totalAnswers"`
	StudentCarnet string `json:"studentCarnet"`
}
