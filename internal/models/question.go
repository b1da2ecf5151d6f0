package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question is one row of the interview question bank. The session record
// stores only the question id; the worker resolves the text when building
// the prompt.
type Question struct {
	ID     string         `gorm:"primaryKey" json:"id"` // ex: "Q1"
	Text   string         `gorm:"type:text;not null" json:"text"`
	Topic  string         `gorm:"index" json:"topic"`
	Rubric datatypes.JSON `gorm:"type:jsonb" json:"rubric,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
