package domain

import "time"

// Classroom groups learners and daily words
type Classroom struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
