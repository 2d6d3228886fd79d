package model

import "time"

type Transaction struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type Total struct {
	UserID    int64     `json:"user_id"`
	Total     float64   `json:"total"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contribution is the outcome of a successfully applied amount.
type Contribution struct {
	Transaction *Transaction `json:"transaction"`
	User        *User        `json:"user"`
	NewTotal    float64      `json:"total"`
}

type LeaderboardRow struct {
	ID         int64   `json:"id"`
	Label      string  `json:"label"`
	Total      float64 `json:"total"`
	Profession *string `json:"profession"`
	Industry   *string `json:"industry"`
}
