package domain

import "time"

// Turn is one question/answer exchange.
type Turn struct {
	Question string
	Answer   string
	AskedAt  time.Time
}
