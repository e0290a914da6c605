package domain

import "time"

// Document is an indexed document as reported by the backend.
type Document struct {
	Filename string
	Pages    int
	Size     int64
	Chunks   int
}

// Stats summarises the backend state for the current session.
type Stats struct {
	Documents   int
	Chunks      int
	ChatHistory int
}

// Session is a stub backend session keyed by its cookie value.
type Session struct {
	ID         string
	LastSeenAt time.Time
	CreatedAt  time.Time
}

// Exchange is one question/answer pair recorded by the stub backend.
type Exchange struct {
	Question string
	Answer   string
	At       time.Time
}
