package study

import "errors"

var (
	// ErrEmptyDeck rejects creating a session over a set with no cards.
	ErrEmptyDeck = errors.New("cannot study an empty set")

	// ErrSessionCompleted rejects answers and closes after every card in the
	// sequence has been answered. A completed session never re-opens.
	ErrSessionCompleted = errors.New("session is already completed")

	// ErrSessionClosed rejects answers after the session was abandoned.
	ErrSessionClosed = errors.New("session is closed")

	// ErrWrongCard rejects an answer that does not name the card currently
	// at the cursor; answers must arrive in sequence order.
	ErrWrongCard = errors.New("answer does not match the current card")
)
