package study

import (
	"math"
	"math/rand"

	"github.com/kotoba-app/kotoba-api/models"
)

// State is the lifecycle of one study pass.
type State int

const (
	Created State = iota
	InProgress
	Completed
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Recorder receives each answer outcome exactly once.
type Recorder interface {
	Record(userID, cardID uint, correct bool) (*models.ReviewStat, error)
}

// Options configure a new engine.
type Options struct {
	// Reversed swaps prompt and answer faces for every card, uniformly.
	Reversed bool
	// RandomOrder shuffles the snapshot once at creation; the order is then
	// fixed for the session's lifetime.
	RandomOrder bool
	// Rand, when set, supplies the shuffle source. Nil uses the global one.
	Rand *rand.Rand
}

// Prompt is the presentation view of the current card, with faces swapped
// when the session runs reversed.
type Prompt struct {
	Card              models.Card
	PromptWord        string
	PromptHint        string
	PromptDescription string
	AnswerWord        string
	AnswerHint        string
	AnswerDescription string
}

// Engine drives one pass over a set's cards: it fixes the play sequence at
// creation, checks each answer off against it in order, forwards outcomes to
// the Recorder, and freezes the summary once every card has been answered.
type Engine struct {
	userID   uint
	reversed bool
	sequence []models.Card
	recorder Recorder

	cursor  int
	correct int
	state   State
}

// NewEngine snapshots cards into a fixed play sequence. An empty deck is
// rejected here, before any state exists.
func NewEngine(userID uint, cards []models.Card, recorder Recorder, opts Options) (*Engine, error) {
	if len(cards) == 0 {
		return nil, ErrEmptyDeck
	}

	sequence := make([]models.Card, len(cards))
	copy(sequence, cards)
	if opts.RandomOrder {
		shuffle := rand.Shuffle
		if opts.Rand != nil {
			shuffle = opts.Rand.Shuffle
		}
		// Fisher-Yates; the comparator trick the old client used is biased.
		shuffle(len(sequence), func(i, j int) {
			sequence[i], sequence[j] = sequence[j], sequence[i]
		})
	}

	return &Engine{
		userID:   userID,
		reversed: opts.Reversed,
		sequence: sequence,
		recorder: recorder,
		state:    Created,
	}, nil
}

// Replay fast-forwards the engine through already-recorded outcomes, in
// sequence order, without touching the Recorder. Used to rebuild a session's
// in-memory state from persisted progress rows.
func (e *Engine) Replay(outcomes []bool) error {
	if len(outcomes) > len(e.sequence) {
		return ErrSessionCompleted
	}
	for _, correct := range outcomes {
		e.advance(correct)
	}
	return nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Sequence returns the fixed play order.
func (e *Engine) Sequence() []models.Card { return e.sequence }

// CardIDs returns the play order as database ids.
func (e *Engine) CardIDs() []uint {
	ids := make([]uint, len(e.sequence))
	for i, card := range e.sequence {
		ids[i] = card.ID
	}
	return ids
}

// Current returns the presentation view of the card at the cursor, or false
// when no card remains.
func (e *Engine) Current() (Prompt, bool) {
	if e.cursor >= len(e.sequence) || e.state == Closed {
		return Prompt{}, false
	}
	card := e.sequence[e.cursor]
	p := Prompt{
		Card:              card,
		PromptWord:        card.FrontWord,
		PromptHint:        card.FrontHint,
		PromptDescription: card.FrontDescription,
		AnswerWord:        card.BackWord,
		AnswerHint:        card.BackHint,
		AnswerDescription: card.BackDescription,
	}
	if e.reversed {
		p.PromptWord, p.AnswerWord = p.AnswerWord, p.PromptWord
		p.PromptHint, p.AnswerHint = p.AnswerHint, p.PromptHint
		p.PromptDescription, p.AnswerDescription = p.AnswerDescription, p.PromptDescription
	}
	return p, true
}

// Answer records the outcome for the card at the cursor and advances. The
// card id must match the cursor position; a terminal session rejects answers
// instead of silently re-opening.
func (e *Engine) Answer(cardID uint, correct bool) error {
	switch e.state {
	case Completed:
		return ErrSessionCompleted
	case Closed:
		return ErrSessionClosed
	}
	if e.sequence[e.cursor].ID != cardID {
		return ErrWrongCard
	}

	if e.recorder != nil {
		if _, err := e.recorder.Record(e.userID, cardID, correct); err != nil {
			return err
		}
	}
	e.advance(correct)
	return nil
}

func (e *Engine) advance(correct bool) {
	if correct {
		e.correct++
	}
	e.cursor++
	if e.cursor >= len(e.sequence) {
		e.state = Completed
	} else {
		e.state = InProgress
	}
}

// Close abandons the session before completion. Outcomes already recorded
// stay recorded; only the session's own summary stays unset.
func (e *Engine) Close() error {
	switch e.state {
	case Completed:
		return ErrSessionCompleted
	case Closed:
		return ErrSessionClosed
	}
	e.state = Closed
	return nil
}

// Summary returns the answered-so-far tally. Accuracy is only frozen into
// the session record once the state is Completed.
func (e *Engine) Summary() (answered, correct, accuracy int) {
	return e.cursor, e.correct, Accuracy(e.correct, len(e.sequence))
}

// Accuracy is round(correct/total*100), with 0 for an empty total.
func Accuracy(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
