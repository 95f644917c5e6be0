package study

import (
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/kotoba-app/kotoba-api/models"
)

// fakeRecorder collects observations without a database.
type fakeRecorder struct {
	calls []struct {
		userID  uint
		cardID  uint
		correct bool
	}
	fail error
}

func (f *fakeRecorder) Record(userID, cardID uint, correct bool) (*models.ReviewStat, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.calls = append(f.calls, struct {
		userID  uint
		cardID  uint
		correct bool
	}{userID, cardID, correct})
	return &models.ReviewStat{UserID: userID, CardID: cardID}, nil
}

func makeCards(n int) []models.Card {
	cards := make([]models.Card, n)
	for i := range cards {
		cards[i] = models.Card{
			FrontWord: string(rune('a' + i)),
			BackWord:  string(rune('A' + i)),
		}
		cards[i].ID = uint(i + 1)
	}
	return cards
}

func TestNewEngineRejectsEmptyDeck(t *testing.T) {
	if _, err := NewEngine(1, nil, nil, Options{}); !errors.Is(err, ErrEmptyDeck) {
		t.Errorf("NewEngine(empty) error = %v, want ErrEmptyDeck", err)
	}
	if _, err := NewEngine(1, []models.Card{}, nil, Options{RandomOrder: true}); !errors.Is(err, ErrEmptyDeck) {
		t.Errorf("NewEngine(empty, random) error = %v, want ErrEmptyDeck", err)
	}
}

func TestSessionAccuracy(t *testing.T) {
	cards := makeCards(5)
	recorder := &fakeRecorder{}
	engine, err := NewEngine(7, cards, recorder, Options{})
	if err != nil {
		t.Fatal(err)
	}

	outcomes := []bool{true, true, false, true, false}
	for i, correct := range outcomes {
		if err := engine.Answer(cards[i].ID, correct); err != nil {
			t.Fatalf("Answer(%d) failed: %v", i, err)
		}
	}

	if engine.State() != Completed {
		t.Fatalf("state = %v, want Completed", engine.State())
	}
	answered, correct, accuracy := engine.Summary()
	if answered != 5 || correct != 3 || accuracy != 60 {
		t.Errorf("Summary() = (%d, %d, %d), want (5, 3, 60)", answered, correct, accuracy)
	}
	if len(recorder.calls) != 5 {
		t.Errorf("recorder saw %d observations, want 5", len(recorder.calls))
	}
	for i, call := range recorder.calls {
		if call.userID != 7 || call.cardID != cards[i].ID || call.correct != outcomes[i] {
			t.Errorf("observation %d = %+v, want card %d correct %v", i, call, cards[i].ID, outcomes[i])
		}
	}
}

func TestAnswerAfterCompletedFails(t *testing.T) {
	cards := makeCards(1)
	engine, _ := NewEngine(1, cards, nil, Options{})
	if err := engine.Answer(cards[0].ID, true); err != nil {
		t.Fatal(err)
	}
	if err := engine.Answer(cards[0].ID, true); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("Answer after completion error = %v, want ErrSessionCompleted", err)
	}
}

func TestAnswerOutOfSequenceFails(t *testing.T) {
	cards := makeCards(3)
	recorder := &fakeRecorder{}
	engine, _ := NewEngine(1, cards, recorder, Options{})

	if err := engine.Answer(cards[2].ID, true); !errors.Is(err, ErrWrongCard) {
		t.Fatalf("out-of-sequence answer error = %v, want ErrWrongCard", err)
	}
	if len(recorder.calls) != 0 {
		t.Error("rejected answer must not reach the recorder")
	}
	if err := engine.Answer(cards[0].ID, true); err != nil {
		t.Errorf("in-sequence answer failed after rejection: %v", err)
	}
}

func TestRecorderFailureDoesNotAdvance(t *testing.T) {
	cards := makeCards(2)
	recorder := &fakeRecorder{fail: errors.New("store down")}
	engine, _ := NewEngine(1, cards, recorder, Options{})

	if err := engine.Answer(cards[0].ID, true); err == nil {
		t.Fatal("expected recorder error to propagate")
	}
	if engine.State() != Created {
		t.Errorf("state = %v after failed answer, want Created", engine.State())
	}

	recorder.fail = nil
	if err := engine.Answer(cards[0].ID, true); err != nil {
		t.Errorf("retry after recorder recovery failed: %v", err)
	}
}

func TestClose(t *testing.T) {
	cards := makeCards(3)
	engine, _ := NewEngine(1, cards, nil, Options{})
	if err := engine.Answer(cards[0].ID, true); err != nil {
		t.Fatal(err)
	}

	if err := engine.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if engine.State() != Closed {
		t.Fatalf("state = %v, want Closed", engine.State())
	}
	if err := engine.Answer(cards[1].ID, true); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Answer after close error = %v, want ErrSessionClosed", err)
	}
	if err := engine.Close(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("double Close error = %v, want ErrSessionClosed", err)
	}

	// Answered-so-far tally survives the close.
	answered, correct, _ := engine.Summary()
	if answered != 1 || correct != 1 {
		t.Errorf("Summary after close = (%d, %d), want (1, 1)", answered, correct)
	}
}

func TestCloseAfterCompletedFails(t *testing.T) {
	cards := makeCards(1)
	engine, _ := NewEngine(1, cards, nil, Options{})
	if err := engine.Answer(cards[0].ID, false); err != nil {
		t.Fatal(err)
	}
	if err := engine.Close(); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("Close after completion error = %v, want ErrSessionCompleted", err)
	}
}

func TestRandomOrderIsAPermutation(t *testing.T) {
	cards := makeCards(20)
	engine, err := NewEngine(1, cards, nil, Options{
		RandomOrder: true,
		Rand:        rand.New(rand.NewSource(42)),
	})
	if err != nil {
		t.Fatal(err)
	}

	got := engine.CardIDs()
	if len(got) != len(cards) {
		t.Fatalf("sequence has %d cards, want %d", len(got), len(cards))
	}
	sorted := make([]uint, len(got))
	copy(sorted, got)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i, id := range sorted {
		if id != uint(i+1) {
			t.Fatalf("shuffled sequence is not a permutation: %v", got)
		}
	}

	// Same seed, same order: the shuffle is fixed at creation.
	again, _ := NewEngine(1, cards, nil, Options{
		RandomOrder: true,
		Rand:        rand.New(rand.NewSource(42)),
	})
	if !reflect.DeepEqual(got, again.CardIDs()) {
		t.Error("same seed produced different sequences")
	}

	// Input order is untouched.
	for i, card := range cards {
		if card.ID != uint(i+1) {
			t.Fatal("NewEngine mutated the input slice")
		}
	}
}

func TestSequentialOrderPreserved(t *testing.T) {
	cards := makeCards(5)
	engine, _ := NewEngine(1, cards, nil, Options{})
	for i, id := range engine.CardIDs() {
		if id != cards[i].ID {
			t.Fatalf("sequential session reordered cards: %v", engine.CardIDs())
		}
	}
}

func TestReversedPrompt(t *testing.T) {
	cards := []models.Card{{
		FrontWord:        "cat",
		FrontHint:        "animal",
		FrontDescription: "a small feline",
		BackWord:         "猫",
		BackHint:         "動物",
		BackDescription:  "小さなネコ科の動物",
	}}
	cards[0].ID = 1

	normal, _ := NewEngine(1, cards, nil, Options{})
	prompt, ok := normal.Current()
	if !ok || prompt.PromptWord != "cat" || prompt.AnswerWord != "猫" {
		t.Errorf("normal prompt = %+v", prompt)
	}

	reversed, _ := NewEngine(1, cards, nil, Options{Reversed: true})
	prompt, ok = reversed.Current()
	if !ok {
		t.Fatal("no current card")
	}
	if prompt.PromptWord != "猫" || prompt.AnswerWord != "cat" {
		t.Errorf("reversed prompt words = %q/%q", prompt.PromptWord, prompt.AnswerWord)
	}
	if prompt.PromptHint != "動物" || prompt.PromptDescription != "小さなネコ科の動物" {
		t.Errorf("reversed prompt kept front hint/description: %+v", prompt)
	}
	// Card data itself is untouched.
	if prompt.Card.FrontWord != "cat" {
		t.Errorf("reversed mode altered card data: %+v", prompt.Card)
	}
}

func TestReplay(t *testing.T) {
	cards := makeCards(3)
	recorder := &fakeRecorder{}
	engine, _ := NewEngine(1, cards, recorder, Options{})

	if err := engine.Replay([]bool{true, false}); err != nil {
		t.Fatal(err)
	}
	if len(recorder.calls) != 0 {
		t.Error("Replay must not reach the recorder")
	}
	if engine.State() != InProgress {
		t.Errorf("state = %v, want InProgress", engine.State())
	}
	answered, correct, _ := engine.Summary()
	if answered != 2 || correct != 1 {
		t.Errorf("Summary after replay = (%d, %d), want (2, 1)", answered, correct)
	}

	prompt, ok := engine.Current()
	if !ok || prompt.Card.ID != cards[2].ID {
		t.Errorf("cursor not at third card after replay")
	}

	if err := engine.Replay([]bool{true, true, true, true}); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("over-long replay error = %v, want ErrSessionCompleted", err)
	}
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{3, 5, 60},
		{0, 5, 0},
		{5, 5, 100},
		{1, 3, 33},
		{2, 3, 67},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := Accuracy(tt.correct, tt.total); got != tt.want {
			t.Errorf("Accuracy(%d, %d) = %d, want %d", tt.correct, tt.total, got, tt.want)
		}
	}
}
