// Package deck maintains the presentation order of cards in a set.
//
// Each card carries an integer DisplayOrder key; listing a set ascending by
// key is the user's intended order. New cards go to the end with a fixed gap
// above the current maximum. Moves and drag-and-drop reorders recompute every
// key as (position+1)*Gap instead of squeezing fractional keys between
// neighbors, so keys stay unique round integers no matter how many times a
// user shuffles cards around. The extra writes are cheap at deck sizes;
// applying them all-or-nothing is the caller's job (one store transaction).
package deck

import "errors"

// Gap is the spacing between consecutive order keys.
const Gap = 1000

var (
	// ErrUnknownCard is returned when a move names a card not in the deck.
	ErrUnknownCard = errors.New("card is not in the deck")
	// ErrIndexOutOfRange is returned when a move targets a position outside
	// the deck.
	ErrIndexOutOfRange = errors.New("target index is out of range")
	// ErrDuplicateCard is returned when an ordering lists a card twice.
	ErrDuplicateCard = errors.New("ordering lists a card more than once")
)

// KeyedID pairs a card id with its recomputed order key.
type KeyedID struct {
	ID  string
	Key int
}

// AppendKey returns the key for a card appended after the card holding
// maxKey. Pass 0 for an empty deck; the first key is Gap.
func AppendKey(maxKey int) int {
	return maxKey + Gap
}

// Recompute assigns fresh keys (i+1)*Gap to orderedIDs, which must be the
// full intended presentation order of the deck. The result is strictly
// increasing and collision-free by construction.
func Recompute(orderedIDs []string) ([]KeyedID, error) {
	seen := make(map[string]struct{}, len(orderedIDs))
	keyed := make([]KeyedID, len(orderedIDs))
	for i, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return nil, ErrDuplicateCard
		}
		seen[id] = struct{}{}
		keyed[i] = KeyedID{ID: id, Key: (i + 1) * Gap}
	}
	return keyed, nil
}

// MoveTo removes id from its current position in orderedIDs, reinserts it at
// targetIndex, and recomputes all keys for the resulting order.
func MoveTo(orderedIDs []string, id string, targetIndex int) ([]KeyedID, error) {
	if targetIndex < 0 || targetIndex >= len(orderedIDs) {
		return nil, ErrIndexOutOfRange
	}
	from := -1
	for i, existing := range orderedIDs {
		if existing == id {
			from = i
			break
		}
	}
	if from == -1 {
		return nil, ErrUnknownCard
	}

	reordered := make([]string, 0, len(orderedIDs))
	reordered = append(reordered, orderedIDs[:from]...)
	reordered = append(reordered, orderedIDs[from+1:]...)
	reordered = append(reordered[:targetIndex], append([]string{id}, reordered[targetIndex:]...)...)

	return Recompute(reordered)
}

// CheckKeys reports whether keys, taken in presentation order, are pairwise
// distinct and strictly increasing.
func CheckKeys(keys []int) bool {
	for i := 1; i < len(keys); i++ {
		if keys[i] <= keys[i-1] {
			return false
		}
	}
	return true
}
