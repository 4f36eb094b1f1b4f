package services

import "github.com/tidemarkhq/ripple/backend/internal/models"

// ReactionDelta is the signed counter adjustment derived from one reaction
// state transition. Each user's transition is keyed by their own engagement
// record, so deltas from different users commute; the target's tally is then
// adjusted by one atomic increment, never a read-modify-write.
type ReactionDelta struct {
	Like    int64
	Dislike int64
}

// IsZero reports whether applying the delta would be a no-op
func (d ReactionDelta) IsZero() bool {
	return d.Like == 0 && d.Dislike == 0
}

// ComputeReactionDelta derives the counter delta for moving a (user, target)
// reaction from previous to next. Empty string means no reaction. Repeating
// the same type yields a zero delta (the idempotent no-op path); switching
// decrements the old type and increments the new one; un-reacting only
// decrements.
func ComputeReactionDelta(previous, next string) ReactionDelta {
	if previous == next {
		return ReactionDelta{}
	}
	var d ReactionDelta
	switch previous {
	case models.ReactionLike:
		d.Like--
	case models.ReactionDislike:
		d.Dislike--
	}
	switch next {
	case models.ReactionLike:
		d.Like++
	case models.ReactionDislike:
		d.Dislike++
	}
	return d
}
