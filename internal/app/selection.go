package app

import (
	"math/rand"
	"time"

	"stagequiz/internal/domain"
)

// DefaultRoundDuration applies when no question is selected or the
// question's bucket is unknown.
const DefaultRoundDuration = 75 * time.Second

// BucketForOrdinal maps a 1-based question ordinal to its difficulty
// bucket: 1-5 easy, 6-9 mid, 10 hard, anything beyond 10 bonus.
func BucketForOrdinal(ordinal int) string {
	switch {
	case ordinal <= 5:
		return domain.BucketEasy
	case ordinal <= 9:
		return domain.BucketMid
	case ordinal <= 10:
		return domain.BucketHard
	default:
		return domain.BucketBonus
	}
}

// PickQuestion selects one question for the given ordinal, uniformly at
// random from the bank entries in the matching bucket. It returns nil
// when the bucket has no questions; callers must treat that as an
// explicit "no question" state. The RNG is injected so tests can pin a
// seed and assert a specific pick.
func PickQuestion(bank []domain.Question, ordinal int, rng *rand.Rand) *domain.Question {
	bucket := BucketForOrdinal(ordinal)
	pool := make([]domain.Question, 0, len(bank))
	for _, q := range bank {
		if q.Bucket == bucket {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	q := pool[rng.Intn(len(pool))]
	return &q
}

// RoundDuration derives the countdown length and difficulty label for a
// question's bucket. The countdown itself is advisory, per-instance
// state and is never replicated.
func RoundDuration(q *domain.Question) (time.Duration, string) {
	if q == nil {
		return DefaultRoundDuration, ""
	}
	switch q.Bucket {
	case domain.BucketEasy:
		return 60 * time.Second, "easy"
	case domain.BucketMid:
		return 90 * time.Second, "standard"
	case domain.BucketHard, domain.BucketBonus:
		return 120 * time.Second, "hard"
	default:
		return DefaultRoundDuration, ""
	}
}
