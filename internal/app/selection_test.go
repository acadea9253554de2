package app_test

import (
	"math/rand"
	"testing"
	"time"

	"stagequiz/internal/app"
	"stagequiz/internal/domain"
)

func TestBucketForOrdinal(t *testing.T) {
	cases := map[int]string{
		1:  domain.BucketEasy,
		5:  domain.BucketEasy,
		6:  domain.BucketMid,
		9:  domain.BucketMid,
		10: domain.BucketHard,
		11: domain.BucketBonus,
		42: domain.BucketBonus,
	}
	for ordinal, want := range cases {
		if got := app.BucketForOrdinal(ordinal); got != want {
			t.Errorf("BucketForOrdinal(%d) = %q, want %q", ordinal, got, want)
		}
	}
}

func TestPickQuestionFiltersByBucket(t *testing.T) {
	bank := []domain.Question{
		{ID: 1, Bucket: domain.BucketEasy},
		{ID: 2, Bucket: domain.BucketMid},
		{ID: 3, Bucket: domain.BucketHard},
	}
	rng := rand.New(rand.NewSource(1))

	q := app.PickQuestion(bank, 10, rng)
	if q == nil || q.ID != 3 {
		t.Fatalf("expected hard question for ordinal 10, got %+v", q)
	}
	if q := app.PickQuestion(bank, 11, rng); q != nil {
		t.Fatalf("expected no question for empty bonus bucket, got %+v", q)
	}
}

func TestPickQuestionDeterministicWithSeed(t *testing.T) {
	bank := []domain.Question{
		{ID: 1, Bucket: domain.BucketEasy},
		{ID: 2, Bucket: domain.BucketEasy},
		{ID: 3, Bucket: domain.BucketEasy},
	}

	a := app.PickQuestion(bank, 1, rand.New(rand.NewSource(7)))
	b := app.PickQuestion(bank, 1, rand.New(rand.NewSource(7)))
	if a == nil || b == nil || a.ID != b.ID {
		t.Fatalf("same seed should pick the same question: %+v vs %+v", a, b)
	}
}

func TestPickQuestionReturnsCopy(t *testing.T) {
	bank := []domain.Question{{ID: 1, Bucket: domain.BucketEasy, Prompt: "p"}}
	q := app.PickQuestion(bank, 1, rand.New(rand.NewSource(1)))
	q.Prompt = "mutated"
	if bank[0].Prompt != "p" {
		t.Fatalf("pick must not alias the bank entry")
	}
}

func TestRoundDuration(t *testing.T) {
	cases := []struct {
		q     *domain.Question
		want  time.Duration
		label string
	}{
		{&domain.Question{Bucket: domain.BucketEasy}, 60 * time.Second, "easy"},
		{&domain.Question{Bucket: domain.BucketMid}, 90 * time.Second, "standard"},
		{&domain.Question{Bucket: domain.BucketHard}, 120 * time.Second, "hard"},
		{&domain.Question{Bucket: domain.BucketBonus}, 120 * time.Second, "hard"},
		{&domain.Question{Bucket: "mystery"}, 75 * time.Second, ""},
		{nil, 75 * time.Second, ""},
	}
	for _, c := range cases {
		d, label := app.RoundDuration(c.q)
		if d != c.want || label != c.label {
			t.Errorf("RoundDuration(%+v) = (%v, %q), want (%v, %q)", c.q, d, label, c.want, c.label)
		}
	}
}
