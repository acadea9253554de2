package app

import (
	"fmt"
	"strconv"
	"strings"

	"stagequiz/internal/domain"
)

// OptionOrdinal converts a submitted option to its 1-based ordinal.
// Letters A-D map to 1-4; a value that already looks numeric is accepted
// as-is when in 1..4. Anything else (including "") yields 0, meaning
// "no match".
func OptionOrdinal(opt string) int {
	letter := strings.ToUpper(strings.TrimSpace(opt))
	switch letter {
	case "A":
		return 1
	case "B":
		return 2
	case "C":
		return 3
	case "D":
		return 4
	}
	if n, err := strconv.Atoi(letter); err == nil && n >= 1 && n <= 4 {
		return n
	}
	return 0
}

// UpdateScores computes the next scores from the submitted answers.
// prevCopy is a defensive snapshot taken before any mutation; changed
// lists the indexes whose scores moved. Every active player whose answer
// ordinal equals the question's correct ordinal gains one point; there is
// no partial credit and no penalty. The caller must invoke this exactly
// once per QUIZ->JUDGE transition: a second call on the same inputs
// double-awards.
func UpdateScores(prev []int, answers []string, q *domain.Question, active []bool) (prevCopy, next []int, changed []int) {
	prevCopy = append([]int(nil), prev...)
	next = append([]int(nil), prev...)

	if q == nil || q.Answer < 1 || q.Answer > 4 {
		return prevCopy, next, nil
	}

	for i := range next {
		if i >= len(active) || !active[i] {
			continue
		}
		ans := ""
		if i < len(answers) {
			ans = answers[i]
		}
		if ord := OptionOrdinal(ans); ord != 0 && ord == q.Answer {
			next[i]++
			changed = append(changed, i)
		}
	}
	return prevCopy, next, changed
}

// PrizeMessage maps a final score to the result-screen prize line.
// Boundaries: 10 and above wins the top prize, 6-9 the mid prize,
// 5 and below the consolation prize.
func PrizeMessage(name string, score int) string {
	switch {
	case score >= 10:
		return fmt.Sprintf("%s wins the grand prize!", name)
	case score > 5:
		return fmt.Sprintf("%s wins the runner-up prize!", name)
	default:
		return fmt.Sprintf("%s receives the consolation prize.", name)
	}
}

// FormatScoreLines renders per-player "before -> after" lines for the
// judge screen. Inactive players are skipped; players whose score did not
// move are shown without the arrow.
func FormatScoreLines(players []string, active []bool, prev []*int, next []int) []string {
	out := make([]string, 0, len(players))
	for i, name := range players {
		if i >= len(active) || !active[i] {
			continue
		}
		after := 0
		if i < len(next) {
			after = next[i]
		}
		if i < len(prev) && prev[i] != nil && *prev[i] != after {
			out = append(out, fmt.Sprintf("%s: %d pts -> %d pts", name, *prev[i], after))
		} else {
			out = append(out, fmt.Sprintf("%s: %d pts", name, after))
		}
	}
	return out
}

// AllActiveAnswered reports whether every active player has submitted an
// answer. Operator UIs use this to warn before revealing a hint, since
// the hint lock prevents everyone but the requester from changing theirs.
func AllActiveAnswered(answers []string, active []bool) bool {
	for i, a := range active {
		if !a {
			continue
		}
		if i >= len(answers) || answers[i] == "" {
			return false
		}
	}
	return true
}
