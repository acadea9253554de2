// Package input normalizes raw device lines (serial button boxes,
// keyboard macros) into core commands. Adapters reduce whatever their
// hardware emits to one of these commands before touching the session.
package input

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind enumerates the normalized commands a device can produce.
type Kind int

const (
	KindAdvance Kind = iota + 1
	KindReset
	KindMarkActive
	KindSubmitAnswer
	KindRequestHint
)

// Command is a parsed input line. Player is a 0-based roster index;
// Option is an upper-case letter A-D for KindSubmitAnswer.
type Command struct {
	Kind   Kind
	Player int
	Option string
}

// answerRe accepts the line protocol "P<n>:<A-D>" plus tolerant
// variants: "player 3 c", "2-B", "P4,d".
var answerRe = regexp.MustCompile(`(?i)^(?:P|player)?\s*(\d+)\s*[:,\-\s]?\s*([A-D])$`)

var playerArgRe = regexp.MustCompile(`(?i)^(?:join|j)\s*(\d+)$`)
var hintArgRe = regexp.MustCompile(`(?i)^(?:hint|h)\s*(\d+)$`)

// ParseLine turns one raw line into a Command. The boolean is false for
// anything unrecognized; callers drop such lines silently, mirroring how
// the rest of the core treats bad input.
func ParseLine(raw string) (Command, bool) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Command{}, false
	}

	switch strings.ToLower(line) {
	case "next", "advance":
		return Command{Kind: KindAdvance}, true
	case "reset":
		return Command{Kind: KindReset}, true
	}

	if m := playerArgRe.FindStringSubmatch(line); m != nil {
		if idx, ok := playerIndex(m[1]); ok {
			return Command{Kind: KindMarkActive, Player: idx}, true
		}
		return Command{}, false
	}
	if m := hintArgRe.FindStringSubmatch(line); m != nil {
		if idx, ok := playerIndex(m[1]); ok {
			return Command{Kind: KindRequestHint, Player: idx}, true
		}
		return Command{}, false
	}
	if m := answerRe.FindStringSubmatch(line); m != nil {
		if idx, ok := playerIndex(m[1]); ok {
			return Command{Kind: KindSubmitAnswer, Player: idx, Option: strings.ToUpper(m[2])}, true
		}
		return Command{}, false
	}
	return Command{}, false
}

// Normalize rewrites an answer line into the canonical "P<n>:<X>" form,
// the accepted wire format for line-based devices.
func Normalize(raw string) (string, bool) {
	cmd, ok := ParseLine(raw)
	if !ok || cmd.Kind != KindSubmitAnswer {
		return "", false
	}
	return fmt.Sprintf("P%d:%s", cmd.Player+1, cmd.Option), true
}

// playerIndex converts a 1-based wire player number to a roster index.
func playerIndex(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}
