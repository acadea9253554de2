package app

import (
	"math/rand"
	"sync"
	"time"

	"stagequiz/internal/domain"
)

// DefaultTotalQuestions is the number of rounds in a standard game:
// ten regular questions plus one bonus question.
const DefaultTotalQuestions = 11

// DefaultPlayers is the fixed five-slot roster used when none is configured.
var DefaultPlayers = []string{"Player 1", "Player 2", "Player 3", "Player 4", "Player 5"}

// PatchSink receives every local state mutation as a partial-state patch.
// The replication layer implements it; a nil sink runs the session
// standalone.
type PatchSink interface {
	Broadcast(patch domain.Patch)
}

// Options configures a Session. Zero values fall back to defaults; Rand
// is the selection seam tests use to pin question picks.
type Options struct {
	Players        []string
	TotalQuestions int
	Rand           *rand.Rand
	Sink           PatchSink
}

// Session owns the entire mutable game state for one process instance and
// is its single source of truth. All operations are synchronous; rejected
// operations are silent no-ops, optionally leaving a status message, so
// an operator mis-keystroke can never crash a live game.
type Session struct {
	players        []string
	totalQuestions int
	rng            *rand.Rand
	sink           PatchSink

	mu           sync.RWMutex
	screen       domain.Screen
	questionIdx  int
	active       []bool
	answers      []string
	hintShown    bool
	hintUser     int
	hintMessage  string
	hintUsed     []bool
	answerChange []bool
	scores       []int
	prevScores   []*int
	lastMessage  string
	questions    []domain.Question
	current      *domain.Question
	subscribers  map[chan domain.Snapshot]struct{}
}

func NewSession(opts Options) *Session {
	players := opts.Players
	if len(players) == 0 {
		players = DefaultPlayers
	}
	total := opts.TotalQuestions
	if total <= 0 {
		total = DefaultTotalQuestions
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	n := len(players)
	return &Session{
		players:        append([]string(nil), players...),
		totalQuestions: total,
		rng:            rng,
		sink:           opts.Sink,
		screen:         domain.ScreenTitle,
		hintUser:       domain.NoHintUser,
		active:         make([]bool, n),
		answers:        make([]string, n),
		hintUsed:       make([]bool, n),
		answerChange:   trues(n),
		scores:         make([]int, n),
		prevScores:     make([]*int, n),
		subscribers:    make(map[chan domain.Snapshot]struct{}),
	}
}

// Advance moves the session to the next screen, applying the transition's
// side effects atomically. Scoring runs exactly once, inside the
// QUIZ->JUDGE transition.
func (s *Session) Advance() {
	s.mu.Lock()
	var patch domain.Patch

	switch s.screen {
	case domain.ScreenTitle:
		s.screen = domain.ScreenSetup
		s.resetGameLocked()
		patch = s.fullPatchLocked()
	case domain.ScreenSetup:
		s.screen = domain.ScreenQuiz
		s.questionIdx = 1
		s.resetRoundLocked()
		s.lastMessage = ""
		s.current = PickQuestion(s.questions, s.questionIdx, s.rng)
		patch = s.roundPatchLocked()
		msg := ""
		patch.LastMessage = &msg
	case domain.ScreenQuiz:
		s.screen = domain.ScreenJudge
		prev, next, _ := UpdateScores(s.scores, s.answers, s.current, s.active)
		s.prevScores = intPtrs(prev)
		s.scores = next
		patch.Screen = screenPtr(s.screen)
		patch.Scores = append([]int(nil), s.scores...)
		patch.PrevScores = append([]*int(nil), s.prevScores...)
	case domain.ScreenJudge:
		s.screen = domain.ScreenScores
		patch.Screen = screenPtr(s.screen)
	case domain.ScreenScores:
		if s.questionIdx >= s.totalQuestions {
			s.screen = domain.ScreenResult
			patch.Screen = screenPtr(s.screen)
		} else {
			s.screen = domain.ScreenQuiz
			s.questionIdx++
			s.resetRoundLocked()
			s.current = PickQuestion(s.questions, s.questionIdx, s.rng)
			patch = s.roundPatchLocked()
		}
	case domain.ScreenResult:
		s.screen = domain.ScreenTitle
		s.questionIdx = 0
		s.resetGameLocked()
		s.current = nil
		patch = s.fullPatchLocked()
	default:
		s.screen = domain.ScreenTitle
		patch.Screen = screenPtr(s.screen)
	}

	s.notifyLocked()
	s.mu.Unlock()
	s.publish(patch)
}

// Reset is the always-available escape hatch: unconditional return to
// TITLE with a full state reset, from any screen.
func (s *Session) Reset() {
	s.mu.Lock()
	s.screen = domain.ScreenTitle
	s.questionIdx = 0
	s.resetGameLocked()
	s.current = nil
	patch := s.fullPatchLocked()
	s.notifyLocked()
	s.mu.Unlock()
	s.publish(patch)
}

// SetPlayerAnswer records an answer for a roster slot. It is a silent
// no-op outside QUIZ, for inactive players, and for any player locked out
// by a visible hint (everyone but the hint requester, unless separately
// re-granted).
func (s *Session) SetPlayerAnswer(player int, option string) {
	s.mu.Lock()
	if player < 0 || player >= len(s.players) ||
		s.screen != domain.ScreenQuiz ||
		!s.active[player] ||
		(s.hintShown && s.hintUser != domain.NoHintUser && !s.answerChange[player]) {
		s.mu.Unlock()
		return
	}
	s.answers[player] = option
	patch := domain.Patch{Answers: append([]string(nil), s.answers...)}
	s.notifyLocked()
	s.mu.Unlock()
	s.publish(patch)
}

// MarkPlayerActive flags a roster slot as joined. Idempotent; never
// deactivates.
func (s *Session) MarkPlayerActive(player int) {
	s.mu.Lock()
	if player < 0 || player >= len(s.players) || s.active[player] {
		s.mu.Unlock()
		return
	}
	s.active[player] = true
	patch := domain.Patch{ActivePlayers: append([]bool(nil), s.active...)}
	s.notifyLocked()
	s.mu.Unlock()
	s.publish(patch)
}

// RequestHint reveals the current question's hint on behalf of a player.
// Failures only set the status message. The very first reveal of a
// question locks every other player's answer-change permission; later
// successful requests re-grant only the new requester.
func (s *Session) RequestHint(player int) {
	s.mu.Lock()
	if player < 0 || player >= len(s.players) {
		s.mu.Unlock()
		return
	}
	name := s.players[player]
	trying := name + " tried to use a hint, but "

	var reject string
	switch {
	case s.screen != domain.ScreenQuiz:
		reject = trying + "hints cannot be used on this screen"
	case !s.active[player]:
		reject = trying + "players who have not joined cannot use hints"
	case s.hintUsed[player]:
		reject = trying + name + " has already used their hint"
	case s.questionIdx >= s.totalQuestions:
		reject = trying + "hints are not allowed on the final question"
	}
	if reject != "" {
		s.lastMessage = reject
		patch := domain.Patch{LastMessage: &reject}
		s.notifyLocked()
		s.mu.Unlock()
		s.publish(patch)
		return
	}

	if !s.hintShown {
		s.answerChange = make([]bool, len(s.players))
	}
	s.answerChange[player] = true
	s.hintUsed[player] = true
	s.hintShown = true
	s.hintUser = player

	msg := name + " used a hint!"
	s.hintMessage = msg
	if s.current != nil && s.current.Hint != "" {
		s.hintMessage = msg + " " + s.current.Hint
	}
	s.lastMessage = msg

	patch := domain.Patch{
		HintShown:    boolPtr(true),
		HintUser:     intPtr(player),
		HintMessage:  strPtr(s.hintMessage),
		HintUsed:     append([]bool(nil), s.hintUsed...),
		AnswerChange: append([]bool(nil), s.answerChange...),
		LastMessage:  &msg,
	}
	s.notifyLocked()
	s.mu.Unlock()
	s.publish(patch)
}

// UpdateLastMessage sets the shared free-text status line.
func (s *Session) UpdateLastMessage(m string) {
	s.mu.Lock()
	s.lastMessage = m
	patch := domain.Patch{LastMessage: &m}
	s.notifyLocked()
	s.mu.Unlock()
	s.publish(patch)
}

// LoadQuestions replaces the question bank. A question for the current
// ordinal (or ordinal 1 before game start) is selected immediately so the
// views never point at a question from the old bank.
func (s *Session) LoadQuestions(bank []domain.Question) {
	s.mu.Lock()
	s.questions = append([]domain.Question(nil), bank...)
	ordinal := s.questionIdx
	if ordinal == 0 {
		ordinal = 1
	}
	s.current = PickQuestion(s.questions, ordinal, s.rng)
	patch := domain.Patch{Questions: append([]domain.Question(nil), s.questions...)}
	if s.current != nil {
		q := *s.current
		patch.CurrentQuestion = &q
	}
	s.notifyLocked()
	s.mu.Unlock()
	s.publish(patch)
}

// ApplyPatch is the single entry point for remote mutations. Only fields
// present in the patch are merged (last write wins per field); roster-
// indexed slices are renormalized to the roster size so the one-entry-
// per-slot invariant survives a malformed peer. Applied patches are never
// re-broadcast.
func (s *Session) ApplyPatch(p domain.Patch) {
	s.mu.Lock()
	n := len(s.players)
	if p.Screen != nil {
		s.screen = *p.Screen
	}
	if p.QuestionIndex != nil {
		s.questionIdx = *p.QuestionIndex
	}
	if p.Answers != nil {
		s.answers = fitStrings(p.Answers, n)
	}
	if p.ActivePlayers != nil {
		s.active = fitBools(p.ActivePlayers, n)
	}
	if p.HintShown != nil {
		s.hintShown = *p.HintShown
	}
	if p.HintUser != nil {
		s.hintUser = *p.HintUser
	}
	if p.HintMessage != nil {
		s.hintMessage = *p.HintMessage
	}
	if p.HintUsed != nil {
		s.hintUsed = fitBools(p.HintUsed, n)
	}
	if p.AnswerChange != nil {
		s.answerChange = fitBools(p.AnswerChange, n)
	}
	if p.Scores != nil {
		s.scores = fitInts(p.Scores, n)
	}
	if p.PrevScores != nil {
		s.prevScores = fitIntPtrs(p.PrevScores, n)
	}
	if p.LastMessage != nil {
		s.lastMessage = *p.LastMessage
	}
	if p.Questions != nil {
		s.questions = append([]domain.Question(nil), p.Questions...)
	}
	if p.CurrentQuestion != nil {
		q := *p.CurrentQuestion
		s.current = &q
	}
	s.notifyLocked()
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current state for rendering.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// RoundDuration returns the advisory countdown length and difficulty
// label for the currently selected question.
func (s *Session) RoundDuration() (time.Duration, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RoundDuration(s.current)
}

// Subscribe returns a channel receiving a state snapshot after every
// change. The caller must invoke the returned cancel function.
func (s *Session) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		Screen:         s.screen,
		QuestionIndex:  s.questionIdx,
		TotalQuestions: s.totalQuestions,
		Players:        append([]string(nil), s.players...),
		ActivePlayers:  append([]bool(nil), s.active...),
		Answers:        append([]string(nil), s.answers...),
		HintShown:      s.hintShown,
		HintUser:       s.hintUser,
		HintMessage:    s.hintMessage,
		HintUsed:       append([]bool(nil), s.hintUsed...),
		AnswerChange:   append([]bool(nil), s.answerChange...),
		Scores:         append([]int(nil), s.scores...),
		PrevScores:     append([]*int(nil), s.prevScores...),
		LastMessage:    s.lastMessage,
	}
	if s.current != nil {
		q := *s.current
		snap.CurrentQuestion = &q
	}
	d, label := RoundDuration(s.current)
	snap.RoundSeconds = int(d / time.Second)
	snap.RoundLabel = label

	switch s.screen {
	case domain.ScreenJudge, domain.ScreenScores:
		snap.ScoreLines = FormatScoreLines(s.players, s.active, s.prevScores, s.scores)
	case domain.ScreenResult:
		for i, name := range s.players {
			if s.active[i] {
				snap.PrizeLines = append(snap.PrizeLines, PrizeMessage(name, s.scores[i]))
			}
		}
	}
	return snap
}

// notifyLocked fans the current snapshot out to local view subscribers,
// dropping a stale update rather than blocking on a slow consumer.
func (s *Session) notifyLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) publish(patch domain.Patch) {
	if s.sink != nil {
		s.sink.Broadcast(patch)
	}
}

// resetGameLocked clears all per-game state: who joined, answers, hints,
// scores, status line.
func (s *Session) resetGameLocked() {
	n := len(s.players)
	s.active = make([]bool, n)
	s.answers = make([]string, n)
	s.hintUsed = make([]bool, n)
	s.answerChange = trues(n)
	s.scores = make([]int, n)
	s.prevScores = make([]*int, n)
	s.hintShown = false
	s.hintUser = domain.NoHintUser
	s.hintMessage = ""
	s.lastMessage = ""
}

// resetRoundLocked clears per-question state on entry to QUIZ.
func (s *Session) resetRoundLocked() {
	n := len(s.players)
	s.answers = make([]string, n)
	s.answerChange = trues(n)
	s.hintShown = false
	s.hintUser = domain.NoHintUser
	s.hintMessage = ""
}

// roundPatchLocked captures the fields mutated when entering QUIZ.
func (s *Session) roundPatchLocked() domain.Patch {
	patch := domain.Patch{
		Screen:        screenPtr(s.screen),
		QuestionIndex: intPtr(s.questionIdx),
		Answers:       append([]string(nil), s.answers...),
		AnswerChange:  append([]bool(nil), s.answerChange...),
		HintShown:     boolPtr(s.hintShown),
		HintUser:      intPtr(s.hintUser),
		HintMessage:   strPtr(s.hintMessage),
	}
	if s.current != nil {
		q := *s.current
		patch.CurrentQuestion = &q
	}
	return patch
}

// fullPatchLocked captures everything except the bank, for the big reset
// transitions.
func (s *Session) fullPatchLocked() domain.Patch {
	return domain.Patch{
		Screen:        screenPtr(s.screen),
		QuestionIndex: intPtr(s.questionIdx),
		Answers:       append([]string(nil), s.answers...),
		ActivePlayers: append([]bool(nil), s.active...),
		HintShown:     boolPtr(s.hintShown),
		HintUser:      intPtr(s.hintUser),
		HintMessage:   strPtr(s.hintMessage),
		HintUsed:      append([]bool(nil), s.hintUsed...),
		AnswerChange:  append([]bool(nil), s.answerChange...),
		Scores:        append([]int(nil), s.scores...),
		PrevScores:    append([]*int(nil), s.prevScores...),
		LastMessage:   strPtr(s.lastMessage),
	}
}

func trues(n int) []bool {
	b := make([]bool, n)
	for i := range b {
		b[i] = true
	}
	return b
}

func intPtrs(vals []int) []*int {
	out := make([]*int, len(vals))
	for i := range vals {
		v := vals[i]
		out[i] = &v
	}
	return out
}

func fitStrings(in []string, n int) []string {
	out := make([]string, n)
	copy(out, in)
	return out
}

func fitBools(in []bool, n int) []bool {
	out := make([]bool, n)
	copy(out, in)
	return out
}

func fitInts(in []int, n int) []int {
	out := make([]int, n)
	copy(out, in)
	return out
}

func fitIntPtrs(in []*int, n int) []*int {
	out := make([]*int, n)
	copy(out, in)
	return out
}

func screenPtr(sc domain.Screen) *domain.Screen { return &sc }
func strPtr(v string) *string                   { return &v }
func boolPtr(b bool) *bool                      { return &b }
func intPtr(i int) *int                         { return &i }
