package domain

// Screen identifies one phase of the fixed game-round lifecycle.
type Screen string

const (
	ScreenTitle  Screen = "TITLE"
	ScreenSetup  Screen = "SETUP"
	ScreenQuiz   Screen = "QUIZ"
	ScreenJudge  Screen = "JUDGE"
	ScreenScores Screen = "SCORES"
	ScreenResult Screen = "RESULT"
)

// Difficulty buckets partition the question bank. A question ordinal maps
// to exactly one bucket (see app.BucketForOrdinal).
const (
	BucketEasy  = "easy-tier"
	BucketMid   = "mid-tier"
	BucketHard  = "hard-tier"
	BucketBonus = "bonus-tier"
)

// NoHintUser marks the absence of a hint-requesting player.
const NoHintUser = -1

// Question is one validated question-bank record. Answer is the 1-based
// ordinal of the correct option (1-4); 0 means no correct answer is set.
type Question struct {
	ID          int      `json:"id"`
	Prompt      string   `json:"prompt"`
	Answer      int      `json:"answer"`
	Hint        string   `json:"hint"`
	Options     []string `json:"options"`
	Bucket      string   `json:"bucket"`
	Explanation string   `json:"explanation"`
	Links       []string `json:"links"`
	Author      string   `json:"author"`
}

// Snapshot is a read-only copy of the session state handed to views.
// Answers always has one entry per roster slot; "" means not submitted.
type Snapshot struct {
	Screen          Screen    `json:"screen"`
	QuestionIndex   int       `json:"questionIndex"`
	TotalQuestions  int       `json:"totalQuestions"`
	Players         []string  `json:"players"`
	ActivePlayers   []bool    `json:"activePlayers"`
	Answers         []string  `json:"answers"`
	HintShown       bool      `json:"hintShown"`
	HintUser        int       `json:"hintUser"`
	HintMessage     string    `json:"hintMessage"`
	HintUsed        []bool    `json:"hintUsed"`
	AnswerChange    []bool    `json:"answerChange"`
	Scores          []int     `json:"scores"`
	PrevScores      []*int    `json:"prevScores"`
	LastMessage     string    `json:"lastMessage"`
	CurrentQuestion *Question `json:"currentQuestion"`
	RoundSeconds    int       `json:"roundSeconds"`
	RoundLabel      string    `json:"roundLabel"`
	ScoreLines      []string  `json:"scoreLines,omitempty"`
	PrizeLines      []string  `json:"prizeLines,omitempty"`
}

// Patch is a partial session-state update used for cross-instance
// replication. Every field is optional; merge is field-by-field, and a
// field left nil is not touched on the receiving side.
type Patch struct {
	Screen          *Screen    `json:"screen,omitempty"`
	QuestionIndex   *int       `json:"questionIndex,omitempty"`
	Answers         []string   `json:"answers,omitempty"`
	ActivePlayers   []bool     `json:"activePlayers,omitempty"`
	HintShown       *bool      `json:"hintShown,omitempty"`
	HintUser        *int       `json:"hintUser,omitempty"`
	HintMessage     *string    `json:"hintMessage,omitempty"`
	HintUsed        []bool     `json:"hintUsed,omitempty"`
	AnswerChange    []bool     `json:"answerChange,omitempty"`
	Scores          []int      `json:"scores,omitempty"`
	PrevScores      []*int     `json:"prevScores,omitempty"`
	LastMessage     *string    `json:"lastMessage,omitempty"`
	Questions       []Question `json:"questions,omitempty"`
	CurrentQuestion *Question  `json:"currentQuestion,omitempty"`
}
