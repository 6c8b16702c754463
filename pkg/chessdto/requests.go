package chessdto

type StartRequest struct {
	Difficulty string `json:"difficulty"`
}

type StartResponse struct {
	State   *SessionState `json:"state"`
	Resumed bool          `json:"resumed"`
}

type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Move accepts "e2e4" as an alternative to From/To.
	Move string `json:"move,omitempty"`
}

type DifficultyRequest struct {
	Difficulty string `json:"difficulty"`
}

type LegalMovesResponse struct {
	Square string   `json:"square"`
	Moves  []string `json:"moves"`
}

type HistoryResponse struct {
	Games []*TutorGame `json:"games"`
	Lines []string     `json:"lines"`
}

// Event is a frame on the live play socket.
type Event struct {
	Type    string        `json:"type"`
	State   *SessionState `json:"state,omitempty"`
	Summary *MoveSummary  `json:"summary,omitempty"`
	Hint    *Hint         `json:"hint,omitempty"`
	Error   *DomainError  `json:"error,omitempty"`
}

// Command is a frame sent by the client on the live play socket.
type Command struct {
	Type       string `json:"type"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Move       string `json:"move,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

const (
	EventState    = "state"
	EventThinking = "thinking"
	EventMove     = "move"
	EventHint     = "hint"
	EventError    = "error"

	CommandMove       = "move"
	CommandResign     = "resign"
	CommandHint       = "hint"
	CommandDifficulty = "difficulty"
	CommandState      = "state"
)
