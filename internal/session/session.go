package session

// Prediction is one scored candidate from the game server's ranking.
type Prediction struct {
	Item  string  `json:"item"`
	Score float64 `json:"score"`
}

// Session is the per-browser state this app keeps between requests. It is
// referenced by an opaque uuid held in a cookie; the fields live server-side.
type Session struct {
	ID string `json:"id"`

	// GameSessionID is the opaque id issued by the game server's /start.
	// Empty means no game is in progress.
	GameSessionID string `json:"game_session_id,omitempty"`

	// DomainName is the guessing category the user picked. It survives
	// ClearGame so follow-up flows (teaching, new questions) keep context.
	DomainName string `json:"domain_name,omitempty"`

	// TopPredictions caches the ranking from the most recent question fetch.
	TopPredictions []Prediction `json:"top_predictions,omitempty"`

	// LastGuess is the most recent guess shown to the user.
	LastGuess string `json:"last_guess,omitempty"`
}

// ClearGame drops the in-progress game but keeps the selected domain.
func (s *Session) ClearGame() {
	s.GameSessionID = ""
	s.TopPredictions = nil
	s.LastGuess = ""
}

// ClearAll resets the session to a blank slate.
func (s *Session) ClearAll() {
	s.ClearGame()
	s.DomainName = ""
}
