package events

// FixtureConcluded é publicado quando uma partida termina e o placar final
// está disponível. Dispara a resolução das pernas pendentes no settlement-worker.
type FixtureConcluded struct {
	FixtureID   string `json:"fixture_id"`
	HomeGoals   int    `json:"home_goals"`
	AwayGoals   int    `json:"away_goals"`
	FirstScorer string `json:"first_scorer,omitempty"` // "HOME" | "AWAY" | ""
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
