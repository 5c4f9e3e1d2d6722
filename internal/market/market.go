package market

// Type é o tipo de mercado de uma perna (aposta individual do bilhete).
type Type string

const (
	MatchWinner      Type = "MATCH_WINNER"
	BothTeamsToScore Type = "BOTH_TEAMS_TO_SCORE"
	GoalsOverUnder   Type = "GOALS_OVER_UNDER"
	FirstTeamToScore Type = "FIRST_TEAM_TO_SCORE"
	DoubleChance     Type = "DOUBLE_CHANCE"
	ScorePrediction  Type = "SCORE_PREDICTION"
)

// Outcome é o resultado da resolução de uma perna.
type Outcome string

const (
	Won  Outcome = "WON"
	Lost Outcome = "LOST"
	// Void cobre mercado desconhecido, seleção inválida ou fato derivado ausente.
	// Política: nunca adivinhar resultado; perna vai para VOID.
	Void Outcome = "VOID"
)

// Score é o placar final de uma partida mais fatos derivados opcionais.
type Score struct {
	HomeGoals   int
	AwayGoals   int
	FirstScorer string // "HOME" | "AWAY" | "" quando indisponível
}
