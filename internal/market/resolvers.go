package market

import (
	"strconv"
	"strings"
)

// Resolver recebe a seleção da perna e o placar final e devolve o resultado.
// Funções puras: sem acesso a banco, carteira ou relógio.
type Resolver func(selection string, score Score) Outcome

// registry mapeia tipo de mercado para sua regra de resolução.
// Mercado sem entrada aqui resolve como VOID em Resolve.
var registry = map[Type]Resolver{
	MatchWinner:      resolveMatchWinner,
	BothTeamsToScore: resolveBothTeamsToScore,
	GoalsOverUnder:   resolveGoalsOverUnder,
	FirstTeamToScore: resolveFirstTeamToScore,
	DoubleChance:     resolveDoubleChance,
	ScorePrediction:  resolveScorePrediction,
}

// Resolve aplica a regra do mercado informado.
// Tipo desconhecido ou seleção fora da gramática nunca geram erro: VOID.
func Resolve(t Type, selection string, score Score) Outcome {
	r, ok := registry[t]
	if !ok {
		return Void
	}
	return r(selection, score)
}

func resolveMatchWinner(selection string, s Score) Outcome {
	switch strings.ToUpper(strings.TrimSpace(selection)) {
	case "HOME":
		return wonIf(s.HomeGoals > s.AwayGoals)
	case "AWAY":
		return wonIf(s.AwayGoals > s.HomeGoals)
	case "DRAW":
		return wonIf(s.HomeGoals == s.AwayGoals)
	}
	return Void
}

func resolveBothTeamsToScore(selection string, s Score) Outcome {
	both := s.HomeGoals > 0 && s.AwayGoals > 0
	switch strings.ToUpper(strings.TrimSpace(selection)) {
	case "YES":
		return wonIf(both)
	case "NO":
		return wonIf(!both)
	}
	return Void
}

// resolveGoalsOverUnder espera seleção "OVER x.x" ou "UNDER x.x".
// Comparação estrita: total igual ao limiar perde nos dois sentidos.
func resolveGoalsOverUnder(selection string, s Score) Outcome {
	parts := strings.Fields(strings.TrimSpace(selection))
	if len(parts) != 2 {
		return Void
	}
	threshold, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Void
	}
	total := float64(s.HomeGoals + s.AwayGoals)
	switch strings.ToUpper(parts[0]) {
	case "OVER":
		return wonIf(total > threshold)
	case "UNDER":
		return wonIf(total < threshold)
	}
	return Void
}

// resolveFirstTeamToScore depende do fato derivado "quem marcou primeiro".
// Sem o fato (jogo 0x0 ou provedor não informou) a perna é anulada.
func resolveFirstTeamToScore(selection string, s Score) Outcome {
	if s.FirstScorer == "" {
		return Void
	}
	sel := strings.ToUpper(strings.TrimSpace(selection))
	if sel != "HOME" && sel != "AWAY" {
		return Void
	}
	return wonIf(sel == strings.ToUpper(s.FirstScorer))
}

func resolveDoubleChance(selection string, s Score) Outcome {
	switch strings.ToUpper(strings.TrimSpace(selection)) {
	case "HOME_OR_DRAW", "X1", "1X":
		return wonIf(s.HomeGoals >= s.AwayGoals)
	case "AWAY_OR_DRAW", "X2", "2X":
		return wonIf(s.AwayGoals >= s.HomeGoals)
	case "HOME_OR_AWAY", "12":
		return wonIf(s.HomeGoals != s.AwayGoals)
	}
	return Void
}

// resolveScorePrediction espera "h-a", ex: "2-1". Só ganha no placar exato.
func resolveScorePrediction(selection string, s Score) Outcome {
	parts := strings.Split(strings.TrimSpace(selection), "-")
	if len(parts) != 2 {
		return Void
	}
	home, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Void
	}
	away, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Void
	}
	return wonIf(home == s.HomeGoals && away == s.AwayGoals)
}

func wonIf(cond bool) Outcome {
	if cond {
		return Won
	}
	return Lost
}
