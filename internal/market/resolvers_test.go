package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveMatchWinner(t *testing.T) {
	score := Score{HomeGoals: 2, AwayGoals: 1}

	tests := []struct {
		selection string
		want      Outcome
	}{
		{"HOME", Won},
		{"home", Won},
		{"AWAY", Lost},
		{"DRAW", Lost},
		{"BANANA", Void},
		{"", Void},
	}
	for _, tt := range tests {
		t.Run(tt.selection, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(MatchWinner, tt.selection, score))
		})
	}

	assert.Equal(t, Won, Resolve(MatchWinner, "DRAW", Score{HomeGoals: 1, AwayGoals: 1}))
	assert.Equal(t, Won, Resolve(MatchWinner, "AWAY", Score{HomeGoals: 0, AwayGoals: 3}))
}

func TestResolveBothTeamsToScore(t *testing.T) {
	both := Score{HomeGoals: 1, AwayGoals: 2}
	oneSide := Score{HomeGoals: 3, AwayGoals: 0}

	assert.Equal(t, Won, Resolve(BothTeamsToScore, "Yes", both))
	assert.Equal(t, Lost, Resolve(BothTeamsToScore, "No", both))
	assert.Equal(t, Lost, Resolve(BothTeamsToScore, "Yes", oneSide))
	assert.Equal(t, Won, Resolve(BothTeamsToScore, "No", oneSide))
	assert.Equal(t, Void, Resolve(BothTeamsToScore, "maybe", both))
}

func TestResolveGoalsOverUnder(t *testing.T) {
	tests := []struct {
		name      string
		selection string
		home      int
		away      int
		want      Outcome
	}{
		{"over wins above threshold", "OVER 2.5", 2, 1, Won},
		{"over loses below threshold", "OVER 2.5", 1, 1, Lost},
		{"under wins below threshold", "UNDER 2.5", 1, 1, Won},
		{"under loses above threshold", "UNDER 2.5", 2, 1, Lost},
		// limiar inteiro: total exatamente igual perde nos dois sentidos
		{"over loses at exact threshold", "OVER 2", 1, 1, Lost},
		{"under loses at exact threshold", "UNDER 2", 1, 1, Lost},
		{"lowercase accepted", "over 0.5", 1, 0, Won},
		{"bad threshold", "OVER dois", 1, 1, Void},
		{"missing threshold", "OVER", 1, 1, Void},
		{"garbage", "2.5 OVER UNDER", 1, 1, Void},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(GoalsOverUnder, tt.selection, Score{HomeGoals: tt.home, AwayGoals: tt.away})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveFirstTeamToScore(t *testing.T) {
	withFact := Score{HomeGoals: 2, AwayGoals: 1, FirstScorer: "AWAY"}
	noFact := Score{HomeGoals: 2, AwayGoals: 1}

	assert.Equal(t, Won, Resolve(FirstTeamToScore, "AWAY", withFact))
	assert.Equal(t, Lost, Resolve(FirstTeamToScore, "HOME", withFact))
	// fato derivado ausente não é erro: anula a perna
	assert.Equal(t, Void, Resolve(FirstTeamToScore, "HOME", noFact))
	assert.Equal(t, Void, Resolve(FirstTeamToScore, "DRAW", withFact))
}

func TestResolveDoubleChance(t *testing.T) {
	homeWin := Score{HomeGoals: 2, AwayGoals: 0}
	draw := Score{HomeGoals: 1, AwayGoals: 1}

	assert.Equal(t, Won, Resolve(DoubleChance, "HOME_OR_DRAW", homeWin))
	assert.Equal(t, Won, Resolve(DoubleChance, "HOME_OR_DRAW", draw))
	assert.Equal(t, Lost, Resolve(DoubleChance, "AWAY_OR_DRAW", homeWin))
	assert.Equal(t, Won, Resolve(DoubleChance, "AWAY_OR_DRAW", draw))
	assert.Equal(t, Won, Resolve(DoubleChance, "HOME_OR_AWAY", homeWin))
	assert.Equal(t, Lost, Resolve(DoubleChance, "HOME_OR_AWAY", draw))
	// grafias alternativas da grade de mercados
	assert.Equal(t, Won, Resolve(DoubleChance, "X1", draw))
	assert.Equal(t, Won, Resolve(DoubleChance, "12", homeWin))
	assert.Equal(t, Void, Resolve(DoubleChance, "ALL_OF_THEM", draw))
}

func TestResolveScorePrediction(t *testing.T) {
	score := Score{HomeGoals: 2, AwayGoals: 1}

	assert.Equal(t, Won, Resolve(ScorePrediction, "2-1", score))
	assert.Equal(t, Lost, Resolve(ScorePrediction, "1-2", score))
	assert.Equal(t, Lost, Resolve(ScorePrediction, "0-0", score))
	assert.Equal(t, Void, Resolve(ScorePrediction, "2:1", score))
	assert.Equal(t, Void, Resolve(ScorePrediction, "two-one", score))
}

func TestResolveUnknownMarketNeverPanics(t *testing.T) {
	assert.Equal(t, Void, Resolve(Type("HALF_TIME_WINNER"), "HOME", Score{HomeGoals: 1}))
	assert.Equal(t, Void, Resolve(Type(""), "", Score{}))
}
