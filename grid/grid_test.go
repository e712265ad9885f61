package grid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/chapaty/agent"
)

func TestLeaderboard_TopK(t *testing.T) {
	lb := NewLeaderboard(2, []string{"sharpe"})
	lb.Offer(AgentResult{AgentID: "a", Metrics: map[string]float64{"sharpe": 1.0}})
	lb.Offer(AgentResult{AgentID: "b", Metrics: map[string]float64{"sharpe": 3.0}})
	lb.Offer(AgentResult{AgentID: "c", Metrics: map[string]float64{"sharpe": 2.0}})

	top := lb.Top("sharpe")
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].AgentID)
	assert.Equal(t, "c", top[1].AgentID)
}

func TestLeaderboard_IgnoresUntrackedMetric(t *testing.T) {
	lb := NewLeaderboard(1, []string{"sharpe"})
	lb.Offer(AgentResult{AgentID: "a", Metrics: map[string]float64{"hit_ratio": 0.9}})
	assert.Empty(t, lb.Top("sharpe"))
	assert.Nil(t, lb.Top("unknown_metric"))
}

func TestRun_EvaluatesEveryAgentAndFeedsLeaderboard(t *testing.T) {
	agents := []agent.Agent{
		agent.NoOpAgent{ID: "a1"},
		agent.NoOpAgent{ID: "a2"},
		agent.NoOpAgent{ID: "a3"},
	}
	lb := NewLeaderboard(2, []string{"score"})

	evaluate := func(ctx context.Context, a agent.Agent) (AgentResult, error) {
		score := float64(len(a.Identifier()))
		return AgentResult{AgentID: a.Identifier(), Metrics: map[string]float64{"score": score}}, nil
	}

	err := RunWithDefaultLogger(context.Background(), agents, evaluate, Config{Workers: 2}, lb)
	require.NoError(t, err)
	assert.Len(t, lb.Top("score"), 2)
}
