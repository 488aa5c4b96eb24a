package rl

import (
	"github.com/zeu5/wumpus-rl/policies"
	"github.com/zeu5/wumpus-rl/wumpus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type ActionShare struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type ValueSummary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

type PolicyStats struct {
	TotalStates        int                    `json:"total_states"`
	ActionDistribution map[string]ActionShare `json:"action_distribution"`
	BestValues         ValueSummary           `json:"best_q_values"`
}

// ComputePolicyStats summarizes how often each action is greedy and the
// spread of the greedy values. The standard deviation is the population one.
func ComputePolicyStats(policy map[int]policies.PolicyEntry) PolicyStats {
	out := PolicyStats{
		TotalStates:        len(policy),
		ActionDistribution: make(map[string]ActionShare, wumpus.NumActions),
	}
	for _, a := range wumpus.AllActions {
		out.ActionDistribution[a.String()] = ActionShare{}
	}
	if len(policy) == 0 {
		return out
	}

	values := make([]float64, 0, len(policy))
	for _, entry := range policy {
		share := out.ActionDistribution[entry.BestAction]
		share.Count += 1
		out.ActionDistribution[entry.BestAction] = share
		values = append(values, entry.BestValue)
	}
	for name, share := range out.ActionDistribution {
		share.Percentage = 100 * float64(share.Count) / float64(len(policy))
		out.ActionDistribution[name] = share
	}

	mean, std := stat.PopMeanStdDev(values, nil)
	out.BestValues = ValueSummary{
		Mean: mean,
		Std:  std,
		Min:  floats.Min(values),
		Max:  floats.Max(values),
	}
	return out
}
