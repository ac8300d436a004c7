package game

import (
	"amongirl/internal/model"
	"fmt"
)

// MaxImposterCount is the largest imposter count allowed for a roster size.
func (r Rules) MaxImposterCount(playerCount int) int {
	return min(playerCount-1, r.MaxImposters)
}

// ClampImposterCount bounds n to [1, MaxImposterCount(playerCount)].
// A lobby with a single player still yields 1 so the setting stays meaningful
// while others join.
func (r Rules) ClampImposterCount(n, playerCount int) int {
	return max(1, min(n, r.MaxImposterCount(playerCount)))
}

// AssignRoles returns a copy of players with roles populated: n imposters,
// optionally one snitch picked from the rest, crewmates otherwise.
// The roster order is preserved; only the role draw is shuffled.
func (r Rules) AssignRoles(players []model.Player, n int, snitch bool, rng Rand) ([]model.Player, error) {
	if n < 1 || n > r.MaxImposterCount(len(players)) {
		return nil, WithMetadata(CodeInvalidConfiguration,
			fmt.Sprintf("imposter count %d out of bounds for %d players", n, len(players)),
			map[string]string{
				"imposter_count": fmt.Sprint(n),
				"max":            fmt.Sprint(r.MaxImposterCount(len(players))),
			})
	}

	order := make([]int, len(players))
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	out := make([]model.Player, len(players))
	copy(out, players)
	for pos, idx := range order {
		if pos < n {
			out[idx].Role = model.RoleImposter
		} else {
			out[idx].Role = model.RoleCrewmate
		}
	}

	if snitch {
		rest := order[n:]
		out[rest[rng.Intn(len(rest))]].Role = model.RoleSnitch
	}
	return out, nil
}
