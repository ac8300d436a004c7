// Package game holds the session state machine: role and task assignment,
// the sabotage lifecycle, meetings and voting, and win-condition evaluation.
//
// Every function here mutates a *model.Session in memory and never touches
// storage. Callers (the session service) are expected to work on a clone
// and persist it only when the function returns without error.
package game

import "time"

// Rand is the randomness source used for shuffles and draws.
// *math/rand.Rand satisfies it.
type Rand interface {
	Shuffle(n int, swap func(i, j int))
	Intn(n int) int
}

// Rules holds the fixed game constants.
type Rules struct {
	TasksPerPlayer   int           // Rotation tasks drawn per player (k)
	MaxImposters     int           // Upper bound on imposters regardless of roster size
	MinPlayers       int           // Players required to start
	SabotageWindow   time.Duration // Time crewmates have to resolve a sabotage
	SabotageCooldown time.Duration // Lockout after a resolve
	VotingDuration   time.Duration
}

// DefaultRules returns the standard game constants.
func DefaultRules() Rules {
	return Rules{
		TasksPerPlayer:   3,
		MaxImposters:     10,
		MinPlayers:       2,
		SabotageWindow:   60 * time.Second,
		SabotageCooldown: 120 * time.Second,
		VotingDuration:   30 * time.Second,
	}
}
