package main

import "math/rand"

const (
	RoleMafia     = "mafia"
	RoleDoctor    = "doctor"
	RoleDetective = "detective"
	RoleSniper    = "sniper"
	RoleCitizen   = "citizen"
)

const (
	PhaseWaiting = "waiting"
	PhaseNight   = "night"
	PhaseDay     = "day"
	PhaseVoting  = "voting"
	PhaseDefense = "defense"
)

// buildRoleList produces the deterministic role pool for a player
// count: a third mafia (at least one), doctor and detective from six
// players up, a sniper from eight if enabled, citizens for the rest.
func buildRoleList(count int, settings RoomSettings) []string {
	roles := make([]string, 0, count)

	mafia := count / 3
	if mafia < 1 {
		mafia = 1
	}
	for i := 0; i < mafia; i++ {
		roles = append(roles, RoleMafia)
	}

	if count >= 6 {
		roles = append(roles, RoleDoctor, RoleDetective)
	}
	if count >= 8 && settings.Roles["sniper"] > 0 {
		roles = append(roles, RoleSniper)
	}

	for len(roles) < count {
		roles = append(roles, RoleCitizen)
	}
	return roles
}

// assignRoles deals the role pool to the given players. Only the
// permutation is random; the counts are fixed by buildRoleList.
func assignRoles(ids []string, settings RoomSettings) map[string]string {
	roles := buildRoleList(len(ids), settings)
	rand.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	assigned := make(map[string]string, len(ids))
	for i, id := range ids {
		assigned[id] = roles[i]
	}
	return assigned
}

// phaseDuration is the advisory countdown per phase in seconds. The
// server never auto-advances; clients just render the timer.
func phaseDuration(phase string) int {
	switch phase {
	case PhaseDay:
		return 300
	case PhaseNight:
		return 180
	case PhaseVoting:
		return 120
	case PhaseDefense:
		return 60
	default:
		return 0
	}
}

func validPhase(phase string) bool {
	switch phase {
	case PhaseWaiting, PhaseNight, PhaseDay, PhaseVoting, PhaseDefense:
		return true
	}
	return false
}

// pickGameMaster picks a uniform random player. Used only when the room
// runs in "player" game-master mode.
func pickGameMaster(ids []string) string {
	return ids[rand.Intn(len(ids))]
}
