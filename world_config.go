package server

import "strings"

const defaultWorldSeed = "downtown"

// WorldConfig captures the toggles used when constructing a round.
type WorldConfig struct {
	Seed         string  `json:"seed"`
	RoundSeconds float64 `json:"roundSeconds"`
	AICount      int     `json:"aiCount"`
	Traffic      bool    `json:"traffic"`
}

// normalized returns a config with defaults applied.
func (cfg WorldConfig) normalized() WorldConfig {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = defaultWorldSeed
	}
	if normalized.RoundSeconds <= 0 {
		normalized.RoundSeconds = defaultRoundDuration
	}
	if normalized.AICount < 0 {
		normalized.AICount = 0
	}
	return normalized
}

// DefaultWorldConfig enables traffic, seeds three AI agents, and uses the
// default deterministic seed.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Seed:         defaultWorldSeed,
		RoundSeconds: defaultRoundDuration,
		AICount:      3,
		Traffic:      true,
	}
}
