package feed

import "time"

// Generator tuning.
const (
	playersPerTeam    = 5
	passiveGoldMin    = 20
	passiveGoldRange  = 15
	csGoldValue       = 21
	csPerTickMax      = 2
	killGold          = 300
	assistGold        = 150
	killChancePercent = 12
	goldPerWinPercent = 250
	maxWinSwing       = 45.0
)

// Run defaults.
const (
	DefaultBaseURL  = "http://localhost:9080"
	DefaultAddr     = ":8000"
	DefaultInterval = time.Second
	DefaultTimeout  = 5 * time.Second
)

const gameDataPath = "/api/game-data"
