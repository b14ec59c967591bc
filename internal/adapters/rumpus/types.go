package rumpus

import "time"

// --- Levels ---
type levelsDTO struct {
	Data []levelDTO `json:"data"`
}

type levelDTO struct {
	ID              string    `json:"_id"`
	LevelID         string    `json:"levelId"`
	Title           string    `json:"title"`
	RequiredPlayers int       `json:"requiredPlayers"`
	AvatarID        string    `json:"avatarId"`
	CreatedAt       time.Time `json:"createdAt"`
	TagNames        []string  `json:"tagNames"`
	Stats           struct {
		Players  int     `json:"Players"`
		Diamonds float64 `json:"Diamonds"`
	} `json:"stats"`
	// sólo viene con includeMyInteractions
	Interactions *struct {
		Played    bool `json:"played"`
		Completed bool `json:"completed"`
	} `json:"interactions"`
}

// --- Players ---
type playersDTO struct {
	Data []playerDTO `json:"data"`
}

type playerDTO struct {
	UserID string `json:"userId"`
	Alias  struct {
		Alias    string `json:"alias"`
		AvatarID string `json:"avatarId"`
	} `json:"alias"`
}
