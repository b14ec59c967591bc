package domain

import (
	"regexp"
	"time"
)

type IDType int

const (
	IDInvalid IDType = iota
	IDLevel
	IDCreator
)

var (
	reLevelID   = regexp.MustCompile(`^[a-z0-9]{7}$`)
	reCreatorID = regexp.MustCompile(`^[a-z0-9]{6}$`)
)

func ClassifyID(id string) IDType {
	switch {
	case reLevelID.MatchString(id):
		return IDLevel
	case reCreatorID.MatchString(id):
		return IDCreator
	}
	return IDInvalid
}

// LevelInfo es lo que devuelve el servicio de niveles.
type LevelInfo struct {
	ID              string
	RecordID        string
	Title           string
	RequiredPlayers int
	Avatar          string
	CreatedAt       time.Time
	Tags            []string
	Difficulty      *float64
	Played          bool
	Beaten          bool
}

type CreatorInfo struct {
	ID       string
	Alias    string
	AvatarID string
}

// CreatorLevel es una fila del listado de niveles de un creator, con las
// interacciones ya combinadas con la sesión.
type CreatorLevel struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Avatar     string    `json:"avatar"`
	Players    int       `json:"players"`
	Date       time.Time `json:"date"`
	Tags       []string  `json:"tags,omitempty"`
	Difficulty *float64  `json:"difficulty"`
	Played     bool      `json:"played"`
	Beaten     bool      `json:"beaten"`
	Banned     bool      `json:"banned"`
}

func (l CreatorLevel) Info() LevelInfo {
	return LevelInfo{
		ID:              l.ID,
		Title:           l.Name,
		RequiredPlayers: l.Players,
		Avatar:          l.Avatar,
		CreatedAt:       l.Date,
		Tags:            l.Tags,
		Difficulty:      l.Difficulty,
		Played:          l.Played,
		Beaten:          l.Beaten,
	}
}

// LevelQuery mapea los parámetros de búsqueda de niveles.
type LevelQuery struct {
	LevelIDs              []string
	UserIDs               []string
	IncludeMyInteractions bool
	Limit                 int
	Sort                  string
	TiebreakerItemID      string
	MaxCreatedAt          time.Time
}
