package domain

import "fmt"

type EntryKind string

const (
	KindLevel   EntryKind = "level"
	KindCreator EntryKind = "creator"
	KindMarker  EntryKind = "mark"
)

// PlayCount: si la entrada ya sumó (o no debe sumar) a "played".
type PlayCount int

const (
	CountPending PlayCount = iota
	CountCounted
	CountSkipped
)

// Entry es una posición de la cola. Los campos de bookkeeping existen en
// las tres variantes y se resetean, nunca se borran.
type Entry struct {
	Kind        EntryKind `json:"type"`
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	SubmittedBy string    `json:"submittedBy,omitempty"`
	Players     int       `json:"-"`

	PreviouslyPlayed bool `json:"previouslyPlayed,omitempty"`
	PreviouslyBeaten bool `json:"previouslyBeaten,omitempty"`

	Priority bool `json:"priority,omitempty"`
	Round    int  `json:"round,omitempty"`

	Count       PlayCount `json:"-"`
	CountedWon  bool      `json:"-"`
	CountedLost bool      `json:"-"`
	Banned      bool      `json:"-"`
	Postponed   bool      `json:"-"`
	WasPrev     bool      `json:"-"`
	Reloaded    bool      `json:"-"`

	// estado de la activación actual ("now playing")
	BookmarkFailed bool `json:"-"`
	MarkedPlayed   bool `json:"-"`
	MarkedBeaten   bool `json:"-"`
}

func NewLevel(info LevelInfo, submittedBy string) *Entry {
	return &Entry{
		Kind:             KindLevel,
		ID:               info.ID,
		Name:             info.Title,
		Avatar:           info.Avatar,
		SubmittedBy:      submittedBy,
		Players:          info.RequiredPlayers,
		PreviouslyPlayed: info.Played,
		PreviouslyBeaten: info.Beaten,
	}
}

func NewCreator(info CreatorInfo, submittedBy string) *Entry {
	return &Entry{
		Kind:        KindCreator,
		ID:          info.ID,
		Name:        info.Alias,
		Avatar:      CreatorAvatarURL(info.AvatarID),
		SubmittedBy: submittedBy,
	}
}

func NewMarker(label string) *Entry {
	return &Entry{Kind: KindMarker, Name: label}
}

func CreatorAvatarURL(avatarID string) string {
	return fmt.Sprintf("https://img.bscotch.net/fit-in/64x64/avatars/%s.png", avatarID)
}

func (e *Entry) IsMarker() bool  { return e.Kind == KindMarker }
func (e *Entry) IsLevel() bool   { return e.Kind == KindLevel }
func (e *Entry) IsCreator() bool { return e.Kind == KindCreator }

// Display es el texto que ve el chat.
func (e *Entry) Display() string {
	switch e.Kind {
	case KindLevel:
		return fmt.Sprintf("%s (%s)", e.Name, e.ID)
	case KindCreator:
		return fmt.Sprintf("%s's Profile (@%s)", e.Name, e.ID)
	default:
		name := e.Name
		if name == "" {
			name = "BREAK"
		}
		return fmt.Sprintf("[== %s ==]", name)
	}
}

// ResetBookkeeping deja la entrada como si nunca hubiera salido de la cola.
func (e *Entry) ResetBookkeeping() {
	e.Count = CountPending
	e.CountedWon = false
	e.CountedLost = false
	e.Banned = false
	e.Postponed = false
}

// Replace convierte un creator en un level concreto conservando la
// posición y el bookkeeping de la cola.
func (e *Entry) Replace(level CreatorLevel) *Entry {
	n := *e
	n.Kind = KindLevel
	n.ID = level.ID
	n.Name = level.Name
	n.Avatar = level.Avatar
	n.Players = level.Players
	n.PreviouslyPlayed = level.Played
	n.PreviouslyBeaten = level.Beaten
	n.MarkedPlayed = false
	n.MarkedBeaten = false
	n.BookmarkFailed = false
	return &n
}
