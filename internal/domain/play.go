package domain

import "time"

type Outcome string

const (
	OutcomePlayed    Outcome = "played"
	OutcomeWon       Outcome = "won"
	OutcomeLost      Outcome = "lost"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeBanned    Outcome = "banned"
	OutcomePostponed Outcome = "postponed"
	OutcomeReverted  Outcome = "reverted"
)

// Play es una fila del archivo histórico de partidas.
type Play struct {
	EntryID     string
	Kind        EntryKind
	Name        string
	SubmittedBy string
	Outcome     Outcome
	At          time.Time
}

// OutcomeOf resume cómo terminó una entrada al salir de la cola.
func OutcomeOf(e *Entry) Outcome {
	switch {
	case e.Banned:
		return OutcomeBanned
	case e.Postponed:
		return OutcomePostponed
	case e.CountedWon:
		return OutcomeWon
	case e.CountedLost:
		return OutcomeLost
	case e.Count == CountSkipped:
		return OutcomeSkipped
	}
	return OutcomePlayed
}

func NewPlay(e *Entry, outcome Outcome, at time.Time) Play {
	return Play{
		EntryID:     e.ID,
		Kind:        e.Kind,
		Name:        e.Name,
		SubmittedBy: e.SubmittedBy,
		Outcome:     outcome,
		At:          at,
	}
}
