package domain

type Tally struct {
	Played int `json:"played" yaml:"played"`
	Won    int `json:"won" yaml:"won"`
	Lost   int `json:"lost" yaml:"lost"`
}

func (t Tally) Add(o Tally) Tally {
	return Tally{Played: t.Played + o.Played, Won: t.Won + o.Won, Lost: t.Lost + o.Lost}
}

// Counts: History sólo existe con persistencia de stats activa.
type Counts struct {
	Session Tally  `json:"session"`
	History *Tally `json:"history,omitempty"`
}
