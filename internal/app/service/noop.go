package service

import (
	"github.com/jose-valero/levelhead-queue-bot/internal/infra/persistence"
)

const (
	statPlayed = persistence.StatPlayed
	statWon    = persistence.StatWon
	statLost   = persistence.StatLost
)

// motivos de rechazo; la respuesta es "That level <motivo>!"
const (
	reasonQueued    = "is already in the queue"
	reasonPlayed    = "was already played"
	reasonBanned    = "has been banned"
	reasonPostponed = "has been postponed"
)

// noJournal: persistencia apagada.
type noJournal struct{}

func (noJournal) Initialize() (persistence.State, error) { return persistence.State{}, nil }
func (noJournal) Enabled() bool { return false }
func (noJournal) TracksStats() bool { return false }
func (noJournal) TracksPlays() bool { return false }
func (noJournal) StatDelta(byte, int) error { return nil }
func (noJournal) StatSet(byte, int) error { return nil }
func (noJournal) InteractionChanged(string, bool, bool) error { return nil }
func (noJournal) Banned(string) error { return nil }
func (noJournal) Unbanned(string) error { return nil }
func (noJournal) Deferred(string) error { return nil }
func (noJournal) DeferralReversed(string) error { return nil }
func (noJournal) DeferredMarker(string) error { return nil }
func (noJournal) RoundBoundary() error { return nil }

type noChat struct{}

func (noChat) Say(string) {}
func (noChat) DirectMessage(string, string) {}
func (noChat) CanDM(string) bool { return false }
