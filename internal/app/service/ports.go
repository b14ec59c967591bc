package service

import (
	"context"
	"time"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
	"github.com/jose-valero/levelhead-queue-bot/internal/infra/persistence"
)

// Lo implementa internal/app/cache.Cache
type Metadata interface {
	ResolveLevel(ctx context.Context, id string) (domain.LevelInfo, error)
	ResolveCreator(ctx context.Context, id string) (domain.CreatorInfo, error)
	LevelsForCreator(ctx context.Context, creatorID string, onPage func([]domain.CreatorLevel)) ([]domain.CreatorLevel, error)
	Interactions(id string) (played, beaten bool)
	RecordInteraction(id string, played, beaten *bool) (bool, bool)
	LoadPrior(id string, played, beaten bool)
	SetBanned(id string, banned bool)
	Banned(id string) bool
	SetRejectReason(id, reason string)
	RejectReason(id string) string
}

// Lo implementa internal/app/lookup.Client
type Bookmarks interface {
	AddBookmark(ctx context.Context, levelID string) error
	RemoveBookmark(ctx context.Context, levelID string) error
}

// Lo implementa internal/infra/persistence.Log
type Journal interface {
	Initialize() (persistence.State, error)
	Enabled() bool
	TracksStats() bool
	TracksPlays() bool
	StatDelta(code byte, delta int) error
	StatSet(code byte, n int) error
	InteractionChanged(id string, played, beaten bool) error
	Banned(id string) error
	Unbanned(id string) error
	Deferred(id string) error
	DeferralReversed(id string) error
	DeferredMarker(label string) error
	RoundBoundary() error
}

// Notifier recibe los cambios de estado para overlays y paneles.
type Notifier interface {
	QueueChanged(entries []domain.Entry)
	StatusChanged(open bool)
	CountsChanged(c domain.Counts)
}

// Chat es el transporte: mensajes fuera de una respuesta y DMs.
type Chat interface {
	Say(text string)
	DirectMessage(user, text string)
	CanDM(user string) bool
}

// CreatorPicker es la UI donde el streamer elige un level de un creator.
type CreatorPicker interface {
	SetCreatorInfo(creatorID, name string)
	AddCreatorLevels(creatorID string, levels []domain.CreatorLevel)
	ClearCreatorInfo()
}

type Clipboard interface {
	WriteAll(text string) error
}

// RewardStore guarda las recompensas configuradas; devuelve el texto
// que se agrega a la respuesta.
type RewardStore interface {
	SaveRewards(behaviors map[string]string) string
}

// Lo implementa internal/infra/storage.Archive
type Archive interface {
	RecordPlay(ctx context.Context, p domain.Play) error
}

type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Notifiers reparte cada evento a varios consumidores.
type Notifiers []Notifier

func (ns Notifiers) QueueChanged(entries []domain.Entry) {
	for _, n := range ns {
		n.QueueChanged(entries)
	}
}

func (ns Notifiers) StatusChanged(open bool) {
	for _, n := range ns {
		n.StatusChanged(open)
	}
}

func (ns Notifiers) CountsChanged(c domain.Counts) {
	for _, n := range ns {
		n.CountsChanged(c)
	}
}
