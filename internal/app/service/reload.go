package service

import (
	"context"
	"errors"
	"log"

	"github.com/jose-valero/levelhead-queue-bot/internal/app/cache"
	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
	"github.com/jose-valero/levelhead-queue-bot/internal/infra/persistence"
)

// reloadDeferred re-encola lo pospuesto en la sesión anterior, en orden y
// con sus cortes de ronda. Lo que no se puede cargar o no entra en el
// límite de jugadores se vuelve a posponer. Devuelve los mensajes para el
// chat.
func (q *QueueEngine) reloadDeferred(ctx context.Context, deferred []persistence.Deferred) []string {
	if len(deferred) == 0 {
		return nil
	}

	var out []string
	round := q.minOpenRound
	lastRound := 0
	redeferred := false
	boundary := false

	redefer := func(id string) {
		if boundary && redeferred && q.rotation() {
			q.persisted(q.journal.RoundBoundary())
		}
		boundary = false
		redeferred = true
		q.persisted(q.journal.Deferred(id))
		if domain.ClassifyID(id) == domain.IDLevel {
			q.meta.SetRejectReason(id, reasonPostponed)
		}
	}

	for _, d := range deferred {
		switch d.Kind {
		case persistence.DeferredRound:
			if q.rotation() && lastRound == round {
				round++
			}
			boundary = true
			continue
		case persistence.DeferredMarker:
			q.queue = append(q.queue, domain.NewMarker(d.Label))
			continue
		}

		if q.meta.Banned(d.ID) {
			log.Printf("[queue] postponed %s is banned; dropping it", d.ID)
			continue
		}

		entry, err := q.reloadEntry(ctx, d.ID)
		switch {
		case errors.Is(err, cache.ErrNotFound):
			log.Printf("[queue] postponed %s no longer exists", d.ID)
			continue
		case err != nil:
			log.Printf("[queue] reload %s: %v", d.ID, err)
			if domain.ClassifyID(d.ID) == domain.IDLevel {
				out = append(out, msgLevelUnavailable+" for "+d.ID+"; it will stay postponed")
			} else {
				out = append(out, msgCreatorUnavailable+" for "+d.ID+"; it will stay postponed")
			}
			redefer(d.ID)
			continue
		case entry.Players > q.players:
			redefer(d.ID)
			continue
		}

		entry.Reloaded = true
		if q.rotation() {
			entry.Round = round
			lastRound = round
		}
		q.queue = append(q.queue, entry)
		if entry.IsLevel() {
			q.meta.SetRejectReason(entry.ID, reasonQueued)
		}
	}

	if q.rotation() && lastRound > 0 {
		q.user(q.opts.Streamer).lastRound = lastRound
		q.minOpenRound = max(q.minOpenRound, lastRound+1)
	}
	if len(q.queue) > 0 {
		if q.rotation() && !q.queue[0].IsMarker() {
			q.playingRound = q.queue[0].Round
		}
		if q.opts.RoundDuration > 0 && q.rotation() && q.roundTimer == nil {
			q.setRoundTimer()
		}
		out = append(out, q.playLevel(ctx))
	}
	return out
}

// reloadEntry arma la entrada con el streamer como submitter.
func (q *QueueEngine) reloadEntry(ctx context.Context, id string) (*domain.Entry, error) {
	switch domain.ClassifyID(id) {
	case domain.IDLevel:
		info, err := q.meta.ResolveLevel(ctx, id)
		if err != nil {
			return nil, err
		}
		return domain.NewLevel(info, q.opts.Streamer), nil
	case domain.IDCreator:
		ci, err := q.meta.ResolveCreator(ctx, id)
		if err != nil {
			return nil, err
		}
		return domain.NewCreator(ci, q.opts.Streamer), nil
	}
	return nil, cache.ErrNotFound
}
