package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

const msgNeedsPersistence = "You must enable persistence to use this command."

func (q *QueueEngine) openQueue() string {
	q.open = true
	q.notify.StatusChanged(true)
	return "The queue has been opened, add some levels to it!"
}

func (q *QueueEngine) closeQueue() string {
	q.open = false
	q.notify.StatusChanged(false)
	return "The queue has been closed! No more levels :("
}

func (q *QueueEngine) setPlayers(arg string) string {
	if n, err := strconv.Atoi(arg); err == nil && n > 0 && n < 5 {
		q.players = n
		return fmt.Sprintf("The player count has been set to %d.", n)
	}
	return fmt.Sprintf("The player count is currently %d.", q.players)
}

func (q *QueueEngine) makeMarker(label string) string {
	if n := len(q.queue); n > 0 {
		last := q.queue[n-1]
		if last.IsMarker() && last.Name == "" && label == "" {
			return ""
		}
	}
	q.queue = append(q.queue, domain.NewMarker(label))
	q.queueChanged()
	return "A marker has been added to the queue."
}

// ban deja el id rechazado para esta sesión y las siguientes. Si estaba
// pospuesto, la postergación se cancela.
func (q *QueueEngine) ban(id string) {
	if q.meta.RejectReason(id) == reasonPostponed {
		q.persisted(q.journal.DeferralReversed(id))
	}
	q.meta.SetBanned(id, true)
	q.meta.SetRejectReason(id, reasonBanned)
	q.persisted(q.journal.Banned(id))
}

func (q *QueueEngine) nope(ctx context.Context, args []string) string {
	if !q.journal.Enabled() {
		return msgNeedsPersistence
	}
	arg := ""
	if len(args) > 1 {
		arg = strings.ToLower(args[1])
	}

	switch arg {
	case "", "and":
		return q.nopeCurrent(ctx, args)
	case "prev", "previous":
		return q.nopePrevious()
	}

	switch domain.ClassifyID(arg) {
	case domain.IDCreator:
		return "The nope command only works on levels."
	case domain.IDInvalid:
		return fmt.Sprintf("%s is not a valid level code.", arg)
	}

	if len(q.queue) > 0 && q.queue[0].IsLevel() && q.queue[0].ID == arg {
		return q.nopeCurrent(ctx, args[:1])
	}
	if q.prevState == prevSet && q.prev.IsLevel() && q.prev.ID == arg {
		return q.nopePrevious()
	}

	if i := q.indexOf(arg); i > 0 {
		entry := q.queue[i]
		q.removeFromQueue(i)
		q.ban(arg)
		q.queueChanged()
		return fmt.Sprintf("%s has been removed from the queue and banned.", entry.Display())
	}

	info, msg := q.resolveLevel(ctx, arg)
	if msg == msgLevelUnavailable {
		return msg + "\nCouldn't verify the id due to API issues; please try again later"
	}
	if msg != "" {
		return msg
	}
	display := domain.NewLevel(info, "").Display()
	if q.meta.Banned(arg) {
		return display + " is already banned."
	}
	q.ban(arg)
	return display + " has been banned."
}

func (q *QueueEngine) nopeCurrent(ctx context.Context, args []string) string {
	if !q.hasCurrent() {
		return "There is no current level to ban!"
	}
	head := q.queue[0]
	if !head.IsLevel() {
		return "The nope command only works on levels."
	}

	head.Banned = true
	head.Count = domain.CountSkipped
	if head.MarkedPlayed {
		q.setPlayed(head, false)
	}
	q.ban(head.ID)
	return head.Display() + " has been banned.\n" + q.advance(ctx, args)
}

func (q *QueueEngine) nopePrevious() string {
	if q.prevState != prevSet || q.prev.IsMarker() {
		return "There is no previous level to ban!"
	}
	if !q.prev.IsLevel() {
		return "The nope command only works on levels."
	}
	if q.prev.Banned {
		return q.prev.Display() + " is already banned."
	}
	q.prev.Banned = true
	q.ban(q.prev.ID)
	return q.prev.Display() + " has been banned."
}

func (q *QueueEngine) unban(ctx context.Context, id string) string {
	if !q.journal.Enabled() {
		return msgNeedsPersistence
	}
	if id == "" {
		return ""
	}
	id = strings.ToLower(id)
	if domain.ClassifyID(id) != domain.IDLevel {
		return fmt.Sprintf("%s is not a valid level code.", id)
	}

	info, msg := q.resolveLevel(ctx, id)
	if msg != "" {
		return msg
	}
	display := domain.NewLevel(info, "").Display()
	if !q.meta.Banned(id) {
		return display + " was already not banned."
	}

	q.meta.SetBanned(id, false)
	reason := ""
	if q.indexOf(id) >= 0 {
		reason = reasonQueued
	}
	q.meta.SetRejectReason(id, reason)
	if q.prevState == prevSet && q.prev.ID == id {
		q.prev.Banned = false
	}
	q.persisted(q.journal.Unbanned(id))
	return display + " has been unbanned."
}

// postpone guarda la entrada actual para la próxima sesión y avanza.
func (q *QueueEngine) postpone(ctx context.Context, args []string) string {
	if !q.journal.Enabled() {
		return msgNeedsPersistence
	}
	if !q.hasCurrent() {
		return "There is no current entry to postpone!"
	}

	head := q.queue[0]
	head.Postponed = true
	head.Count = domain.CountSkipped
	if head.MarkedPlayed {
		q.setPlayed(head, false)
	}
	q.persisted(q.journal.Deferred(head.ID))
	if head.IsLevel() {
		q.meta.SetRejectReason(head.ID, reasonPostponed)
	}
	return head.Display() + " has been postponed until next session.\n" + q.advance(ctx, args)
}

// suspend cierra la cola y guarda todo lo que queda, con los cortes de
// ronda, para la próxima sesión.
func (q *QueueEngine) suspend(ctx context.Context) string {
	if !q.journal.Enabled() {
		return msgNeedsPersistence
	}
	q.open = false
	q.notify.StatusChanged(false)

	round := 0
	var levels []string
	for _, e := range q.queue {
		if e.IsMarker() {
			q.persisted(q.journal.DeferredMarker(e.Name))
			continue
		}
		if q.rotation() && round > 0 && e.Round > round {
			q.persisted(q.journal.RoundBoundary())
		}
		round = e.Round
		q.persisted(q.journal.Deferred(e.ID))
		if e.IsLevel() {
			levels = append(levels, e.ID)
		}
	}
	n := len(q.queue)

	q.clearQueue(ctx)
	for _, id := range levels {
		if !q.meta.Banned(id) {
			q.meta.SetRejectReason(id, reasonPostponed)
		}
	}
	return fmt.Sprintf("The queue has been suspended; %d %s will be restored next session.", n, plural(n, "entry", "entries"))
}

func (q *QueueEngine) clear(ctx context.Context) string {
	q.clearQueue(ctx)
	return "The queue has been cleared!"
}

// clearQueue vacía la cola. La entrada actual cuenta como salteada (sin
// tocar los contadores).
func (q *QueueEngine) clearQueue(ctx context.Context) {
	if q.hasCurrent() {
		head := q.queue[0]
		q.stopPlaying(ctx, head)
		if head.MarkedPlayed {
			q.setPlayed(head, false)
		}
	}
	for _, e := range q.queue {
		if e.IsLevel() && !q.meta.Banned(e.ID) {
			q.meta.SetRejectReason(e.ID, "")
		}
	}

	q.queue = nil
	q.prev = nil
	q.prevState = prevNone
	q.noSpoil = nil
	q.nextNoSpoil = nil
	q.restoreDMs = false
	for _, u := range q.users {
		if q.opts.LevelLimitType == LimitActive {
			u.submitted = 0
		}
		u.lastRound = 0
	}
	q.stopRoundTimer()
	q.queueChanged()
}

func (q *QueueEngine) reset(what string) string {
	if what != "stats" {
		return ""
	}
	q.counts.Session = domain.Tally{}
	if q.counts.History != nil {
		q.counts.History = &domain.Tally{}
	}
	for _, code := range []byte{statPlayed, statWon, statLost} {
		q.persisted(q.journal.StatSet(code, 0))
	}
	q.countsChanged()
	return "Stats have been reset."
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
