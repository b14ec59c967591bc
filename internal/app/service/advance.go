package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/jose-valero/levelhead-queue-bot/internal/app/cache"
	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

var (
	reFromUser = regexp.MustCompile(`^(next\s|last\s)?from\s@?([a-zA-Z0-9][a-zA-Z0-9_]{3,24})\s*$`)
	reLeadNum  = regexp.MustCompile(`^\d+`)
	reNonZero  = regexp.MustCompile(`[1-9]`)
)

// dequeue saca la entrada actual. empty indica que no queda nada para
// jugar; en ese caso resp es el mensaje a mostrar.
func (q *QueueEngine) dequeue(ctx context.Context) (empty bool, resp string) {
	if len(q.queue) == 0 {
		return true, "There aren't any levels in the queue!"
	}

	head := q.queue[0]
	q.stopPlaying(ctx, head)
	if head.IsLevel() && !head.Banned && !head.Postponed {
		q.meta.SetRejectReason(head.ID, reasonPlayed)
	}
	if !head.IsMarker() {
		// una sola vez por entrada, aunque se desencole dos veces
		if head.Count == domain.CountPending {
			head.Count = domain.CountCounted
			q.bumpStat(statPlayed, 1)
		}
		q.countsChanged()
		q.record(ctx, head, domain.OutcomeOf(head))
	}

	for _, name := range q.noSpoil {
		q.chat.DirectMessage(name, fmt.Sprintf("%s has finished playing %s", q.opts.Streamer, head.Display()))
	}
	if q.restoreDMs {
		q.noSpoil = q.nextNoSpoil
		q.nextNoSpoil = nil
		q.restoreDMs = false
	} else {
		q.noSpoil = nil
	}

	q.prev = head
	q.prevState = prevSet
	q.removeFromQueue(0)

	if q.rotation() && len(q.queue) > 0 && !q.queue[0].IsMarker() {
		q.updatePlayingRound(q.queue[0].Round)
	}

	if len(q.queue) == 0 {
		return true, "The queue is now empty."
	}
	return false, ""
}

// playLevel activa la entrada en la posición 0.
func (q *QueueEngine) playLevel(ctx context.Context) string {
	head := q.queue[0]
	switch head.Kind {
	case domain.KindLevel:
		resp := fmt.Sprintf("Now playing %s submitted by %s", head.Display(), head.SubmittedBy)
		head.BookmarkFailed = false
		if err := q.marks.AddBookmark(ctx, head.ID); err != nil {
			log.Printf("[queue] bookmark %s: %v", head.ID, err)
			head.BookmarkFailed = true
			resp += fmt.Sprintf("\nWARNING: Unable to bookmark %s; it will have to be found manually", head.ID)
		}
		if played, _ := q.meta.Interactions(head.ID); !played {
			q.setPlayed(head, true)
		}
		return resp
	case domain.KindCreator:
		return q.playCreator(ctx, head)
	}
	return "Not currently playing a queued level."
}

func (q *QueueEngine) stopPlaying(ctx context.Context, head *domain.Entry) {
	if head.IsLevel() && !head.BookmarkFailed {
		if err := q.marks.RemoveBookmark(ctx, head.ID); err != nil {
			log.Printf("[queue] WARNING: unable to remove bookmark %s: %v", head.ID, err)
		}
	}
	if q.opts.CreatorCodeMode == CreatorWebUI && q.picker != nil {
		q.picker.ClearCreatorInfo()
	}
}

// setPlayed marca o desmarca "played" en la sesión. MarkedPlayed recuerda
// que fue esta activación la que lo marcó.
func (q *QueueEngine) setPlayed(e *domain.Entry, played bool) {
	if !e.IsLevel() {
		return
	}
	p, b := q.meta.RecordInteraction(e.ID, cache.Bool(played), nil)
	e.MarkedPlayed = played
	q.persisted(q.journal.InteractionChanged(e.ID, p, b))
}

func (q *QueueEngine) setBeaten(e *domain.Entry, beaten bool) {
	if !e.IsLevel() {
		return
	}
	p, b := q.meta.RecordInteraction(e.ID, nil, cache.Bool(beaten))
	e.MarkedBeaten = beaten
	q.persisted(q.journal.InteractionChanged(e.ID, p, b))
}

func (q *QueueEngine) nextLevel(ctx context.Context) string {
	empty, resp := q.dequeue(ctx)
	if !empty {
		resp = q.playLevel(ctx)
	}
	q.queueChanged()
	return resp
}

func (q *QueueEngine) randomLevel(ctx context.Context) string {
	empty, resp := q.dequeue(ctx)
	if !empty {
		if q.firstMarker() != 0 {
			idx := q.randn(q.randomWindow())
			pick := q.queue[idx]
			q.queue = append(q.queue[:idx], q.queue[idx+1:]...)
			q.queue = append([]*domain.Entry{pick}, q.queue...)
			resp = "Random Level... "
		}
		resp += q.playLevel(ctx)
	}
	q.queueChanged()
	return resp
}

func (q *QueueEngine) firstMarker() int {
	for i, e := range q.queue {
		if e.IsMarker() {
			return i
		}
	}
	return -1
}

// randomWindow: cantidad de entradas elegibles desde la 0. Corta en el
// primer marker, la primera sin prioridad (si la 0 tiene) o la primera de
// una ronda posterior, lo que llegue antes.
func (q *QueueEngine) randomWindow() int {
	n := len(q.queue)
	if m := q.firstMarker(); m > 0 {
		n = m
	}
	for i, e := range q.queue[:n] {
		if !e.Priority {
			if i > 0 {
				n = i
			}
			break
		}
	}
	if q.rotation() {
		for i, e := range q.queue[:n] {
			if e.Round > q.playingRound {
				if i > 0 {
					n = i
				}
				break
			}
		}
	}
	return n
}

func (q *QueueEngine) playSpecificLevel(ctx context.Context, arg string) string {
	index := -1
	if m := reFromUser.FindStringSubmatch(arg); m != nil {
		name := m[2]
		if strings.HasPrefix(m[1], "last") {
			for i := len(q.queue) - 1; i > 0; i-- {
				if q.queue[i].SubmittedBy == name {
					index = i
					break
				}
			}
		} else {
			for i := 1; i < len(q.queue); i++ {
				if q.queue[i].SubmittedBy == name {
					index = i
					break
				}
			}
		}
		if index < 0 {
			return fmt.Sprintf("The queue contains no levels submitted by %s", name)
		}
	}
	if reNonZero.MatchString(arg) {
		if num := reLeadNum.FindString(arg); num != "" {
			n, _ := strconv.Atoi(num)
			index = n - 1
		}
	}
	if index < 0 {
		return ""
	}
	if index >= len(q.queue) || q.queue[index].IsMarker() {
		return fmt.Sprintf("There is no level at position %d in the queue!", index+1)
	}
	if index == 0 {
		return fmt.Sprintf("You're already playing %s!", q.queue[0].Display())
	}

	q.dequeue(ctx)
	index--
	if index > 0 {
		entry := q.queue[index]
		entry.Priority = true
		if q.rotation() {
			entry.Round = q.playingRound
		}
		q.queue = append(q.queue[:index], q.queue[index+1:]...)
		q.queue = append([]*domain.Entry{entry}, q.queue...)
	}

	resp := fmt.Sprintf("Pulled %s to the front of the queue...", q.queue[0].Display())
	resp += q.playLevel(ctx)
	q.queueChanged()
	return resp
}

// advance aplica el avance por defecto, o "and play ..." si viene en args.
func (q *QueueEngine) advance(ctx context.Context, args []string) string {
	if len(args) >= 3 && strings.ToLower(strings.Join(args[1:3], " ")) == "and play" {
		return q.playSpecificLevel(ctx, strings.ToLower(strings.Join(args[3:], " ")))
	}

	mode := q.forced
	if mode == "" {
		mode = q.opts.DefaultAdvance
	}
	q.forced = ""

	switch mode {
	case AdvanceRandom:
		return q.randomLevel(ctx)
	case AdvanceAlternate:
		n := q.advanceCalls
		q.advanceCalls++
		if n%2 == 1 {
			return q.randomLevel(ctx)
		}
		return q.nextLevel(ctx)
	}
	return q.nextLevel(ctx)
}

func (q *QueueEngine) hasCurrent() bool {
	return len(q.queue) > 0 && !q.queue[0].IsMarker()
}

func (q *QueueEngine) skipLevel(ctx context.Context, args []string) string {
	if !q.hasCurrent() {
		return "There is no current level to skip!"
	}
	head := q.queue[0]
	head.Count = domain.CountSkipped
	if head.MarkedPlayed {
		q.setPlayed(head, false)
	}
	return q.advance(ctx, args)
}

func (q *QueueEngine) winLevel(ctx context.Context, args []string) string {
	if !q.hasCurrent() {
		return "There is no current level to win!"
	}
	head := q.queue[0]
	head.CountedWon = true
	q.bumpStat(statWon, 1)
	if head.IsLevel() {
		if _, beaten := q.meta.Interactions(head.ID); !beaten {
			q.setBeaten(head, true)
		}
	}
	return q.advance(ctx, args)
}

func (q *QueueEngine) loseLevel(ctx context.Context, args []string) string {
	if !q.hasCurrent() {
		return "There is no current level to lose!"
	}
	q.queue[0].CountedLost = true
	q.bumpStat(statLost, 1)
	return q.advance(ctx, args)
}

// goBack restaura la entrada anterior deshaciendo exactamente lo que su
// salida de la cola modificó.
func (q *QueueEngine) goBack(ctx context.Context) string {
	switch q.prevState {
	case prevNone:
		return "There is no level to go back to!"
	case prevConsumed:
		return "You can't go back twice in a row."
	}

	q.nextNoSpoil = q.noSpoil
	q.noSpoil = nil
	q.restoreDMs = true

	if len(q.queue) > 0 {
		head := q.queue[0]
		q.stopPlaying(ctx, head)
		if head.MarkedPlayed {
			q.setPlayed(head, false)
		}
	}

	p := q.prev
	q.queue = append([]*domain.Entry{p}, q.queue...)
	if p.Count == domain.CountCounted {
		q.bumpStat(statPlayed, -1)
	}
	if p.CountedWon {
		q.bumpStat(statWon, -1)
		if p.MarkedBeaten {
			q.setBeaten(p, false)
		}
	}
	if p.CountedLost {
		q.bumpStat(statLost, -1)
	}
	if p.Banned {
		q.meta.SetBanned(p.ID, false)
		q.persisted(q.journal.Unbanned(p.ID))
	}
	if p.Postponed {
		q.persisted(q.journal.DeferralReversed(p.ID))
	}
	q.record(ctx, p, domain.OutcomeReverted)

	p.ResetBookkeeping()
	p.WasPrev = true
	if p.IsLevel() {
		q.meta.SetRejectReason(p.ID, reasonQueued)
	}
	if q.rotation() && !p.IsMarker() {
		q.playingRound = p.Round
	}
	q.prev = nil
	q.prevState = prevConsumed
	q.forced = AdvanceNext

	q.countsChanged()
	resp := "Restoring previous queue entry... " + q.playLevel(ctx)
	q.queueChanged()
	return resp
}
