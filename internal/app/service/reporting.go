package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

const queuePreview = 9

func (q *QueueEngine) showQueue() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total entries: %d", len(q.queue))
	if len(q.queue) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "; Now Playing: %s", q.queue[0].Display())
	if len(q.queue) == 1 {
		return b.String()
	}

	limit := min(queuePreview, len(q.queue)-1)
	fmt.Fprintf(&b, " Next %d:", limit)

	nextRound := -1
	for i := 1; i < len(q.queue); i++ {
		if q.queue[i].Round != 0 {
			nextRound = i
			break
		}
	}
	for i := 1; i <= limit; i++ {
		e := q.queue[i]
		if q.rotation() && i == nextRound {
			nextRound = len(q.queue)
			for j, later := range q.queue {
				if later.Round > e.Round {
					nextRound = j
					break
				}
			}
			n := nextRound - i
			fmt.Fprintf(&b, " **Round %d (%d %s)** :", e.Round, n, plural(n, "entry", "entries"))
		}
		fmt.Fprintf(&b, " [%s]", e.Display())
	}
	return b.String()
}

func (q *QueueEngine) noSpoilFor(username string) string {
	if !q.hasCurrent() {
		return "There is no current level!"
	}
	if !q.chat.CanDM(username) {
		return fmt.Sprintf("I won't be able to send you a direct message, @%s.", username)
	}
	if !slices.Contains(q.noSpoil, username) {
		q.noSpoil = append(q.noSpoil, username)
	}
	return fmt.Sprintf("@%s, I'll send a direct message when the current level is done", username)
}

func formatTally(t domain.Tally) string {
	var parts []string
	if t.Won > 0 {
		parts = append(parts, fmt.Sprintf("Wins: %d", t.Won))
	}
	if t.Lost > 0 {
		parts = append(parts, fmt.Sprintf("Losses: %d", t.Lost))
	}
	parts = append(parts, fmt.Sprintf("Total Played: %d", t.Played))
	return strings.Join(parts, " ; ")
}

func (q *QueueEngine) showStats() string {
	session := formatTally(q.counts.Session)
	if h := q.counts.History; h != nil && *h != q.counts.Session {
		return fmt.Sprintf("This Session: %s / Running Totals: %s", session, formatTally(*h))
	}
	return session
}

func (q *QueueEngine) showCommands() string {
	p := q.opts.Prefix
	return fmt.Sprintf("%[1]sadd [levelCode | creatorCode], %[1]sboost [levelCode | creatorCode], %[1]sbot, "+
		"%[1]schadd [levelCode], %[1]scheck [levelCode | creatorCode], %[1]snospoil, %[1]squeue, "+
		"%[1]sremove [levelCode | creatorCode], %[1]sstats", p)
}

func (q *QueueEngine) showBotInfo() string {
	return "ShenaniBot was created for the LevelHead Community by the LevelHead Community.\n" +
		"Want to use it in your own stream? Learn about it here: https://github.com/madelsberger/Shenanibot-public"
}
