package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jose-valero/levelhead-queue-bot/internal/app/cache"
	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

const (
	msgLevelMissing       = "Oops! That level does not exist!"
	msgCreatorMissing     = "Oops! That creator does not exist!"
	msgLevelUnavailable   = "WARNING: Unable to load level data"
	msgCreatorUnavailable = "WARNING: Unable to load creator data"
)

// resolveLevel traduce los errores del cache a la respuesta para el chat.
func (q *QueueEngine) resolveLevel(ctx context.Context, id string) (domain.LevelInfo, string) {
	info, err := q.meta.ResolveLevel(ctx, id)
	switch {
	case err == nil:
		return info, ""
	case errors.Is(err, cache.ErrNotFound):
		return info, msgLevelMissing
	default:
		log.Printf("[queue] level %s: %v", id, err)
		return info, msgLevelUnavailable
	}
}

func (q *QueueEngine) creatorEntry(ctx context.Context, id, submitter string) (*domain.Entry, string) {
	ci, err := q.meta.ResolveCreator(ctx, id)
	switch {
	case err == nil:
		return domain.NewCreator(ci, submitter), ""
	case errors.Is(err, cache.ErrNotFound):
		return nil, msgCreatorMissing
	default:
		log.Printf("[queue] creator %s: %v", id, err)
		return nil, msgCreatorUnavailable
	}
}

func (q *QueueEngine) typeError(t domain.IDType) string {
	if q.opts.CreatorCodeMode == CreatorReject && t != domain.IDLevel {
		return "Please enter a valid level code."
	}
	if t == domain.IDInvalid {
		return "Please enter either a valid 7-digit level code, or a valid 6-digit creator code."
	}
	return ""
}

func (q *QueueEngine) addEntry(ctx context.Context, id, username, rewardType string) string {
	u := q.user(username)

	if !q.open && !u.permit {
		return "Sorry, queue is closed!"
	}
	if q.usePointsToAdd && rewardType == "" && username != q.opts.Streamer {
		return "Please use channel points to add levels."
	}

	t := domain.ClassifyID(id)
	if msg := q.typeError(t); msg != "" {
		return msg
	}

	if q.hasLimit() && u.submitted >= q.opts.LevelLimit && !u.permit && rewardType != "unlimit" {
		msg := "You have submitted the maximum number of levels!"
		if q.opts.LevelLimitType == LimitActive {
			msg += " (You can add more when one of yours has been played.)"
		}
		return msg
	}

	var entry *domain.Entry
	if t == domain.IDLevel {
		if reason := q.meta.RejectReason(id); reason != "" {
			return fmt.Sprintf("That level %s!", reason)
		}
		info, msg := q.resolveLevel(ctx, id)
		if msg != "" {
			return msg
		}
		if info.RequiredPlayers > q.players {
			return fmt.Sprintf("Sorry, %s is not accepting %d-player levels.", q.opts.Streamer, info.RequiredPlayers)
		}
		entry = domain.NewLevel(info, username)
	} else {
		var msg string
		if entry, msg = q.creatorEntry(ctx, id, username); msg != "" {
			return msg
		}
	}

	pos := q.enqueue(entry, u)
	u.submitted++
	u.permit = username == q.opts.Streamer
	if entry.IsLevel() {
		q.meta.SetRejectReason(id, reasonQueued)
	}

	resp := fmt.Sprintf("%s was added as #%d in the queue.", entry.Display(), pos)
	if q.hasLimit() {
		resp = fmt.Sprintf("%s Submission %d/%d", resp, u.submitted, q.opts.LevelLimit)
	}
	if len(q.queue) == 1 {
		resp += "\n" + q.playLevel(ctx)
	}
	q.queueChanged()
	return resp
}

// enqueue agrega al final respetando las rondas; devuelve la posición
// (1-based) donde quedó la entrada.
func (q *QueueEngine) enqueue(entry *domain.Entry, u *user) int {
	var later []*domain.Entry
	if q.rotation() {
		entry.Round = max(u.lastRound+1, q.minOpenRound)
		u.lastRound = entry.Round
		for i, e := range q.queue {
			if !e.IsMarker() && e.Round > entry.Round {
				later = append(later, q.queue[i:]...)
				q.queue = q.queue[:i]
				break
			}
		}
		if q.opts.RoundDuration > 0 && q.roundTimer == nil {
			q.setRoundTimer()
		}
	}

	q.queue = append(q.queue, entry)
	pos := len(q.queue)
	if pos == 1 && q.rotation() {
		q.updatePlayingRound(entry.Round)
	}
	// cada marcador pasa delante de la entrada que lo precedía, así el corte
	// queda en el borde de la ronda
	for i, e := range later {
		if i+1 < len(later) && later[i+1].IsMarker() {
			q.queue = append(q.queue, later[i+1])
		}
		if !e.IsMarker() {
			q.queue = append(q.queue, e)
		}
	}
	return pos
}

type checkResult struct {
	message    string
	canAutoAdd bool
}

func (q *QueueEngine) checkLevel(ctx context.Context, id string) checkResult {
	if domain.ClassifyID(id) != domain.IDLevel {
		return checkResult{message: "Please enter a valid level code to check."}
	}
	info, msg := q.resolveLevel(ctx, id)
	if msg != "" {
		return checkResult{message: msg}
	}

	display := domain.NewLevel(info, "").Display()
	if q.meta.Banned(id) {
		return checkResult{message: fmt.Sprintf("%s has banned %s.", q.opts.Streamer, display)}
	}

	played, beaten := q.meta.Interactions(id)
	verb := "not played"
	if played {
		verb = "played"
	}
	if beaten {
		verb = "beaten"
	}

	warning := ""
	if verb != "beaten" && info.RequiredPlayers > q.players {
		warning = fmt.Sprintf("  But %s is not accepting %d-player levels.", q.opts.Streamer, info.RequiredPlayers)
	}
	return checkResult{
		message:    fmt.Sprintf("%s has %s %s.%s", q.opts.Streamer, verb, display, warning),
		canAutoAdd: verb == "not played" && warning == "",
	}
}

func (q *QueueEngine) checkID(ctx context.Context, id string) string {
	t := domain.ClassifyID(id)
	if msg := q.typeError(t); msg != "" {
		return msg
	}
	if t == domain.IDLevel {
		return q.checkLevel(ctx, id).message
	}

	creator, msg := q.creatorEntry(ctx, id, "")
	if msg != "" {
		return msg
	}
	levels, err := q.playableLevels(ctx, id)
	if err != nil {
		log.Printf("[queue] levels for %s: %v", id, err)
		return msgLevelUnavailable
	}
	if len(levels) == 0 {
		return fmt.Sprintf("Unable to find levels for %s!", creator.Display())
	}
	for _, l := range levels {
		if !l.Played {
			return fmt.Sprintf("The most recent unplayed level from %s is %s",
				creator.Display(), domain.NewLevel(l.Info(), "").Display())
		}
	}
	for _, l := range levels {
		if !l.Beaten {
			return fmt.Sprintf("All levels from %s have been played; the most recent unbeaten level is %s",
				creator.Display(), domain.NewLevel(l.Info(), "").Display())
		}
	}
	return fmt.Sprintf("All levels from %s have been beaten", creator.Display())
}

func (q *QueueEngine) checkAndAdd(ctx context.Context, id, username string) string {
	check := q.checkLevel(ctx, id)
	if check.canAutoAdd {
		return check.message + " " + q.addEntry(ctx, id, username, "")
	}
	return check.message
}

// playableLevels: los levels del creator que entran en el límite de
// jugadores.
func (q *QueueEngine) playableLevels(ctx context.Context, creatorID string) ([]domain.CreatorLevel, error) {
	all, err := q.meta.LevelsForCreator(ctx, creatorID, nil)
	if err != nil {
		return nil, err
	}
	return withinPlayers(all, q.players), nil
}

func withinPlayers(levels []domain.CreatorLevel, players int) []domain.CreatorLevel {
	out := make([]domain.CreatorLevel, 0, len(levels))
	for _, l := range levels {
		if l.Players <= players {
			out = append(out, l)
		}
	}
	return out
}

func (q *QueueEngine) indexOf(id string) int {
	for i, e := range q.queue {
		if !e.IsMarker() && e.ID == id {
			return i
		}
	}
	return -1
}

func (q *QueueEngine) removeEntry(id, username string) string {
	if msg := q.typeError(domain.ClassifyID(id)); msg != "" {
		return msg
	}
	i := q.indexOf(id)
	if i == -1 {
		return "The level you tried to remove is not in the queue"
	}
	entry := q.queue[i]
	if entry.SubmittedBy != username && username != q.opts.Streamer {
		return "You can't remove a level from the queue that you didn't submit!"
	}
	if i == 0 {
		return "You can't remove the current level from the queue!"
	}

	q.removeFromQueue(i)
	q.queueChanged()
	if entry.IsLevel() {
		reason := ""
		if username == q.opts.Streamer {
			reason = fmt.Sprintf("was removed by %s; it can't be re-added", username)
		}
		q.meta.SetRejectReason(id, reason)
	}
	return fmt.Sprintf("%s was removed from the queue!", entry.Display())
}
