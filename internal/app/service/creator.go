package service

import (
	"context"
	"fmt"
	"log"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

// playCreator resuelve un creator code según CreatorCodeMode.
func (q *QueueEngine) playCreator(ctx context.Context, head *domain.Entry) string {
	resp := fmt.Sprintf("Picking a level from %s (submitted by %s)...", head.Display(), head.SubmittedBy)

	switch q.opts.CreatorCodeMode {
	case CreatorClipboard:
		if q.clip != nil {
			if err := q.clip.WriteAll(head.ID); err != nil {
				log.Printf("[queue] clipboard: %v", err)
			}
		}
	case CreatorAuto:
		return resp + "\n" + q.autoPick(ctx, head)
	case CreatorWebUI:
		if q.picker != nil {
			q.picker.SetCreatorInfo(head.ID, head.Name)
			go q.feedPicker(head.ID, q.players)
		}
	}
	return resp
}

// autoPick elige al azar entre los levels no jugados (o todos si ya se
// jugaron todos), sin contar los baneados.
func (q *QueueEngine) autoPick(ctx context.Context, head *domain.Entry) string {
	levels, err := q.playableLevels(ctx, head.ID)
	if err != nil {
		log.Printf("[queue] levels for %s: %v", head.ID, err)
		return msgLevelUnavailable
	}

	var candidates, unplayed []domain.CreatorLevel
	for _, l := range levels {
		if l.Banned {
			continue
		}
		candidates = append(candidates, l)
		if !l.Played {
			unplayed = append(unplayed, l)
		}
	}
	if len(candidates) == 0 {
		return fmt.Sprintf("Unable to find levels for %s!", head.Display())
	}
	if len(unplayed) > 0 {
		candidates = unplayed
	}
	resp, _ := q.specifyLevel(ctx, head.ID, candidates[q.randn(len(candidates))])
	return resp
}

// feedPicker carga los levels del creator en la UI sin tomar el mutex:
// solo lee el cache.
func (q *QueueEngine) feedPicker(creatorID string, players int) {
	_, err := q.meta.LevelsForCreator(context.Background(), creatorID, func(page []domain.CreatorLevel) {
		q.picker.AddCreatorLevels(creatorID, withinPlayers(page, players))
	})
	if err != nil {
		log.Printf("[queue] levels for picker %s: %v", creatorID, err)
	}
}

func (q *QueueEngine) specifyLevel(ctx context.Context, creatorID string, level domain.CreatorLevel) (string, bool) {
	if len(q.queue) == 0 {
		return "", false
	}
	old := q.queue[0]
	if !old.IsCreator() || old.ID != creatorID {
		return "", false
	}
	q.queue[0] = old.Replace(level)
	resp := q.playLevel(ctx)
	q.queueChanged()
	return resp, true
}

// SpecifyLevelForCreator reemplaza el creator que se está jugando por uno
// de sus levels (lo elige el streamer desde la UI). La respuesta va al
// chat.
func (q *QueueEngine) SpecifyLevelForCreator(ctx context.Context, creatorID string, level domain.CreatorLevel) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	resp, ok := q.specifyLevel(ctx, creatorID, level)
	if !ok {
		return false
	}
	q.chat.Say(resp)
	for _, w := range q.takeWarnings() {
		q.chat.Say(w)
	}
	return true
}
