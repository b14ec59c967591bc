package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

// tipos de recompensa y lo que hacen, en el orden en que se listan
var rewardTypes = []struct{ name, does string }{
	{"urgent", "move a level to the front of the queue"},
	{"priority", "move a level to the front of its group"},
	{"expedite", "move a level up one place in the queue"},
	{"add", "add a level to the queue"},
	{"unlimit", "ignore limit when adding a level"},
}

func rewardDoes(t string) string {
	for _, r := range rewardTypes {
		if r.name == t {
			return r.does
		}
	}
	return ""
}

func unknownReward(t string) string {
	names := make([]string, len(rewardTypes))
	for i, r := range rewardTypes {
		names[i] = r.name
	}
	return fmt.Sprintf("Unknown reward type: %s; known types are: %s", t, strings.Join(names, ", "))
}

// rewardFor devuelve el id de la recompensa configurada para ese tipo.
func (q *QueueEngine) rewardFor(t string) string {
	for _, id := range slices.Sorted(maps.Keys(q.rewards)) {
		if q.rewards[id] == t {
			return id
		}
	}
	return ""
}

func (q *QueueEngine) saveRewards() string {
	if q.store == nil {
		return ""
	}
	return q.store.SaveRewards(maps.Clone(q.rewards))
}

func (q *QueueEngine) setReward(t, rewardID string) string {
	does := rewardDoes(t)
	if does == "" {
		return unknownReward(t)
	}
	if rewardID == "" {
		return fmt.Sprintf("To configure a custom channel points reward to %s, redeem the reward with the message '%sreward %s'",
			does, q.opts.Prefix, t)
	}
	if cur, ok := q.rewards[rewardID]; ok {
		if cur == t {
			return "That reward is already set up to " + does
		}
		return fmt.Sprintf("That reward is currently set up to %s; if you want to change its behavior, first use '%snoreward %s'",
			rewardDoes(cur), q.opts.Prefix, cur)
	}
	if q.rewardFor(t) != "" {
		return fmt.Sprintf("Another reward is already set up to %s; if you want to switch rewards for this behavior, first use '%snoreward %s'",
			does, q.opts.Prefix, t)
	}

	q.rewards[rewardID] = t
	if t == "add" {
		q.usePointsToAdd = true
	}
	return strings.TrimSpace("Registered reward to " + does + ". " + q.saveRewards())
}

func (q *QueueEngine) unsetReward(t string) string {
	does := rewardDoes(t)
	if does == "" {
		return unknownReward(t)
	}
	id := q.rewardFor(t)
	if id == "" {
		return "No reward is set up to " + does
	}

	delete(q.rewards, id)
	if t == "add" {
		q.usePointsToAdd = false
	}
	return strings.TrimSpace("Removed reward to " + does + ". " + q.saveRewards())
}

func (q *QueueEngine) processReward(ctx context.Context, rewardID string, args []string, username string) string {
	first := ""
	if len(args) > 0 {
		first = args[0]
	}
	switch b := q.rewards[rewardID]; b {
	case "urgent":
		return q.urgentReward(first, nil)
	case "priority":
		return q.priorityReward(first)
	case "expedite":
		return q.expediteReward(first)
	case "add", "unlimit":
		id := first
		if first == q.opts.Prefix+"add" {
			id = ""
			if len(args) > 1 {
				id = args[1]
			}
		}
		if id == "" {
			return ""
		}
		return q.addEntry(ctx, id, username, b)
	}
	return ""
}

func (q *QueueEngine) boost(id, username string) string {
	u := q.user(username)
	if !u.canBoost && username != q.opts.Streamer {
		return fmt.Sprintf("You can't boost levels without permission from %s!", q.opts.Streamer)
	}
	return q.urgentReward(id, func() { u.canBoost = false })
}

// takeForReward saca de la cola la entrada a promover. Si no hay entrada
// devuelve el mensaje de error.
func (q *QueueEngine) takeForReward(id string) (*domain.Entry, int, string) {
	if msg := q.typeError(domain.ClassifyID(id)); msg != "" {
		return nil, -1, msg
	}
	i := q.indexOf(id)
	switch {
	case i == 0:
		return nil, i, "You can't change priority of the level being played!"
	case i < 0:
		return nil, i, "That level is not in the queue!"
	}
	entry := q.queue[i]
	q.queue = slices.Delete(q.queue, i, i+1)
	return entry, i, ""
}

func (q *QueueEngine) urgentReward(id string, onSuccess func()) string {
	entry, index, msg := q.takeForReward(id)
	if entry == nil {
		return msg
	}

	var actions []string
	if !entry.Priority {
		actions = append(actions, "was marked as priority!")
		entry.Priority = true
	}
	if q.rotation() {
		entry.Round = q.playingRound
	}
	newIndex := len(q.queue)
	for i := 1; i < len(q.queue); i++ {
		e := q.queue[i]
		if e.IsMarker() || !e.Priority || e.Round > q.playingRound {
			newIndex = i
			break
		}
	}
	if newIndex >= index {
		newIndex = index
	} else {
		actions = append(actions, fmt.Sprintf("is now #%d in the queue.", newIndex+1))
	}
	if len(actions) == 0 {
		actions = append(actions, "can't be given any higher priority!")
	}

	q.queue = slices.Insert(q.queue, newIndex, entry)
	q.queueChanged()
	if onSuccess != nil {
		onSuccess()
	}
	return entry.Display() + " " + strings.Join(actions, " It ")
}

func (q *QueueEngine) priorityReward(id string) string {
	entry, index, msg := q.takeForReward(id)
	if entry == nil {
		return msg
	}

	entry.Priority = true
	i := index - 1
	for ; i > 0; i-- {
		e := q.queue[i]
		if e.IsMarker() || e.Priority || e.Round < entry.Round {
			break
		}
	}
	newIndex := i + 1
	q.queue = slices.Insert(q.queue, newIndex, entry)
	q.queueChanged()
	return fmt.Sprintf("%s was marked as priority! It is now #%d in the queue.", entry.Display(), newIndex+1)
}

func (q *QueueEngine) expediteReward(id string) string {
	entry, index, msg := q.takeForReward(id)
	if entry == nil {
		return msg
	}

	before := q.queue[index-1]
	switch {
	case index == 1:
		msg = "You can't expedite a level that's already next to be played."
	case before.IsMarker():
		msg = "You can't expedite a level that's right after a break in the queue."
	case before.Round < entry.Round:
		msg = "You can't expedite a level that's already the first to be played in its round."
	case before.Priority && !entry.Priority:
		msg = "You can't expedite a normal-priority level that's right after a high-priority level."
	default:
		msg = fmt.Sprintf("%s was expedited! It is now #%d in the queue.", entry.Display(), index)
		index--
	}

	q.queue = slices.Insert(q.queue, index, entry)
	q.queueChanged()
	return msg
}

func (q *QueueEngine) permitUser(name string) string {
	name = strings.TrimPrefix(name, "@")
	u := q.user(name)
	if q.open && (u.submitted < q.opts.LevelLimit || !q.hasLimit()) {
		return name + " is able to submit levels."
	}
	u.permit = true
	return fmt.Sprintf("@%s, you may submit one level to the queue now.", name)
}

func (q *QueueEngine) giveBoost(name string) string {
	name = strings.TrimPrefix(name, "@")
	q.user(name).canBoost = true
	return fmt.Sprintf("@%s, you may boost one level in the queue now.", name)
}
