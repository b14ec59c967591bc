package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoostNeedsPermission(t *testing.T) {
	h := newHarness(t)
	q := h.bot()
	addLevels(q, 4)

	assert.Equal(t, "You can't boost levels without permission from streamer!", cmd(q, "!boost valid04", "viewer4"))
	assert.Equal(t, "@viewer4, you may boost one level in the queue now.", cmd(q, "!giveboost @viewer4", "streamer"))
	assert.Equal(t, "Valid Level 04 (valid04) was marked as priority! It is now #2 in the queue.", cmd(q, "!boost valid04", "viewer4"))
	assert.Equal(t, []string{"valid01", "valid04", "valid02", "valid03"}, ids(q))

	assert.Equal(t, "You can't boost levels without permission from streamer!", cmd(q, "!boost valid03", "viewer4"))
	assert.Equal(t, "Valid Level 04 (valid04) can't be given any higher priority!", cmd(q, "!boost valid04", "streamer"))
}

func TestPriorityRewards(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) {
		o.RewardBehaviors = map[string]string{"r-exp": "expedite", "r-pri": "priority", "r-urg": "urgent"}
	}))
	addLevels(q, 4)

	assert.Equal(t, "Valid Level 04 (valid04) was marked as priority! It is now #2 in the queue.", redeem(q, "r-urg", "valid04", "viewer"))
	assert.Equal(t, "Valid Level 03 (valid03) was expedited! It is now #3 in the queue.", redeem(q, "r-exp", "valid03", "viewer"))
	assert.Equal(t, []string{"valid01", "valid04", "valid03", "valid02"}, ids(q))

	assert.Equal(t, "You can't expedite a normal-priority level that's right after a high-priority level.",
		redeem(q, "r-exp", "valid03", "viewer"))
	assert.Equal(t, "Valid Level 02 (valid02) was marked as priority! It is now #3 in the queue.", redeem(q, "r-pri", "valid02", "viewer"))
	assert.Equal(t, []string{"valid01", "valid04", "valid02", "valid03"}, ids(q))

	assert.Equal(t, "You can't change priority of the level being played!", redeem(q, "r-exp", "valid01", "viewer"))
	assert.Equal(t, "That level is not in the queue!", redeem(q, "r-urg", "valid09", "viewer"))
	assert.Equal(t, "You can't expedite a level that's already next to be played.", redeem(q, "r-exp", "valid04", "viewer"))
}

func TestExpediteStopsAtMarkerAndRound(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) {
		o.Priority = PriorityRotation
		o.RewardBehaviors = map[string]string{"r-exp": "expedite"}
	}))
	cmd(q, "!add valid01", "alice")
	cmd(q, "!add valid02", "alice")
	cmd(q, "!add valid03", "bobby")
	require.Equal(t, []string{"valid01", "valid03", "valid02"}, ids(q))

	assert.Equal(t, "You can't expedite a level that's already the first to be played in its round.",
		redeem(q, "r-exp", "valid02", "viewer"))

	q = h.bot(withOptions(func(o *Options) { o.RewardBehaviors = map[string]string{"r-exp": "expedite"} }))
	cmd(q, "!add valid05", "alice")
	cmd(q, "!mark", "streamer")
	cmd(q, "!add valid06", "carol")
	assert.Equal(t, "You can't expedite a level that's right after a break in the queue.", redeem(q, "r-exp", "valid06", "viewer"))
	assert.Equal(t, []string{"valid05", "mark", "valid06"}, ids(q))
}

func TestRewardSetup(t *testing.T) {
	h := newHarness(t)
	q := h.bot()

	assert.Equal(t, "To configure a custom channel points reward to add a level to the queue, redeem the reward with the message '!reward add'",
		cmd(q, "!reward add", "streamer"))
	assert.Equal(t, "Registered reward to add a level to the queue. Saved.", redeem(q, "rw1", "!reward add", "streamer"))
	assert.Equal(t, map[string]string{"rw1": "add"}, h.store.saved)

	assert.Equal(t, "That reward is already set up to add a level to the queue", redeem(q, "rw1", "!reward add", "streamer"))
	assert.Equal(t, "That reward is currently set up to add a level to the queue; if you want to change its behavior, first use '!noreward add'",
		redeem(q, "rw1", "!reward urgent", "streamer"))
	assert.Equal(t, "Another reward is already set up to add a level to the queue; if you want to switch rewards for this behavior, first use '!noreward add'",
		redeem(q, "rw2", "!reward add", "streamer"))

	assert.Equal(t, "Please use channel points to add levels.", cmd(q, "!add valid01", "viewer"))
	assert.Contains(t, redeem(q, "rw1", "valid01", "viewer"), "Valid Level 01 (valid01) was added as #1")
	assert.Contains(t, redeem(q, "rw1", "!add valid02", "viewer"), "Valid Level 02 (valid02) was added as #2")

	assert.Equal(t, "Removed reward to add a level to the queue. Saved.", cmd(q, "!noreward add", "streamer"))
	assert.Empty(t, h.store.saved)
	assert.Equal(t, "No reward is set up to add a level to the queue", cmd(q, "!noreward add", "streamer"))
	assert.Equal(t, "Unknown reward type: bogus; known types are: urgent, priority, expedite, add, unlimit",
		cmd(q, "!reward bogus", "streamer"))
	assert.Contains(t, cmd(q, "!add valid03", "viewer"), "was added as #3")
}

func TestUnlimitReward(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) {
		o.LevelLimitType = LimitSession
		o.LevelLimit = 1
		o.RewardBehaviors = map[string]string{"rw-un": "unlimit"}
	}))

	cmd(q, "!add valid01", "viewer")
	assert.Equal(t, "You have submitted the maximum number of levels!", cmd(q, "!add valid02", "viewer"))
	assert.Equal(t, "Valid Level 02 (valid02) was added as #2 in the queue. Submission 2/1", redeem(q, "rw-un", "valid02", "viewer"))
}
