package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFIFO(t *testing.T) {
	h := newHarness(t)
	q := h.bot()

	resp := cmd(q, "!add valid01", "alice")
	assert.Equal(t, "Valid Level 01 (valid01) was added as #1 in the queue.\n"+
		"Now playing Valid Level 01 (valid01) submitted by alice", resp)
	assert.Equal(t, "Valid Level 02 (valid02) was added as #2 in the queue.", cmd(q, "!add valid02", "bobby"))
	cmd(q, "!add valid03", "carol")

	assert.Equal(t, []string{"valid01", "valid02", "valid03"}, ids(q))
	assert.Equal(t, []string{"valid01"}, h.up.marks())
	assert.Equal(t, "Total entries: 3; Now Playing: Valid Level 01 (valid01) Next 2: "+
		"[Valid Level 02 (valid02)] [Valid Level 03 (valid03)]", cmd(q, "!queue", "viewer"))
}

func TestAddRejectsDuplicatesAndBadCodes(t *testing.T) {
	h := newHarness(t)
	q := h.bot()

	cmd(q, "!add valid01", "alice")
	assert.Equal(t, "That level is already in the queue!", cmd(q, "!add valid01", "bobby"))
	assert.Equal(t, "Oops! That level does not exist!", cmd(q, "!add nope123", "bobby"))
	assert.Equal(t, "Oops! That creator does not exist!", cmd(q, "!add nope12", "bobby"))
	assert.Equal(t, "Please enter either a valid 7-digit level code, or a valid 6-digit creator code.",
		cmd(q, "!add x", "bobby"))
	assert.Equal(t, "Sorry, streamer is not accepting 2-player levels.", cmd(q, "!add 2plevel", "bobby"))

	cmd(q, "!next", "streamer")
	assert.Equal(t, "That level was already played!", cmd(q, "!add valid01", "bobby"))
}

func TestRotationInterleavesUsers(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) { o.Priority = PriorityRotation }))

	cmd(q, "!add valid01", "alice")
	cmd(q, "!add valid02", "alice")
	assert.Equal(t, "Valid Level 03 (valid03) was added as #2 in the queue.", cmd(q, "!add valid03", "bobby"))

	assert.Equal(t, []string{"valid01", "valid03", "valid02"}, ids(q))
	assert.Equal(t, []int{1, 1, 2}, rounds(q))
}

func TestRotationKeepsMarkerAtRoundEdge(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) { o.Priority = PriorityRotation }))

	cmd(q, "!add valid01", "alice")
	cmd(q, "!add valid02", "alice")
	cmd(q, "!mark", "streamer")
	assert.Equal(t, "Valid Level 03 (valid03) was added as #2 in the queue.", cmd(q, "!add valid03", "bobby"))
	cmd(q, "!add valid04", "bobby")

	assert.Equal(t, []string{"valid01", "valid03", "mark", "valid02", "valid04"}, ids(q))

	// los marcadores no tienen ronda; el resto nunca baja
	last := 0
	for _, e := range q.Snapshot() {
		if e.IsMarker() {
			continue
		}
		assert.GreaterOrEqual(t, e.Round, last)
		last = e.Round
	}
}

func TestRotationQueueDisplay(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) { o.Priority = PriorityRotation }))

	for _, add := range []struct{ id, user string }{
		{"valid01", "user1"}, {"valid02", "user2"}, {"valid03", "user3"},
		{"valid04", "user1"}, {"valid05", "user2"}, {"valid06", "user1"},
	} {
		cmd(q, "!add "+add.id, add.user)
	}

	assert.Equal(t, "Total entries: 6; Now Playing: Valid Level 01 (valid01) Next 5:"+
		" **Round 1 (2 entries)** : [Valid Level 02 (valid02)] [Valid Level 03 (valid03)]"+
		" **Round 2 (2 entries)** : [Valid Level 04 (valid04)] [Valid Level 05 (valid05)]"+
		" **Round 3 (1 entry)** : [Valid Level 06 (valid06)]", cmd(q, "!queue", "viewer"))
}

func TestRemoveRethreadsLaterRounds(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) { o.Priority = PriorityRotation }))

	cmd(q, "!add valid01", "alice")
	cmd(q, "!add valid02", "bobby")
	cmd(q, "!add valid03", "alice")
	cmd(q, "!add valid04", "bobby")
	cmd(q, "!add valid05", "alice")
	require.Equal(t, []int{1, 1, 2, 2, 3}, rounds(q))

	assert.Equal(t, "Valid Level 03 (valid03) was removed from the queue!", cmd(q, "!remove valid03", "alice"))
	assert.Equal(t, []string{"valid01", "valid02", "valid05", "valid04"}, ids(q))
	assert.Equal(t, []int{1, 1, 2, 2}, rounds(q))

	// el hueco quedó cubierto: el siguiente de alice va a la ronda 3
	cmd(q, "!add valid06", "alice")
	assert.Equal(t, []int{1, 1, 2, 2, 3}, rounds(q))
}

func TestRemoveRules(t *testing.T) {
	h := newHarness(t)
	q := h.bot()

	cmd(q, "!add valid01", "alice")
	cmd(q, "!add valid02", "bobby")

	assert.Equal(t, "You can't remove the current level from the queue!", cmd(q, "!remove valid01", "alice"))
	assert.Equal(t, "You can't remove a level from the queue that you didn't submit!", cmd(q, "!remove valid02", "alice"))
	assert.Equal(t, "The level you tried to remove is not in the queue", cmd(q, "!remove valid09", "alice"))

	assert.Equal(t, "Valid Level 02 (valid02) was removed from the queue!", cmd(q, "!remove valid02", "streamer"))
	assert.Equal(t, "That level was removed by streamer; it can't be re-added!", cmd(q, "!add valid02", "bobby"))
}

func TestClosedQueueAndPermit(t *testing.T) {
	h := newHarness(t)
	q := h.bot()

	assert.Equal(t, "The queue has been closed! No more levels :(", cmd(q, "!close", "streamer"))
	assert.Equal(t, "Sorry, queue is closed!", cmd(q, "!add valid01", "viewer"))
	assert.Equal(t, "@viewer, you may submit one level to the queue now.", cmd(q, "!permit @Viewer", "streamer"))
	assert.Contains(t, cmd(q, "!add valid01", "viewer"), "was added as #1")
	assert.Equal(t, "Sorry, queue is closed!", cmd(q, "!add valid02", "viewer"))

	assert.Contains(t, cmd(q, "!add valid02", "streamer"), "was added as #2")
	assert.Equal(t, []bool{true, false}, h.rec.status)
}

func TestSessionLimit(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) {
		o.LevelLimitType = LimitSession
		o.LevelLimit = 1
	}))

	assert.Equal(t, "Valid Level 01 (valid01) was added as #1 in the queue. Submission 1/1\n"+
		"Now playing Valid Level 01 (valid01) submitted by viewer", cmd(q, "!add valid01", "viewer"))
	assert.Equal(t, "You have submitted the maximum number of levels!", cmd(q, "!add valid02", "viewer"))

	cmd(q, "!next", "streamer")
	assert.Equal(t, "You have submitted the maximum number of levels!", cmd(q, "!add valid02", "viewer"))
}

func TestActiveLimitFreesSlotOnPlay(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) {
		o.LevelLimitType = LimitActive
		o.LevelLimit = 1
	}))

	cmd(q, "!add valid01", "viewer")
	assert.Equal(t, "You have submitted the maximum number of levels! (You can add more when one of yours has been played.)",
		cmd(q, "!add valid02", "viewer"))

	cmd(q, "!next", "streamer")
	assert.Contains(t, cmd(q, "!add valid02", "viewer"), "Submission 1/1")
}

func TestUpstreamRetries(t *testing.T) {
	h := newHarness(t)
	q := h.bot()

	h.up.levelFailures = 3
	assert.Equal(t, "WARNING: Unable to load level data", cmd(q, "!add valid01", "viewer"))
	assert.Empty(t, ids(q))

	h.up.levelFailures = 2
	assert.Contains(t, cmd(q, "!add valid01", "viewer"), "was added as #1")
	assert.Equal(t, []string{"valid01"}, ids(q))
}

func TestCheck(t *testing.T) {
	h := newHarness(t)
	q := h.bot()

	assert.Equal(t, "streamer has not played Valid Level 07 (valid07).", cmd(q, "!check valid07", "viewer"))
	assert.Equal(t, "streamer has beaten Beaten Level (beaten1).", cmd(q, "!check beaten1", "viewer"))
	assert.Equal(t, "streamer has not played Two Player Level (2plevel).  But streamer is not accepting 2-player levels.",
		cmd(q, "!check 2plevel", "viewer"))
	assert.Equal(t, "The most recent unplayed level from EmployEE 001's Profile (@emp001) is Level E2 (emp0002)",
		cmd(q, "!check emp001", "viewer"))
	assert.Equal(t, "Unable to find levels for EmployEE 002's Profile (@emp002)!", cmd(q, "!check emp002", "viewer"))
}

func TestCheckAndAdd(t *testing.T) {
	h := newHarness(t)
	q := h.bot()

	assert.Equal(t, "streamer has not played Valid Level 07 (valid07). Valid Level 07 (valid07) was added as #1 in the queue.\n"+
		"Now playing Valid Level 07 (valid07) submitted by viewer", cmd(q, "!chadd valid07", "viewer"))
	assert.Equal(t, "streamer has beaten Beaten Level (beaten1).", cmd(q, "!chadd beaten1", "viewer"))
	assert.Equal(t, []string{"valid07"}, ids(q))
}

func TestRejectCreatorCodes(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) { o.CreatorCodeMode = CreatorReject }))

	assert.Equal(t, "Please enter a valid level code.", cmd(q, "!add emp001", "viewer"))
}

func TestRoundTimerClosesRounds(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) {
		o.Priority = PriorityRotation
		o.RoundDuration = 10 * time.Minute
	}))

	cmd(q, "!add valid01", "alice")
	cmd(q, "!add valid02", "bobby")
	h.clock.Advance(10 * time.Minute)

	// la ronda 1 cerró: carol entra en la 2 aunque nunca envió nada
	cmd(q, "!add valid03", "carol")
	cmd(q, "!add valid04", "alice")
	assert.Equal(t, []int{1, 1, 2, 2}, rounds(q))
}

func TestWithoutRoundTimerRoundsStayOpen(t *testing.T) {
	h := newHarness(t)
	q := h.bot(withOptions(func(o *Options) { o.Priority = PriorityRotation }))

	cmd(q, "!add valid01", "alice")
	h.clock.Advance(time.Hour)
	cmd(q, "!add valid02", "carol")
	assert.Equal(t, []int{1, 1}, rounds(q))
}
