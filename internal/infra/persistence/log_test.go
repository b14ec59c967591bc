package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

func newLog(t *testing.T) *Log {
	t.Helper()
	return New(Options{Enabled: true, Dir: t.TempDir(), Interactions: true, Stats: true})
}

func readFile(t *testing.T, l *Log) string {
	t.Helper()
	b, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	return string(b)
}

func TestInitializeWithoutFile(t *testing.T) {
	l := newLog(t)
	st, err := l.Initialize()
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{}, st.Stats)
	assert.Empty(t, st.Deferred)
	assert.Equal(t, ":p=0\n:w=0\n:l=0\n", readFile(t, l))
}

func TestDisabledIsNoop(t *testing.T) {
	dir := t.TempDir()
	l := New(Options{Enabled: false, Dir: dir, Stats: true})
	require.NoError(t, l.StatDelta(StatPlayed, 1))
	require.NoError(t, l.Banned("abc1234"))
	_, err := os.Stat(filepath.Join(dir, FileName))
	assert.ErrorIs(t, err, os.ErrNotExist)

	st, err := l.Initialize()
	require.NoError(t, err)
	assert.Equal(t, State{}, st)
}

func TestReplayRebuildsState(t *testing.T) {
	l := newLog(t)

	require.NoError(t, l.StatDelta(StatPlayed, 1))
	require.NoError(t, l.StatDelta(StatPlayed, 1))
	require.NoError(t, l.StatDelta(StatWon, 1))
	require.NoError(t, l.StatDelta(StatPlayed, -1))
	require.NoError(t, l.StatDelta(StatLost, 1))
	require.NoError(t, l.InteractionChanged("abc1234", true, false))
	require.NoError(t, l.InteractionChanged("abc1234", true, true))
	require.NoError(t, l.InteractionChanged("def5678", false, false))
	require.NoError(t, l.Banned("bad0001"))
	require.NoError(t, l.Banned("bad0002"))
	require.NoError(t, l.Unbanned("bad0002"))

	st, err := l.Initialize()
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Played: 1, Won: 1, Lost: 1}, st.Stats)
	assert.Equal(t, []string{"bad0001"}, st.Banned())
	assert.Contains(t, st.Levels, LevelState{ID: "abc1234", Played: true, Beaten: true})

	assert.Equal(t, ":p=1\n:w=1\n:l=1\nabc1234:PB\nbad0001:X\n", readFile(t, l))

	// el snapshot compactado reproduce lo mismo
	st2, err := New(l.opts).Initialize()
	require.NoError(t, err)
	assert.Equal(t, st.Stats, st2.Stats)
	assert.Equal(t, st.Banned(), st2.Banned())
}

func TestDeferredIsStackLike(t *testing.T) {
	l := newLog(t)

	require.NoError(t, l.Deferred("lvl0001"))
	require.NoError(t, l.Deferred("emp001"))
	require.NoError(t, l.DeferralReversed("emp001"))
	require.NoError(t, l.Deferred("lvl0002"))
	require.NoError(t, l.RoundBoundary())
	require.NoError(t, l.DeferredMarker("Break"))
	require.NoError(t, l.Deferred("lvl0001"))
	require.NoError(t, l.DeferralReversed("lvl0001"))

	st, err := l.Initialize()
	require.NoError(t, err)
	assert.Equal(t, []Deferred{
		{Kind: DeferredEntry, ID: "lvl0001"},
		{Kind: DeferredEntry, ID: "lvl0002"},
		{Kind: DeferredRound},
		{Kind: DeferredMarker, Label: "Break"},
	}, st.Deferred)

	// consumidos: la próxima sesión no los vuelve a ver
	st, err = New(l.opts).Initialize()
	require.NoError(t, err)
	assert.Empty(t, st.Deferred)
}

func TestStatSetAndUnknownLines(t *testing.T) {
	l := newLog(t)
	var logged []string
	l.logf = func(format string, args ...any) { logged = append(logged, format) }

	require.NoError(t, os.WriteFile(l.Path(), []byte(":p+\n:p+\ngarbage\n:w=7\r\n:l+3\n"), 0o644))
	require.NoError(t, l.StatSet(StatPlayed, 0))

	st, err := l.Initialize()
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Played: 0, Won: 7, Lost: 3}, st.Stats)
	assert.Len(t, logged, 1)
}

func TestInteractionsOffDropsPlayFlags(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("abc1234:PB\nbad0001:X\n"), 0o644))

	l := New(Options{Enabled: true, Dir: dir})
	st, err := l.Initialize()
	require.NoError(t, err)
	assert.Equal(t, []string{"bad0001"}, st.Banned())
	for _, ls := range st.Levels {
		assert.False(t, ls.Played)
	}
	assert.Equal(t, "bad0001:X\n", readFile(t, l))

	require.NoError(t, l.InteractionChanged("abc1234", true, false))
	require.NoError(t, l.StatDelta(StatPlayed, 1))
	assert.Equal(t, "bad0001:X\n", readFile(t, l))
}
