package lookup

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

var errBoom = errors.New("boom")
var errGone = errors.New("gone")

type flakyUpstream struct {
	failures int
	calls    int
	err      error
}

func (f *flakyUpstream) fail() error {
	f.calls++
	if f.failures < 0 || f.calls <= f.failures {
		if f.err != nil {
			return f.err
		}
		return errBoom
	}
	return nil
}

func (f *flakyUpstream) SearchLevels(ctx context.Context, q domain.LevelQuery) ([]domain.LevelInfo, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return []domain.LevelInfo{{ID: q.LevelIDs[0], Title: "Found"}}, nil
}

func (f *flakyUpstream) SearchPlayers(ctx context.Context, ids []string) ([]domain.CreatorInfo, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return []domain.CreatorInfo{{ID: ids[0], Alias: "Someone"}}, nil
}

func (f *flakyUpstream) AddBookmark(ctx context.Context, id string) error    { return f.fail() }
func (f *flakyUpstream) RemoveBookmark(ctx context.Context, id string) error { return f.fail() }

type logSink struct{ lines []string }

func (l *logSink) logf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func TestRetriesUntilSuccess(t *testing.T) {
	up := &flakyUpstream{failures: 2}
	sink := &logSink{}
	c := New(up, WithBaseDelay(0), WithLogger(sink.logf))

	levels, err := c.SearchLevels(context.Background(), domain.LevelQuery{LevelIDs: []string{"abc1234"}})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.Equal(t, 3, up.calls)
	assert.Equal(t, []string{
		"WARNING: Rumpus call failed (attempt 1) - boom",
		"WARNING: Rumpus call failed (attempt 2) - boom",
	}, sink.lines)
}

func TestExhaustionIsUnavailable(t *testing.T) {
	up := &flakyUpstream{failures: -1}
	sink := &logSink{}
	c := New(up, WithBaseDelay(0), WithLogger(sink.logf))

	_, err := c.SearchPlayers(context.Background(), []string{"emp001"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, up.calls)
	require.Len(t, sink.lines, 3)
	assert.Equal(t, "ERROR: Rumpus call failed (attempt 3) - boom", sink.lines[2])
}

func TestPermanentErrorsAreNotRetried(t *testing.T) {
	up := &flakyUpstream{failures: -1, err: errGone}
	c := New(up, WithBaseDelay(0), WithLogger(func(string, ...any) {}),
		WithPermanent(func(err error) bool { return errors.Is(err, errGone) }))

	err := c.RemoveBookmark(context.Background(), "abc1234")
	assert.ErrorIs(t, err, errGone)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 1, up.calls)
}

func TestBookmarkSucceedsFirstTry(t *testing.T) {
	up := &flakyUpstream{}
	c := New(up, WithBaseDelay(0))

	require.NoError(t, c.AddBookmark(context.Background(), "abc1234"))
	assert.Equal(t, 1, up.calls)
}
