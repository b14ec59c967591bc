package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jose-valero/levelhead-queue-bot/internal/app/cache"
	"github.com/jose-valero/levelhead-queue-bot/internal/app/lookup"
	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
	"github.com/jose-valero/levelhead-queue-bot/internal/infra/persistence"
)

var errDown = errors.New("service down")

// upstream simula el servicio de niveles con fallas programables.
type upstream struct {
	mu             sync.Mutex
	levels         map[string]domain.LevelInfo
	creators       map[string]domain.CreatorInfo
	byCreator      map[string][]string
	levelFailures  int // -1: siempre
	playerFailures int
	bookmarks      []string
}

func newUpstream() *upstream {
	u := &upstream{
		levels:    map[string]domain.LevelInfo{},
		creators:  map[string]domain.CreatorInfo{},
		byCreator: map[string][]string{},
	}
	for i := 1; i <= 20; i++ {
		id := fmt.Sprintf("valid%02d", i)
		u.levels[id] = domain.LevelInfo{ID: id, RecordID: "r" + id, Title: fmt.Sprintf("Valid Level %02d", i), RequiredPlayers: 1}
	}
	u.levels["2plevel"] = domain.LevelInfo{ID: "2plevel", RecordID: "r2p", Title: "Two Player Level", RequiredPlayers: 2}
	u.levels["beaten1"] = domain.LevelInfo{ID: "beaten1", RecordID: "rb1", Title: "Beaten Level", RequiredPlayers: 1, Played: true, Beaten: true}

	u.creators["emp001"] = domain.CreatorInfo{ID: "emp001", Alias: "EmployEE 001", AvatarID: "gr17"}
	u.creators["emp002"] = domain.CreatorInfo{ID: "emp002", Alias: "EmployEE 002", AvatarID: "gr17"}
	u.addCreatorLevel("emp001", domain.LevelInfo{ID: "emp0001", Title: "Level E1", RequiredPlayers: 1, Played: true})
	u.addCreatorLevel("emp001", domain.LevelInfo{ID: "emp0002", Title: "Level E2", RequiredPlayers: 1})
	u.addCreatorLevel("emp001", domain.LevelInfo{ID: "emp0003", Title: "Level E3", RequiredPlayers: 2})
	return u
}

func (u *upstream) addCreatorLevel(creator string, l domain.LevelInfo) {
	l.RecordID = "r" + l.ID
	u.levels[l.ID] = l
	u.byCreator[creator] = append(u.byCreator[creator], l.ID)
}

func failing(n *int) bool {
	if *n == 0 {
		return false
	}
	if *n > 0 {
		*n--
	}
	return true
}

func (u *upstream) SearchLevels(ctx context.Context, q domain.LevelQuery) ([]domain.LevelInfo, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if failing(&u.levelFailures) {
		return nil, errDown
	}
	var ids []string
	if len(q.LevelIDs) > 0 {
		ids = q.LevelIDs
	} else {
		ids = u.byCreator[q.UserIDs[0]]
	}
	var out []domain.LevelInfo
	for _, id := range ids {
		if l, ok := u.levels[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (u *upstream) SearchPlayers(ctx context.Context, ids []string) ([]domain.CreatorInfo, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if failing(&u.playerFailures) {
		return nil, errDown
	}
	if c, ok := u.creators[ids[0]]; ok {
		return []domain.CreatorInfo{c}, nil
	}
	return nil, nil
}

func (u *upstream) AddBookmark(ctx context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.bookmarks = append(u.bookmarks, id)
	return nil
}

func (u *upstream) RemoveBookmark(ctx context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if i := slices.Index(u.bookmarks, id); i >= 0 {
		u.bookmarks = slices.Delete(u.bookmarks, i, i+1)
	}
	return nil
}

func (u *upstream) marks() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return slices.Clone(u.bookmarks)
}

// recorder junta todo lo que el motor notifica.
type recorder struct {
	mu     sync.Mutex
	said   []string
	dms    []string
	noDM   map[string]bool
	queues int
	status []bool
	counts []domain.Counts
}

func (r *recorder) Say(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.said = append(r.said, text)
}

func (r *recorder) DirectMessage(user, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dms = append(r.dms, user+": "+text)
}

func (r *recorder) CanDM(user string) bool { return !r.noDM[user] }

func (r *recorder) QueueChanged([]domain.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues++
}

func (r *recorder) StatusChanged(open bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = append(r.status, open)
}

func (r *recorder) CountsChanged(c domain.Counts) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, c)
}

type manualTimer struct {
	c       *manualClock
	at      time.Time
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance mueve el reloj y dispara los timers vencidos fuera del lock.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.at.After(c.now) {
			t.stopped = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

type archiveRec struct {
	mu    sync.Mutex
	plays []domain.Play
}

func (a *archiveRec) RecordPlay(ctx context.Context, p domain.Play) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.plays = append(a.plays, p)
	return nil
}

type clipRec struct{ content string }

func (c *clipRec) WriteAll(text string) error {
	c.content = text
	return nil
}

type pickerRec struct {
	mu      sync.Mutex
	creator string
	levels  []domain.CreatorLevel
	cleared int
}

func (p *pickerRec) SetCreatorInfo(creatorID, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creator = creatorID
	p.levels = nil
}

func (p *pickerRec) AddCreatorLevels(creatorID string, levels []domain.CreatorLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if creatorID == p.creator {
		p.levels = append(p.levels, levels...)
	}
}

func (p *pickerRec) ClearCreatorInfo() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleared++
}

func (p *pickerRec) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.levels)
}

type rewardRec struct{ saved map[string]string }

func (r *rewardRec) SaveRewards(b map[string]string) string {
	r.saved = b
	return "Saved."
}

// harness arma motores que comparten upstream y directorio de journal,
// así se pueden simular sesiones sucesivas.
type harness struct {
	t       *testing.T
	up      *upstream
	dir     string
	rec     *recorder
	clock   *manualClock
	archive *archiveRec
	clip    *clipRec
	picker  *pickerRec
	store   *rewardRec
	pick    func(n int) int
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:       t,
		up:      newUpstream(),
		dir:     t.TempDir(),
		rec:     &recorder{noDM: map[string]bool{}},
		clock:   &manualClock{now: time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)},
		archive: &archiveRec{},
		clip:    &clipRec{},
		picker:  &pickerRec{},
		store:   &rewardRec{},
		pick:    func(int) int { return 0 },
	}
}

func defaultOptions() Options {
	return Options{
		Streamer:        "streamer",
		Prefix:          "!",
		Priority:        PriorityFIFO,
		LevelLimitType:  LimitNone,
		CreatorCodeMode: CreatorManual,
		Players:         1,
		DefaultAdvance:  AdvanceNext,
	}
}

type botSetup struct {
	opts    Options
	persist persistence.Options
}

func withPersistence(p persistence.Options) func(*botSetup) {
	return func(s *botSetup) {
		p.Enabled = true
		s.persist = p
	}
}

func withOptions(fn func(*Options)) func(*botSetup) {
	return func(s *botSetup) { fn(&s.opts) }
}

func (h *harness) bot(mods ...func(*botSetup)) *QueueEngine {
	h.t.Helper()
	s := botSetup{opts: defaultOptions()}
	for _, m := range mods {
		m(&s)
	}
	s.persist.Dir = h.dir

	client := lookup.New(h.up, lookup.WithBaseDelay(0), lookup.WithLogger(func(string, ...any) {}))
	meta := cache.New(client, cache.WithSleep(func(context.Context, time.Duration) error { return nil }))
	q := NewQueueEngine(s.opts, Deps{
		Metadata:  meta,
		Bookmarks: client,
		Journal:   persistence.New(s.persist),
		Notifier:  h.rec,
		Chat:      h.rec,
		Picker:    h.picker,
		Clipboard: h.clip,
		Rewards:   h.store,
		Archive:   h.archive,
		Clock:     h.clock,
		Rand:      func(n int) int { return h.pick(n) },
	})
	require.NoError(h.t, q.Init(context.Background()))
	return q
}

func maxPick(n int) int { return n - 1 }

func cmd(q *QueueEngine, msg, user string) string {
	return q.Command(context.Background(), msg, user, "")
}

func redeem(q *QueueEngine, rewardID, msg, user string) string {
	return q.Command(context.Background(), msg, user, rewardID)
}

func ids(q *QueueEngine) []string {
	var out []string
	for _, e := range q.Snapshot() {
		if e.IsMarker() {
			out = append(out, "mark")
			continue
		}
		out = append(out, e.ID)
	}
	return out
}

func rounds(q *QueueEngine) []int {
	var out []int
	for _, e := range q.Snapshot() {
		out = append(out, e.Round)
	}
	return out
}

// addLevels agrega valid01..validNN, cada uno de un usuario distinto.
func addLevels(q *QueueEngine, n int) {
	for i := 1; i <= n; i++ {
		cmd(q, fmt.Sprintf("!add valid%02d", i), fmt.Sprintf("viewer%d", i))
	}
}
