package service

import (
	"context"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

const (
	PriorityFIFO     = "fifo"
	PriorityRotation = "rotation"

	LimitNone    = "none"
	LimitActive  = "active"
	LimitSession = "session"

	CreatorManual    = "manual"
	CreatorClipboard = "clipboard"
	CreatorAuto      = "auto"
	CreatorWebUI     = "webui"
	CreatorReject    = "reject"

	AdvanceNext      = "next"
	AdvanceRandom    = "random"
	AdvanceAlternate = "alternate"
)

// Options son las opciones de la cola ya validadas por config.
type Options struct {
	Streamer        string
	Prefix          string
	Priority        string
	LevelLimitType  string
	LevelLimit      int
	CreatorCodeMode string
	Players         int
	DefaultAdvance  string
	RoundDuration   time.Duration
	RewardBehaviors map[string]string // rewardID -> behavior
}

// Deps agrupa los colaboradores del motor. Solo Metadata y Bookmarks son
// obligatorios.
type Deps struct {
	Metadata  Metadata
	Bookmarks Bookmarks
	Journal   Journal
	Notifier  Notifier
	Chat      Chat
	Picker    CreatorPicker
	Clipboard Clipboard
	Rewards   RewardStore
	Archive   Archive
	Clock     Clock
	Rand      func(n int) int
}

type user struct {
	submitted int
	permit    bool
	canBoost  bool
	lastRound int
}

type prevState int

const (
	prevNone     prevState = iota // nunca se jugó nada
	prevConsumed                  // recién restaurado, no encadena
	prevSet
)

// QueueEngine es la cola y su máquina de estados. Cada comando corre
// completo bajo mu, incluido el timer de rondas.
type QueueEngine struct {
	mu sync.Mutex

	opts           Options
	players        int
	rewards        map[string]string
	usePointsToAdd bool

	meta    Metadata
	marks   Bookmarks
	journal Journal
	notify  Notifier
	chat    Chat
	picker  CreatorPicker
	clip    Clipboard
	store   RewardStore
	archive Archive
	clock   Clock
	randn   func(n int) int

	queue        []*domain.Entry
	open         bool
	users        map[string]*user
	prev         *domain.Entry
	prevState    prevState
	forced       string
	advanceCalls int
	counts       domain.Counts

	noSpoil     []string
	nextNoSpoil []string
	restoreDMs  bool

	playingRound int
	minOpenRound int
	roundTimer   Timer
	timerSeq     int

	warnings []string
}

func NewQueueEngine(opts Options, d Deps) *QueueEngine {
	q := &QueueEngine{
		opts:    opts,
		players: opts.Players,
		rewards: map[string]string{},
		meta:    d.Metadata,
		marks:   d.Bookmarks,
		journal: d.Journal,
		notify:  d.Notifier,
		chat:    d.Chat,
		picker:  d.Picker,
		clip:    d.Clipboard,
		store:   d.Rewards,
		archive: d.Archive,
		clock:   d.Clock,
		randn:   d.Rand,
		open:    true,
		users:   map[string]*user{},
	}
	if q.opts.Prefix == "" {
		q.opts.Prefix = "!"
	}
	if q.players < 1 {
		q.players = 1
	}
	if q.journal == nil {
		q.journal = noJournal{}
	}
	if q.notify == nil {
		q.notify = Notifiers(nil)
	}
	if q.chat == nil {
		q.chat = noChat{}
	}
	if q.clock == nil {
		q.clock = realClock{}
	}
	if q.randn == nil {
		q.randn = rand.IntN
	}
	for id, b := range opts.RewardBehaviors {
		if b == "" {
			continue
		}
		q.rewards[id] = b
		if b == "add" {
			q.usePointsToAdd = true
		}
	}
	if q.rotation() {
		q.playingRound = 1
		q.minOpenRound = 1
	}
	return q
}

// Init aplica el journal de sesiones anteriores y re-encola lo pospuesto.
// Los errores de disco se devuelven: sin journal no hay reinicio correcto.
func (q *QueueEngine) Init(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	st, err := q.journal.Initialize()
	if err != nil {
		return err
	}
	for _, ls := range st.Levels {
		if q.journal.TracksPlays() && (ls.Played || ls.Beaten) {
			q.meta.LoadPrior(ls.ID, ls.Played, ls.Beaten)
		}
		if ls.Banned {
			q.meta.SetBanned(ls.ID, true)
			q.meta.SetRejectReason(ls.ID, reasonBanned)
		}
	}
	if q.journal.TracksStats() {
		h := st.Stats
		q.counts.History = &h
	}

	out := q.reloadDeferred(ctx, st.Deferred)
	out = append(out, q.takeWarnings()...)
	for _, line := range out {
		q.chat.Say(line)
	}

	q.notify.StatusChanged(q.open)
	q.notify.CountsChanged(q.countsCopy())
	q.queueChanged()
	return nil
}

// Command procesa un mensaje de chat (o un canje de recompensa si
// rewardID no está vacío) y devuelve la respuesta; "" es sin respuesta.
func (q *QueueEngine) Command(ctx context.Context, message, username, rewardID string) string {
	q.mu.Lock()
	defer q.mu.Unlock()

	reply := q.dispatch(ctx, message, username, rewardID)
	if w := q.takeWarnings(); len(w) > 0 {
		if reply != "" {
			w = append([]string{reply}, w...)
		}
		reply = strings.Join(w, "\n")
	}
	return reply
}

func (q *QueueEngine) dispatch(ctx context.Context, message, username, rewardID string) string {
	args := strings.Fields(message)
	command := ""
	if len(args) > 0 && strings.HasPrefix(args[0], q.opts.Prefix) {
		command = strings.ToLower(strings.TrimPrefix(args[0], q.opts.Prefix))
	}
	if command == "" && rewardID == "" {
		return ""
	}
	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	rest := func(i int) string {
		if i < len(args) {
			return strings.Join(args[i:], " ")
		}
		return ""
	}

	if username == q.opts.Streamer {
		switch command {
		case "open":
			return q.openQueue()
		case "close":
			return q.closeQueue()
		case "suspend":
			return q.suspend(ctx)
		case "players":
			return q.setPlayers(arg(1))
		case "permit":
			return ifArg(arg(1), func(a string) string { return q.permitUser(strings.ToLower(a)) })
		case "giveboost":
			return ifArg(arg(1), func(a string) string { return q.giveBoost(strings.ToLower(a)) })
		case "next":
			return q.nextLevel(ctx)
		case "play":
			return q.playSpecificLevel(ctx, strings.ToLower(rest(1)))
		case "random":
			return q.randomLevel(ctx)
		case "skip":
			return q.skipLevel(ctx, args)
		case "nope":
			return q.nope(ctx, args)
		case "unban":
			return q.unban(ctx, arg(1))
		case "postpone":
			return q.postpone(ctx, args)
		case "advance":
			return q.advance(ctx, args)
		case "win":
			return q.winLevel(ctx, args)
		case "lose":
			return q.loseLevel(ctx, args)
		case "back":
			return q.goBack(ctx)
		case "clear":
			return q.clear(ctx)
		case "reset":
			return q.reset(strings.ToLower(arg(1)))
		case "mark":
			return q.makeMarker(rest(1))
		case "reward":
			return ifArg(arg(1), func(a string) string { return q.setReward(strings.ToLower(a), rewardID) })
		case "noreward":
			return ifArg(arg(1), func(a string) string { return q.unsetReward(strings.ToLower(a)) })
		}
	}

	if rewardID != "" {
		return q.processReward(ctx, rewardID, args, username)
	}

	switch command {
	case "check":
		return ifArg(arg(1), func(a string) string { return q.checkID(ctx, a) })
	case "add":
		return ifArg(arg(1), func(a string) string { return q.addEntry(ctx, a, username, "") })
	case "chadd":
		return ifArg(arg(1), func(a string) string { return q.checkAndAdd(ctx, a, username) })
	case "remove":
		return ifArg(arg(1), func(a string) string { return q.removeEntry(a, username) })
	case "boost":
		return ifArg(arg(1), func(a string) string { return q.boost(a, username) })
	case "queue":
		return q.showQueue()
	case "nospoil":
		return q.noSpoilFor(username)
	case "stats":
		return q.showStats()
	case "commands", "help":
		return q.showCommands()
	case "bot":
		return q.showBotInfo()
	}
	return ""
}

func ifArg(a string, fn func(string) string) string {
	if a == "" {
		return ""
	}
	return fn(a)
}

// Snapshot copia la cola para lectores externos.
func (q *QueueEngine) Snapshot() []domain.Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

func (q *QueueEngine) snapshotLocked() []domain.Entry {
	out := make([]domain.Entry, len(q.queue))
	for i, e := range q.queue {
		out[i] = *e
	}
	return out
}

func (q *QueueEngine) Counts() domain.Counts {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.countsCopy()
}

func (q *QueueEngine) IsOpen() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.open
}

func (q *QueueEngine) countsCopy() domain.Counts {
	c := domain.Counts{Session: q.counts.Session}
	if q.counts.History != nil {
		h := *q.counts.History
		c.History = &h
	}
	return c
}

func (q *QueueEngine) queueChanged() {
	q.notify.QueueChanged(q.snapshotLocked())
}

func (q *QueueEngine) countsChanged() {
	q.notify.CountsChanged(q.countsCopy())
}

func (q *QueueEngine) rotation() bool { return q.opts.Priority == PriorityRotation }

func (q *QueueEngine) hasLimit() bool {
	return q.opts.LevelLimitType != LimitNone && q.opts.LevelLimitType != "" && q.opts.LevelLimit > 0
}

func (q *QueueEngine) user(name string) *user {
	u, ok := q.users[name]
	if !ok {
		u = &user{permit: name == q.opts.Streamer}
		q.users[name] = u
	}
	return u
}

// persisted registra un error de journal: va al log y a la respuesta.
func (q *QueueEngine) persisted(err error) {
	if err == nil {
		return
	}
	log.Printf("[persist] %v", err)
	q.warnings = append(q.warnings, "WARNING: Unable to save data - "+err.Error())
}

func (q *QueueEngine) takeWarnings() []string {
	w := q.warnings
	q.warnings = nil
	return w
}

// bumpStat aplica un delta a session y history y lo registra.
func (q *QueueEngine) bumpStat(code byte, delta int) {
	apply := func(t *domain.Tally) {
		switch code {
		case statPlayed:
			t.Played += delta
		case statWon:
			t.Won += delta
		case statLost:
			t.Lost += delta
		}
	}
	apply(&q.counts.Session)
	if q.counts.History != nil {
		apply(q.counts.History)
	}
	q.persisted(q.journal.StatDelta(code, delta))
}

func (q *QueueEngine) record(ctx context.Context, e *domain.Entry, outcome domain.Outcome) {
	if q.archive == nil || e.IsMarker() {
		return
	}
	if err := q.archive.RecordPlay(ctx, domain.NewPlay(e, outcome, q.clock.Now())); err != nil {
		log.Printf("[archive] %s %s: %v", outcome, e.ID, err)
	}
}
