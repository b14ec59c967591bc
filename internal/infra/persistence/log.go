// Package persistence mantiene el journal en disco que sobrevive entre
// sesiones: stats, interacciones, bans y entradas pospuestas.
//
// Formato, una línea por hecho:
//
//	:p+  :w-  :l=12      stats (played, won, lost)
//	abc1234:PbX          flags por id (P/p played, B/b beaten, X/x ban, Q/q pospuesto)
//	M:Break              marker pospuesto
//	R                    límite de ronda entre pospuestos
package persistence

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

const FileName = "shenanibot-data.txt"

// Stat codes
const (
	StatPlayed byte = 'p'
	StatWon    byte = 'w'
	StatLost   byte = 'l'
)

var (
	reIDLine   = regexp.MustCompile(`^([a-z0-9]{6,7}):([PpBbXxQq]*)$`)
	reStatLine = regexp.MustCompile(`^:([pwl])([-+=])(\d*)$`)
)

type Options struct {
	Enabled      bool
	Dir          string
	Interactions bool
	Stats        bool
}

type DeferredKind int

const (
	DeferredEntry DeferredKind = iota
	DeferredMarker
	DeferredRound
)

// Deferred es una posición pospuesta a re-encolar en la próxima sesión.
type Deferred struct {
	Kind  DeferredKind
	ID    string
	Label string
}

type LevelState struct {
	ID     string
	Played bool
	Beaten bool
	Banned bool
}

// State es lo que queda después de reproducir el journal.
type State struct {
	Stats    domain.Tally
	Levels   []LevelState
	Deferred []Deferred
}

// Banned devuelve los ids con ban vigente.
func (s State) Banned() []string {
	var out []string
	for _, l := range s.Levels {
		if l.Banned {
			out = append(out, l.ID)
		}
	}
	return out
}

type Log struct {
	opts Options
	path string
	logf func(format string, args ...any)

	mu sync.Mutex
}

func New(opts Options) *Log {
	return &Log{
		opts: opts,
		path: filepath.Join(opts.Dir, FileName),
		logf: log.Printf,
	}
}

func (l *Log) Enabled() bool     { return l.opts.Enabled }
func (l *Log) TracksStats() bool { return l.opts.Enabled && l.opts.Stats }
func (l *Log) TracksPlays() bool { return l.opts.Enabled && l.opts.Interactions }
func (l *Log) Path() string      { return l.path }

// Initialize reproduce el journal completo y lo reescribe compactado. Los
// pospuestos no pasan al snapshot: los consume esta sesión.
func (l *Log) Initialize() (State, error) {
	if !l.opts.Enabled {
		return State{}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	st, err := l.replay()
	if err != nil {
		return State{}, err
	}
	if err := l.compact(st); err != nil {
		return State{}, err
	}
	if !l.opts.Interactions {
		for i := range st.Levels {
			st.Levels[i].Played = false
			st.Levels[i].Beaten = false
		}
	}
	return st, nil
}

// Replay lee el journal sin tocarlo (lo usa el comando dump).
func (l *Log) Replay() (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replay()
}

func (l *Log) replay() (State, error) {
	r := newReplayer()
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return r.state(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		n++
		if !r.apply(strings.TrimRight(sc.Text(), "\r")) {
			l.logf("[persist] línea %d ignorada: %q", n, sc.Text())
		}
	}
	if err := sc.Err(); err != nil {
		return State{}, fmt.Errorf("read journal: %w", err)
	}
	return r.state(), nil
}

type replayer struct {
	stats    domain.Tally
	order    []string
	levels   map[string]*LevelState
	deferred []Deferred
}

func newReplayer() *replayer {
	return &replayer{levels: map[string]*LevelState{}}
}

func (r *replayer) level(id string) *LevelState {
	ls, ok := r.levels[id]
	if !ok {
		ls = &LevelState{ID: id}
		r.levels[id] = ls
		r.order = append(r.order, id)
	}
	return ls
}

func (r *replayer) apply(line string) bool {
	switch {
	case line == "":
		return true
	case line == "R":
		r.deferred = append(r.deferred, Deferred{Kind: DeferredRound})
		return true
	case strings.HasPrefix(line, "M:"):
		r.deferred = append(r.deferred, Deferred{Kind: DeferredMarker, Label: line[2:]})
		return true
	}

	if m := reStatLine.FindStringSubmatch(line); m != nil {
		return r.applyStat(m[1][0], m[2][0], m[3])
	}
	m := reIDLine.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	id := m[1]
	for _, op := range m[2] {
		switch op {
		case 'P', 'p':
			r.level(id).Played = op == 'P'
		case 'B', 'b':
			r.level(id).Beaten = op == 'B'
		case 'X', 'x':
			r.level(id).Banned = op == 'X'
		case 'Q':
			r.deferred = append(r.deferred, Deferred{Kind: DeferredEntry, ID: id})
		case 'q':
			r.popDeferred(id)
		}
	}
	return true
}

// popDeferred saca el push más reciente de ese id.
func (r *replayer) popDeferred(id string) {
	for i := len(r.deferred) - 1; i >= 0; i-- {
		d := r.deferred[i]
		if d.Kind == DeferredEntry && d.ID == id {
			r.deferred = append(r.deferred[:i], r.deferred[i+1:]...)
			return
		}
	}
}

func (r *replayer) applyStat(code, op byte, num string) bool {
	var field *int
	switch code {
	case StatPlayed:
		field = &r.stats.Played
	case StatWon:
		field = &r.stats.Won
	case StatLost:
		field = &r.stats.Lost
	}
	n := 1
	if num != "" {
		v, err := strconv.Atoi(num)
		if err != nil {
			return false
		}
		n = v
	} else if op == '=' {
		return false
	}
	switch op {
	case '+':
		*field += n
	case '-':
		*field -= n
	case '=':
		*field = n
	}
	return true
}

func (r *replayer) state() State {
	st := State{Stats: r.stats, Deferred: r.deferred}
	for _, id := range r.order {
		st.Levels = append(st.Levels, *r.levels[id])
	}
	return st
}

// compact reescribe el journal de forma atómica: tmp en el mismo dir,
// fsync y rename.
func (l *Log) compact(st State) error {
	var b strings.Builder
	if l.opts.Stats {
		fmt.Fprintf(&b, ":p=%d\n:w=%d\n:l=%d\n", st.Stats.Played, st.Stats.Won, st.Stats.Lost)
	}
	for _, ls := range st.Levels {
		flags := ""
		if l.opts.Interactions {
			if ls.Played {
				flags += "P"
			}
			if ls.Beaten {
				flags += "B"
			}
		}
		if ls.Banned {
			flags += "X"
		}
		if flags != "" {
			fmt.Fprintf(&b, "%s:%s\n", ls.ID, flags)
		}
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("journal dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(l.path), FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("compact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("compact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("compact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("compact: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("compact: %w", err)
	}
	return nil
}
