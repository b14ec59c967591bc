package persistence

import (
	"fmt"
	"os"
	"path/filepath"
)

// append escribe una línea y la sincroniza antes de volver. Con la
// persistencia apagada no hace nada.
func (l *Log) append(line string) error {
	if !l.opts.Enabled {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("journal dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append %q: %w", line, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync journal: %w", err)
	}
	return f.Close()
}

// StatDelta suma o resta 1 a un contador.
func (l *Log) StatDelta(code byte, delta int) error {
	if !l.opts.Stats || delta == 0 {
		return nil
	}
	op := "+"
	if delta < 0 {
		op, delta = "-", -delta
	}
	if delta == 1 {
		return l.append(fmt.Sprintf(":%c%s", code, op))
	}
	return l.append(fmt.Sprintf(":%c%s%d", code, op, delta))
}

func (l *Log) StatSet(code byte, n int) error {
	if !l.opts.Stats {
		return nil
	}
	return l.append(fmt.Sprintf(":%c=%d", code, n))
}

func (l *Log) InteractionChanged(id string, played, beaten bool) error {
	if !l.opts.Interactions {
		return nil
	}
	p, b := "p", "b"
	if played {
		p = "P"
	}
	if beaten {
		b = "B"
	}
	return l.append(id + ":" + p + b)
}

func (l *Log) Banned(id string) error   { return l.append(id + ":X") }
func (l *Log) Unbanned(id string) error { return l.append(id + ":x") }

func (l *Log) Deferred(id string) error         { return l.append(id + ":Q") }
func (l *Log) DeferralReversed(id string) error { return l.append(id + ":q") }

func (l *Log) DeferredMarker(label string) error { return l.append("M:" + label) }
func (l *Log) RoundBoundary() error              { return l.append("R") }
