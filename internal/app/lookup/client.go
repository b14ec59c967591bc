// Package lookup envuelve al servicio de niveles con reintentos acotados.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

const (
	defaultAttempts  = 3
	defaultBaseDelay = 500 * time.Millisecond
)

// ErrUnavailable: se agotaron los intentos contra el servicio.
var ErrUnavailable = errors.New("upstream unavailable")

// Lo implementa internal/adapters/rumpus.Client
type Upstream interface {
	SearchLevels(ctx context.Context, q domain.LevelQuery) ([]domain.LevelInfo, error)
	SearchPlayers(ctx context.Context, userIDs []string) ([]domain.CreatorInfo, error)
	AddBookmark(ctx context.Context, levelID string) error
	RemoveBookmark(ctx context.Context, levelID string) error
}

type Client struct {
	up        Upstream
	attempts  int
	baseDelay time.Duration
	logf      func(format string, args ...any)
	permanent func(error) bool
}

type Option func(*Client)

// WithBaseDelay: el intento n espera n*d antes del siguiente.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

func WithLogger(logf func(format string, args ...any)) Option {
	return func(c *Client) { c.logf = logf }
}

// WithPermanent marca errores que no se reintentan (p.ej. 404).
func WithPermanent(fn func(error) bool) Option {
	return func(c *Client) { c.permanent = fn }
}

func New(up Upstream, opts ...Option) *Client {
	c := &Client{
		up:        up,
		attempts:  defaultAttempts,
		baseDelay: defaultBaseDelay,
		logf:      log.Printf,
		permanent: func(error) bool { return false },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) SearchLevels(ctx context.Context, q domain.LevelQuery) ([]domain.LevelInfo, error) {
	var out []domain.LevelInfo
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.up.SearchLevels(ctx, q)
		return err
	})
	return out, err
}

func (c *Client) SearchPlayers(ctx context.Context, userIDs []string) ([]domain.CreatorInfo, error) {
	var out []domain.CreatorInfo
	err := c.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.up.SearchPlayers(ctx, userIDs)
		return err
	})
	return out, err
}

func (c *Client) AddBookmark(ctx context.Context, levelID string) error {
	return c.do(ctx, func(ctx context.Context) error { return c.up.AddBookmark(ctx, levelID) })
}

func (c *Client) RemoveBookmark(ctx context.Context, levelID string) error {
	return c.do(ctx, func(ctx context.Context) error { return c.up.RemoveBookmark(ctx, levelID) })
}

// do cuenta los intentos por su cuenta; el error del upstream nunca sale
// crudo salvo que sea permanente.
func (c *Client) do(ctx context.Context, fn func(context.Context) error) error {
	attempt := 0
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if c.permanent(err) {
			return err
		}
		severity := "WARNING"
		if attempt >= c.attempts {
			severity = "ERROR"
		}
		c.logf("%s: Rumpus call failed (attempt %d) - %v", severity, attempt, err)
		return retry.RetryableError(err)
	})
	if err == nil || c.permanent(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// backoff lineal: attempt * baseDelay, con tope de intentos.
func (c *Client) backoff() retry.Backoff {
	n := 0
	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return time.Duration(n) * c.baseDelay, false
	})
	return retry.WithMaxRetries(uint64(c.attempts-1), linear)
}
