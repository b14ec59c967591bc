// Package cache guarda la metadata resuelta de levels y creators durante
// la vida del proceso, más las anotaciones de la sesión (interacciones,
// bans y motivos de rechazo).
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

// ErrNotFound: el id es válido pero el servicio no lo conoce.
var ErrNotFound = errors.New("not found")

const (
	PageSize         = 128
	defaultPageDelay = time.Second
)

// Lo implementa internal/app/lookup.Client
type Lookup interface {
	SearchLevels(ctx context.Context, q domain.LevelQuery) ([]domain.LevelInfo, error)
	SearchPlayers(ctx context.Context, userIDs []string) ([]domain.CreatorInfo, error)
}

type flags struct {
	played, beaten bool
}

type levelRecord struct {
	info    *domain.LevelInfo
	owner   string
	prior   flags // sesiones anteriores (persistencia)
	session flags // overlay de esta sesión
	banned  bool
	reason  string
}

func (r *levelRecord) upstream() flags {
	if r.info == nil {
		return flags{}
	}
	return flags{played: r.info.Played, beaten: r.info.Beaten}
}

// effective: el overlay de sesión nunca baja lo que ya se sabía.
func (r *levelRecord) effective() flags {
	up := r.upstream()
	return flags{
		played: up.played || r.prior.played || r.session.played,
		beaten: up.beaten || r.prior.beaten || r.session.beaten,
	}
}

type Cache struct {
	lookup    Lookup
	sf        singleflight.Group
	pageSize  int
	pageDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error

	mu            sync.Mutex
	levels        map[string]*levelRecord
	creators      map[string]domain.CreatorInfo
	creatorLevels map[string][]string
	listeners     []func(domain.CreatorLevel)
}

type Option func(*Cache)

// WithPageDelay: pausa entre páginas del listado de un creator.
func WithPageDelay(d time.Duration) Option {
	return func(c *Cache) { c.pageDelay = d }
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Cache) { c.sleep = fn }
}

func New(lookup Lookup, opts ...Option) *Cache {
	c := &Cache{
		lookup:        lookup,
		pageSize:      PageSize,
		pageDelay:     defaultPageDelay,
		sleep:         sleepCtx,
		levels:        map[string]*levelRecord{},
		creators:      map[string]domain.CreatorInfo{},
		creatorLevels: map[string][]string{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnLevelChanged registra un callback para cambios en levels que forman
// parte de algún listado de creator (played/beaten/banned).
func (c *Cache) OnLevelChanged(fn func(domain.CreatorLevel)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// record asume c.mu tomado.
func (c *Cache) record(id string) *levelRecord {
	r, ok := c.levels[id]
	if !ok {
		r = &levelRecord{}
		c.levels[id] = r
	}
	return r
}

// ResolveLevel devuelve ErrNotFound si no existe y lookup.ErrUnavailable
// (envuelto) si el servicio no respondió. Played/Beaten del resultado son
// lo conocido antes de esta sesión.
func (c *Cache) ResolveLevel(ctx context.Context, id string) (domain.LevelInfo, error) {
	c.mu.Lock()
	if r, ok := c.levels[id]; ok && r.info != nil {
		info := c.previousLocked(r)
		c.mu.Unlock()
		return info, nil
	}
	c.mu.Unlock()

	_, err, _ := c.sf.Do("level:"+id, func() (any, error) {
		found, err := c.lookup.SearchLevels(ctx, domain.LevelQuery{
			LevelIDs:              []string{id},
			IncludeMyInteractions: true,
		})
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, ErrNotFound
		}
		info := found[0]
		c.mu.Lock()
		c.record(id).info = &info
		c.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return domain.LevelInfo{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previousLocked(c.levels[id]), nil
}

func (c *Cache) previousLocked(r *levelRecord) domain.LevelInfo {
	info := *r.info
	info.Played = info.Played || r.prior.played
	info.Beaten = info.Beaten || r.prior.beaten
	return info
}

func (c *Cache) ResolveCreator(ctx context.Context, id string) (domain.CreatorInfo, error) {
	c.mu.Lock()
	if ci, ok := c.creators[id]; ok {
		c.mu.Unlock()
		return ci, nil
	}
	c.mu.Unlock()

	v, err, _ := c.sf.Do("creator:"+id, func() (any, error) {
		found, err := c.lookup.SearchPlayers(ctx, []string{id})
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, ErrNotFound
		}
		ci := found[0]
		c.mu.Lock()
		c.creators[id] = ci
		c.mu.Unlock()
		return ci, nil
	})
	if err != nil {
		return domain.CreatorInfo{}, err
	}
	return v.(domain.CreatorInfo), nil
}

// Interactions: estado efectivo (servicio + sesiones previas + sesión).
func (c *Cache) Interactions(id string) (played, beaten bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.levels[id]
	if !ok {
		return false, false
	}
	f := r.effective()
	return f.played, f.beaten
}

// RecordInteraction escribe el overlay de la sesión; nil deja el campo
// como estaba. Devuelve el estado efectivo resultante.
func (c *Cache) RecordInteraction(id string, played, beaten *bool) (bool, bool) {
	c.mu.Lock()
	r := c.record(id)
	if played != nil {
		r.session.played = *played
	}
	if beaten != nil {
		r.session.beaten = *beaten
	}
	f := r.effective()
	view, listed := c.viewLocked(id)
	listeners := c.listeners
	c.mu.Unlock()

	if listed {
		for _, fn := range listeners {
			fn(view)
		}
	}
	return f.played, f.beaten
}

func Bool(b bool) *bool { return &b }

// LoadPrior aplica interacciones guardadas de sesiones anteriores.
func (c *Cache) LoadPrior(id string, played, beaten bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.record(id)
	r.prior.played = r.prior.played || played
	r.prior.beaten = r.prior.beaten || beaten
}

func (c *Cache) SetBanned(id string, banned bool) {
	c.mu.Lock()
	r := c.record(id)
	r.banned = banned
	view, listed := c.viewLocked(id)
	listeners := c.listeners
	c.mu.Unlock()

	if listed {
		for _, fn := range listeners {
			fn(view)
		}
	}
}

func (c *Cache) Banned(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.levels[id]
	return ok && r.banned
}

// SetRejectReason: "" limpia el motivo.
func (c *Cache) SetRejectReason(id, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(id).reason = reason
}

func (c *Cache) RejectReason(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.levels[id]; ok {
		return r.reason
	}
	return ""
}
