package cache

import (
	"context"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

// viewLocked arma la fila que ve la UI del creator. listed indica si el
// level aparece en algún listado ya cargado.
func (c *Cache) viewLocked(id string) (domain.CreatorLevel, bool) {
	r, ok := c.levels[id]
	if !ok || r.info == nil || r.owner == "" {
		return domain.CreatorLevel{}, false
	}
	f := r.effective()
	info := *r.info
	return domain.CreatorLevel{
		ID:         info.ID,
		Name:       info.Title,
		Type:       string(domain.KindLevel),
		Avatar:     info.Avatar,
		Players:    info.RequiredPlayers,
		Date:       info.CreatedAt,
		Tags:       info.Tags,
		Difficulty: info.Difficulty,
		Played:     f.played,
		Beaten:     f.beaten,
		Banned:     r.banned,
	}, true
}

func (c *Cache) viewsLocked(ids []string) []domain.CreatorLevel {
	out := make([]domain.CreatorLevel, 0, len(ids))
	for _, id := range ids {
		if v, ok := c.viewLocked(id); ok {
			out = append(out, v)
		}
	}
	return out
}

// LevelsForCreator lista los levels de un creator, más nuevos primero.
// La primera vez pagina contra el servicio de a PageSize con una pausa
// entre páginas; onPage recibe cada página a medida que llega. Un listado
// solo queda cacheado si se cargó completo.
func (c *Cache) LevelsForCreator(ctx context.Context, creatorID string, onPage func([]domain.CreatorLevel)) ([]domain.CreatorLevel, error) {
	c.mu.Lock()
	if ids, ok := c.creatorLevels[creatorID]; ok {
		out := c.viewsLocked(ids)
		c.mu.Unlock()
		if onPage != nil {
			onPage(out)
		}
		return out, nil
	}
	c.mu.Unlock()

	led := false
	_, err, _ := c.sf.Do("levels:"+creatorID, func() (any, error) {
		led = true
		return nil, c.loadCreatorLevels(ctx, creatorID, onPage)
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	out := c.viewsLocked(c.creatorLevels[creatorID])
	c.mu.Unlock()
	if !led && onPage != nil {
		onPage(out)
	}
	return out, nil
}

func (c *Cache) loadCreatorLevels(ctx context.Context, creatorID string, onPage func([]domain.CreatorLevel)) error {
	q := domain.LevelQuery{
		UserIDs:               []string{creatorID},
		IncludeMyInteractions: true,
		Limit:                 c.pageSize,
		Sort:                  "createdAt",
	}
	var ids []string
	for {
		page, err := c.lookup.SearchLevels(ctx, q)
		if err != nil {
			return err
		}

		pageIDs := make([]string, 0, len(page))
		c.mu.Lock()
		for i := range page {
			info := page[i]
			r := c.record(info.ID)
			if r.owner != "" && r.owner != creatorID {
				c.creatorLevels[r.owner] = without(c.creatorLevels[r.owner], info.ID)
			}
			r.info = &info
			r.owner = creatorID
			pageIDs = append(pageIDs, info.ID)
		}
		views := c.viewsLocked(pageIDs)
		c.mu.Unlock()

		ids = append(ids, pageIDs...)
		if onPage != nil && len(views) > 0 {
			onPage(views)
		}
		if len(page) < c.pageSize {
			break
		}

		last := page[len(page)-1]
		q.MaxCreatedAt = last.CreatedAt
		q.TiebreakerItemID = last.RecordID
		if err := c.sleep(ctx, c.pageDelay); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.creatorLevels[creatorID] = ids
	c.mu.Unlock()
	return nil
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
