package rumpus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

// SearchLevels: una sola página; el paginado lo maneja el cache con
// maxCreatedAt/tiebreakerItemId.
func (c *Client) SearchLevels(ctx context.Context, lq domain.LevelQuery) ([]domain.LevelInfo, error) {
	q := url.Values{}
	if len(lq.LevelIDs) > 0 {
		q.Set("levelIds", strings.Join(lq.LevelIDs, ","))
	}
	if len(lq.UserIDs) > 0 {
		q.Set("userIds", strings.Join(lq.UserIDs, ","))
	}
	if lq.IncludeMyInteractions {
		q.Set("includeMyInteractions", "true")
	}
	if lq.Limit > 0 {
		q.Set("limit", strconv.Itoa(lq.Limit))
	}
	if lq.Sort != "" {
		q.Set("sort", lq.Sort)
	}
	if lq.TiebreakerItemID != "" {
		q.Set("tiebreakerItemId", lq.TiebreakerItemID)
	}
	if !lq.MaxCreatedAt.IsZero() {
		q.Set("maxCreatedAt", lq.MaxCreatedAt.UTC().Format(time.RFC3339Nano))
	}
	q.Set("includeStats", "true")

	var dto levelsDTO
	if err := c.doJSON(ctx, http.MethodGet, "/levelhead/levels", q, &dto); err != nil {
		return nil, err
	}

	out := make([]domain.LevelInfo, 0, len(dto.Data))
	for _, it := range dto.Data {
		li := domain.LevelInfo{
			ID:              it.LevelID,
			RecordID:        it.ID,
			Title:           it.Title,
			RequiredPlayers: it.RequiredPlayers,
			Avatar:          levelAvatarURL(it.AvatarID),
			CreatedAt:       it.CreatedAt,
			Tags:            it.TagNames,
		}
		// la dificultad sólo significa algo con suficientes jugadores
		if it.Stats.Players > 10 {
			d := it.Stats.Diamonds
			li.Difficulty = &d
		}
		if it.Interactions != nil {
			li.Played = it.Interactions.Played
			li.Beaten = it.Interactions.Completed
		}
		out = append(out, li)
	}
	return out, nil
}

func (c *Client) SearchPlayers(ctx context.Context, userIDs []string) ([]domain.CreatorInfo, error) {
	q := url.Values{}
	q.Set("userIds", strings.Join(userIDs, ","))
	q.Set("includeAliases", "true")

	var dto playersDTO
	if err := c.doJSON(ctx, http.MethodGet, "/levelhead/players", q, &dto); err != nil {
		return nil, err
	}
	out := make([]domain.CreatorInfo, 0, len(dto.Data))
	for _, p := range dto.Data {
		out = append(out, domain.CreatorInfo{ID: p.UserID, Alias: p.Alias.Alias, AvatarID: p.Alias.AvatarID})
	}
	return out, nil
}

func (c *Client) AddBookmark(ctx context.Context, levelID string) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/levelhead/bookmarks/%s", url.PathEscape(levelID)), nil, nil)
}

func (c *Client) RemoveBookmark(ctx context.Context, levelID string) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/levelhead/bookmarks/%s", url.PathEscape(levelID)), nil, nil)
}

func levelAvatarURL(avatarID string) string {
	if avatarID == "" {
		return ""
	}
	return fmt.Sprintf("https://img.bscotch.net/fit-in/256x256/avatars/%s.webp", avatarID)
}
