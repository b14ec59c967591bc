package rumpus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBase = "https://www.bscotch.net/api"

type Client struct {
	delegationKey string
	http          *http.Client
	baseURL       string
}

func New(delegationKey string, opts ...Option) *Client {
	c := &Client{
		delegationKey: delegationKey,
		http:          &http.Client{Timeout: 10 * time.Second},
		baseURL:       defaultBase,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// doJSON: arma la URL, agrega la delegation key, maneja 404 y 429 con Retry-After simple.
// out puede ser nil (bookmarks no devuelven nada útil).
func (c *Client) doJSON(ctx context.Context, method, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("rumpus request: %w", err)
	}
	if c.delegationKey != "" {
		req.Header.Set("Rumpus-Delegation-Key", c.delegationKey)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rumpus http: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		// backoff básico leyendo Retry-After (segundos), un solo reintento
		if ra := res.Header.Get("Retry-After"); ra != "" {
			if sec, _ := strconv.Atoi(ra); sec > 0 {
				select {
				case <-time.After(time.Duration(sec) * time.Second):
				case <-ctx.Done():
					return ctx.Err()
				}
				return c.doJSON(ctx, method, path, q, out)
			}
		}
	}

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}

	return json.NewDecoder(res.Body).Decode(out)
}
