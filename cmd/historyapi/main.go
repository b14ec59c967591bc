package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	db          *pgxpool.Pool
	secretHdr   = strings.ToLower(getenv("HISTORY_HEADER_NAME", "X-History-Key"))
	secretValue = os.Getenv("HISTORY_HEADER_VALUE")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("DATABASE_URL empty; running without DB")
		return
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		fmt.Println("pgx ParseConfig:", err)
		return
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		fmt.Println("pgxpool New:", err)
		return
	}
	db = pool
}

type playDTO struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	SubmittedBy string    `json:"submittedBy"`
	Outcome     string    `json:"outcome"`
	PlayedAt    time.Time `json:"playedAt"`
}

func readSecret(req events.APIGatewayV2HTTPRequest) string {
	if v := req.Headers[secretHdr]; v != "" {
		return v
	}
	return req.QueryStringParameters["key"]
}

func limitOf(req events.APIGatewayV2HTTPRequest) int {
	n, err := strconv.Atoi(req.QueryStringParameters["limit"])
	if err != nil || n <= 0 {
		return 20
	}
	return min(n, 200)
}

func reply(code int, body any) events.APIGatewayV2HTTPResponse {
	b, _ := json.Marshal(body)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: code,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}

// handler devuelve las últimas partidas del histórico (GET ?limit=N&level=ID).
func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	fmt.Printf("history hit | path=%s method=%s ip=%s\n",
		req.RawPath, req.RequestContext.HTTP.Method, req.RequestContext.HTTP.SourceIP)

	if req.RequestContext.HTTP.Method != "" && req.RequestContext.HTTP.Method != "GET" {
		return reply(405, map[string]string{"error": "method not allowed"}), nil
	}
	got := readSecret(req)
	if secretValue == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secretValue)) != 1 {
		return reply(401, map[string]string{"error": "unauthorized"}), nil
	}
	if db == nil {
		return reply(503, map[string]string{"error": "no archive"}), nil
	}

	qctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	sql := `SELECT entry_id, kind, name, submitted_by, outcome, played_at FROM plays`
	args := []any{}
	if lvl := req.QueryStringParameters["level"]; lvl != "" {
		sql += ` WHERE entry_id = $1`
		args = append(args, lvl)
	}
	sql += fmt.Sprintf(` ORDER BY played_at DESC, id DESC LIMIT %d`, limitOf(req))

	rows, err := db.Query(qctx, sql, args...)
	if err != nil {
		fmt.Println("history query:", err)
		return reply(500, map[string]string{"error": "query failed"}), nil
	}
	defer rows.Close()

	out := []playDTO{}
	for rows.Next() {
		var p playDTO
		if err := rows.Scan(&p.ID, &p.Type, &p.Name, &p.SubmittedBy, &p.Outcome, &p.PlayedAt); err != nil {
			fmt.Println("history scan:", err)
			return reply(500, map[string]string{"error": "scan failed"}), nil
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return reply(500, map[string]string{"error": err.Error()}), nil
	}
	return reply(200, map[string]any{"plays": out}), nil
}

func main() { lambda.Start(handler) }
