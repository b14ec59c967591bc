package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultRetentionDays = 90

func retentionDays() int {
	v, err := strconv.Atoi(os.Getenv("ARCHIVE_RETENTION_DAYS"))
	if err != nil || v <= 0 {
		return defaultRetentionDays
	}
	return v
}

// handler poda el histórico de partidas y los paneles abandonados.
func handler(ctx context.Context) (string, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "no DATABASE_URL", nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Sprintf("parse: %v", err), nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("pool: %v", err), nil
	}
	defer pool.Close()

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	days := retentionDays()
	tag, err := pool.Exec(cctx, `DELETE FROM plays WHERE played_at < now() - make_interval(days => $1)`, days)
	if err != nil {
		return fmt.Sprintf("prune plays: %v", err), nil
	}
	_, _ = pool.Exec(cctx, `DELETE FROM queue_panels WHERE updated_at < now() - INTERVAL '30 days'`)

	return fmt.Sprintf("ok: pruned %d plays older than %d days", tag.RowsAffected(), days), nil
}

func main() { lambda.Start(handler) }
