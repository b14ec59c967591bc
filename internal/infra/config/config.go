package config

import (
	"log"
	"os"
	"strings"
)

// Config son los secretos y direcciones que vienen del entorno (.env).
type Config struct {
	RumpusKey      string
	DiscordToken   string
	DiscordGuild   string
	DiscordChannel string
	Streamer       string
	DatabaseURL    string
	HTTPAddr       string // opcional, default :8080
	ConfigFile     string // opcional, default XDG
	AdminRoleIDs   []string
}

func get(k string, req bool) string {
	v := os.Getenv(k)
	if v == "" && req {
		log.Fatalf("faltante env %s", k)
	}
	return v
}

func Load() Config {
	cfg := Config{
		RumpusKey:      get("RUMPUS_DELEGATION_KEY", true),
		DiscordToken:   get("DISCORD_BOT_TOKEN", true),
		DiscordGuild:   get("DISCORD_GUILD_ID", true),
		DiscordChannel: get("DISCORD_CHANNEL_ID", true),
		Streamer:       get("STREAMER", true),
		DatabaseURL:    get("DATABASE_URL", false), // sin archivo histórico si vacío
		HTTPAddr:       get("HTTP_ADDR", false),
		ConfigFile:     get("CONFIG_FILE", false),
		AdminRoleIDs:   splitCSV(get("ADMIN_ROLE_IDS", false)),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = DefaultConfigPath()
	}
	return cfg
}

// ArchiveURL es DATABASE_URL para los comandos que no levantan el bot.
func ArchiveURL() string { return get("DATABASE_URL", false) }

func splitCSV(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
