package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jose-valero/levelhead-queue-bot/internal/adapters/desktop"
	discordrouter "github.com/jose-valero/levelhead-queue-bot/internal/adapters/discord"
	"github.com/jose-valero/levelhead-queue-bot/internal/adapters/overlay"
	"github.com/jose-valero/levelhead-queue-bot/internal/adapters/rumpus"
	"github.com/jose-valero/levelhead-queue-bot/internal/app/cache"
	"github.com/jose-valero/levelhead-queue-bot/internal/app/lookup"
	"github.com/jose-valero/levelhead-queue-bot/internal/app/service"
	"github.com/jose-valero/levelhead-queue-bot/internal/infra/config"
	"github.com/jose-valero/levelhead-queue-bot/internal/infra/persistence"
	"github.com/jose-valero/levelhead-queue-bot/internal/infra/storage"
)

const commandCooldown = 2 * time.Second

func loadFileConfig(envPath string) (config.File, string, error) {
	path := envPath
	if configPath != "" {
		path = configPath
	}
	f, err := config.LoadFile(path)
	if err != nil {
		return f, path, fmt.Errorf("failed to load config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return f, path, err
	}
	return f, path, nil
}

func persistenceOptions(f config.File) persistence.Options {
	return persistence.Options{
		Enabled:      f.Persistence.Enabled,
		Dir:          f.Persistence.Path,
		Interactions: f.Persistence.Interactions,
		Stats:        f.Persistence.Stats,
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()
	fileCfg, cfgPath, err := loadFileConfig(cfg.ConfigFile)
	if err != nil {
		return err
	}
	log.Printf("[config] %s (priority=%s, creator codes=%s)", cfgPath, fileCfg.Queue.Priority, fileCfg.Queue.CreatorCodeMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streamer := strings.ToLower(cfg.Streamer)
	q := fileCfg.Queue
	deps := service.Deps{
		Journal: persistence.New(persistenceOptions(fileCfg)),
		Rewards: config.NewFileStore(cfgPath),
	}

	// Archivo histórico (opcional)
	var panels discordrouter.PanelStore
	if cfg.DatabaseURL != "" {
		db, dialect, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := storage.Migrate(db, dialect); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Printf("✅ archive ready (%s)", dialect)
		deps.Archive = storage.NewArchive(db, dialect)
		panels = storage.NewPanelRepo(db, dialect)
	}

	// Upstream: rumpus -> reintentos -> cache
	rc := rumpus.New(cfg.RumpusKey)
	lk := lookup.New(rc, lookup.WithPermanent(rumpus.IsPermanent))
	meta := cache.New(lk)
	deps.Metadata = meta
	deps.Bookmarks = lk

	// Overlay + UI de creator codes
	web := overlay.New(overlay.Options{
		Prefix:            fileCfg.Prefix,
		AcceptCreatorCode: q.CreatorCodeMode != service.CreatorReject,
		StaticDir:         fileCfg.Overlay.Path,
	})
	go func() {
		if err := web.Serve(ctx, cfg.HTTPAddr); err != nil {
			log.Printf("[overlay] http server: %v", err)
		}
	}()
	switch q.CreatorCodeMode {
	case service.CreatorWebUI:
		deps.Picker = web
		meta.OnLevelChanged(web.PatchCreatorLevel)
		log.Printf("Keep a browser at http://localhost%s/ui/creatorCode.html to handle creator codes.", cfg.HTTPAddr)
	case service.CreatorClipboard:
		clip := desktop.NewClipboard()
		if !clip.Available() {
			log.Printf("[desktop] no clipboard utility found; creator codes will not be copied")
		}
		deps.Clipboard = clip
	}

	// Discord
	auth := strings.TrimSpace(cfg.DiscordToken)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	s, err := discordgo.New(auth)
	if err != nil {
		return err
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsDirectMessages

	chat := discordrouter.NewChat(s, cfg.DiscordChannel)
	panel := discordrouter.NewPanel(s, cfg.DiscordChannel, panels)
	router := discordrouter.NewRouter(s, discordrouter.Options{
		GuildID:      cfg.DiscordGuild,
		ChannelID:    cfg.DiscordChannel,
		Streamer:     streamer,
		Prefix:       fileCfg.Prefix,
		AdminRoleIDs: cfg.AdminRoleIDs,
		Cooldown:     commandCooldown,
	}, chat, panel)
	router.Handlers(s)

	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()
	log.Printf("✅ connected as %s (%s)", s.State.User.Username, s.State.User.ID)

	if err := router.Register(s); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}

	deps.Chat = chat
	deps.Notifier = service.Notifiers{web, panel}
	engine := service.NewQueueEngine(service.Options{
		Streamer:        streamer,
		Prefix:          fileCfg.Prefix,
		Priority:        q.Priority,
		LevelLimitType:  q.LevelLimitType,
		LevelLimit:      q.LevelLimit,
		CreatorCodeMode: q.CreatorCodeMode,
		Players:         q.Players,
		DefaultAdvance:  q.DefaultAdvance,
		RoundDuration:   q.RoundDuration(),
		RewardBehaviors: fileCfg.Rewards,
	}, deps)
	if err := engine.Init(ctx); err != nil {
		return fmt.Errorf("init queue: %w", err)
	}
	web.Bind(engine)
	router.Bind(engine)
	log.Printf("✅ queue ready in channel %s (streamer %s)", cfg.DiscordChannel, streamer)

	<-ctx.Done()
	log.Printf("shutting down")
	return nil
}
