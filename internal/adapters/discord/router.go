package discord

import (
	"context"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// tiempo máximo de un comando: el lookup reintenta contra el upstream
const commandTimeout = 30 * time.Second

type Options struct {
	GuildID   string
	ChannelID string
	// username (minúscula) con permisos de streamer
	Streamer     string
	Prefix       string
	AdminRoleIDs []string
	// cooldown por usuario para los comandos de chat; 0 = sin límite
	Cooldown time.Duration
}

// Router conecta los eventos de Discord con el engine de la cola.
type Router struct {
	api     API
	opts    Options
	engine  Engine
	chat    *Chat
	panel   *Panel
	limiter *userLimiter
	log     *slog.Logger
}

func NewRouter(api API, opts Options, chat *Chat, panel *Panel) *Router {
	opts.Streamer = strings.ToLower(opts.Streamer)
	return &Router{
		api:     api,
		opts:    opts,
		chat:    chat,
		panel:   panel,
		limiter: newUserLimiter(opts.Cooldown),
		log:     slog.Default().With("component", "discord", "channel", opts.ChannelID),
	}
}

// Bind conecta el engine; se construye después del chat y el panel.
func (r *Router) Bind(e Engine) { r.engine = e }

func (r *Router) Register(s *discordgo.Session) error {
	appID := s.State.User.ID
	for _, cmd := range Commands {
		if _, err := s.ApplicationCommandCreate(appID, r.opts.GuildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers(s *discordgo.Session) {
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		r.onMessage(m)
	})
	s.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.onSlashCommand(ic)
		case discordgo.InteractionMessageComponent:
			r.onComponent(ic)
		}
	})
}

func (r *Router) onMessage(m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.ChannelID != r.opts.ChannelID || r.engine == nil {
		return
	}
	user := username(m.Author)
	r.chat.Remember(user, m.Author.ID)

	if !strings.HasPrefix(strings.TrimSpace(m.Content), r.opts.Prefix) {
		return
	}
	if user != r.opts.Streamer && !r.limiter.Allow(m.Author.ID) {
		r.log.Info("cooldown", "user", user)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[discord] panic in %q by %s: %v", m.Content, user, rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	stop := step("command " + firstWord(m.Content))
	reply := r.engine.Command(ctx, m.Content, user, "")
	stop()
	r.log.Debug("command", "user", user, "text", m.Content, "reply_lines", len(lines(reply)))
	r.chat.send(m.ChannelID, reply)
}

func (r *Router) onSlashCommand(ic *discordgo.InteractionCreate) {
	data := ic.ApplicationCommandData()
	user := username(invoker(ic))
	r.log.Info("slash", "name", data.Name, "user", user, "guild", ic.GuildID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[discord] panic in slash /%s: %v", data.Name, rec)
			ReplyEphemeral(r.api, ic, "⚠️ Something went wrong.")
		}
	}()

	switch data.Name {
	case "redeem":
		r.redeem(ic, user)

	case "queue-panel":
		_ = DeferEphemeral(r.api, ic)
		if !r.requireOperator(ic) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.panel.Publish(ctx); err != nil {
			log.Printf("[discord] publish panel: %v", err)
			ReplyEphemeral(r.api, ic, "⚠️ Unable to publish the panel: "+err.Error())
			return
		}
		ReplyEphemeral(r.api, ic, "✅ Panel published.")
	}
}

// redeem es el canje de una recompensa: rewardID = nombre de la recompensa.
func (r *Router) redeem(ic *discordgo.InteractionCreate, user string) {
	if r.engine == nil {
		SendEphemeral(r.api, ic, "⚠️ The queue is not ready yet.")
		return
	}
	if u := invoker(ic); u != nil {
		r.chat.Remember(user, u.ID)
	}
	reward, _ := optStr(ic, "reward")
	text, _ := optStr(ic, "text")
	reward = strings.ToLower(strings.TrimSpace(reward))
	if reward == "" {
		SendEphemeral(r.api, ic, "Which reward?")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	// el lookup puede tardar más que los 3s de Discord
	_ = DeferEphemeral(r.api, ic)
	reply := r.engine.Command(ctx, text, user, reward)
	r.chat.send(r.opts.ChannelID, reply)
	ReplyEphemeral(r.api, ic, "✅ Redeemed "+reward+".")
}

// onComponent: botones del panel. Corren como comandos del streamer.
func (r *Router) onComponent(ic *discordgo.InteractionCreate) {
	key := ComponentKey(ic.MessageComponentData().CustomID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[discord] panic in component %s: %v", key, rec)
		}
	}()

	if !r.isOperator(ic) {
		SendEphemeral(r.api, ic, "🔒 Only the streamer can do that.")
		return
	}
	if !r.limiter.Allow(invoker(ic).ID) {
		SendEphemeral(r.api, ic, "⏳ One second…")
		return
	}

	var command string
	switch key {
	case btnNext:
		command = "next"
	case btnRandom:
		command = "random"
	case btnToggle:
		command = "close"
		if !r.panel.IsOpen() {
			command = "open"
		}
	default:
		return
	}

	_ = DeferUpdate(r.api, ic)
	if r.engine == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	reply := r.engine.Command(ctx, r.opts.Prefix+command, r.opts.Streamer, "")
	r.chat.send(r.opts.ChannelID, reply)
}
