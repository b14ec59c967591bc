package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/levelhead-queue-bot/internal/domain"
)

// atajos de tunning
const (
	uiDebounce   = 250 * time.Millisecond
	ctxRenderMax = 3 * time.Second
	panelMaxRows = 15
)

// Panel es el mensaje fijo con la cola. Implementa service.Notifier:
// cada cambio agenda un repaint con debounce.
type Panel struct {
	api       API
	channelID string
	store     PanelStore

	mu        sync.Mutex
	entries   []domain.Entry
	open      bool
	counts    domain.Counts
	messageID string
	timer     *time.Timer
	debounce  time.Duration
}

func NewPanel(api API, channelID string, store PanelStore) *Panel {
	return &Panel{api: api, channelID: channelID, store: store, open: true, debounce: uiDebounce}
}

func (p *Panel) QueueChanged(entries []domain.Entry) {
	p.mu.Lock()
	p.entries = entries
	p.mu.Unlock()
	p.refresh()
}

func (p *Panel) StatusChanged(open bool) {
	p.mu.Lock()
	p.open = open
	p.mu.Unlock()
	p.refresh()
}

func (p *Panel) CountsChanged(c domain.Counts) {
	p.mu.Lock()
	p.counts = c
	p.mu.Unlock()
	p.refresh()
}

// Publish postea el panel en el canal y recuerda el mensaje.
func (p *Panel) Publish(ctx context.Context) error {
	p.mu.Lock()
	embed, comps := p.renderLocked()
	p.mu.Unlock()

	msg, err := p.api.ChannelMessageSendComplex(p.channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{comps},
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.messageID = msg.ID
	p.mu.Unlock()

	if p.store != nil {
		return p.store.Upsert(ctx, p.channelID, msg.ID)
	}
	return nil
}

func (p *Panel) refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, p.flush)
}

// flush edita el mensaje publicado, si hay uno.
func (p *Panel) flush() {
	defer step("panel.flush")()

	ctx, cancel := context.WithTimeout(context.Background(), ctxRenderMax)
	defer cancel()

	id := p.currentID(ctx)
	if id == "" {
		return
	}

	p.mu.Lock()
	embed, comps := p.renderLocked()
	p.mu.Unlock()

	em := []*discordgo.MessageEmbed{embed}
	cc := []discordgo.MessageComponent{comps}
	_, err := p.api.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    p.channelID,
		ID:         id,
		Embeds:     &em,
		Components: &cc,
	})
	if err == nil {
		return
	}

	var re *discordgo.RESTError
	if errors.As(err, &re) && re.Message != nil && re.Message.Code == discordgo.ErrCodeUnknownMessage {
		// lo borraron a mano: se vuelve a publicar con /queue-panel
		log.Printf("[panel] message %s is gone", id)
		p.mu.Lock()
		p.messageID = ""
		p.mu.Unlock()
		return
	}
	if errors.As(err, &re) && re.Response != nil {
		log.Printf("[panel.edit] status=%d retryAfter=%s body=%s",
			re.Response.StatusCode, re.Response.Header.Get("Retry-After"), string(re.ResponseBody))
		return
	}
	log.Printf("[panel.edit] err=%v", err)
}

func (p *Panel) currentID(ctx context.Context) string {
	p.mu.Lock()
	id := p.messageID
	p.mu.Unlock()
	if id != "" || p.store == nil {
		return id
	}

	id, err := p.store.Get(ctx, p.channelID)
	if err != nil {
		return ""
	}
	p.mu.Lock()
	p.messageID = id
	p.mu.Unlock()
	return id
}

// renderLocked arma el embed y los botones. Requiere p.mu.
func (p *Panel) renderLocked() (*discordgo.MessageEmbed, discordgo.MessageComponent) {
	desc := "The queue is empty."
	if len(p.entries) > 0 {
		var b strings.Builder
		round := 0
		for i, e := range p.entries {
			if i == panelMaxRows {
				fmt.Fprintf(&b, "…and %d more\n", len(p.entries)-i)
				break
			}
			if e.Round > 0 && e.Round != round {
				round = e.Round
				fmt.Fprintf(&b, "__Round %d__\n", round)
			}
			switch {
			case e.IsMarker():
				fmt.Fprintf(&b, "%s\n", e.Display())
			case i == 0:
				fmt.Fprintf(&b, "▶️ **%s** (%s)\n", truncate(e.Display(), 80), e.SubmittedBy)
			default:
				fmt.Fprintf(&b, "%d) %s (%s)\n", i, truncate(e.Display(), 80), e.SubmittedBy)
			}
		}
		desc = b.String()
	}

	status, color := "open", 0x2ecc71
	toggle := "Close"
	if !p.open {
		status, color = "closed", 0xe74c3c
		toggle = "Open"
	}

	s := p.counts.Session
	footer := fmt.Sprintf("Played %d · Won %d · Lost %d", s.Played, s.Won, s.Lost)
	if h := p.counts.History; h != nil && *h != s {
		footer += fmt.Sprintf(" (all time: %d / %d / %d)", h.Played, h.Won, h.Lost)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Level Queue (" + status + ")",
		Description: desc,
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	comps := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Style:    discordgo.PrimaryButton,
				Label:    "Next",
				CustomID: string(btnNext),
				Emoji:    &discordgo.ComponentEmoji{Name: "⏭️"},
			},
			discordgo.Button{
				Style:    discordgo.SecondaryButton,
				Label:    "Random",
				CustomID: string(btnRandom),
				Emoji:    &discordgo.ComponentEmoji{Name: "🎲"},
			},
			discordgo.Button{
				Style:    discordgo.SecondaryButton,
				Label:    toggle,
				CustomID: string(btnToggle),
			},
		},
	}
	return embed, comps
}

// IsOpen: último estado visto, para el botón de abrir/cerrar.
func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}
