package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// API es la parte de *discordgo.Session que usa el adapter.
type API interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Engine es el motor de la cola (service.QueueEngine).
type Engine interface {
	Command(ctx context.Context, message, username, rewardID string) string
}

// PanelStore persiste el mensaje del panel por canal (storage.PanelRepo).
type PanelStore interface {
	Get(ctx context.Context, channelID string) (string, error)
	Upsert(ctx context.Context, channelID, messageID string) error
}

// ComponentKey: custom_id de los botones del panel
type ComponentKey string

const (
	btnNext   ComponentKey = "panel_next"
	btnRandom ComponentKey = "panel_random"
	btnToggle ComponentKey = "panel_toggle"
)
