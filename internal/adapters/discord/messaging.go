package discord

import (
	"errors"
	"log"

	"github.com/bwmarrin/discordgo"
)

func SendEphemeral(api API, ic *discordgo.InteractionCreate, msg string) error {
	err := api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("[discord] SendEphemeral error: %v", err)
	}
	return err
}

// Defer efímero (para trabajos >3s)
func DeferEphemeral(api API, ic *discordgo.InteractionCreate) error {
	err := api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		log.Printf("[discord] DeferEphemeral error: %v", err)
	}
	return err
}

// DeferUpdate: ack de un botón sin tocar el mensaje
func DeferUpdate(api API, ic *discordgo.InteractionCreate) error {
	err := api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Printf("[discord] DeferUpdate error: %v", err)
	}
	return err
}

func ReplyEphemeral(api API, ic *discordgo.InteractionCreate, content string) {
	_, err := api.FollowupMessageCreate(ic.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		// Fallback sólo si todavía no hay respuesta (webhook desconocido)
		var reqErr *discordgo.RESTError
		if errors.As(err, &reqErr) && reqErr.Message != nil && reqErr.Message.Code == discordgo.ErrCodeUnknownWebhook {
			_ = SendEphemeral(api, ic, content)
			return
		}
		log.Printf("[discord] ReplyEphemeral error: %v", err)
	}
}

// respuesta publica (lo ve todo el canal)
func SendResponse(api API, ic *discordgo.InteractionCreate, msg string) error {
	err := api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         msg,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	})
	if err != nil {
		log.Printf("[discord] SendResponse error: %v", err)
	}
	return err
}
