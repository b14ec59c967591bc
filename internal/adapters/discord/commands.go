package discord

import "github.com/bwmarrin/discordgo"

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "redeem",
		Description: "Canjea una recompensa de la cola",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "reward",
				Description: "Nombre de la recompensa",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "text",
				Description: "Texto del canje (ej: un level code)",
			},
		},
	},
	{
		Name:        "queue-panel",
		Description: "Publica el panel de la cola en este canal (streamer/admins)",
	},
}
