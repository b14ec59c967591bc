package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

func optStr(ic *discordgo.InteractionCreate, name string) (string, bool) {
	if ic.Type != discordgo.InteractionApplicationCommand {
		return "", false
	}
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Name == name {
			return o.StringValue(), true
		}
	}
	return "", false
}

// invoker devuelve el usuario de la interacción (miembro en guild, user en DM).
func invoker(ic *discordgo.InteractionCreate) *discordgo.User {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User
	}
	return ic.User
}

// username normalizado: el engine compara usernames en minúscula
func username(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	return strings.ToLower(u.Username)
}

// lines parte una respuesta del engine en mensajes de chat.
func lines(reply string) []string {
	var out []string
	for _, l := range strings.Split(reply, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// firstWord es el comando (con prefijo) de un mensaje de chat.
func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return strings.ToLower(f[0])
	}
	return ""
}
