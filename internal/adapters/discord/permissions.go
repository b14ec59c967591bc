package discord

import (
	"slices"

	"github.com/bwmarrin/discordgo"
)

// isOperator: el streamer, un admin del guild o alguno de los roles del bot.
func (r *Router) isOperator(ic *discordgo.InteractionCreate) bool {
	if username(invoker(ic)) == r.opts.Streamer {
		return true
	}
	if ic.Member == nil {
		return false
	}
	if ic.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	for _, want := range r.opts.AdminRoleIDs {
		if slices.Contains(ic.Member.Roles, want) {
			return true
		}
	}
	return false
}

func (r *Router) requireOperator(ic *discordgo.InteractionCreate) bool {
	if r.isOperator(ic) {
		return true
	}
	ReplyEphemeral(r.api, ic, "🔒 Only the streamer can do that.")
	return false
}
