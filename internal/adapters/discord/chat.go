package discord

import (
	"log"
	"sync"
)

// Chat implementa service.Chat sobre el canal de la cola. Los DMs sólo
// llegan a usuarios que ya escribieron en el canal: así se resuelve
// username -> user ID.
type Chat struct {
	api       API
	channelID string

	mu    sync.RWMutex
	users map[string]string
}

func NewChat(api API, channelID string) *Chat {
	return &Chat{api: api, channelID: channelID, users: map[string]string{}}
}

// Remember registra el user ID de un username visto en el canal.
func (c *Chat) Remember(username, userID string) {
	if username == "" || userID == "" {
		return
	}
	c.mu.Lock()
	c.users[username] = userID
	c.mu.Unlock()
}

func (c *Chat) userID(username string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.users[username]
	return id, ok
}

func (c *Chat) Say(text string) {
	c.send(c.channelID, text)
}

func (c *Chat) send(channelID, text string) {
	for _, l := range lines(text) {
		if _, err := c.api.ChannelMessageSend(channelID, l); err != nil {
			log.Printf("[discord] send to %s: %v", channelID, err)
			return
		}
	}
}

func (c *Chat) CanDM(username string) bool {
	_, ok := c.userID(username)
	return ok
}

func (c *Chat) DirectMessage(username, text string) {
	id, ok := c.userID(username)
	if !ok {
		log.Printf("[discord] no user id for %s; DM dropped", username)
		return
	}
	ch, err := c.api.UserChannelCreate(id)
	if err != nil {
		log.Printf("[discord] open DM with %s: %v", username, err)
		return
	}
	if _, err := c.api.ChannelMessageSend(ch.ID, text); err != nil {
		log.Printf("[discord] DM %s: %v", username, err)
	}
}
