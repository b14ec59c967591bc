package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

type sent struct {
	channel string
	text    string
}

type fakeAPI struct {
	mu        sync.Mutex
	sent      []sent
	complex   []*discordgo.MessageSend
	edits     []*discordgo.MessageEdit
	responses []*discordgo.InteractionResponse
	followups []string
	editErr   error
}

func (f *fakeAPI) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{channelID, content})
	return &discordgo.Message{ID: fmt.Sprint(len(f.sent)), ChannelID: channelID}, nil
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.complex = append(f.complex, data)
	return &discordgo.Message{ID: "panel-1", ChannelID: channelID}, nil
}

func (f *fakeAPI) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID}, nil
}

func (f *fakeAPI) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeAPI) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeAPI) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data.Content)
	return &discordgo.Message{}, nil
}

func (f *fakeAPI) texts(channel string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if s.channel == channel {
			out = append(out, s.text)
		}
	}
	return out
}

func (f *fakeAPI) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

type call struct {
	message, user, reward string
}

type fakeEngine struct {
	mu    sync.Mutex
	calls []call
	reply string
}

func (e *fakeEngine) Command(_ context.Context, message, username, rewardID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call{message, username, rewardID})
	return e.reply
}

type memPanels struct {
	mu  sync.Mutex
	ids map[string]string
}

func (m *memPanels) Get(_ context.Context, channelID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[channelID]
	if !ok {
		return "", fmt.Errorf("not found")
	}
	return id, nil
}

func (m *memPanels) Upsert(_ context.Context, channelID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ids == nil {
		m.ids = map[string]string{}
	}
	m.ids[channelID] = messageID
	return nil
}
