// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package platform

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tomtom215/soapbox/internal/logging"
	"github.com/tomtom215/soapbox/internal/metrics"
)

// DiscordPoster implements Poster over the Discord REST API. It never opens
// a gateway connection.
type DiscordPoster struct {
	session *discordgo.Session
}

// NewDiscordPoster creates a REST-only session for a bot token.
func NewDiscordPoster(token string) (*DiscordPoster, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("discord token is empty")
	}
	s, err := discordgo.New("Bot " + strings.TrimPrefix(token, "Bot "))
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Client = &http.Client{Timeout: 30 * time.Second}
	s.UserAgent = "Soapbox (https://github.com/tomtom215/soapbox, 1.0)"
	return NewDiscordPosterWithSession(s), nil
}

// NewDiscordPosterWithSession wraps an existing session. Tests use it to
// point the session at a fake transport.
func NewDiscordPosterWithSession(s *discordgo.Session) *DiscordPoster {
	return &DiscordPoster{session: s}
}

// Ping validates the token and returns the bot's username.
func (p *DiscordPoster) Ping(ctx context.Context) (string, error) {
	u, err := p.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", classify("ping", err)
	}
	metrics.RecordPlatformRequest("ping", "success")
	return u.Username, nil
}

// FetchChannel implements Poster.
func (p *DiscordPoster) FetchChannel(ctx context.Context, channelID string) (*Channel, error) {
	ch, err := p.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("fetch_channel", err)
	}
	metrics.RecordPlatformRequest("fetch_channel", "success")
	return &Channel{
		ID:      ch.ID,
		GuildID: ch.GuildID,
		Name:    ch.Name,
		Forum:   ch.Type == discordgo.ChannelTypeGuildForum,
	}, nil
}

// CreateThread implements Poster.
func (p *DiscordPoster) CreateThread(ctx context.Context, ch *Channel, title string, msg Message) (string, error) {
	th, err := p.session.ForumThreadStartComplex(ch.ID,
		&discordgo.ThreadStart{Name: TruncateTitle(title, MaxThreadTitle)},
		toMessageSend(msg),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return "", classify("create_thread", err)
	}
	metrics.RecordPlatformRequest("create_thread", "success")
	return th.ID, nil
}

// SendMessage implements Poster.
func (p *DiscordPoster) SendMessage(ctx context.Context, ch *Channel, msg Message) (string, error) {
	m, err := p.session.ChannelMessageSendComplex(ch.ID, toMessageSend(msg), discordgo.WithContext(ctx))
	if err != nil {
		return "", classify("send_message", err)
	}
	metrics.RecordPlatformRequest("send_message", "success")
	return m.ID, nil
}

// DeleteThread implements Poster.
func (p *DiscordPoster) DeleteThread(ctx context.Context, threadID string) error {
	if _, err := p.session.ChannelDelete(threadID, discordgo.WithContext(ctx)); err != nil {
		return classify("delete_thread", err)
	}
	metrics.RecordPlatformRequest("delete_thread", "success")
	return nil
}

// DeleteMessage implements Poster.
func (p *DiscordPoster) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := p.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return classify("delete_message", err)
	}
	metrics.RecordPlatformRequest("delete_message", "success")
	return nil
}

// archivedThreadLimit bounds the archived-thread page searched by FindThread.
const archivedThreadLimit = 50

// FindThread implements Poster.
func (p *DiscordPoster) FindThread(ctx context.Context, ch *Channel, name string) (string, error) {
	if ch.GuildID != "" {
		active, err := p.session.GuildThreadsActive(ch.GuildID, discordgo.WithContext(ctx))
		if err != nil {
			return "", classify("list_active_threads", err)
		}
		for _, th := range active.Threads {
			if th.ParentID == ch.ID && th.Name == name {
				return th.ID, nil
			}
		}
	}

	archived, err := p.session.ThreadsArchived(ch.ID, nil, archivedThreadLimit, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify("list_archived_threads", err)
	}
	for _, th := range archived.Threads {
		if th.Name == name {
			return th.ID, nil
		}
	}
	metrics.RecordPlatformRequest("find_thread", ErrorCodeNotFound)
	return "", fmt.Errorf("thread %q: %w", name, ErrNotFound)
}

func toMessageSend(msg Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{Content: msg.Content}
	if msg.Attachment != nil && msg.Attachment.Reader != nil {
		send.Files = []*discordgo.File{{
			Name:        msg.Attachment.Name,
			ContentType: msg.Attachment.ContentType,
			Reader:      msg.Attachment.Reader,
		}}
	}
	return send
}

// classify wraps a discordgo error in *Error and records the call.
func classify(op string, err error) error {
	e := &Error{Op: op, Code: ErrorCodeUnknown, Err: err}

	var restErr *discordgo.RESTError
	var rateErr *discordgo.RateLimitError
	var netErr net.Error
	switch {
	case errors.As(err, &restErr) && restErr.Response != nil:
		e.Status = restErr.Response.StatusCode
		e.Code = ClassifyStatus(e.Status)
	case errors.As(err, &rateErr):
		e.Code = ErrorCodeRateLimited
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		e.Code = ErrorCodeTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		e.Code = ErrorCodeTimeout
	case errors.As(err, &netErr):
		e.Code = ErrorCodeConnectionFailed
	}

	metrics.RecordPlatformRequest(op, e.Code)
	if e.Code != ErrorCodeNotFound {
		logging.Debug().Str("op", op).Str("code", e.Code).Int("status", e.Status).Err(err).Msg("Discord request failed")
	}
	return e
}
