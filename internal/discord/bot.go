// Package discord provides the Discord front end. It owns the
// discordgo.Session lifecycle and answers questions posted as direct
// messages or as messages that mention the bot. Each channel gets its own
// conversation session, so follow-up questions and disambiguation choices
// stay scoped to where they were asked.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/pokedexlab/dexter/internal/convo"
	"github.com/pokedexlab/dexter/internal/orchestrator"
)

// Config holds Discord bot configuration.
type Config struct {
	// Token is the Discord bot token.
	Token string

	// GuildID restricts the bot to a single guild when set. Direct
	// messages are always answered.
	GuildID string
}

// Answerer produces a reply for one message on a session. Implemented by
// [orchestrator.Orchestrator].
type Answerer interface {
	Answer(ctx context.Context, sess *convo.Session, message string) (orchestrator.Reply, error)
}

// Bot owns the Discord gateway connection and answers questions posted in
// channels that mention it, or in DMs.
type Bot struct {
	session   *discordgo.Session
	orch      Answerer
	sessions  *convo.Manager
	guildID   string
	log       *slog.Logger
	closeOnce sync.Once

	// send delivers a reply to a channel. Overridable in tests.
	send func(channelID, content string) error
}

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bot) { b.log = l }
}

// New creates a Bot, connects to Discord, and registers the message handler.
func New(cfg Config, orch Answerer, sessions *convo.Manager, opts ...Option) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		session:  session,
		orch:     orch,
		sessions: sessions,
		guildID:  cfg.GuildID,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	b.send = func(channelID, content string) error {
		_, err := session.ChannelMessageSend(channelID, content)
		return err
	}

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("discord: open session: %w", err)
	}

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.onMessage(s.State.User.ID, m)
	})

	return b, nil
}

// Run blocks until ctx is cancelled. The gateway connection is already open;
// this only anchors the bot's lifetime to ctx.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("discord bot ready", "guild_id", b.guildID)
	<-ctx.Done()
	return ctx.Err()
}

// Close disconnects from Discord.
func (b *Bot) Close() error {
	var closeErr error
	b.closeOnce.Do(func() {
		if err := b.session.Close(); err != nil {
			closeErr = fmt.Errorf("discord: close session: %w", err)
		}
		b.log.Info("discord bot closed")
	})
	return closeErr
}

// onMessage is the MessageCreate handler. selfID is the bot's own user ID.
func (b *Bot) onMessage(selfID string, m *discordgo.MessageCreate) {
	question, ok := b.accept(selfID, m)
	if !ok {
		return
	}

	ctx := context.Background()
	sess := b.sessions.Get(ctx, m.ChannelID)

	reply, err := b.orch.Answer(ctx, sess, question)
	if err != nil {
		b.log.Error("answer failed", "channel", m.ChannelID, "err", err)
		return
	}
	if err := b.send(m.ChannelID, reply.Text); err != nil {
		b.log.Warn("discord send failed", "channel", m.ChannelID, "err", err)
	}
}

// accept decides whether the message should be answered and returns the
// question with the bot mention stripped.
func (b *Bot) accept(selfID string, m *discordgo.MessageCreate) (string, bool) {
	if m.Author == nil || m.Author.ID == selfID || m.Author.Bot {
		return "", false
	}

	isDM := m.GuildID == ""
	if !isDM && b.guildID != "" && m.GuildID != b.guildID {
		return "", false
	}

	mentioned := false
	for _, u := range m.Mentions {
		if u.ID == selfID {
			mentioned = true
			break
		}
	}
	if !isDM && !mentioned {
		return "", false
	}

	question := stripMention(m.Content, selfID)
	if question == "" {
		return "", false
	}
	return question, true
}

// stripMention removes the bot's mention tokens from content.
func stripMention(content, selfID string) string {
	content = strings.ReplaceAll(content, "<@"+selfID+">", "")
	content = strings.ReplaceAll(content, "<@!"+selfID+">", "")
	return strings.TrimSpace(content)
}
