// Package webhook publishes reports and award notices to Discord webhooks.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"acrossfc/core"
	"acrossfc/discord"
	"acrossfc/report"
)

// MaxContentLength is Discord's limit for a message body.
const MaxContentLength = 2000

var ErrContentTooLong = errors.New("webhook content exceeds discord message limit")

type endpoint struct {
	id, token string
}

// Sink executes Discord webhooks.
type Sink struct {
	session   *discordgo.Session
	endpoints []endpoint
	username  string
	logger    *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithSession overrides the discordgo session (defaults to an
// unauthenticated session with a 5s timeout).
func WithSession(s *discordgo.Session) Option {
	return func(sink *Sink) {
		if s != nil {
			sink.session = s
		}
	}
}

// WithUsername overrides the webhook's display name.
func WithUsername(name string) Option {
	return func(s *Sink) { s.username = name }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a webhook sink. Every URL must have the
// .../webhooks/{id}/{token} form.
func New(urls []string, opts ...Option) (*Sink, error) {
	s := &Sink{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.session == nil {
		session, err := discord.NewSession("", "", 5*time.Second)
		if err != nil {
			return nil, err
		}
		s.session = session
	}
	for _, u := range urls {
		id, token, err := discord.ParseWebhookURL(u)
		if err != nil {
			return nil, err
		}
		s.endpoints = append(s.endpoints, endpoint{id: id, token: token})
	}
	return s, nil
}

// PublishReport posts the report's markdown to every endpoint.
func (s *Sink) PublishReport(ctx context.Context, r report.Report) error {
	return s.post(ctx, r.Markdown())
}

// OnEvent posts an award notice; failures are logged. It matches the event
// bus handler signature.
func (s *Sink) OnEvent(ctx context.Context, ev core.PointsEvent) {
	if err := s.post(ctx, AwardNotice(ev)); err != nil {
		s.logger.Warn("webhook award notice failed", "member", ev.MemberID, "category", ev.Category, "error", err)
	}
}

// AwardNotice is the single line posted for an awarded event.
func AwardNotice(ev core.PointsEvent) string {
	return fmt.Sprintf(":trophy: Member %d earned **%d** points: %s", ev.MemberID, ev.Points, ev.Description)
}

func (s *Sink) post(ctx context.Context, content string) error {
	if len(s.endpoints) == 0 {
		return nil
	}
	if len([]rune(content)) > MaxContentLength {
		return ErrContentTooLong
	}
	params := &discordgo.WebhookParams{Content: content, Username: s.username}
	var errs []error
	for _, ep := range s.endpoints {
		if _, err := s.session.WebhookExecute(ep.id, ep.token, false, params, discordgo.WithContext(ctx)); err != nil {
			errs = append(errs, fmt.Errorf("webhook %s: %w", ep.id, err))
		}
	}
	return errors.Join(errs...)
}
