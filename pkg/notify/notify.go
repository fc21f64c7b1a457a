// Package notify sends trace alerts: a reloaded project that brings new steps with
// an alerting outcome (error by default) is reported through the configured channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"os"
	"strings"
	"time"

	ntfy "github.com/go-pkgz/notify"

	"github.com/lgmodeler/lgmodeler/pkg/status"
)

// Params holds configuration for creating a notification Service.
type Params struct {
	Channels      []string
	Statuses      []string // step outcomes that raise an alert, empty means error only
	TimeoutMs     int
	TelegramToken string
	TelegramChat  string
	SlackToken    string
	SlackChannel  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPStartTLS  bool
	EmailFrom     string
	EmailTo       []string
	WebhookURLs   []string
	CustomScript  string
}

// Service orchestrates sending alerts through configured channels.
type Service struct {
	channels  []channel      // paired notifier + destination
	custom    *customChannel // optional custom script channel
	statuses  map[status.StepStatus]bool
	timeoutMs int
	hostname  string // resolved once at creation via os.Hostname()
	log       logger
}

// channel pairs a notifier with its destination URI.
type channel struct {
	notifier   ntfy.Notifier
	dest       string
	htmlEscape bool // true for channels that use HTML parse mode (e.g., telegram)
}

type logger interface {
	Warn(format string, args ...any)
}

// New creates a notification Service from the given Params.
// returns nil, nil if no channels are configured; Send and Alerting are nil-safe.
// validates required fields per channel and returns an error for misconfigured channels.
func New(p Params, log logger) (*Service, error) {
	if len(p.Channels) == 0 {
		return nil, nil //nolint:nilnil // nil service means alerts are off
	}

	statuses, err := parseStatuses(p.Statuses)
	if err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	svc := &Service{statuses: statuses, timeoutMs: p.TimeoutMs, hostname: hostname, log: log}
	if svc.timeoutMs <= 0 {
		svc.timeoutMs = 10000
	}

	for _, ch := range p.Channels {
		switch strings.TrimSpace(strings.ToLower(ch)) {
		case "telegram":
			if p.TelegramToken == "" {
				return nil, errors.New("telegram channel: notify_telegram_token is required")
			}
			if p.TelegramChat == "" {
				return nil, errors.New("telegram channel: notify_telegram_chat is required")
			}
			c, cErr := telegramChannelMaker(p)
			if cErr != nil {
				// telegram verifies the token with a live call; a failure disables the channel
				// and the token is redacted from the message
				log.Warn("telegram channel disabled: %s", strings.ReplaceAll(cErr.Error(), p.TelegramToken, "[REDACTED]"))
				continue
			}
			svc.channels = append(svc.channels, c)
		case "email":
			c, cErr := makeEmailChannel(p)
			if cErr != nil {
				return nil, fmt.Errorf("email channel: %w", cErr)
			}
			svc.channels = append(svc.channels, c)
		case "slack":
			c, cErr := makeSlackChannel(p)
			if cErr != nil {
				return nil, fmt.Errorf("slack channel: %w", cErr)
			}
			svc.channels = append(svc.channels, c)
		case "webhook":
			chs, cErr := makeWebhookChannels(p)
			if cErr != nil {
				return nil, fmt.Errorf("webhook channel: %w", cErr)
			}
			svc.channels = append(svc.channels, chs...)
		case "custom":
			if p.CustomScript == "" {
				return nil, errors.New("custom channel: notify_custom_script is required")
			}
			svc.custom = newCustomChannel(p.CustomScript)
		default:
			return nil, fmt.Errorf("unknown notification channel: %q", ch)
		}
	}

	if len(svc.channels) == 0 && svc.custom == nil {
		log.Warn("all notification channels were disabled due to initialization errors")
	}

	return svc, nil
}

func parseStatuses(vals []string) (map[status.StepStatus]bool, error) {
	res := map[status.StepStatus]bool{}
	if len(vals) == 0 {
		res[status.Error] = true
		return res, nil
	}
	for _, v := range vals {
		s, err := status.ParseStepStatus(v)
		if err != nil {
			return nil, fmt.Errorf("notify_statuses: %w", err)
		}
		res[s] = true
	}
	return res, nil
}

// Alerting reports whether steps with outcome s raise alerts. false for a nil service.
func (s *Service) Alerting(st status.StepStatus) bool {
	if s == nil {
		return false
	}
	return s.statuses[st]
}

// Send delivers alert a to every channel. nil-safe on receiver.
// errors are logged but never returned.
func (s *Service) Send(ctx context.Context, a Alert) {
	if s == nil {
		return
	}

	msg := s.formatMessage(a)

	sendCtx, cancel := context.WithTimeout(ctx, time.Duration(s.timeoutMs)*time.Millisecond)
	defer cancel()

	for _, ch := range s.channels {
		text := msg
		if ch.htmlEscape {
			text = html.EscapeString(msg)
		}
		if err := ch.notifier.Send(sendCtx, ch.dest, text); err != nil {
			s.log.Warn("notification failed for %s: %v", ch.notifier, err)
		}
	}

	if s.custom != nil {
		if err := s.custom.send(sendCtx, a); err != nil {
			s.log.Warn("custom notification failed: %v", err)
		}
	}
}

// formatMessage creates a plain text alert message.
func (s *Service) formatMessage(a Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "lgmodeler: step %s %s on %s\n\n", a.Node, strings.ToLower(status.Config(a.Status).Label), s.hostname)
	fmt.Fprintf(&b, "project: %s\n", a.Project)
	if a.File != "" {
		fmt.Fprintf(&b, "file:    %s\n", a.File)
	}
	fmt.Fprintf(&b, "trace:   %s (%s)\n", a.TraceName, a.TraceID)
	fmt.Fprintf(&b, "step:    #%d %s\n", a.Index+1, a.Node)
	if a.Note != "" {
		fmt.Fprintf(&b, "note:    %s\n", a.Note)
	}
	return b.String()
}

// telegramChannelMaker creates a telegram notifier and destination.
// overridden in tests to avoid live API calls.
var telegramChannelMaker = makeTelegramChannel

// makeTelegramChannel sends to telegram:<chat>?parseMode=HTML.
// caller must validate that TelegramToken and TelegramChat are non-empty before calling.
func makeTelegramChannel(p Params) (channel, error) {
	tg, err := ntfy.NewTelegram(ntfy.TelegramParams{Token: p.TelegramToken})
	if err != nil {
		return channel{}, fmt.Errorf("create telegram notifier: %w", err)
	}
	return channel{notifier: tg, dest: fmt.Sprintf("telegram:%s?parseMode=HTML", p.TelegramChat), htmlEscape: true}, nil
}

func makeEmailChannel(p Params) (channel, error) {
	if p.SMTPHost == "" {
		return channel{}, errors.New("notify_smtp_host is required")
	}
	if p.EmailFrom == "" {
		return channel{}, errors.New("notify_email_from is required")
	}
	if len(p.EmailTo) == 0 {
		return channel{}, errors.New("notify_email_to is required")
	}

	em := ntfy.NewEmail(ntfy.SMTPParams{
		Host:     p.SMTPHost,
		Port:     p.SMTPPort,
		Username: p.SMTPUsername,
		Password: p.SMTPPassword,
		StartTLS: p.SMTPStartTLS,
	})

	dest := fmt.Sprintf("mailto:%s?from=%s&subject=%s",
		strings.Join(p.EmailTo, ","),
		url.QueryEscape(p.EmailFrom),
		url.QueryEscape("lgmodeler trace alert"),
	)
	return channel{notifier: em, dest: dest}, nil
}

func makeSlackChannel(p Params) (channel, error) {
	if p.SlackToken == "" {
		return channel{}, errors.New("notify_slack_token is required")
	}
	if p.SlackChannel == "" {
		return channel{}, errors.New("notify_slack_channel is required")
	}
	return channel{notifier: ntfy.NewSlack(p.SlackToken), dest: "slack:" + p.SlackChannel}, nil
}

// makeWebhookChannels creates one channel per configured URL sharing a notifier.
func makeWebhookChannels(p Params) ([]channel, error) {
	if len(p.WebhookURLs) == 0 {
		return nil, errors.New("notify_webhook_urls is required")
	}

	wh := ntfy.NewWebhook(ntfy.WebhookParams{})
	channels := make([]channel, 0, len(p.WebhookURLs))
	for _, u := range p.WebhookURLs {
		channels = append(channels, channel{notifier: wh, dest: u})
	}
	return channels, nil
}
