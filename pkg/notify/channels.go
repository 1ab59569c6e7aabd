package notify

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	ntfy "github.com/go-pkgz/notify"
)

// builder makes the targets of one channel kind from the params.
type builder func(p Params, log logger) ([]target, error)

var builders = map[string]builder{
	"telegram": telegramTargets,
	"email":    emailTargets,
	"slack":    slackTargets,
	"webhook":  webhookTargets,
}

// newTelegram is replaced in tests, the real constructor calls the bot API.
var newTelegram = func(token string) (ntfy.Notifier, error) {
	return ntfy.NewTelegram(ntfy.TelegramParams{Token: token})
}

func telegramTargets(p Params, log logger) ([]target, error) {
	if p.TelegramToken == "" {
		return nil, errors.New("notify_telegram_token is required")
	}
	if p.TelegramChat == "" {
		return nil, errors.New("notify_telegram_chat is required")
	}
	tg, err := newTelegram(p.TelegramToken)
	if err != nil {
		// the api is unreachable or the token is rejected, run without this channel.
		// the token is part of api urls and must not reach the log
		log.Print("[WARN] telegram channel disabled: %s", strings.ReplaceAll(err.Error(), p.TelegramToken, "[REDACTED]"))
		return nil, nil
	}
	return []target{{
		name:     "telegram",
		notifier: tg,
		dest:     fmt.Sprintf("telegram:%s?parseMode=HTML", p.TelegramChat),
		format:   telegramHTML,
	}}, nil
}

// telegramHTML escapes msg for the HTML parse mode and bolds the headline.
func telegramHTML(msg string) string {
	head, rest, _ := strings.Cut(html.EscapeString(msg), "\n")
	return "<b>" + head + "</b>\n" + rest
}

func emailTargets(p Params, _ logger) ([]target, error) {
	switch {
	case p.SMTPHost == "":
		return nil, errors.New("notify_smtp_host is required")
	case p.EmailFrom == "":
		return nil, errors.New("notify_email_from is required")
	case len(p.EmailTo) == 0:
		return nil, errors.New("notify_email_to is required")
	}

	em := ntfy.NewEmail(ntfy.SMTPParams{
		Host:     p.SMTPHost,
		Port:     p.SMTPPort,
		Username: p.SMTPUsername,
		Password: p.SMTPPassword,
		StartTLS: p.SMTPStartTLS,
	})
	q := url.Values{}
	q.Set("from", p.EmailFrom)
	q.Set("subject", "chatcheck notification")
	dest := "mailto:" + strings.Join(p.EmailTo, ",") + "?" + q.Encode()
	return []target{{name: "email", notifier: em, dest: dest}}, nil
}

func slackTargets(p Params, _ logger) ([]target, error) {
	switch {
	case p.SlackToken == "":
		return nil, errors.New("notify_slack_token is required")
	case p.SlackChannel == "":
		return nil, errors.New("notify_slack_channel is required")
	}
	return []target{{name: "slack", notifier: ntfy.NewSlack(p.SlackToken), dest: "slack:" + p.SlackChannel}}, nil
}

// webhookTargets shares one notifier between all configured urls.
func webhookTargets(p Params, _ logger) ([]target, error) {
	if len(p.WebhookURLs) == 0 {
		return nil, errors.New("notify_webhook_urls is required")
	}
	wh := ntfy.NewWebhook(ntfy.WebhookParams{})
	res := make([]target, 0, len(p.WebhookURLs))
	for _, u := range p.WebhookURLs {
		res = append(res, target{name: "webhook " + u, notifier: wh, dest: u})
	}
	return res, nil
}
