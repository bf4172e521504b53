package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"

	"godsendjoseph.dev/cdn-client/cdn"
)

// SlackNotifier handles sending notifications to Slack
type SlackNotifier struct {
	webhookURL string
	channel    string
	username   string
	iconEmoji  string
	enabled    bool
}

// NewSlackNotifier creates a new instance of SlackNotifier
func NewSlackNotifier(webhookURL, channel, username, iconEmoji string, enabled bool) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		username:   username,
		iconEmoji:  iconEmoji,
		enabled:    enabled,
	}
}

// SendRichNotification sends a message with attachments to Slack
func (s *SlackNotifier) SendRichNotification(ctx context.Context, title, message, color string, fields map[string]string) error {
	if s == nil || !s.enabled {
		return nil
	}

	attachmentFields := []slack.AttachmentField{}
	for k, v := range fields {
		attachmentFields = append(attachmentFields, slack.AttachmentField{
			Title: k,
			Value: v,
			Short: len(v) < 20,
		})
	}

	attachment := slack.Attachment{
		Title:      title,
		Text:       message,
		Color:      color, // "good", "warning", "danger" or a hex color
		Fields:     attachmentFields,
		MarkdownIn: []string{"text", "fields"},
	}

	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{attachment},
		Channel:     s.channel,
		Username:    s.username,
		IconEmoji:   s.iconEmoji,
	}

	return slack.PostWebhookContext(ctx, s.webhookURL, msg)
}

// NotifyHTTPError sends an error notification for HTTP errors
func (s *SlackNotifier) NotifyHTTPError(statusCode int, title string, err error, request *http.Request, fields map[string]string) error {
	if s == nil || !s.enabled || err == nil {
		return nil
	}

	if fields == nil {
		fields = make(map[string]string)
	}

	fields["Error"] = fmt.Sprintf("`%v`", err)

	if request != nil {
		fields["Method"] = request.Method
		fields["Path"] = request.URL.Path
		fields["User-Agent"] = request.UserAgent()
		fields["Remote IP"] = request.RemoteAddr
	}

	var color, emoji string

	switch {
	case statusCode >= 500:
		color = "danger"
		emoji = ":rotating_light:"
	case statusCode >= 400:
		color = "warning"
		emoji = ":warning:"
	default:
		color = "#3AA3E3"
		emoji = ":information_source:"
	}

	ctx := contextOf(request)

	return s.SendRichNotification(
		ctx,
		fmt.Sprintf("%s %s (HTTP %d)", emoji, title, statusCode),
		"",
		color,
		fields,
	)
}

// NotifyServerError for 500-level errors
func (s *SlackNotifier) NotifyServerError(err error, request *http.Request) error {
	return s.NotifyHTTPError(
		http.StatusInternalServerError,
		"Internal Server Error",
		err,
		request,
		nil,
	)
}

// NotifyCDNError reports a failed CDN call together with its error kind and
// target. Application errors are the CDN refusing a request and are sent
// as warnings.
func (s *SlackNotifier) NotifyCDNError(ctx context.Context, err error) error {
	if s == nil || !s.enabled || err == nil {
		return nil
	}

	fields := map[string]string{
		"Error": fmt.Sprintf("`%v`", err),
	}

	color := "danger"

	var cdnErr *cdn.Error
	if errors.As(err, &cdnErr) {
		fields["Kind"] = cdnErr.Kind.Error()
		fields["Operation"] = cdnErr.Op
		if cdnErr.Field != "" {
			fields["Field"] = cdnErr.Field
		}
		if cdnErr.Target != "" {
			fields["Target"] = cdnErr.Target
		}
		if errors.Is(err, cdn.ErrApplication) {
			color = "warning"
		}
	}

	return s.SendRichNotification(ctx, ":satellite_antenna: CDN request failed", "", color, fields)
}

// NotifyInfo for general informational messages
func (s *SlackNotifier) NotifyInfo(ctx context.Context, title string, message string, fields map[string]string) error {
	return s.SendRichNotification(
		ctx,
		fmt.Sprintf(":information_source: %s", title),
		message,
		"#3AA3E3",
		fields,
	)
}

func contextOf(request *http.Request) context.Context {
	if request == nil {
		return context.Background()
	}
	return request.Context()
}
