package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/imroc/req/v3"

	"github.com/raids-lab/buildtracker/dao/model"
)

const webhookTimeout = 10 * time.Second

// WebhookMessage 是发送到群聊机器人的文本消息
type WebhookMessage struct {
	Msgtype string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
}

type webhookAlerter struct {
	address string
	client  *req.Client
}

func newWebhookAlerter(address string) alertHandlerInterface {
	return &webhookAlerter{
		address: address,
		client:  req.C().SetTimeout(webhookTimeout),
	}
}

func (w *webhookAlerter) Channel() model.NotificationChannel {
	return model.ChannelWebhook
}

// SendMessageTo posts the plain text rendering. Recipients are decided by the chat group.
func (w *webhookAlerter) SendMessageTo(ctx context.Context, _ []string, msg *Message) error {
	body := WebhookMessage{Msgtype: "text"}
	body.Text.Content = msg.Subject + "\n" + msg.Text

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(&body).
		Post(w.address)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	if !resp.IsSuccessState() {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
