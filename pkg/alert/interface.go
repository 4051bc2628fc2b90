package alert

import (
	"context"
	"errors"

	"github.com/raids-lab/buildtracker/dao/model"
)

// ErrNoChannel is returned when neither SMTP nor the webhook is enabled.
var ErrNoChannel = errors.New("no notification channel enabled")

// AlertInterface 是封装好的通知组件，提供：
//  1. Item 状态进入终态（默认 Handedover to PLO）时的通知
//  2. 前端触发的状态更新邮件
type AlertInterface interface {
	// TerminalStatus is the status whose reach triggers ItemHandedOver.
	TerminalStatus() model.ItemStatus
	ItemHandedOver(ctx context.Context, item *model.Item) error
	StatusUpdate(ctx context.Context, sid, status string, details map[string]any) error
}

// Message is one notification in both renderings. HTML may be empty.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// alertHandlerInterface 是具体的通知渠道对外部提供的接口，SMTP 邮件和 Webhook 都应该实现
type alertHandlerInterface interface {
	Channel() model.NotificationChannel
	SendMessageTo(ctx context.Context, recipients []string, msg *Message) error
}
