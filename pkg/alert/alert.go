package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/pkg/config"
	"github.com/raids-lab/buildtracker/pkg/logutils"
	"github.com/raids-lab/buildtracker/pkg/metrics"
)

type alertMgr struct {
	handlers       []alertHandlerInterface
	recipients     []string
	terminalStatus model.ItemStatus
	// audit store, nil disables the audit trail
	q *query.Query
}

// NewAlertMgr picks the handlers enabled in conf. q receives one audit record per attempt.
func NewAlertMgr(conf *config.Config, q *query.Query) AlertInterface {
	var handlers []alertHandlerInterface
	if conf.SMTP.Enable {
		handlers = append(handlers, newSMTPAlerter(conf))
	}
	if conf.Webhook.Enable {
		handlers = append(handlers, newWebhookAlerter(conf.Webhook.Address))
	}
	if len(handlers) == 0 {
		logutils.Log.Warn("no notification channel enabled, notifications are only logged")
	}
	return &alertMgr{
		handlers:       handlers,
		recipients:     conf.Notify.Recipients,
		terminalStatus: model.ItemStatus(conf.Notify.TerminalStatus),
		q:              q,
	}
}

func (a *alertMgr) TerminalStatus() model.ItemStatus {
	return a.terminalStatus
}

func (a *alertMgr) ItemHandedOver(ctx context.Context, item *model.Item) error {
	msg := ItemMessage(item)
	return a.dispatch(ctx, item.SID, string(item.Status), msg, ItemDetails(item))
}

func (a *alertMgr) StatusUpdate(ctx context.Context, sid, status string, details map[string]any) error {
	msg := StatusUpdateMessage(sid, status, details, status == string(a.terminalStatus))
	return a.dispatch(ctx, sid, status, msg, details)
}

// dispatch sends msg over every handler. One failing channel does not stop the others;
// the joined error is returned.
func (a *alertMgr) dispatch(ctx context.Context, sid, status string, msg *Message, details map[string]any) error {
	if len(a.handlers) == 0 {
		logutils.Log.WithFields(logutils.Fields{"sid": sid, "status": status}).
			Infof("notification not sent: %s", msg.Subject)
		a.audit(ctx, sid, status, msg, model.ChannelNone, details, ErrNoChannel)
		metrics.Notifications.WithLabelValues(string(model.ChannelNone), metrics.Result(ErrNoChannel)).Inc()
		return ErrNoChannel
	}

	var errs []error
	for _, handler := range a.handlers {
		err := handler.SendMessageTo(ctx, a.recipients, msg)
		a.audit(ctx, sid, status, msg, handler.Channel(), details, err)
		metrics.Notifications.WithLabelValues(string(handler.Channel()), metrics.Result(err)).Inc()
		if err != nil {
			logutils.Log.WithFields(logutils.Fields{"sid": sid, "channel": handler.Channel()}).
				Errorf("send notification: %v", err)
			errs = append(errs, fmt.Errorf("%s: %w", handler.Channel(), err))
			continue
		}
		logutils.Log.WithFields(logutils.Fields{"sid": sid, "channel": handler.Channel()}).
			Infof("sent notification %q", msg.Subject)
	}
	return errors.Join(errs...)
}

func (a *alertMgr) audit(
	ctx context.Context, sid, status string, msg *Message,
	channel model.NotificationChannel, details map[string]any, sendErr error,
) {
	if a.q == nil {
		return
	}
	record := &model.Notification{
		SID:        sid,
		Status:     status,
		Subject:    msg.Subject,
		Recipients: strings.Join(a.recipients, ","),
		Channel:    channel,
		Sent:       sendErr == nil,
	}
	if sendErr != nil {
		reason := sendErr.Error()
		record.Error = &reason
	}
	if details != nil {
		data, err := json.Marshal(details)
		if err == nil {
			record.Details = datatypes.JSON(data)
		}
	}
	// 审计失败不影响通知结果
	if err := a.q.CreateNotification(context.WithoutCancel(ctx), record); err != nil {
		logutils.Log.Errorf("save notification audit for %s: %v", sid, err)
	}
}
