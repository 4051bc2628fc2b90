package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"gorm.io/datatypes"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/payload"
	"github.com/raids-lab/buildtracker/internal/resputil"
	"github.com/raids-lab/buildtracker/pkg/alert"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewNotifyMgr)
}

type NotifyMgr struct {
	name    string
	q       *query.Query
	alerter alert.AlertInterface
}

func NewNotifyMgr(conf *RegisterConfig) Manager {
	return &NotifyMgr{
		name:    "notify",
		q:       conf.Query,
		alerter: conf.Alerter,
	}
}

func (mgr *NotifyMgr) GetName() string { return mgr.name }

func (mgr *NotifyMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *NotifyMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("/send-email", mgr.SendEmail)
}

func (mgr *NotifyMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("/notifications", mgr.ListNotification)
}

type (
	SendEmailReq struct {
		SID         string         `json:"sid"`
		Status      string         `json:"status"`
		ItemDetails map[string]any `json:"itemDetails"`
	}

	NotificationListReq struct {
		SID       string `form:"sid"`
		PageIndex *int   `form:"page_index" binding:"omitempty,min=0"`
		PageSize  *int   `form:"page_size" binding:"omitempty,min=1,max=500"`
	}

	NotificationResp struct {
		ID         uint                      `json:"id"`
		SID        string                    `json:"sid"`
		Status     string                    `json:"status"`
		Subject    string                    `json:"subject"`
		Recipients string                    `json:"recipients"`
		Channel    model.NotificationChannel `json:"channel"`
		Sent       bool                      `json:"sent"`
		Error      *string                   `json:"error"`
		Details    datatypes.JSON            `json:"details" swaggertype:"object"`
		CreatedAt  time.Time                 `json:"createdAt"`
	}
)

// SendEmail godoc
// @Summary 发送状态更新通知
// @Description 由前端在状态变化后调用，邮件包含 itemDetails 中的全部字段
// @Tags Notify
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body SendEmailReq true "SID、状态与字段"
// @Success 200 {object} resputil.Response[MessageResp] "发送成功"
// @Failure 400 {object} resputil.Response[any] "参数缺失"
// @Failure 500 {object} resputil.Response[any] "发送失败"
// @Router /api/send-email [post]
func (mgr *NotifyMgr) SendEmail(c *gin.Context) {
	var req SendEmailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if req.SID == "" || req.Status == "" || len(req.ItemDetails) == 0 {
		resputil.BadRequestError(c, "Missing parameters")
		return
	}
	if len(req.SID) > model.MaxNotificationSIDLength {
		resputil.BadRequestError(c, fmt.Sprintf("sid: ensure this field has no more than %d characters",
			model.MaxNotificationSIDLength))
		return
	}
	if err := mgr.alerter.StatusUpdate(c, req.SID, req.Status, req.ItemDetails); err != nil {
		fields := logutils.Fields{"sid": req.SID, "status": req.Status}
		if errors.Is(err, alert.ErrNoChannel) {
			logutils.Log.WithFields(fields).Warn("no notification channel configured")
		} else {
			logutils.Log.WithFields(fields).Errorf("send status update: %v", err)
		}
		resputil.HTTPError(c, http.StatusInternalServerError, "Failed to send email.", resputil.ServiceError)
		return
	}
	resputil.Success(c, MessageResp{Message: "Email sent successfully"})
}

// ListNotification godoc
// @Summary 通知发送记录
// @Description 管理员查看每次通知的渠道、收件人与结果，按时间倒序
// @Tags Notify
// @Produce json
// @Security Bearer
// @Param data query NotificationListReq false "按 SID 过滤与分页"
// @Success 200 {object} resputil.Response[payload.ListResp[NotificationResp]] "记录列表"
// @Failure 403 {object} resputil.Response[any] "无权限"
// @Router /api/notifications [get]
func (mgr *NotifyMgr) ListNotification(c *gin.Context) {
	var req NotificationListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	page := payload.PageQuery{PageIndex: req.PageIndex, PageSize: req.PageSize}.Page()
	records, count, err := mgr.q.ListNotifications(c, req.SID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	rows := lo.Map(records, func(n model.Notification, _ int) NotificationResp {
		return NotificationResp{
			ID:         n.ID,
			SID:        n.SID,
			Status:     n.Status,
			Subject:    n.Subject,
			Recipients: n.Recipients,
			Channel:    n.Channel,
			Sent:       n.Sent,
			Error:      n.Error,
			Details:    n.Details,
			CreatedAt:  n.CreatedAt,
		}
	})
	resputil.Success(c, payload.ListResp[NotificationResp]{Rows: rows, Count: count})
}
