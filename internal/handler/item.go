package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/payload"
	"github.com/raids-lab/buildtracker/internal/resputil"
	"github.com/raids-lab/buildtracker/pkg/alert"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewItemMgr)
}

type ItemMgr struct {
	name    string
	q       *query.Query
	alerter alert.AlertInterface
}

func NewItemMgr(conf *RegisterConfig) Manager {
	return &ItemMgr{
		name:    "item",
		q:       conf.Query,
		alerter: conf.Alerter,
	}
}

func (mgr *ItemMgr) GetName() string { return mgr.name }

func (mgr *ItemMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ItemMgr) RegisterProtected(g *gin.RouterGroup) {
	item := g.Group("/item")
	item.GET("", mgr.ListItem)
	item.POST("", mgr.CreateItem)
	item.GET("/:sid", mgr.GetItem)
	item.PUT("/:sid", mgr.UpdateItem)
	item.PATCH("/:sid", mgr.PatchItem)
	item.DELETE("/:sid", mgr.DeleteItem)
}

func (mgr *ItemMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	ItemListReq struct {
		Year      int              `form:"year" binding:"omitempty,min=1"`
		Flavour   model.Flavour    `form:"flavour"`
		Status    model.ItemStatus `form:"status"`
		PLO       uint             `form:"plo"`
		Processor uint             `form:"processor"`
		PageIndex *int             `form:"page_index" binding:"omitempty,min=0"`
		PageSize  *int             `form:"page_size" binding:"omitempty,min=1,max=500"`
	}

	SIDReq struct {
		SID string `uri:"sid" binding:"required"`
	}

	// ItemReq is the writable representation of an Item, foreign keys are ids.
	ItemReq struct {
		// PUT only: apply the body as a partial update
		Partial             bool             `json:"partial,omitempty"`
		SID                 string           `json:"sid"`
		RequestedDate       model.Date       `json:"requested_date"`
		Flavour             model.Flavour    `json:"flavour"`
		EstimatedClients    int              `json:"estimated_clients"`
		DeliveredClients    *int             `json:"delivered_clients"`
		BFS                 model.BFS        `json:"bfs"`
		TShirtSize          model.TShirtSize `json:"t_shirt_size"`
		SystemType          string           `json:"system_type"`
		Hardware            model.Hardware   `json:"hardware"`
		Setup               string           `json:"setup"`
		PLO                 uint             `json:"plo"`
		Processor1          uint             `json:"processor1"`
		Processor2          *uint            `json:"processor2"`
		Status              model.ItemStatus `json:"status"`
		Landscape           string           `json:"landscape"`
		Description         string           `json:"description"`
		ExpectedDelivery    *model.Date      `json:"expected_delivery"`
		RevisedDeliveryDate *model.Date      `json:"revised_delivery_date"`
		DeliveryDate        *model.Date      `json:"delivery_date"`
		DeliveryDelayReason *string          `json:"delivery_delay_reason"`
		ServiceNow          string           `json:"servicenow"`
		Comments            *string          `json:"comments"`
	}

	ItemResp struct {
		ID                  uint             `json:"id"`
		SID                 string           `json:"sid"`
		RequestedDate       model.Date       `json:"requested_date"`
		Flavour             model.Flavour    `json:"flavour"`
		EstimatedClients    int              `json:"estimated_clients"`
		DeliveredClients    *int             `json:"delivered_clients"`
		BFS                 model.BFS        `json:"bfs"`
		TShirtSize          model.TShirtSize `json:"t_shirt_size"`
		SystemType          string           `json:"system_type"`
		Hardware            model.Hardware   `json:"hardware"`
		Setup               string           `json:"setup"`
		PLO                 uint             `json:"plo"`
		PLOName             string           `json:"plo_name"`
		Processor1          uint             `json:"processor1"`
		Processor1Name      string           `json:"processor1_name"`
		Processor2          *uint            `json:"processor2"`
		Processor2Name      string           `json:"processor2_name,omitempty"`
		Status              model.ItemStatus `json:"status"`
		Landscape           string           `json:"landscape"`
		Description         string           `json:"description"`
		ExpectedDelivery    *model.Date      `json:"expected_delivery"`
		RevisedDeliveryDate *model.Date      `json:"revised_delivery_date"`
		DeliveryDate        model.Date       `json:"delivery_date"`
		DeliveryDelayReason *string          `json:"delivery_delay_reason"`
		ServiceNow          string           `json:"servicenow"`
		Comments            *string          `json:"comments"`
	}
)

func toItemResp(item *model.Item) ItemResp {
	return ItemResp{
		ID:                  item.ID,
		SID:                 item.SID,
		RequestedDate:       item.RequestedDate,
		Flavour:             item.Flavour,
		EstimatedClients:    item.EstimatedClients,
		DeliveredClients:    item.DeliveredClients,
		BFS:                 item.BFS,
		TShirtSize:          item.TShirtSize,
		SystemType:          item.SystemType,
		Hardware:            item.Hardware,
		Setup:               item.Setup,
		PLO:                 item.PLOID,
		PLOName:             item.PLOName(),
		Processor1:          item.Processor1ID,
		Processor1Name:      item.Processor1Name(),
		Processor2:          item.Processor2ID,
		Processor2Name:      item.Processor2Name(),
		Status:              item.Status,
		Landscape:           item.Landscape,
		Description:         item.Description,
		ExpectedDelivery:    item.ExpectedDelivery,
		RevisedDeliveryDate: item.RevisedDeliveryDate,
		DeliveryDate:        item.DeliveryDate,
		DeliveryDelayReason: item.DeliveryDelayReason,
		ServiceNow:          item.ServiceNow,
		Comments:            item.Comments,
	}
}

func toItemReq(item *model.Item) ItemReq {
	return ItemReq{
		SID:                 item.SID,
		RequestedDate:       item.RequestedDate,
		Flavour:             item.Flavour,
		EstimatedClients:    item.EstimatedClients,
		DeliveredClients:    item.DeliveredClients,
		BFS:                 item.BFS,
		TShirtSize:          item.TShirtSize,
		SystemType:          item.SystemType,
		Hardware:            item.Hardware,
		Setup:               item.Setup,
		PLO:                 item.PLOID,
		Processor1:          item.Processor1ID,
		Processor2:          item.Processor2ID,
		Status:              item.Status,
		Landscape:           item.Landscape,
		Description:         item.Description,
		ExpectedDelivery:    item.ExpectedDelivery,
		RevisedDeliveryDate: item.RevisedDeliveryDate,
		DeliveryDate:        lo.ToPtr(item.DeliveryDate),
		DeliveryDelayReason: item.DeliveryDelayReason,
		ServiceNow:          item.ServiceNow,
		Comments:            item.Comments,
	}
}

// itemRequiredFields must all be present in the body of a full update.
var itemRequiredFields = []string{
	"sid", "requested_date", "flavour", "bfs", "t_shirt_size", "system_type", "hardware",
	"setup", "plo", "processor1", "status", "landscape", "description", "expected_delivery",
}

// nonZeroDate treats "" sent for a nullable date as null.
func nonZeroDate(d *model.Date) *model.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}

func (req *ItemReq) toItem() *model.Item {
	item := &model.Item{
		SID:                 req.SID,
		RequestedDate:       req.RequestedDate,
		Flavour:             req.Flavour,
		EstimatedClients:    req.EstimatedClients,
		DeliveredClients:    req.DeliveredClients,
		BFS:                 req.BFS,
		TShirtSize:          req.TShirtSize,
		SystemType:          req.SystemType,
		Hardware:            req.Hardware,
		Setup:               req.Setup,
		PLOID:               req.PLO,
		Processor1ID:        req.Processor1,
		Processor2ID:        req.Processor2,
		Status:              req.Status,
		Landscape:           req.Landscape,
		Description:         req.Description,
		ExpectedDelivery:    nonZeroDate(req.ExpectedDelivery),
		RevisedDeliveryDate: nonZeroDate(req.RevisedDeliveryDate),
		DeliveryDelayReason: req.DeliveryDelayReason,
		ServiceNow:          req.ServiceNow,
		Comments:            req.Comments,
	}
	if d := nonZeroDate(req.DeliveryDate); d != nil {
		item.DeliveryDate = *d
	}
	if item.Processor2ID != nil && *item.Processor2ID == 0 {
		item.Processor2ID = nil
	}
	item.ApplyDefaults()
	return item
}

// checkItem validates the item and resolves its references against the store.
// current is the stored item on update, nil on create.
func (mgr *ItemMgr) checkItem(c *gin.Context, item, current *model.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if item.ExpectedDelivery == nil {
		return &model.ValidationError{Field: "expected_delivery", Message: "this field is required"}
	}
	if current == nil || current.SID != item.SID {
		exists, err := mgr.q.ItemSIDExists(c, item.SID)
		if err != nil {
			return err
		}
		if exists {
			return &model.ValidationError{Field: "sid", Message: "item with this sid already exists."}
		}
	}
	if _, err := mgr.q.GetPLO(c, item.PLOID); err != nil {
		return referenceError("plo", item.PLOID, err)
	}
	if _, err := mgr.q.GetProcessor(c, item.Processor1ID); err != nil {
		return referenceError("processor1", item.Processor1ID, err)
	}
	if item.Processor2ID != nil {
		if _, err := mgr.q.GetProcessor(c, *item.Processor2ID); err != nil {
			return referenceError("processor2", *item.Processor2ID, err)
		}
	}
	return nil
}

func referenceError(field string, value any, err error) error {
	if errors.Is(err, query.ErrNotFound) {
		return badReference(field, value)
	}
	return err
}

// notifyTransition sends the terminal status notification when the item just reached it.
// A failed send does not fail the request, the item is already stored.
func notifyTransition(c *gin.Context, alerter alert.AlertInterface, item *model.Item, previous model.ItemStatus) {
	terminal := alerter.TerminalStatus()
	if item.Status != terminal || previous == terminal {
		return
	}
	if err := alerter.ItemHandedOver(c, item); err != nil {
		logutils.Log.WithFields(logutils.Fields{"sid": item.SID, "status": item.Status}).
			Warnf("status notification failed: %v", err)
	}
}

// ListItem godoc
// @Summary 列出 Item
// @Description 按申请年份、flavour、状态、PLO 或 Processor 过滤，可分页
// @Tags Item
// @Produce json
// @Security Bearer
// @Param data query ItemListReq false "过滤与分页"
// @Success 200 {object} resputil.Response[payload.ListResp[ItemResp]] "Item 列表"
// @Failure 400 {object} resputil.Response[any] "请求参数错误"
// @Router /api/item [get]
func (mgr *ItemMgr) ListItem(c *gin.Context) {
	var req ItemListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	filter := query.ItemFilter{
		Year:        req.Year,
		Flavour:     req.Flavour,
		Status:      req.Status,
		PLOID:       req.PLO,
		ProcessorID: req.Processor,
	}
	page := payload.PageQuery{PageIndex: req.PageIndex, PageSize: req.PageSize}.Page()
	items, count, err := mgr.q.ListItems(c, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	rows := lo.Map(items, func(item model.Item, _ int) ItemResp {
		return toItemResp(&item)
	})
	resputil.Success(c, payload.ListResp[ItemResp]{Rows: rows, Count: count})
}

// CreateItem godoc
// @Summary 创建 Item
// @Description 状态为终态时发送通知
// @Tags Item
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body ItemReq true "Item"
// @Success 201 {object} resputil.Response[ItemResp] "创建成功"
// @Failure 400 {object} resputil.Response[any] "字段缺失、非法或引用不存在"
// @Router /api/item [post]
func (mgr *ItemMgr) CreateItem(c *gin.Context) {
	var req ItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	item := req.toItem()
	if err := mgr.checkItem(c, item, nil); err != nil {
		respondError(c, err)
		return
	}
	if err := mgr.q.CreateItem(c, item); err != nil {
		respondError(c, err)
		return
	}
	created, err := mgr.q.GetItemBySID(c, item.SID)
	if err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("create item success, sid: %s", created.SID)
	notifyTransition(c, mgr.alerter, created, "")
	resputil.Created(c, toItemResp(created))
}

func (mgr *ItemMgr) bindSID(c *gin.Context) (string, bool) {
	var req SIDReq
	if err := c.ShouldBindUri(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return "", false
	}
	return req.SID, true
}

// GetItem godoc
// @Summary 获取 Item
// @Tags Item
// @Produce json
// @Security Bearer
// @Param sid path string true "SID"
// @Success 200 {object} resputil.Response[ItemResp] "Item"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/item/{sid} [get]
func (mgr *ItemMgr) GetItem(c *gin.Context) {
	sid, ok := mgr.bindSID(c)
	if !ok {
		return
	}
	item, err := mgr.q.GetItemBySID(c, sid)
	if err != nil {
		respondError(c, err)
		return
	}
	resputil.Success(c, toItemResp(item))
}

// UpdateItem godoc
// @Summary 更新 Item
// @Description 默认为全量更新，请求体带 "partial": true 时按部分更新处理
// @Tags Item
// @Accept json
// @Produce json
// @Security Bearer
// @Param sid path string true "SID"
// @Param data body ItemReq true "Item"
// @Success 200 {object} resputil.Response[ItemResp] "更新成功"
// @Failure 400 {object} resputil.Response[any] "字段缺失、非法或引用不存在"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/item/{sid} [put]
func (mgr *ItemMgr) UpdateItem(c *gin.Context) {
	mgr.updateItem(c, false)
}

// PatchItem godoc
// @Summary 部分更新 Item
// @Description 只修改请求体中出现的字段
// @Tags Item
// @Accept json
// @Produce json
// @Security Bearer
// @Param sid path string true "SID"
// @Param data body ItemReq true "需要修改的字段"
// @Success 200 {object} resputil.Response[ItemResp] "更新成功"
// @Failure 400 {object} resputil.Response[any] "字段非法或引用不存在"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/item/{sid} [patch]
func (mgr *ItemMgr) PatchItem(c *gin.Context) {
	mgr.updateItem(c, true)
}

func (mgr *ItemMgr) updateItem(c *gin.Context, partial bool) {
	sid, ok := mgr.bindSID(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	fields, err := bodyFields(body)
	if err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var flags struct {
		Partial bool `json:"partial"`
	}
	if err = json.Unmarshal(body, &flags); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	partial = partial || flags.Partial

	current, err := mgr.q.GetItemBySID(c, sid)
	if err != nil {
		respondError(c, err)
		return
	}
	if !partial {
		if err = requireFields(fields, itemRequiredFields...); err != nil {
			respondError(c, err)
			return
		}
	}

	// 以当前值为底，请求体中出现的字段覆盖之，未出现的可选字段保持不变
	req := toItemReq(current)
	if err = json.Unmarshal(body, &req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}

	item := req.toItem()
	item.ID = current.ID
	item.CreatedAt = current.CreatedAt
	if err = mgr.checkItem(c, item, current); err != nil {
		respondError(c, err)
		return
	}
	if err = mgr.q.SaveItem(c, item); err != nil {
		respondError(c, err)
		return
	}
	updated, err := mgr.q.GetItemBySID(c, item.SID)
	if err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("update item success, sid: %s", updated.SID)
	notifyTransition(c, mgr.alerter, updated, current.Status)
	resputil.Success(c, toItemResp(updated))
}

// DeleteItem godoc
// @Summary 删除 Item
// @Description 同时删除其 Forecast
// @Tags Item
// @Produce json
// @Security Bearer
// @Param sid path string true "SID"
// @Success 204 "删除成功"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/item/{sid} [delete]
func (mgr *ItemMgr) DeleteItem(c *gin.Context) {
	sid, ok := mgr.bindSID(c)
	if !ok {
		return
	}
	if err := mgr.q.DeleteItem(c, sid); err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("delete item success, sid: %s", sid)
	c.Status(http.StatusNoContent)
}
