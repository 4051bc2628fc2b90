package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/payload"
	"github.com/raids-lab/buildtracker/internal/resputil"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewForecastMgr)
}

type ForecastMgr struct {
	name string
	q    *query.Query
}

func NewForecastMgr(conf *RegisterConfig) Manager {
	return &ForecastMgr{
		name: "forecast",
		q:    conf.Query,
	}
}

func (mgr *ForecastMgr) GetName() string { return mgr.name }

func (mgr *ForecastMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ForecastMgr) RegisterProtected(g *gin.RouterGroup) {
	forecast := g.Group("/forecast")
	forecast.GET("", mgr.ListForecast)
	forecast.POST("", mgr.CreateForecast)
	forecast.GET("/:id", mgr.GetForecast)
	forecast.PUT("/:id", mgr.UpdateForecast)
	forecast.PATCH("/:id", mgr.PatchForecast)
	forecast.DELETE("/:id", mgr.DeleteForecast)
}

func (mgr *ForecastMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	ForecastListReq struct {
		ItemSID   string `form:"item_sid"`
		PageIndex *int   `form:"page_index" binding:"omitempty,min=0"`
		PageSize  *int   `form:"page_size" binding:"omitempty,min=1,max=500"`
	}

	// ForecastReq 中 item_sid 指向所属 Item，requester 为 PLO 的 id
	ForecastReq struct {
		ItemSID            string           `json:"item_sid"`
		SID                string           `json:"sid"`
		Clients            *int             `json:"clients"`
		BFS                model.BFS        `json:"bfs"`
		SystemDescription  string           `json:"system_description"`
		TimeWeeks          *int             `json:"time_weeks"`
		Landscape          string           `json:"landscape"`
		Frontend           string           `json:"frontend"`
		Requester          *uint            `json:"requester"`
		AssignedTo         model.AssignedTo `json:"assigned_to"`
		ParallelProcessing bool             `json:"parallel_processing"`
		CWRequestPLO       *int             `json:"cw_request_plo"`
		CWDelivered        *int             `json:"cw_delivered"`
		Comments           *string          `json:"comments"`
	}

	ForecastResp struct {
		ID                 uint             `json:"id"`
		Item               uint             `json:"item"`
		ItemSID            string           `json:"item_sid"`
		SID                string           `json:"sid"`
		Clients            *int             `json:"clients"`
		BFS                model.BFS        `json:"bfs"`
		SystemDescription  string           `json:"system_description"`
		TimeWeeks          *int             `json:"time_weeks"`
		Landscape          string           `json:"landscape"`
		Frontend           string           `json:"frontend"`
		Requester          *uint            `json:"requester"`
		RequesterName      string           `json:"requester_name,omitempty"`
		AssignedTo         model.AssignedTo `json:"assigned_to"`
		ParallelProcessing bool             `json:"parallel_processing"`
		CWRequestPLO       *int             `json:"cw_request_plo"`
		CWDelivered        *int             `json:"cw_delivered"`
		Comments           *string          `json:"comments"`
	}
)

// forecastRequiredFields must all be present in the body of a full update.
var forecastRequiredFields = []string{
	"item_sid", "sid", "bfs", "system_description", "landscape", "frontend",
}

func toForecastResp(f *model.Forecast) ForecastResp {
	resp := ForecastResp{
		ID:                 f.ID,
		Item:               f.ItemID,
		SID:                f.SID,
		Clients:            f.Clients,
		BFS:                f.BFS,
		SystemDescription:  f.SystemDescription,
		TimeWeeks:          f.TimeWeeks,
		Landscape:          f.Landscape,
		Frontend:           f.Frontend,
		Requester:          f.RequesterID,
		AssignedTo:         f.AssignedTo,
		ParallelProcessing: f.ParallelProcessing,
		CWRequestPLO:       f.CWRequestPLO,
		CWDelivered:        f.CWDelivered,
		Comments:           f.Comments,
	}
	if f.Item != nil {
		resp.ItemSID = f.Item.SID
	}
	if f.Requester != nil {
		resp.RequesterName = f.Requester.Name
	}
	return resp
}

func toForecastReq(f *model.Forecast) ForecastReq {
	req := ForecastReq{
		SID:                f.SID,
		Clients:            f.Clients,
		BFS:                f.BFS,
		SystemDescription:  f.SystemDescription,
		TimeWeeks:          f.TimeWeeks,
		Landscape:          f.Landscape,
		Frontend:           f.Frontend,
		Requester:          f.RequesterID,
		AssignedTo:         f.AssignedTo,
		ParallelProcessing: f.ParallelProcessing,
		CWRequestPLO:       f.CWRequestPLO,
		CWDelivered:        f.CWDelivered,
		Comments:           f.Comments,
	}
	if f.Item != nil {
		req.ItemSID = f.Item.SID
	}
	return req
}

// toForecast resolves item_sid and requester and validates the result.
func (mgr *ForecastMgr) toForecast(c *gin.Context, req *ForecastReq) (*model.Forecast, error) {
	forecast := &model.Forecast{
		SID:                req.SID,
		Clients:            req.Clients,
		BFS:                req.BFS,
		SystemDescription:  req.SystemDescription,
		TimeWeeks:          req.TimeWeeks,
		Landscape:          req.Landscape,
		Frontend:           req.Frontend,
		RequesterID:        req.Requester,
		AssignedTo:         req.AssignedTo,
		ParallelProcessing: req.ParallelProcessing,
		CWRequestPLO:       req.CWRequestPLO,
		CWDelivered:        req.CWDelivered,
		Comments:           req.Comments,
	}
	forecast.ApplyDefaults()
	if req.ItemSID == "" {
		return nil, &model.ValidationError{Field: "item_sid", Message: "this field is required"}
	}
	item, err := mgr.q.GetItemBySID(c, req.ItemSID)
	if err != nil {
		return nil, referenceError("item_sid", req.ItemSID, err)
	}
	forecast.ItemID = item.ID
	if forecast.RequesterID != nil && *forecast.RequesterID == 0 {
		forecast.RequesterID = nil
	}
	if forecast.RequesterID != nil {
		if _, err := mgr.q.GetPLO(c, *forecast.RequesterID); err != nil {
			return nil, referenceError("requester", *forecast.RequesterID, err)
		}
	}
	if err := forecast.Validate(); err != nil {
		return nil, err
	}
	return forecast, nil
}

// ListForecast godoc
// @Summary 列出 Forecast
// @Tags Forecast
// @Produce json
// @Security Bearer
// @Param data query ForecastListReq false "按 Item SID 过滤与分页"
// @Success 200 {object} resputil.Response[payload.ListResp[ForecastResp]] "Forecast 列表"
// @Router /api/forecast [get]
func (mgr *ForecastMgr) ListForecast(c *gin.Context) {
	var req ForecastListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	page := payload.PageQuery{PageIndex: req.PageIndex, PageSize: req.PageSize}.Page()
	forecasts, count, err := mgr.q.ListForecasts(c, req.ItemSID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	rows := lo.Map(forecasts, func(f model.Forecast, _ int) ForecastResp {
		return toForecastResp(&f)
	})
	resputil.Success(c, payload.ListResp[ForecastResp]{Rows: rows, Count: count})
}

// CreateForecast godoc
// @Summary 创建 Forecast
// @Tags Forecast
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body ForecastReq true "Forecast"
// @Success 201 {object} resputil.Response[ForecastResp] "创建成功"
// @Failure 400 {object} resputil.Response[any] "字段缺失、非法或引用不存在"
// @Router /api/forecast [post]
func (mgr *ForecastMgr) CreateForecast(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	fields, err := bodyFields(body)
	if err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	var req ForecastReq
	if err = json.Unmarshal(body, &req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	// clients 缺省为 0，显式传 null 时保持为空
	if _, ok := fields["clients"]; !ok {
		req.Clients = lo.ToPtr(model.DefaultForecastClients)
	}
	forecast, err := mgr.toForecast(c, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	if err = mgr.q.SaveForecast(c, forecast); err != nil {
		respondError(c, err)
		return
	}
	created, err := mgr.q.GetForecast(c, forecast.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("create forecast success, id: %d, item: %s", created.ID, req.ItemSID)
	resputil.Created(c, toForecastResp(created))
}

// GetForecast godoc
// @Summary 获取 Forecast
// @Tags Forecast
// @Produce json
// @Security Bearer
// @Param id path int true "Forecast ID"
// @Success 200 {object} resputil.Response[ForecastResp] "Forecast"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/forecast/{id} [get]
func (mgr *ForecastMgr) GetForecast(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	forecast, err := mgr.q.GetForecast(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	resputil.Success(c, toForecastResp(forecast))
}

// UpdateForecast godoc
// @Summary 全量更新 Forecast
// @Tags Forecast
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Forecast ID"
// @Param data body ForecastReq true "Forecast"
// @Success 200 {object} resputil.Response[ForecastResp] "更新成功"
// @Failure 400 {object} resputil.Response[any] "字段缺失、非法或引用不存在"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/forecast/{id} [put]
func (mgr *ForecastMgr) UpdateForecast(c *gin.Context) {
	mgr.updateForecast(c, false)
}

// PatchForecast godoc
// @Summary 部分更新 Forecast
// @Tags Forecast
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Forecast ID"
// @Param data body ForecastReq true "需要修改的字段"
// @Success 200 {object} resputil.Response[ForecastResp] "更新成功"
// @Failure 400 {object} resputil.Response[any] "字段非法或引用不存在"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/forecast/{id} [patch]
func (mgr *ForecastMgr) PatchForecast(c *gin.Context) {
	mgr.updateForecast(c, true)
}

func (mgr *ForecastMgr) updateForecast(c *gin.Context, partial bool) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	current, err := mgr.q.GetForecast(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	fields, err := bodyFields(body)
	if err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if !partial {
		if err = requireFields(fields, forecastRequiredFields...); err != nil {
			respondError(c, err)
			return
		}
	}
	// 未出现在请求体中的字段保持当前值
	req := toForecastReq(current)
	if err = json.Unmarshal(body, &req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	forecast, err := mgr.toForecast(c, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	forecast.ID = current.ID
	forecast.CreatedAt = current.CreatedAt
	if err = mgr.q.SaveForecast(c, forecast); err != nil {
		respondError(c, err)
		return
	}
	updated, err := mgr.q.GetForecast(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	resputil.Success(c, toForecastResp(updated))
}

// DeleteForecast godoc
// @Summary 删除 Forecast
// @Tags Forecast
// @Produce json
// @Security Bearer
// @Param id path int true "Forecast ID"
// @Success 204 "删除成功"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/forecast/{id} [delete]
func (mgr *ForecastMgr) DeleteForecast(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := mgr.q.DeleteForecast(c, id); err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("delete forecast success, id: %d", id)
	c.Status(http.StatusNoContent)
}
