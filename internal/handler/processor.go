package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/resputil"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewProcessorMgr)
}

type ProcessorMgr struct {
	name string
	q    *query.Query
}

func NewProcessorMgr(conf *RegisterConfig) Manager {
	return &ProcessorMgr{
		name: "processor",
		q:    conf.Query,
	}
}

func (mgr *ProcessorMgr) GetName() string { return mgr.name }

func (mgr *ProcessorMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ProcessorMgr) RegisterProtected(g *gin.RouterGroup) {
	processor := g.Group("/processor")
	processor.GET("", mgr.ListProcessor)
	processor.POST("", mgr.CreateProcessor)
	processor.GET("/:id", mgr.GetProcessor)
	processor.PUT("/:id", mgr.UpdateProcessor)
	processor.PATCH("/:id", mgr.UpdateProcessor)
	processor.DELETE("/:id", mgr.DeleteProcessor)
}

func (mgr *ProcessorMgr) RegisterAdmin(_ *gin.RouterGroup) {}


// ListProcessor godoc
// @Summary 列出所有 Processor
// @Tags Processor
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]model.Processor] "Processor 列表"
// @Router /api/processor [get]
func (mgr *ProcessorMgr) ListProcessor(c *gin.Context) {
	processors, err := mgr.q.ListProcessors(c)
	if err != nil {
		respondError(c, err)
		return
	}
	resputil.Success(c, processors)
}

// CreateProcessor godoc
// @Summary 创建 Processor
// @Tags Processor
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body NameReq true "名称"
// @Success 201 {object} resputil.Response[model.Processor] "创建成功"
// @Failure 400 {object} resputil.Response[any] "名称为空或过长"
// @Router /api/processor [post]
func (mgr *ProcessorMgr) CreateProcessor(c *gin.Context) {
	var req NameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := model.ValidateName(req.Name); err != nil {
		respondError(c, err)
		return
	}
	processor := &model.Processor{Name: req.Name}
	if err := mgr.q.SaveProcessor(c, processor); err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("create processor success, name: %s", processor.Name)
	resputil.Created(c, processor)
}

// GetProcessor godoc
// @Summary 获取 Processor
// @Tags Processor
// @Produce json
// @Security Bearer
// @Param id path int true "Processor ID"
// @Success 200 {object} resputil.Response[model.Processor] "Processor"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/processor/{id} [get]
func (mgr *ProcessorMgr) GetProcessor(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	processor, err := mgr.q.GetProcessor(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	resputil.Success(c, processor)
}

// UpdateProcessor godoc
// @Summary 修改 Processor 名称
// @Tags Processor
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Processor ID"
// @Param data body NameReq true "名称"
// @Success 200 {object} resputil.Response[model.Processor] "修改成功"
// @Failure 400 {object} resputil.Response[any] "名称为空或过长"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/processor/{id} [put]
func (mgr *ProcessorMgr) UpdateProcessor(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req NameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	processor, err := mgr.q.GetProcessor(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := model.ValidateName(req.Name); err != nil {
		respondError(c, err)
		return
	}
	processor.Name = req.Name
	if err := mgr.q.SaveProcessor(c, processor); err != nil {
		respondError(c, err)
		return
	}
	resputil.Success(c, processor)
}

// DeleteProcessor godoc
// @Summary 删除 Processor
// @Description 同时删除任一槽位引用该 Processor 的 Item 及其 Forecast
// @Tags Processor
// @Produce json
// @Security Bearer
// @Param id path int true "Processor ID"
// @Success 204 "删除成功"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/processor/{id} [delete]
func (mgr *ProcessorMgr) DeleteProcessor(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := mgr.q.DeleteProcessor(c, id); err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("delete processor success, id: %d", id)
	c.Status(http.StatusNoContent)
}
