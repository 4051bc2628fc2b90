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
	Registers = append(Registers, NewPLOMgr)
}

type PLOMgr struct {
	name string
	q    *query.Query
}

func NewPLOMgr(conf *RegisterConfig) Manager {
	return &PLOMgr{
		name: "plo",
		q:    conf.Query,
	}
}

func (mgr *PLOMgr) GetName() string { return mgr.name }

func (mgr *PLOMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *PLOMgr) RegisterProtected(g *gin.RouterGroup) {
	plo := g.Group("/plo")
	plo.GET("", mgr.ListPLO)
	plo.POST("", mgr.CreatePLO)
	plo.GET("/:id", mgr.GetPLO)
	plo.PUT("/:id", mgr.UpdatePLO)
	plo.PATCH("/:id", mgr.UpdatePLO)
	plo.DELETE("/:id", mgr.DeletePLO)
}

func (mgr *PLOMgr) RegisterAdmin(_ *gin.RouterGroup) {}

// NameReq is the body of PLO and Processor writes.
type NameReq struct {
	Name string `json:"name"`
}

// ListPLO godoc
// @Summary 列出所有 PLO
// @Tags PLO
// @Produce json
// @Security Bearer
// @Success 200 {object} resputil.Response[[]model.PLO] "PLO 列表"
// @Router /api/plo [get]
func (mgr *PLOMgr) ListPLO(c *gin.Context) {
	plos, err := mgr.q.ListPLOs(c)
	if err != nil {
		respondError(c, err)
		return
	}
	resputil.Success(c, plos)
}

// CreatePLO godoc
// @Summary 创建 PLO
// @Tags PLO
// @Accept json
// @Produce json
// @Security Bearer
// @Param data body NameReq true "名称"
// @Success 201 {object} resputil.Response[model.PLO] "创建成功"
// @Failure 400 {object} resputil.Response[any] "名称为空或过长"
// @Router /api/plo [post]
func (mgr *PLOMgr) CreatePLO(c *gin.Context) {
	var req NameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if err := model.ValidateName(req.Name); err != nil {
		respondError(c, err)
		return
	}
	plo := &model.PLO{Name: req.Name}
	if err := mgr.q.SavePLO(c, plo); err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("create plo success, name: %s", plo.Name)
	resputil.Created(c, plo)
}

// GetPLO godoc
// @Summary 获取 PLO
// @Tags PLO
// @Produce json
// @Security Bearer
// @Param id path int true "PLO ID"
// @Success 200 {object} resputil.Response[model.PLO] "PLO"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/plo/{id} [get]
func (mgr *PLOMgr) GetPLO(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	plo, err := mgr.q.GetPLO(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	resputil.Success(c, plo)
}

// UpdatePLO godoc
// @Summary 修改 PLO 名称
// @Tags PLO
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "PLO ID"
// @Param data body NameReq true "名称"
// @Success 200 {object} resputil.Response[model.PLO] "修改成功"
// @Failure 400 {object} resputil.Response[any] "名称为空或过长"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/plo/{id} [put]
func (mgr *PLOMgr) UpdatePLO(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req NameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	plo, err := mgr.q.GetPLO(c, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := model.ValidateName(req.Name); err != nil {
		respondError(c, err)
		return
	}
	plo.Name = req.Name
	if err := mgr.q.SavePLO(c, plo); err != nil {
		respondError(c, err)
		return
	}
	resputil.Success(c, plo)
}

// DeletePLO godoc
// @Summary 删除 PLO
// @Description 同时删除引用该 PLO 的 Item 及其 Forecast，Forecast 的 requester 置空
// @Tags PLO
// @Produce json
// @Security Bearer
// @Param id path int true "PLO ID"
// @Success 204 "删除成功"
// @Failure 404 {object} resputil.Response[any] "不存在"
// @Router /api/plo/{id} [delete]
func (mgr *PLOMgr) DeletePLO(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := mgr.q.DeletePLO(c, id); err != nil {
		respondError(c, err)
		return
	}
	logutils.Log.Infof("delete plo success, id: %d", id)
	c.Status(http.StatusNoContent)
}
