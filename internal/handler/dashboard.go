package handler

import (
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/resputil"
)

//nolint:gochecknoinits // This is the standard way to register a gin handler.
func init() {
	Registers = append(Registers, NewDashboardMgr)
}

type DashboardMgr struct {
	name string
	q    *query.Query
}

func NewDashboardMgr(conf *RegisterConfig) Manager {
	return &DashboardMgr{
		name: "dashboard",
		q:    conf.Query,
	}
}

func (mgr *DashboardMgr) GetName() string { return mgr.name }

func (mgr *DashboardMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *DashboardMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/dashboard", mgr.GetDashboard)
}

func (mgr *DashboardMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type (
	// DashboardReq 缺省年份时取当前年份，month 为 0 表示全年
	DashboardReq struct {
		Year   int              `form:"year" binding:"omitempty,min=1"`
		Month  int              `form:"month" binding:"omitempty,min=1,max=12"`
		SID    string           `form:"sid"`
		Status model.ItemStatus `form:"status"`
	}

	OnTimeStat struct {
		Count int      `json:"count"`
		SIDs  []string `json:"sids"`
	}

	ProcessorStat struct {
		ID    uint     `json:"id"`
		Name  string   `json:"name"`
		Count int      `json:"count"`
		SIDs  []string `json:"sids"`
	}

	ClientStat struct {
		SID       string `json:"sid"`
		Estimated int    `json:"estimated"`
		Delivered *int   `json:"delivered"`
	}

	DashboardResp struct {
		Year                    int             `json:"year"`
		Month                   int             `json:"month,omitempty"`
		TotalItems              int             `json:"total_items"`
		AverageEstimatedClients float64         `json:"average_estimated_clients"`
		OnTime                  OnTimeStat      `json:"on_time"`
		Processors              []ProcessorStat `json:"processors"`
		Clients                 []ClientStat    `json:"clients"`
	}
)

// GetDashboard godoc
// @Summary 交付统计
// @Description 按交付日期所在年份（可选月份）统计 Item 数量、平均预计客户端数、按期交付、各 Processor 负载与客户端交付情况
// @Tags Dashboard
// @Produce json
// @Security Bearer
// @Param data query DashboardReq false "过滤条件"
// @Success 200 {object} resputil.Response[DashboardResp] "统计结果"
// @Failure 400 {object} resputil.Response[any] "请求参数错误"
// @Router /api/dashboard [get]
func (mgr *DashboardMgr) GetDashboard(c *gin.Context) {
	var req DashboardReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.BadRequestError(c, err.Error())
		return
	}
	if req.Year == 0 {
		req.Year = time.Now().Year()
	}
	items, err := mgr.q.DeliveredItems(c, req.Year, req.Month, req.SID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := summarize(items)
	resp.Year = req.Year
	resp.Month = req.Month
	resputil.Success(c, resp)
}

// summarize aggregates items already narrowed to one period.
func summarize(items []model.Item) DashboardResp {
	resp := DashboardResp{
		TotalItems: len(items),
		OnTime:     OnTimeStat{SIDs: []string{}},
		Processors: []ProcessorStat{},
		Clients:    make([]ClientStat, 0, len(items)),
	}
	if len(items) == 0 {
		return resp
	}

	estimated := 0
	processors := map[uint]*ProcessorStat{}
	count := func(id uint, p *model.Processor, sid string) {
		stat, ok := processors[id]
		if !ok {
			stat = &ProcessorStat{ID: id, SIDs: []string{}}
			if p != nil {
				stat.Name = p.Name
			}
			processors[id] = stat
		}
		stat.Count++
		stat.SIDs = append(stat.SIDs, sid)
	}

	for i := range items {
		item := &items[i]
		estimated += item.EstimatedClients
		if item.ExpectedDelivery != nil && item.ExpectedDelivery.Equal(item.DeliveryDate) {
			resp.OnTime.Count++
			resp.OnTime.SIDs = append(resp.OnTime.SIDs, item.SID)
		}
		count(item.Processor1ID, item.Processor1, item.SID)
		// 同一 Processor 同时出现在两个槽位时只计一次
		if item.Processor2ID != nil && *item.Processor2ID != item.Processor1ID {
			count(*item.Processor2ID, item.Processor2, item.SID)
		}
		resp.Clients = append(resp.Clients, ClientStat{
			SID:       item.SID,
			Estimated: item.EstimatedClients,
			Delivered: item.DeliveredClients,
		})
	}
	resp.AverageEstimatedClients = float64(estimated) / float64(len(items))

	resp.Processors = lo.MapToSlice(processors, func(_ uint, stat *ProcessorStat) ProcessorStat {
		return *stat
	})
	sort.Slice(resp.Processors, func(i, j int) bool {
		a, b := resp.Processors[i], resp.Processors[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return resp
}
