package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/raids-lab/buildtracker/dao/model"
	"github.com/raids-lab/buildtracker/dao/query"
	"github.com/raids-lab/buildtracker/internal/resputil"
	"github.com/raids-lab/buildtracker/pkg/metrics"
)

type MetricsMgr struct {
	name string
	q    *query.Query
}

// NewMetricsMgr is not in Registers, the route lives outside /api and is mounted by
// the router itself.
func NewMetricsMgr(conf *RegisterConfig) *MetricsMgr {
	return &MetricsMgr{
		name: "metrics",
		q:    conf.Query,
	}
}

func (mgr *MetricsMgr) GetName() string { return mgr.name }

// GetMetrics godoc
// @Summary 获取系统中每种 Status 的 Item 的数量
// @Description 返回Prometheus能够识别的信息
// @Tags Metrics
// @Produce plain
// @Success 200 {string} string "Prometheus 文本格式"
// @Failure 500 {object} resputil.Response[any] "其他错误"
// @Router /metrics [get]
func (mgr *MetricsMgr) GetMetrics(c *gin.Context) {
	counts, err := mgr.q.CountItemsByStatus(c)
	if err != nil {
		resputil.Error(c, err.Error(), resputil.NotSpecified)
		return
	}

	// 没有 Item 的状态也要输出 0
	metrics.ItemsByStatus.Reset()
	for _, status := range model.ItemStatuses {
		metrics.ItemsByStatus.WithLabelValues(string(status)).Set(0)
	}
	for _, sc := range counts {
		metrics.ItemsByStatus.WithLabelValues(string(sc.Status)).Set(float64(sc.Count))
	}

	metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
