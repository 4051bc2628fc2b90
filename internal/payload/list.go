package payload

import "github.com/raids-lab/buildtracker/dao/query"

const maxPageSize = 500

// 分页请求统一接口
type (
	// PageQuery 分页请求参数（从 query 中获取），两个参数都缺省时返回全部数据
	// 如果需要包含其他参数，不能通过组合的方式，需要直接定义在结构体中（否则无法通过 Gin 校验）
	PageQuery struct {
		PageIndex *int `form:"page_index" binding:"omitempty,min=0"`
		PageSize  *int `form:"page_size" binding:"omitempty,min=1,max=500"`
	}
	ListResp[T any] struct {
		Rows  []T   `json:"rows"`
		Count int64 `json:"count"`
	}
)

// Page converts the query into a limit for the data layer, nil when unpaged.
func (p PageQuery) Page() *query.Page {
	if p.PageSize == nil {
		return nil
	}
	page := &query.Page{Size: min(*p.PageSize, maxPageSize)}
	if p.PageIndex != nil {
		page.Index = *p.PageIndex
	}
	return page
}
