package query

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/raids-lab/buildtracker/dao/model"
)

// ItemFilter narrows ListItems. Zero values do not filter.
type ItemFilter struct {
	Year        int
	Flavour     model.Flavour
	Status      model.ItemStatus
	PLOID       uint
	ProcessorID uint
}

func (q *Query) withRefs(db *gorm.DB) *gorm.DB {
	return db.Preload("PLO").Preload("Processor1").Preload("Processor2")
}

func (f ItemFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Year > 0 {
		db = yearRange(db, "requested_date", f.Year)
	}
	if f.Flavour != "" {
		db = db.Where("flavour = ?", f.Flavour)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.PLOID != 0 {
		db = db.Where("plo_id = ?", f.PLOID)
	}
	if f.ProcessorID != 0 {
		db = db.Where("processor1_id = ? OR processor2_id = ?", f.ProcessorID, f.ProcessorID)
	}
	return db
}

// yearRange compares against date bounds so the filter works on every dialect.
func yearRange(db *gorm.DB, column string, year int) *gorm.DB {
	return db.Where(column+" >= ? AND "+column+" < ?",
		model.NewDate(year, 1, 1), model.NewDate(year+1, 1, 1))
}

// ListItems returns the matching items ordered by id, with their owner and processors,
// and the total count before paging.
func (q *Query) ListItems(ctx context.Context, filter ItemFilter, page *Page) ([]model.Item, int64, error) {
	var count int64
	if err := filter.apply(q.ctx(ctx).Model(&model.Item{})).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var items []model.Item
	db := page.apply(q.withRefs(filter.apply(q.ctx(ctx))))
	if err := db.Order("id").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

func (q *Query) GetItemBySID(ctx context.Context, sid string) (*model.Item, error) {
	var item model.Item
	if err := q.withRefs(q.ctx(ctx)).Where("sid = ?", sid).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (q *Query) ItemSIDExists(ctx context.Context, sid string) (bool, error) {
	var count int64
	err := q.ctx(ctx).Model(&model.Item{}).Where("sid = ?", sid).Count(&count).Error
	return count > 0, err
}

// ExistingSIDs returns the subset of sids already used by stored items.
func (q *Query) ExistingSIDs(ctx context.Context, sids []string) ([]string, error) {
	var found []string
	if len(sids) == 0 {
		return found, nil
	}
	err := q.ctx(ctx).Model(&model.Item{}).Where("sid IN ?", sids).Pluck("sid", &found).Error
	return found, err
}

func (q *Query) CreateItem(ctx context.Context, item *model.Item) error {
	item.ApplyDefaults()
	return q.ctx(ctx).Omit("PLO", "Processor1", "Processor2", "Forecasts").Create(item).Error
}

// CreateItems inserts the items in one transaction. Nothing is stored when one insert fails.
func (q *Query) CreateItems(ctx context.Context, items []*model.Item) error {
	return q.Transaction(ctx, func(tx *Query) error {
		for _, item := range items {
			if err := tx.CreateItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveItem writes every column of an existing item.
func (q *Query) SaveItem(ctx context.Context, item *model.Item) error {
	item.ApplyDefaults()
	return q.ctx(ctx).Omit("PLO", "Processor1", "Processor2", "Forecasts").Save(item).Error
}

// DeleteItem removes the item and its forecasts.
func (q *Query) DeleteItem(ctx context.Context, sid string) error {
	return q.Transaction(ctx, func(tx *Query) error {
		var item model.Item
		if err := tx.ctx(ctx).Where("sid = ?", sid).First(&item).Error; err != nil {
			return notFound(err)
		}
		return tx.deleteItemsWhere(ctx, "id = ?", item.ID)
	})
}

func (q *Query) deleteItemsWhere(ctx context.Context, query string, args ...any) error {
	var ids []uint
	if err := q.ctx(ctx).Model(&model.Item{}).Where(query, args...).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := q.ctx(ctx).Where("item_id IN ?", ids).Delete(&model.Forecast{}).Error; err != nil {
		return err
	}
	return q.ctx(ctx).Where("id IN ?", ids).Delete(&model.Item{}).Error
}

// DeliveredItems returns the items the dashboard aggregates: those whose delivery date
// falls in year (and month, when 1-12), optionally narrowed by sid and status.
func (q *Query) DeliveredItems(ctx context.Context, year int, month int, sid string, status model.ItemStatus) ([]model.Item, error) {
	db := q.withRefs(q.ctx(ctx))
	if year > 0 {
		if month >= 1 && month <= 12 {
			start := model.NewDate(year, time.Month(month), 1)
			end := start.AddDate(0, 1, 0)
			db = db.Where("delivery_date >= ? AND delivery_date < ?", start, model.DateOf(end))
		} else {
			db = yearRange(db, "delivery_date", year)
		}
	}
	if sid != "" {
		db = db.Where("sid = ?", sid)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var items []model.Item
	err := db.Order("id").Find(&items).Error
	return items, err
}

// StatusCount is one row of CountItemsByStatus.
type StatusCount struct {
	Status model.ItemStatus
	Count  int64
}

func (q *Query) CountItemsByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := q.ctx(ctx).Model(&model.Item{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&counts).Error
	return counts, err
}
