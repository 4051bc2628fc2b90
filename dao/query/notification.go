package query

import (
	"context"

	"gorm.io/gorm"

	"github.com/raids-lab/buildtracker/dao/model"
)

func (q *Query) CreateNotification(ctx context.Context, n *model.Notification) error {
	return q.ctx(ctx).Create(n).Error
}

// ListNotifications returns the newest audit records first.
func (q *Query) ListNotifications(ctx context.Context, sid string, page *Page) ([]model.Notification, int64, error) {
	scoped := func() *gorm.DB {
		db := q.ctx(ctx).Model(&model.Notification{})
		if sid != "" {
			db = db.Where("sid = ?", sid)
		}
		return db
	}
	var count int64
	if err := scoped().Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var records []model.Notification
	err := page.apply(scoped()).Order("id DESC").Find(&records).Error
	return records, count, err
}
