package query

import (
	"context"

	"gorm.io/gorm"

	"github.com/raids-lab/buildtracker/dao/model"
)

// ListForecasts returns forecasts ordered by id. A non-empty itemSID limits the result
// to the forecasts of that item.
func (q *Query) ListForecasts(ctx context.Context, itemSID string, page *Page) ([]model.Forecast, int64, error) {
	scoped := func() *gorm.DB {
		db := q.ctx(ctx).Model(&model.Forecast{})
		if itemSID != "" {
			db = db.Where("item_id IN (?)", q.ctx(ctx).Model(&model.Item{}).Select("id").Where("sid = ?", itemSID))
		}
		return db
	}
	var count int64
	if err := scoped().Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var forecasts []model.Forecast
	err := page.apply(scoped().Preload("Item").Preload("Requester")).Order("id").Find(&forecasts).Error
	return forecasts, count, err
}

func (q *Query) GetForecast(ctx context.Context, id uint) (*model.Forecast, error) {
	var forecast model.Forecast
	if err := q.ctx(ctx).Preload("Item").Preload("Requester").First(&forecast, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &forecast, nil
}

func (q *Query) SaveForecast(ctx context.Context, forecast *model.Forecast) error {
	forecast.ApplyDefaults()
	return q.ctx(ctx).Omit("Item", "Requester").Save(forecast).Error
}

func (q *Query) DeleteForecast(ctx context.Context, id uint) error {
	res := q.ctx(ctx).Delete(&model.Forecast{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
