package query

import (
	"context"

	"github.com/raids-lab/buildtracker/dao/model"
)

func (q *Query) ListPLOs(ctx context.Context) ([]model.PLO, error) {
	var plos []model.PLO
	err := q.ctx(ctx).Order("id").Find(&plos).Error
	return plos, err
}

func (q *Query) GetPLO(ctx context.Context, id uint) (*model.PLO, error) {
	var plo model.PLO
	if err := q.ctx(ctx).First(&plo, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &plo, nil
}

func (q *Query) SavePLO(ctx context.Context, plo *model.PLO) error {
	return q.ctx(ctx).Save(plo).Error
}

// DeletePLO removes the owner together with the Items it owns. Forecasts that name
// it as requester keep existing without one.
func (q *Query) DeletePLO(ctx context.Context, id uint) error {
	return q.Transaction(ctx, func(tx *Query) error {
		if _, err := tx.GetPLO(ctx, id); err != nil {
			return err
		}
		if err := tx.deleteItemsWhere(ctx, "plo_id = ?", id); err != nil {
			return err
		}
		err := tx.ctx(ctx).Model(&model.Forecast{}).
			Where("requester_id = ?", id).
			Update("requester_id", nil).Error
		if err != nil {
			return err
		}
		return tx.ctx(ctx).Delete(&model.PLO{}, id).Error
	})
}

// PLONameMap maps owner names to ids. When two owners share a name the first one wins.
func (q *Query) PLONameMap(ctx context.Context) (map[string]uint, error) {
	plos, err := q.ListPLOs(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]uint, len(plos))
	for i := range plos {
		if _, ok := names[plos[i].Name]; !ok {
			names[plos[i].Name] = plos[i].ID
		}
	}
	return names, nil
}

func (q *Query) ListProcessors(ctx context.Context) ([]model.Processor, error) {
	var processors []model.Processor
	err := q.ctx(ctx).Order("id").Find(&processors).Error
	return processors, err
}

func (q *Query) GetProcessor(ctx context.Context, id uint) (*model.Processor, error) {
	var processor model.Processor
	if err := q.ctx(ctx).First(&processor, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &processor, nil
}

func (q *Query) SaveProcessor(ctx context.Context, processor *model.Processor) error {
	return q.ctx(ctx).Save(processor).Error
}

// DeleteProcessor removes the processor and every Item referencing it in either slot.
func (q *Query) DeleteProcessor(ctx context.Context, id uint) error {
	return q.Transaction(ctx, func(tx *Query) error {
		if _, err := tx.GetProcessor(ctx, id); err != nil {
			return err
		}
		if err := tx.deleteItemsWhere(ctx, "processor1_id = ? OR processor2_id = ?", id, id); err != nil {
			return err
		}
		return tx.ctx(ctx).Delete(&model.Processor{}, id).Error
	})
}

func (q *Query) ProcessorNameMap(ctx context.Context) (map[string]uint, error) {
	processors, err := q.ListProcessors(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]uint, len(processors))
	for i := range processors {
		if _, ok := names[processors[i].Name]; !ok {
			names[processors[i].Name] = processors[i].ID
		}
	}
	return names, nil
}
