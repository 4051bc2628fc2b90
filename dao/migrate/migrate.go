// Package migrate holds the versioned schema of the build tracker.
package migrate

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/raids-lab/buildtracker/dao/model"
)

// Models lists every table, parents first.
var Models = []any{
	&model.PLO{},
	&model.Processor{},
	&model.Item{},
	&model.Forecast{},
	&model.User{},
	&model.BlacklistedToken{},
	&model.Notification{},
}

func New(db *gorm.DB) *gormigrate.Gormigrate {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			// dashboard queries filter on delivery_date
			ID: "202410150001",
			Migrate: func(tx *gorm.DB) error {
				type Item struct {
					DeliveryDate model.Date `gorm:"index:idx_items_delivery_date"`
				}
				if tx.Migrator().HasIndex(&Item{}, "idx_items_delivery_date") {
					return nil
				}
				return tx.Migrator().CreateIndex(&Item{}, "idx_items_delivery_date")
			},
			Rollback: func(tx *gorm.DB) error {
				type Item struct {
					DeliveryDate model.Date `gorm:"index:idx_items_delivery_date"`
				}
				return tx.Migrator().DropIndex(&Item{}, "idx_items_delivery_date")
			},
		},
		{
			// sid 列曾按默认命名映射为 s_id；forecast.clients 允许显式为空
			ID: "202410200001",
			Migrate: func(tx *gorm.DB) error {
				for _, m := range []any{&model.Item{}, &model.Forecast{}, &model.Notification{}} {
					if tx.Migrator().HasColumn(m, "s_id") && !tx.Migrator().HasColumn(m, "sid") {
						if err := tx.Migrator().RenameColumn(m, "s_id", "sid"); err != nil {
							return err
						}
					}
				}
				if tx.Dialector.Name() != "postgres" {
					return nil
				}
				if err := tx.Migrator().AlterColumn(&model.Notification{}, "SID"); err != nil {
					return err
				}
				return tx.Exec("ALTER TABLE forecasts ALTER COLUMN clients DROP DEFAULT").Error
			},
			Rollback: func(tx *gorm.DB) error {
				for _, m := range []any{&model.Item{}, &model.Forecast{}, &model.Notification{}} {
					if err := tx.Migrator().RenameColumn(m, "sid", "s_id"); err != nil {
						return err
					}
				}
				return nil
			},
		},
	})

	m.InitSchema(func(tx *gorm.DB) error {
		return tx.AutoMigrate(Models...)
	})
	return m
}

// Run brings the schema to the latest version.
func Run(db *gorm.DB) error {
	if err := New(db).Migrate(); err != nil {
		return fmt.Errorf("could not migrate: %w", err)
	}
	return nil
}

// RollbackLast undoes the most recent migration.
func RollbackLast(db *gorm.DB) error {
	if err := New(db).RollbackLast(); err != nil {
		return fmt.Errorf("could not rollback: %w", err)
	}
	return nil
}
