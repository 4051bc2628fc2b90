package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/raids-lab/buildtracker/pkg/config"
	"github.com/raids-lab/buildtracker/pkg/logutils"
)

var (
	once     sync.Once
	instance *gorm.DB
)

// ErrNotFound is returned by the lookup methods when no row matches.
var ErrNotFound = errors.New("record not found")

// GetDB returns the singleton instance of the database connection.
func GetDB() *gorm.DB {
	once.Do(func() {
		var err error
		instance, err = Open(config.GetConfig())
		if err != nil {
			panic(err)
		}
		logutils.Log.Info("Postgres init success!")
	})
	return instance
}

// Open connects to postgres and registers the configured read replicas.
func Open(conf *config.Config) (*gorm.DB, error) {
	pg := conf.Postgres
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		pg.Host, pg.User, pg.Password, pg.DBName, pg.Port, pg.SSLMode, pg.TimeZone)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if len(pg.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(pg.Replicas))
		for _, replica := range pg.Replicas {
			replicas = append(replicas, postgres.Open(replica))
		}
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("register read replicas: %w", err)
		}
		logutils.Log.Infof("registered %d read replicas", len(replicas))
	}

	maxIdleConns := 5
	maxOpenConns := 10
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Query groups the data access of the build tracker on top of one gorm handle,
// which is either the connection pool or an open transaction.
type Query struct {
	db *gorm.DB
}

func Use(db *gorm.DB) *Query {
	return &Query{db: db}
}

// DB exposes the underlying handle for migrations and tests.
func (q *Query) DB() *gorm.DB {
	return q.db
}

func (q *Query) ctx(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx)
}

// Transaction runs fn inside one database transaction. Any error returned by fn
// rolls back everything fn wrote.
func (q *Query) Transaction(ctx context.Context, fn func(tx *Query) error) error {
	return q.ctx(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Use(tx))
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Page limits a list query. A nil page returns every row.
type Page struct {
	Index int
	Size  int
}

func (p *Page) apply(db *gorm.DB) *gorm.DB {
	if p == nil || p.Size <= 0 {
		return db
	}
	index := max(p.Index, 0)
	return db.Offset(index * p.Size).Limit(p.Size)
}
