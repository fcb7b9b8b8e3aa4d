package gorm

import (
	"context"
	"fmt"
	"reflect"

	g "github.com/go-mixins/gorm/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/go-mixins/eventflow/driver"
)

// Backend persists event streams in a relational table named after the
// aggregate type, one row per event, keyed by (aggregate_id, version).
type Backend struct {
	*g.Backend

	name string
}

// NewBackend derives the table name from the aggregate state type T.
func NewBackend[T any](gormBackend *g.Backend) *Backend {
	var t T
	res := &Backend{
		Backend: gormBackend,
		name:    reflect.TypeOf(t).Name(),
	}
	return res
}

func (b *Backend) Connect(migrate bool) error {
	if migrate {
		return b.DB.Scopes(b.scope()).AutoMigrate(&Event{})
	}
	return nil
}

func (b *Backend) WithDebug() *Backend {
	res := *b
	res.Backend = res.Backend.WithDebug()
	return &res
}

type Event struct {
	AggregateID      string `gorm:"primaryKey;autoIncrement:false"`
	AggregateVersion int    `gorm:"primaryKey;autoIncrement:false"`
	Type             string
	Payload          datatypes.JSON
}

func (b *Backend) scope() func(db *gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		tableName := tx.NamingStrategy.TableName(fmt.Sprintf("%s_events", b.name))
		return tx.Table(tableName)
	}
}

func (b *Backend) Load(ctx context.Context, id string) ([]driver.Event, error) {
	return b.LoadRange(ctx, id, 0, -1)
}

// LoadRange reads one aggregate's events between fromVersion and toVersion
// inclusive; toVersion < 0 means no upper bound.
func (b *Backend) LoadRange(ctx context.Context, id string, fromVersion, toVersion int) ([]driver.Event, error) {
	q := b.WithContext(ctx).DB.Scopes(b.scope())
	var evts []Event
	q = q.Model(Event{}).Where(`aggregate_id = ?`, id)
	if fromVersion != 0 {
		q = q.Where(`aggregate_version >= ?`, fromVersion)
	}
	if toVersion >= 0 {
		q = q.Where(`aggregate_version <= ?`, toVersion)
	}
	if err := q.Order("aggregate_version").Find(&evts).Error; err != nil {
		return nil, err
	}
	return toDriverEvents(evts), nil
}

func (b *Backend) LoadAll(ctx context.Context) ([]driver.Event, error) {
	q := b.WithContext(ctx).DB.Scopes(b.scope())
	var evts []Event
	if err := q.Model(Event{}).Order("aggregate_id").Order("aggregate_version").Find(&evts).Error; err != nil {
		return nil, err
	}
	return toDriverEvents(evts), nil
}

func toDriverEvents(evts []Event) []driver.Event {
	res := make([]driver.Event, len(evts))
	for i, e := range evts {
		res[i] = driver.Event{
			AggregateID:      e.AggregateID,
			AggregateVersion: e.AggregateVersion,
			Type:             e.Type,
			Payload:          e.Payload,
		}
	}
	return res
}

func (b *Backend) Save(ctx context.Context, events []driver.Event) (rErr error) {
	tx := b.WithContext(ctx).Begin()
	defer func() {
		rErr = tx.End(rErr)
	}()
	q := tx.DB.Scopes(b.scope()).Model(&Event{})
	for _, e := range events {
		err := q.Create(&Event{
			AggregateID:      e.AggregateID,
			AggregateVersion: e.AggregateVersion,
			Type:             e.Type,
			Payload:          e.Payload,
		}).Error
		if g.UniqueViolation(err) {
			return driver.ErrConcurrency
		} else if err != nil {
			return fmt.Errorf("saving event to database: %+v", err)
		}
	}
	return nil
}
