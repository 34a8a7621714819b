package repository

import (
	"context"
	"time"

	"Aidmap-App/internal/domain/model"
)

type LocationRepository interface {
	// 同一座標が既に存在する場合は created=false を返し、何も書き込まない
	CreateIfAbsent(ctx context.Context, location *model.Location) (created bool, err error)
	GetByID(ctx context.Context, id int64) (*model.Location, error)
	GetByCoordinates(ctx context.Context, lat, lng float64) (*model.Location, error)
	CountPending(ctx context.Context) (int, error)
	ListPending(ctx context.Context, limit, offset int) ([]model.Location, error)
	// 未割り当ての場合のみ割り当てる
	Assign(ctx context.Context, locationID, userID int64, expires time.Time) (bool, error)
	// 割り当て者本人の場合のみ解除する
	RemoveAssignment(ctx context.Context, locationID, userID int64) (bool, error)
	ListAssigned(ctx context.Context, userID int64) ([]model.Location, error)
	UpdateReport(ctx context.Context, location *model.Location) error
	Delete(ctx context.Context, id int64) error
	ListRecent(ctx context.Context, status model.LocationStatus, limit int) ([]model.Location, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type GeoIndexRepository interface {
	Create(ctx context.Context, entry *model.GeoIndexEntry) error
	FindByPrefix(ctx context.Context, prefix string) ([]model.GeoIndexEntry, error)
	FindByLocationID(ctx context.Context, locationID int64) (*model.GeoIndexEntry, error)
	UpdateStatus(ctx context.Context, locationID int64, status model.LocationStatus) error
}

type ZoneRepository interface {
	Create(ctx context.Context, zone *model.Zone) error
	GetByName(ctx context.Context, name string) (*model.Zone, error)
	GetAll(ctx context.Context) ([]model.Zone, error)
	Delete(ctx context.Context, id int64) error
}

type ChangeLogRepository interface {
	Create(ctx context.Context, changelog *model.ChangeLog) error
	GetByID(ctx context.Context, id int64) (*model.ChangeLog, error)
	ListByLocation(ctx context.Context, locationID int64) ([]model.ChangeLog, error)
	SetVisibility(ctx context.Context, id int64, visible bool) error
	SetVisibilityByUser(ctx context.Context, userID int64, visible bool) (int64, error)
}
