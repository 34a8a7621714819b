package usecase

import (
	"context"
	"errors"
	"fmt"

	"Aidmap-App/internal/domain/helper"
	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/domain/service"

	"go.uber.org/zap"
)

type ZoneUseCase interface {
	// Restrict 区域名から境界を取得して制限区域として登録する
	Restrict(ctx context.Context, req *model.ZoneCreate) (*model.Zone, error)
	Allow(ctx context.Context, zoneID int64) error
	List(ctx context.Context) ([]model.Zone, error)
}

type zoneUseCaseImpl struct {
	zones    repository.ZoneRepository
	geocoder repository.Geocoder
	checker  service.ZoneChecker
	logger   *zap.Logger
}

func NewZoneUseCase(zones repository.ZoneRepository, geocoder repository.Geocoder, checker service.ZoneChecker, logger *zap.Logger) ZoneUseCase {
	return &zoneUseCaseImpl{zones: zones, geocoder: geocoder, checker: checker, logger: logger}
}

func (u *zoneUseCaseImpl) Restrict(ctx context.Context, req *model.ZoneCreate) (*model.Zone, error) {
	if _, err := u.zones.GetByName(ctx, req.VerboseName); err == nil {
		return nil, model.Detail(model.ErrAlreadyExists, "Such zone already exists")
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	boundary, err := u.geocoder.BoundaryByName(ctx, req.VerboseName)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.Detail(model.ErrBadRequest, "Cannot find boundaries of such zone")
		}
		return nil, fmt.Errorf("区域境界の取得失敗: %w", err)
	}

	zone := &model.Zone{
		VerboseName: req.VerboseName,
		ZoneType:    req.ZoneType,
		BoundingBox: helper.GeometryToWKT(boundary),
	}
	if err := u.zones.Create(ctx, zone); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil, model.Detail(model.ErrAlreadyExists, "Such zone already exists")
		}
		return nil, err
	}
	u.checker.Invalidate()

	u.logger.Info("制限区域を登録しました", zap.Int64("zone_id", zone.ID), zap.String("zone", zone.VerboseName))
	return zone, nil
}

func (u *zoneUseCaseImpl) Allow(ctx context.Context, zoneID int64) error {
	if err := u.zones.Delete(ctx, zoneID); err != nil {
		return err
	}
	u.checker.Invalidate()
	u.logger.Info("制限区域を削除しました", zap.Int64("zone_id", zoneID))
	return nil
}

func (u *zoneUseCaseImpl) List(ctx context.Context) ([]model.Zone, error) {
	return u.zones.GetAll(ctx)
}
