package usecase

import (
	"context"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
)

// ReferenceUseCase 参照系の小さな機能（電話番号コード・アクティビティログ・逆ジオコーディング）
type ReferenceUseCase interface {
	PhoneCodes(ctx context.Context) ([]model.PhoneCode, error)
	// ActivityLogs 管理者か組織のメンバーのみ閲覧できる
	ActivityLogs(ctx context.Context, current *model.User, organizationID int64, page, limit int) ([]model.ActivityLog, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (*model.Address, error)
}

type referenceUseCaseImpl struct {
	phoneCodes repository.PhoneCodeRepository
	activity   repository.ActivityLogRepository
	geocoder   repository.Geocoder
}

func NewReferenceUseCase(phoneCodes repository.PhoneCodeRepository, activity repository.ActivityLogRepository, geocoder repository.Geocoder) ReferenceUseCase {
	return &referenceUseCaseImpl{phoneCodes: phoneCodes, activity: activity, geocoder: geocoder}
}

func (u *referenceUseCaseImpl) PhoneCodes(ctx context.Context) ([]model.PhoneCode, error) {
	return u.phoneCodes.ListActive(ctx)
}

func (u *referenceUseCaseImpl) ActivityLogs(ctx context.Context, current *model.User, organizationID int64, page, limit int) ([]model.ActivityLog, error) {
	org := organizationID
	if !current.IsAdmin() && !current.SameOrganization(&org) {
		return nil, model.Detail(model.ErrForbidden, "Not allowed")
	}
	limit, offset := pagination(page, limit)
	return u.activity.ListByOrganization(ctx, organizationID, limit, offset)
}

func (u *referenceUseCaseImpl) ReverseGeocode(ctx context.Context, lat, lng float64) (*model.Address, error) {
	if !(model.LatLng{Lat: lat, Lng: lng}).Valid() {
		return nil, model.Detail(model.ErrBadRequest, "Invalid coordinates")
	}
	return u.geocoder.Reverse(ctx, lat, lng)
}
