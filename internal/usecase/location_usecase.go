package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Aidmap-App/internal/domain/helper"
	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/domain/service"
	"Aidmap-App/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// 割り当てから報告期限までの時間
const assignmentTTL = 24 * time.Hour

const (
	reasonRestricted = "Locations in this area are restricted"
	reasonDuplicate  = "Such location already exists"
)

type LocationUseCase interface {
	// AddLocation 認証ユーザーによる報告付きの直接登録（status 3）
	AddLocation(ctx context.Context, user *model.User, req *model.LocationCreate) (*model.SubmissionResult, error)
	// RequestLocation 座標のみでのレビュー依頼（status 1）。住所は逆ジオコーディングで補完する
	RequestLocation(ctx context.Context, lat, lng float64, guestID *int64) (*model.SubmissionResult, error)
	GetByCoordinates(ctx context.Context, lat, lng float64) (*model.Location, error)
	SearchNear(ctx context.Context, lat, lng float64) ([]model.GeoIndexEntry, error)
	GetInfo(ctx context.Context, id int64) (*model.Location, error)
	PendingCount(ctx context.Context) (int, error)
	PendingList(ctx context.Context, search *model.PendingLocationSearch) ([]model.Location, error)
	Assign(ctx context.Context, userID, locationID int64) (*model.Location, error)
	RemoveAssignment(ctx context.Context, userID, locationID int64) (*model.Location, error)
	AssignedTo(ctx context.Context, userID int64) ([]model.Location, error)
	SubmitReport(ctx context.Context, userID int64, req *model.LocationReports) (*model.Location, error)
	Delete(ctx context.Context, id int64) error
	RecentReports(ctx context.Context, records int) ([]model.Location, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type locationUseCaseImpl struct {
	tx         repository.Transactor
	locations  repository.LocationRepository
	changelogs repository.ChangeLogRepository
	users      repository.UserRepository
	index      service.ProximityIndex
	zones      service.ZoneChecker
	geocoder   repository.Geocoder
	allowWipe  bool
	logger     *zap.Logger
	now        func() time.Time
}

// LocationDeps LocationUseCaseの依存関係
type LocationDeps struct {
	Tx         repository.Transactor
	Locations  repository.LocationRepository
	ChangeLogs repository.ChangeLogRepository
	Users      repository.UserRepository
	Index      service.ProximityIndex
	Zones      service.ZoneChecker
	Geocoder   repository.Geocoder
	// AllowWipe DeleteAllを許可する（ENV_TYPE=testのみ）
	AllowWipe bool
	Logger    *zap.Logger
}

func NewLocationUseCase(d LocationDeps) LocationUseCase {
	return &locationUseCaseImpl{
		tx:         d.Tx,
		locations:  d.Locations,
		changelogs: d.ChangeLogs,
		users:      d.Users,
		index:      d.Index,
		zones:      d.Zones,
		geocoder:   d.Geocoder,
		allowWipe:  d.AllowWipe,
		logger:     d.Logger,
		now:        time.Now,
	}
}

// submission 登録処理に渡す内容
type submission struct {
	location    *model.Location
	withHistory bool
	submittedBy *int64
}

// rejectRestricted 制限区域内ならRejectedの結果を返す
func (u *locationUseCaseImpl) rejectRestricted(ctx context.Context, pos model.LatLng) *model.SubmissionResult {
	if !u.zones.Intersects(ctx, pos.Lng, pos.Lat) {
		return nil
	}
	metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
	u.logger.Info("制限区域内の地点を拒否しました", zap.Float64("lat", pos.Lat), zap.Float64("lng", pos.Lng))
	return &model.SubmissionResult{Outcome: model.SubmissionRejected, Reason: reasonRestricted}
}

// submit 区域チェック → 重複しない挿入 → インデックス → 変更履歴 の順に処理する
// 挿入以降は1トランザクションで行う
func (u *locationUseCaseImpl) submit(ctx context.Context, s submission) (*model.SubmissionResult, error) {
	pos := s.location.Position
	if res := u.rejectRestricted(ctx, pos); res != nil {
		return res, nil
	}

	created := false
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := u.locations.CreateIfAbsent(ctx, s.location)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		created = true

		if _, err := u.index.Index(ctx, s.location.ID, pos.Lat, pos.Lng, s.location.Status); err != nil {
			return err
		}

		if !s.withHistory {
			return nil
		}
		newFlags, err := json.Marshal(s.location.Reports)
		if err != nil {
			return fmt.Errorf("報告のシリアライズ失敗: %w", err)
		}
		return u.changelogs.Create(ctx, &model.ChangeLog{
			SubmittedBy: s.submittedBy,
			LocationID:  s.location.ID,
			ActionType:  model.ChangeLogActionReport,
			OldFlags:    json.RawMessage("{}"),
			NewFlags:    newFlags,
			IsVisible:   true,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("地点の登録失敗: %w", err)
	}

	if !created {
		metrics.SubmissionsTotal.WithLabelValues("already_exists").Inc()
		return &model.SubmissionResult{Outcome: model.SubmissionAlreadyExists, Reason: reasonDuplicate}, nil
	}
	metrics.SubmissionsTotal.WithLabelValues("created").Inc()
	u.logger.Info("地点を登録しました",
		zap.Int64("location_id", s.location.ID),
		zap.Int("status", int(s.location.Status)),
		zap.Float64("lat", pos.Lat),
		zap.Float64("lng", pos.Lng),
	)
	return &model.SubmissionResult{Outcome: model.SubmissionCreated, Location: s.location}, nil
}

func (u *locationUseCaseImpl) AddLocation(ctx context.Context, user *model.User, req *model.LocationCreate) (*model.SubmissionResult, error) {
	pos := model.LatLng{Lat: req.Lat, Lng: req.Lng}
	if !pos.Valid() {
		return nil, model.Detail(model.ErrBadRequest, "Invalid coordinates")
	}
	reports := req.Reports
	userID := user.ID
	loc := &model.Location{
		Address:      req.Address,
		StreetNumber: req.StreetNumber,
		City:         req.City,
		Country:      req.Country,
		Index:        string(req.Index),
		Status:       model.StatusApproved,
		Position:     pos,
		ReportedBy:   &userID,
		Reports:      &reports,
	}
	return u.submit(ctx, submission{location: loc, withHistory: true, submittedBy: &userID})
}

func (u *locationUseCaseImpl) RequestLocation(ctx context.Context, lat, lng float64, guestID *int64) (*model.SubmissionResult, error) {
	pos := model.LatLng{Lat: lat, Lng: lng}
	if !pos.Valid() {
		return nil, model.Detail(model.ErrBadRequest, "Invalid coordinates")
	}

	if res := u.rejectRestricted(ctx, pos); res != nil {
		return res, nil
	}
	// 既に依頼済みの座標ではジオコーダを呼ばない
	if _, err := u.locations.GetByCoordinates(ctx, lat, lng); err == nil {
		metrics.SubmissionsTotal.WithLabelValues("already_exists").Inc()
		return &model.SubmissionResult{
			Outcome: model.SubmissionAlreadyExists,
			Reason:  "Review request for this location was already sent",
		}, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	addr, err := u.geocoder.Reverse(ctx, lat, lng)
	if err != nil {
		u.logger.Warn("逆ジオコーディング失敗", zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
		return nil, model.Detail(model.ErrBadRequest, "Cannot get the address of this location, please check you query")
	}

	loc := &model.Location{
		Address:      addr.Address,
		StreetNumber: addr.StreetNumber,
		City:         addr.City,
		Country:      addr.Country,
		Index:        addr.Index,
		Status:       model.StatusAwaitingReview,
		Position:     pos,
		RequestedBy:  guestID,
	}
	res, err := u.submit(ctx, submission{location: loc})
	if err != nil {
		return nil, err
	}
	if res.Outcome == model.SubmissionAlreadyExists {
		res.Reason = "Review request for this location was already sent"
	}
	return res, nil
}

func (u *locationUseCaseImpl) GetByCoordinates(ctx context.Context, lat, lng float64) (*model.Location, error) {
	return u.locations.GetByCoordinates(ctx, lat, lng)
}

func (u *locationUseCaseImpl) SearchNear(ctx context.Context, lat, lng float64) ([]model.GeoIndexEntry, error) {
	if !(model.LatLng{Lat: lat, Lng: lng}).Valid() {
		return nil, model.Detail(model.ErrBadRequest, "Invalid coordinates")
	}
	return u.index.SearchNear(ctx, lat, lng)
}

func (u *locationUseCaseImpl) GetInfo(ctx context.Context, id int64) (*model.Location, error) {
	return u.locations.GetByID(ctx, id)
}

func (u *locationUseCaseImpl) PendingCount(ctx context.Context) (int, error) {
	return u.locations.CountPending(ctx)
}

func (u *locationUseCaseImpl) PendingList(ctx context.Context, search *model.PendingLocationSearch) ([]model.Location, error) {
	limit, offset := pagination(search.Page, search.Limit)
	locations, err := u.locations.ListPending(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return helper.WithDistance(locations, search.UserLat, search.UserLng), nil
}

func (u *locationUseCaseImpl) Assign(ctx context.Context, userID, locationID int64) (*model.Location, error) {
	var loc *model.Location
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := u.now()
		ok, err := u.locations.Assign(ctx, locationID, userID, now.Add(assignmentTTL))
		if err != nil {
			return err
		}
		if !ok {
			if _, err := u.locations.GetByID(ctx, locationID); err != nil {
				return err
			}
			return model.Detail(model.ErrBadRequest, "Location is already assigned")
		}
		if err := u.users.TouchActivity(ctx, userID, now); err != nil {
			return err
		}
		loc, err = u.locations.GetByID(ctx, locationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func (u *locationUseCaseImpl) RemoveAssignment(ctx context.Context, userID, locationID int64) (*model.Location, error) {
	var loc *model.Location
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := u.locations.RemoveAssignment(ctx, locationID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return model.Detail(model.ErrBadRequest, "This location was already dismissed or does not belong to you")
		}
		if err := u.users.TouchActivity(ctx, userID, u.now()); err != nil {
			return err
		}
		loc, err = u.locations.GetByID(ctx, locationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func (u *locationUseCaseImpl) AssignedTo(ctx context.Context, userID int64) ([]model.Location, error) {
	return u.locations.ListAssigned(ctx, userID)
}

// SubmitReport 報告を保存して承認済みにし、変更履歴を残す
func (u *locationUseCaseImpl) SubmitReport(ctx context.Context, userID int64, req *model.LocationReports) (*model.Location, error) {
	var loc *model.Location
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		loc, err = u.locations.GetByID(ctx, req.LocationID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.Detail(model.ErrBadRequest, "Cannot find the requested location")
			}
			return err
		}

		oldFlags := json.RawMessage("{}")
		if loc.Reports != nil {
			if oldFlags, err = json.Marshal(loc.Reports); err != nil {
				return fmt.Errorf("報告のシリアライズ失敗: %w", err)
			}
		}
		newFlags, err := json.Marshal(req.Reports)
		if err != nil {
			return fmt.Errorf("報告のシリアライズ失敗: %w", err)
		}

		if req.Address != nil && *req.Address != "" {
			loc.Address = *req.Address
		}
		if req.StreetNumber != nil && *req.StreetNumber != "" {
			loc.StreetNumber = *req.StreetNumber
		}
		if req.City != nil && *req.City != "" {
			loc.City = *req.City
		}
		if req.Index != nil && *req.Index != "" {
			loc.Index = string(*req.Index)
		}
		reports := req.Reports
		loc.Reports = &reports
		loc.Status = model.StatusApproved
		loc.ReportExpires = nil
		uid := userID
		loc.ReportedBy = &uid

		if err := u.locations.UpdateReport(ctx, loc); err != nil {
			return err
		}
		if err := u.index.UpdateStatus(ctx, loc.ID, model.StatusApproved); err != nil {
			return err
		}
		if err := u.users.TouchActivity(ctx, userID, u.now()); err != nil {
			return err
		}
		return u.changelogs.Create(ctx, &model.ChangeLog{
			SubmittedBy: &uid,
			LocationID:  loc.ID,
			ActionType:  model.ChangeLogActionReport,
			OldFlags:    oldFlags,
			NewFlags:    newFlags,
			IsVisible:   true,
		})
	})
	if err != nil {
		return nil, err
	}
	u.logger.Info("報告を受け付けました", zap.Int64("location_id", loc.ID), zap.Int64("user_id", userID))
	return loc, nil
}

func (u *locationUseCaseImpl) Delete(ctx context.Context, id int64) error {
	return u.locations.Delete(ctx, id)
}

func (u *locationUseCaseImpl) RecentReports(ctx context.Context, records int) ([]model.Location, error) {
	if records <= 0 {
		records = 10
	}
	return u.locations.ListRecent(ctx, model.StatusApproved, records)
}

func (u *locationUseCaseImpl) DeleteAll(ctx context.Context) (int64, error) {
	if !u.allowWipe {
		return 0, model.Detail(model.ErrForbidden, "This endpoint is restricted.")
	}
	n, err := u.locations.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	u.logger.Warn("全地点を削除しました", zap.Int64("deleted", n))
	return n, nil
}

// pagination 1始まりのページ番号からlimit/offsetを求める
func pagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return limit, (page - 1) * limit
}
