package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/domain/repository"
	"Aidmap-App/internal/infrastructure/metrics"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// XLSXContentType 一括登録で受け付けるファイル形式
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// 報告フラグの列（address, street_number, city, country, postcode の後ろ）
var bulkFlagColumns = []string{"buildingCondition", "electricity", "carEntrance", "water", "fuelStation", "hospital"}

const (
	bulkFlagStart        = 5
	bulkDescriptionIndex = 11
)

type BulkImportUseCase interface {
	// Import スプレッドシートの各行を承認済み地点として登録する
	// 失敗した行は理由とともにUnprocessedに積み、残りの行の処理を続ける
	Import(ctx context.Context, r io.Reader) (*model.BulkImportResult, error)
}

type bulkImportUseCaseImpl struct {
	locations     LocationUseCase
	users         repository.UserRepository
	geocoder      repository.Geocoder
	reporterEmail string
	logger        *zap.Logger
}

// NewBulkImportUseCase reporterEmailのユーザーを報告者として登録する
func NewBulkImportUseCase(locations LocationUseCase, users repository.UserRepository, geocoder repository.Geocoder, reporterEmail string, logger *zap.Logger) BulkImportUseCase {
	return &bulkImportUseCaseImpl{
		locations:     locations,
		users:         users,
		geocoder:      geocoder,
		reporterEmail: reporterEmail,
		logger:        logger,
	}
}

// bulkRow シート1行分の地点
type bulkRow struct {
	row          int
	address      string
	streetNumber string
	city         string
	country      string
	postcode     string
	reports      model.Reports
}

func (u *bulkImportUseCaseImpl) Import(ctx context.Context, r io.Reader) (*model.BulkImportResult, error) {
	reporter, err := u.users.GetByEmail(ctx, u.reporterEmail)
	if err != nil {
		return nil, fmt.Errorf("一括登録の報告者が見つかりません: %w", err)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, model.Detail(model.ErrBadRequest, "Unsupported file format. Please verify what you are sending.")
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("シートの読み込み失敗: %w", err)
	}

	result := &model.BulkImportResult{Added: []model.Location{}, Unprocessed: []model.BulkImportFailure{}}
	fail := func(row int, code, detail string) {
		metrics.BulkImportRowsTotal.WithLabelValues(strings.ToLower(code)).Inc()
		result.Unprocessed = append(result.Unprocessed, model.BulkImportFailure{Row: row, Code: code, Detail: detail})
	}

	for i, cells := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(cells) == 0 || strings.TrimSpace(cells[0]) == "" {
			continue
		}
		rowNum := i + 1

		parsed, err := parseBulkRow(rowNum, cells)
		if err != nil {
			fail(rowNum, model.BulkSerializationError, err.Error())
			continue
		}

		pos, err := u.geocoder.Geocode(ctx, fmt.Sprintf("%s, %s", parsed.address, parsed.streetNumber), parsed.city)
		if err != nil {
			u.logger.Debug("ジオコーディング失敗", zap.Int("row", rowNum), zap.Error(err))
			fail(rowNum, model.BulkGeocodingError, "Address not found")
			continue
		}

		res, err := u.locations.AddLocation(ctx, reporter, &model.LocationCreate{
			Lat:          pos.Lat,
			Lng:          pos.Lng,
			Address:      parsed.address,
			StreetNumber: parsed.streetNumber,
			City:         parsed.city,
			Country:      parsed.country,
			Index:        model.Postcode(parsed.postcode),
			Reports:      parsed.reports,
		})
		switch {
		case err != nil:
			fail(rowNum, model.BulkDatabaseError, model.MessageOf(err, err.Error()))
		case res.Outcome != model.SubmissionCreated:
			fail(rowNum, model.BulkDatabaseError, res.Reason)
		default:
			metrics.BulkImportRowsTotal.WithLabelValues("added").Inc()
			result.Added = append(result.Added, *res.Location)
		}
	}

	u.logger.Info("一括登録完了",
		zap.Int("added", len(result.Added)),
		zap.Int("unprocessed", len(result.Unprocessed)),
	)
	return result, nil
}

func parseBulkRow(rowNum int, cells []string) (*bulkRow, error) {
	if len(cells) < bulkFlagStart+len(bulkFlagColumns) {
		return nil, fmt.Errorf("row %d has %d columns, expected at least %d", rowNum, len(cells), bulkFlagStart+len(bulkFlagColumns))
	}

	flags := make([]string, len(bulkFlagColumns))
	for i, name := range bulkFlagColumns {
		flag := strings.ToLower(strings.TrimSpace(cells[bulkFlagStart+i]))
		if flag == "" {
			return nil, errors.New("empty flag for " + name)
		}
		flags[i] = flag
	}
	description := ""
	if len(cells) > bulkDescriptionIndex {
		description = cells[bulkDescriptionIndex]
	}

	return &bulkRow{
		row:          rowNum,
		address:      strings.TrimSpace(cells[0]),
		streetNumber: cells[1],
		city:         cells[2],
		country:      cells[3],
		postcode:     cells[4],
		reports: model.Reports{
			BuildingCondition: model.ReportEntry{Flag: flags[0], Description: description},
			Electricity:       model.ReportEntry{Flag: flags[1]},
			CarEntrance:       model.ReportEntry{Flag: flags[2]},
			Water:             model.ReportEntry{Flag: flags[3]},
			FuelStation:       model.ReportEntry{Flag: flags[4]},
			Hospital:          model.ReportEntry{Flag: flags[5]},
		},
	}, nil
}
