package handler

import (
	"net/http"

	"Aidmap-App/internal/domain/model"
	"Aidmap-App/internal/usecase"

	"github.com/gin-gonic/gin"
)

// LocationHandler 地点に関するHTTPハンドラー
type LocationHandler struct {
	locations usecase.LocationUseCase
	bulk      usecase.BulkImportUseCase
}

func NewLocationHandler(locations usecase.LocationUseCase, bulk usecase.BulkImportUseCase) *LocationHandler {
	return &LocationHandler{locations: locations, bulk: bulk}
}

// respondSubmission 登録結果をステータスに変換
func respondSubmission(c *gin.Context, res *model.SubmissionResult) {
	switch res.Outcome {
	case model.SubmissionCreated:
		c.JSON(http.StatusCreated, res.Location)
	case model.SubmissionAlreadyExists:
		c.JSON(http.StatusConflict, gin.H{"error": "already_exists", "message": res.Reason})
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "restricted", "message": res.Reason})
	}
}

// AddLocation POST /locations/add - 報告付きの地点登録
func (h *LocationHandler) AddLocation(c *gin.Context) {
	var req model.LocationCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}

	res, err := h.locations.AddLocation(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSubmission(c, res)
}

// RequestInfo POST /locations/request-info - 座標のみでのレビュー依頼
func (h *LocationHandler) RequestInfo(c *gin.Context) {
	var req model.LatLng
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}

	res, err := h.locations.RequestLocation(c.Request.Context(), req.Lat, req.Lng, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSubmission(c, res)
}

// Search GET /locations/search?lat&lng - 座標が完全一致する地点
func (h *LocationHandler) Search(c *gin.Context) {
	lat, ok := queryFloat(c, "lat")
	if !ok {
		return
	}
	lng, ok := queryFloat(c, "lng")
	if !ok {
		return
	}

	loc, err := h.locations.GetByCoordinates(c.Request.Context(), lat, lng)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// CordSearch POST /locations/cord_search - 近傍の地点インデックス
func (h *LocationHandler) CordSearch(c *gin.Context) {
	var req model.LatLng
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}
	if !req.Valid() {
		respondError(c, model.Detail(model.ErrBadRequest, "Invalid coordinates"))
		return
	}

	entries, err := h.locations.SearchNear(c.Request.Context(), req.Lat, req.Lng)
	if err != nil {
		respondError(c, err)
		return
	}
	if entries == nil {
		entries = []model.GeoIndexEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// LocationInfo GET /locations/location-info?location_id
func (h *LocationHandler) LocationInfo(c *gin.Context) {
	id, ok := queryInt64(c, "location_id")
	if !ok {
		return
	}
	loc, err := h.locations.GetInfo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// PendingCount GET /locations/pending-count
func (h *LocationHandler) PendingCount(c *gin.Context) {
	n, err := h.locations.PendingCount(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// LocationRequests GET /locations/location-requests - 未処理の依頼一覧
func (h *LocationHandler) LocationRequests(c *gin.Context) {
	var search model.PendingLocationSearch
	if err := c.ShouldBindQuery(&search); err != nil {
		badRequest(c, "Invalid query: "+err.Error())
		return
	}

	list, err := h.locations.PendingList(c.Request.Context(), &search)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// AssignLocation PUT /locations/assign-location?location_id
func (h *LocationHandler) AssignLocation(c *gin.Context) {
	id, ok := queryInt64(c, "location_id")
	if !ok {
		return
	}
	loc, err := h.locations.Assign(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// RemoveAssignment PUT /locations/remove-assignment?location_id
func (h *LocationHandler) RemoveAssignment(c *gin.Context) {
	id, ok := queryInt64(c, "location_id")
	if !ok {
		return
	}
	loc, err := h.locations.RemoveAssignment(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// AssignedLocations GET /locations/assigned-locations
func (h *LocationHandler) AssignedLocations(c *gin.Context) {
	list, err := h.locations.AssignedTo(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// SubmitReport PUT /locations/submit-report
func (h *LocationHandler) SubmitReport(c *gin.Context) {
	var req model.LocationReports
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON format: "+err.Error())
		return
	}
	loc, err := h.locations.SubmitReport(c.Request.Context(), currentUser(c).ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// RemoveLocation DELETE /locations/remove-location?location_id
func (h *LocationHandler) RemoveLocation(c *gin.Context) {
	id, ok := queryInt64(c, "location_id")
	if !ok {
		return
	}
	if err := h.locations.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecentReports GET /locations/recent-reports?records
func (h *LocationHandler) RecentReports(c *gin.Context) {
	n, ok := queryIntDefault(c, "records", 10)
	if !ok {
		return
	}
	list, err := h.locations.RecentReports(c.Request.Context(), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(list))
}

// BulkAdd POST /locations/bulk-add - xlsxからの一括登録
func (h *LocationHandler) BulkAdd(c *gin.Context) {
	unsupported := "Unsupported file format. Please verify what you are sending."

	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, unsupported)
		return
	}
	if fh.Header.Get("Content-Type") != usecase.XLSXContentType {
		badRequest(c, unsupported)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	res, err := h.bulk.Import(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// BulkDelete DELETE /locations/bulk-delete - テスト環境でのみ全削除
func (h *LocationHandler) BulkDelete(c *gin.Context) {
	if _, err := h.locations.DeleteAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func nonNil(list []model.Location) []model.Location {
	if list == nil {
		return []model.Location{}
	}
	return list
}
