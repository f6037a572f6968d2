package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"alcyxob/fittrack/internal/clock"
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NutritionHandler struct {
	nutritionService service.NutritionService
	clock            clock.Clock
}

func NewNutritionHandler(nutritionService service.NutritionService, clk clock.Clock) *NutritionHandler {
	return &NutritionHandler{nutritionService: nutritionService, clock: clk}
}

// --- DTOs ---

type ManualEntryRequest struct {
	FoodName    string                `json:"foodName" binding:"required"`
	Brand       string                `json:"brand"`
	ServingSize string                `json:"servingSize"`
	Quantity    float64               `json:"quantity" binding:"gt=0"`
	LoggedAt    *time.Time            `json:"loggedAt"`
	MealType    domain.MealType       `json:"mealType" binding:"omitempty,oneof=breakfast lunch dinner snack other"`
	Nutrition   domain.NutritionFacts `json:"nutrition"`
	Notes       string                `json:"notes"`
}

// FoodLookupRequest logs a food found by text search (Query) or barcode (Barcode).
type FoodLookupRequest struct {
	Query    string          `json:"query"`
	Barcode  string          `json:"barcode"`
	Quantity float64         `json:"quantity" binding:"gt=0"`
	MealType domain.MealType `json:"mealType" binding:"omitempty,oneof=breakfast lunch dinner snack other"`
}

// CopyEntryRequest overrides quantity and meal of a duplicated entry.
type CopyEntryRequest struct {
	Quantity *float64        `json:"quantity"`
	MealType *domain.MealType `json:"mealType"`
}

type QuantityRequest struct {
	Quantity float64 `json:"quantity"`
}

type AIDataRequest struct {
	Confidence     float64 `json:"confidence"`
	FoodDatabaseID string  `json:"foodDatabaseId"`
}

type BarcodeDataRequest struct {
	Barcode        string `json:"barcode" binding:"required"`
	FoodDatabaseID string `json:"foodDatabaseId"`
}

type PhotoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// EntryResponse is the entry document plus its derived values.
type EntryResponse struct {
	*domain.NutritionEntry
	DisplayName       string                        `json:"displayName"`
	Totals            map[domain.MetricType]float64 `json:"totals"`
	NeedsVerification bool                          `json:"needsVerification"`
	HasPhoto          bool                          `json:"hasPhoto"`
}

// --- Handler Methods ---

// ListEntries godoc
// @Summary List the user's nutrition entries
// @Tags Nutrition
// @Produce json
// @Security BearerAuth
// @Param from query string false "RFC 3339 or YYYY-MM-DD, inclusive"
// @Param to query string false "RFC 3339 or YYYY-MM-DD, exclusive"
// @Param meal query string false "Meal type"
// @Param favorites query bool false "Favorites only"
// @Success 200 {array} EntryResponse
// @Router /nutrition/entries [get]
func (h *NutritionHandler) ListEntries(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	loc := h.nutritionService.Settings().Location
	var filter service.EntryFilter
	var err error
	if filter.From, err = parseTimeQuery(c.Query("from"), loc); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid from: "+err.Error())
		return
	}
	if filter.To, err = parseTimeQuery(c.Query("to"), loc); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid to: "+err.Error())
		return
	}
	if raw := c.Query("meal"); raw != "" {
		filter.MealType = domain.MealType(raw)
		if !filter.MealType.Valid() {
			abortWithError(c, http.StatusBadRequest, "Unknown meal type.")
			return
		}
	}
	filter.FavoritesOnly, _ = strconv.ParseBool(c.Query("favorites"))

	entries, err := h.nutritionService.ListEntries(c.Request.Context(), userID, filter)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve entries.")
		return
	}
	c.JSON(http.StatusOK, MapEntriesToResponse(entries))
}

// LogManual godoc
// @Summary Log a food by hand
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entry body ManualEntryRequest true "Entry"
// @Success 201 {object} EntryResponse
// @Router /nutrition/entries [post]
func (h *NutritionHandler) LogManual(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	in := service.ManualEntryInput{
		FoodName:    req.FoodName,
		Brand:       req.Brand,
		ServingSize: req.ServingSize,
		Quantity:    req.Quantity,
		MealType:    req.MealType,
		Nutrition:   req.Nutrition,
		Notes:       req.Notes,
	}
	if req.LoggedAt != nil {
		in.LoggedAt = *req.LoggedAt
	}
	e, err := h.nutritionService.LogManual(c.Request.Context(), userID, in)
	if err != nil {
		respondWithServiceError(c, err, "Failed to log entry.")
		return
	}
	c.JSON(http.StatusCreated, MapEntryToResponse(e))
}

func (h *NutritionHandler) LogFromSearch(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req FoodLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if req.Query == "" {
		abortWithError(c, http.StatusBadRequest, "query is required.")
		return
	}
	e, err := h.nutritionService.LogFromSearch(c.Request.Context(), userID, req.Query, req.Quantity, req.MealType)
	if err != nil {
		respondWithServiceError(c, err, "Failed to log entry.")
		return
	}
	c.JSON(http.StatusCreated, MapEntryToResponse(e))
}

func (h *NutritionHandler) LogFromBarcode(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req FoodLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if req.Barcode == "" {
		abortWithError(c, http.StatusBadRequest, "barcode is required.")
		return
	}
	e, err := h.nutritionService.LogFromBarcode(c.Request.Context(), userID, req.Barcode, req.Quantity, req.MealType)
	if err != nil {
		respondWithServiceError(c, err, "Failed to log entry.")
		return
	}
	c.JSON(http.StatusCreated, MapEntryToResponse(e))
}

func (h *NutritionHandler) GetEntry(c *gin.Context) {
	userID, entryID, ok := entryIDs(c)
	if !ok {
		return
	}
	e, err := h.nutritionService.GetEntry(c.Request.Context(), userID, entryID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve entry.")
		return
	}
	c.JSON(http.StatusOK, MapEntryToResponse(e))
}

// DeleteEntry godoc
// @Summary Delete a nutrition entry
// @Description Returns the deleted entry; POST it to /nutrition/entries/restore to undo.
// @Tags Nutrition
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Success 200 {object} EntryResponse
// @Router /nutrition/entries/{id} [delete]
func (h *NutritionHandler) DeleteEntry(c *gin.Context) {
	userID, entryID, ok := entryIDs(c)
	if !ok {
		return
	}
	e, err := h.nutritionService.DeleteEntry(c.Request.Context(), userID, entryID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to delete entry.")
		return
	}
	c.JSON(http.StatusOK, MapEntryToResponse(e))
}

func (h *NutritionHandler) RestoreEntry(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var snapshot domain.NutritionEntry
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if snapshot.ID.IsZero() {
		abortWithError(c, http.StatusBadRequest, "Snapshot id is required.")
		return
	}
	e, err := h.nutritionService.RestoreEntry(c.Request.Context(), userID, &snapshot)
	if err != nil {
		respondWithServiceError(c, err, "Failed to restore entry.")
		return
	}
	c.JSON(http.StatusCreated, MapEntryToResponse(e))
}

func (h *NutritionHandler) UpdateQuantity(c *gin.Context) {
	var req QuantityRequest
	h.mutate(c, &req, func(c *gin.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error) {
		return h.nutritionService.UpdateQuantity(c.Request.Context(), userID, entryID, req.Quantity)
	})
}

func (h *NutritionHandler) UpdateNutrition(c *gin.Context) {
	var req domain.NutritionUpdate
	h.mutate(c, &req, func(c *gin.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error) {
		return h.nutritionService.UpdateNutrition(c.Request.Context(), userID, entryID, req)
	})
}

func (h *NutritionHandler) Favorite(c *gin.Context) {
	h.mutate(c, nil, func(c *gin.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error) {
		return h.nutritionService.SetFavorite(c.Request.Context(), userID, entryID, true)
	})
}

func (h *NutritionHandler) Unfavorite(c *gin.Context) {
	h.mutate(c, nil, func(c *gin.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error) {
		return h.nutritionService.SetFavorite(c.Request.Context(), userID, entryID, false)
	})
}

func (h *NutritionHandler) Verify(c *gin.Context) {
	h.mutate(c, nil, func(c *gin.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error) {
		return h.nutritionService.Verify(c.Request.Context(), userID, entryID)
	})
}

func (h *NutritionHandler) SetAIData(c *gin.Context) {
	var req AIDataRequest
	h.mutate(c, &req, func(c *gin.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error) {
		return h.nutritionService.SetAIData(c.Request.Context(), userID, entryID, req.Confidence, req.FoodDatabaseID)
	})
}

func (h *NutritionHandler) SetBarcodeData(c *gin.Context) {
	var req BarcodeDataRequest
	h.mutate(c, &req, func(c *gin.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error) {
		return h.nutritionService.SetBarcodeData(c.Request.Context(), userID, entryID, req.Barcode, req.FoodDatabaseID)
	})
}

func (h *NutritionHandler) DuplicateEntry(c *gin.Context) {
	h.copyEntry(c, h.nutritionService.DuplicateEntry)
}

// LogAgain godoc
// @Summary Log a previous entry again
// @Description The copy is logged now with method "favorite", or "recent" when the source is not a favorite.
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param overrides body CopyEntryRequest false "Quantity and meal overrides"
// @Success 201 {object} EntryResponse
// @Router /nutrition/entries/{id}/log-again [post]
func (h *NutritionHandler) LogAgain(c *gin.Context) {
	h.copyEntry(c, h.nutritionService.LogFromFavorite)
}

type copyEntryFunc func(ctx context.Context, userID, entryID primitive.ObjectID, quantity *float64, meal *domain.MealType) (*domain.NutritionEntry, error)

func (h *NutritionHandler) copyEntry(c *gin.Context, fn copyEntryFunc) {
	userID, entryID, ok := entryIDs(c)
	if !ok {
		return
	}
	var req CopyEntryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}
	e, err := fn(c.Request.Context(), userID, entryID, req.Quantity, req.MealType)
	if err != nil {
		respondWithServiceError(c, err, "Failed to copy entry.")
		return
	}
	c.JSON(http.StatusCreated, MapEntryToResponse(e))
}

// mutate binds req (when non-nil) and answers with the entry fn returns.
func (h *NutritionHandler) mutate(c *gin.Context, req any, fn func(*gin.Context, primitive.ObjectID, primitive.ObjectID) (*domain.NutritionEntry, error)) {
	userID, entryID, ok := entryIDs(c)
	if !ok {
		return
	}
	if req != nil {
		if err := c.ShouldBindJSON(req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}
	e, err := fn(c, userID, entryID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to update entry.")
		return
	}
	c.JSON(http.StatusOK, MapEntryToResponse(e))
}

// RequestPhotoUpload godoc
// @Summary Get a pre-signed URL to upload a meal photo
// @Description The client PUTs the image to uploadUrl with the same Content-Type.
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Entry ID"
// @Param upload body PhotoUploadRequest true "Image content type"
// @Success 200 {object} service.PhotoUpload
// @Failure 400 {object} gin.H "Unsupported content type"
// @Failure 503 {object} gin.H "Photo storage disabled"
// @Router /nutrition/entries/{id}/photo [post]
func (h *NutritionHandler) RequestPhotoUpload(c *gin.Context) {
	userID, entryID, ok := entryIDs(c)
	if !ok {
		return
	}
	var req PhotoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	upload, err := h.nutritionService.RequestPhotoUploadURL(c.Request.Context(), userID, entryID, req.ContentType)
	if err != nil {
		respondWithServiceError(c, err, "Failed to prepare photo upload.")
		return
	}
	c.JSON(http.StatusOK, upload)
}

func (h *NutritionHandler) PhotoDownload(c *gin.Context) {
	userID, entryID, ok := entryIDs(c)
	if !ok {
		return
	}
	url, err := h.nutritionService.PhotoDownloadURL(c.Request.Context(), userID, entryID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to prepare photo download.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

// DailySummary godoc
// @Summary Nutrition totals of one day
// @Tags Nutrition
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD in the configured timezone (default today)"
// @Success 200 {object} service.DailySummary
// @Router /nutrition/daily [get]
func (h *NutritionHandler) DailySummary(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	loc := h.nutritionService.Settings().Location
	day := h.clock.Now().In(loc)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "date must be YYYY-MM-DD.")
			return
		}
		day = parsed
	}

	summary, err := h.nutritionService.DailySummary(c.Request.Context(), userID, day)
	if err != nil {
		respondWithServiceError(c, err, "Failed to compute daily totals.")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Metrics returns the static metric catalogue.
func (h *NutritionHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, domain.AllMetrics())
}

// --- Mapping ---

func MapEntryToResponse(e *domain.NutritionEntry) EntryResponse {
	if e == nil {
		return EntryResponse{}
	}
	return EntryResponse{
		NutritionEntry:    e,
		DisplayName:       e.DisplayName(),
		Totals:            e.Totals(),
		NeedsVerification: e.NeedsVerification(),
		HasPhoto:          e.PhotoKey != "",
	}
}

func MapEntriesToResponse(entries []*domain.NutritionEntry) []EntryResponse {
	resp := make([]EntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = MapEntryToResponse(e)
	}
	return resp
}

func entryIDs(c *gin.Context) (userID, entryID primitive.ObjectID, ok bool) {
	if userID, ok = mustUserID(c); !ok {
		return
	}
	entryID, ok = idParam(c, "id")
	return
}

// parseTimeQuery accepts RFC 3339 or a bare date in loc. Empty is the zero time.
func parseTimeQuery(raw string, loc *time.Location) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
