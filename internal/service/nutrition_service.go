package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"alcyxob/fittrack/internal/clock"
	"alcyxob/fittrack/internal/config"
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/fooddata"
	"alcyxob/fittrack/internal/metrics"
	"alcyxob/fittrack/internal/repository"
	"alcyxob/fittrack/internal/storage"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrEntryNotFound        = errors.New("nutrition entry not found")
	ErrEntryExists          = errors.New("nutrition entry already exists")
	ErrFoodNotFound         = errors.New("food not found")
	ErrFoodLookup           = errors.New("food lookup failed")
	ErrPhotoNotFound        = errors.New("entry has no photo")
	ErrPhotoStorageDisabled = errors.New("photo storage is not configured")
	ErrStorage              = errors.New("file storage error")
)

// NutritionSettings are the user-facing nutrition preferences.
type NutritionSettings struct {
	Location       *time.Location
	TrackedMetrics []domain.MetricType
	SortBy         string
	Descending     bool
}

// DefaultNutritionSettings: UTC days, the seven headline metrics, newest first.
func DefaultNutritionSettings() NutritionSettings {
	return NutritionSettings{
		Location: time.UTC,
		TrackedMetrics: []domain.MetricType{
			domain.MetricCalories, domain.MetricProtein, domain.MetricCarbohydrates, domain.MetricFat,
			domain.MetricFiber, domain.MetricSugar, domain.MetricSodium,
		},
		SortBy:     repository.SortLoggedAt,
		Descending: true,
	}
}

// NewNutritionSettings resolves the nutrition config section. Missing values
// fall back to DefaultNutritionSettings.
func NewNutritionSettings(cfg config.NutritionConfig) (NutritionSettings, error) {
	settings := DefaultNutritionSettings()
	loc, err := cfg.Location()
	if err != nil {
		return settings, err
	}
	settings.Location = loc

	if len(cfg.TrackedMetrics) > 0 {
		tracked := make([]domain.MetricType, 0, len(cfg.TrackedMetrics))
		for _, name := range cfg.TrackedMetrics {
			m, err := domain.ParseMetricType(strings.TrimSpace(name))
			if err != nil {
				return settings, fmt.Errorf("nutrition.tracked_metrics: %w", err)
			}
			tracked = append(tracked, m)
		}
		settings.TrackedMetrics = tracked
	}
	if cfg.Sort != "" {
		settings.SortBy, settings.Descending = cfg.SortOrder()
	}
	return settings, nil
}

// ManualEntryInput is a hand-typed entry.
type ManualEntryInput struct {
	FoodName    string
	Brand       string
	ServingSize string
	Quantity    float64
	LoggedAt    time.Time // Zero: now
	MealType    domain.MealType
	Nutrition   domain.NutritionFacts
	Notes       string
}

// EntryFilter narrows ListEntries; To is exclusive.
type EntryFilter struct {
	From          time.Time
	To            time.Time
	MealType      domain.MealType
	FavoritesOnly bool
}

// MetricSummary is one tracked metric of a day.
type MetricSummary struct {
	domain.MetricInfo
	Consumed  float64 `json:"consumed"`
	Remaining float64 `json:"remaining"`
	Display   float64 `json:"display"`
}

// DailySummary is the nutrition dashboard of one calendar day.
type DailySummary struct {
	Date              string             `json:"date"` // YYYY-MM-DD in the configured timezone
	Totals            domain.DailyTotals `json:"totals"`
	Tracked           []MetricSummary    `json:"tracked"`
	EntryCount        int                `json:"entryCount"`
	NeedsVerification int                `json:"needsVerification"`
}

// PhotoUpload is a presigned PUT for a meal photo.
type PhotoUpload struct {
	URL       string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type NutritionService interface {
	LogManual(ctx context.Context, userID primitive.ObjectID, in ManualEntryInput) (*domain.NutritionEntry, error)
	LogFromSearch(ctx context.Context, userID primitive.ObjectID, query string, quantity float64, meal domain.MealType) (*domain.NutritionEntry, error)
	LogFromBarcode(ctx context.Context, userID primitive.ObjectID, code string, quantity float64, meal domain.MealType) (*domain.NutritionEntry, error)
	// LogFromFavorite logs a previous entry again. The new entry is marked
	// favorite when the source is one, recent otherwise.
	LogFromFavorite(ctx context.Context, userID, entryID primitive.ObjectID, quantity *float64, meal *domain.MealType) (*domain.NutritionEntry, error)

	GetEntry(ctx context.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error)
	ListEntries(ctx context.Context, userID primitive.ObjectID, filter EntryFilter) ([]*domain.NutritionEntry, error)

	UpdateQuantity(ctx context.Context, userID, entryID primitive.ObjectID, quantity float64) (*domain.NutritionEntry, error)
	SetFavorite(ctx context.Context, userID, entryID primitive.ObjectID, favorite bool) (*domain.NutritionEntry, error)
	UpdateNutrition(ctx context.Context, userID, entryID primitive.ObjectID, u domain.NutritionUpdate) (*domain.NutritionEntry, error)
	SetAIData(ctx context.Context, userID, entryID primitive.ObjectID, confidence float64, foodDatabaseID string) (*domain.NutritionEntry, error)
	SetBarcodeData(ctx context.Context, userID, entryID primitive.ObjectID, barcode, foodDatabaseID string) (*domain.NutritionEntry, error)
	Verify(ctx context.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error)

	DuplicateEntry(ctx context.Context, userID, entryID primitive.ObjectID, quantity *float64, meal *domain.MealType) (*domain.NutritionEntry, error)
	// DeleteEntry returns the deleted entry so it can be restored.
	DeleteEntry(ctx context.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error)
	RestoreEntry(ctx context.Context, userID primitive.ObjectID, snapshot *domain.NutritionEntry) (*domain.NutritionEntry, error)

	DailySummary(ctx context.Context, userID primitive.ObjectID, day time.Time) (*DailySummary, error)
	Settings() NutritionSettings

	RequestPhotoUploadURL(ctx context.Context, userID, entryID primitive.ObjectID, contentType string) (*PhotoUpload, error)
	PhotoDownloadURL(ctx context.Context, userID, entryID primitive.ObjectID) (string, error)
}

type nutritionService struct {
	entryRepo repository.NutritionEntryRepository
	lookup    fooddata.Lookup
	files     storage.FileStorage // nil when photos are disabled
	clock     clock.Clock
	metrics   metrics.Recorder
	settings  NutritionSettings
	locks     *lockTable
}

// NewNutritionService creates a new instance of nutritionService. files and rec may be nil.
func NewNutritionService(
	entryRepo repository.NutritionEntryRepository,
	lookup fooddata.Lookup,
	files storage.FileStorage,
	clk clock.Clock,
	rec metrics.Recorder,
	settings NutritionSettings,
) NutritionService {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &nutritionService{
		entryRepo: entryRepo,
		lookup:    lookup,
		files:     files,
		clock:     clk,
		metrics:   recorderOrNoop(rec),
		settings:  settings,
		locks:     newLockTable(),
	}
}

func (s *nutritionService) Settings() NutritionSettings {
	return s.settings
}

func (s *nutritionService) LogManual(ctx context.Context, userID primitive.ObjectID, in ManualEntryInput) (*domain.NutritionEntry, error) {
	e, err := domain.NewNutritionEntry(domain.NewEntryParams{
		UserID:      userID,
		FoodName:    in.FoodName,
		Brand:       in.Brand,
		ServingSize: in.ServingSize,
		Quantity:    in.Quantity,
		LoggedAt:    in.LoggedAt,
		MealType:    in.MealType,
		LogMethod:   domain.LogManual,
		Nutrition:   in.Nutrition,
		Notes:       in.Notes,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, e)
}

func (s *nutritionService) LogFromSearch(ctx context.Context, userID primitive.ObjectID, query string, quantity float64, meal domain.MealType) (*domain.NutritionEntry, error) {
	rec, err := s.lookup.Search(ctx, query)
	if err != nil {
		log.Errorf("food search %q: %v", query, err)
		return nil, fmt.Errorf("%w: %w", ErrFoodLookup, err)
	}
	if rec == nil {
		return nil, ErrFoodNotFound
	}
	e, err := domain.NewEntryFromFood(userID, *rec, quantity, meal, domain.LogSearch, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, e)
}

func (s *nutritionService) LogFromBarcode(ctx context.Context, userID primitive.ObjectID, code string, quantity float64, meal domain.MealType) (*domain.NutritionEntry, error) {
	rec, err := s.lookup.Barcode(ctx, code)
	if err != nil {
		log.Errorf("barcode lookup %q: %v", code, err)
		return nil, fmt.Errorf("%w: %w", ErrFoodLookup, err)
	}
	if rec == nil {
		return nil, ErrFoodNotFound
	}
	e, err := domain.NewEntryFromFood(userID, *rec, quantity, meal, domain.LogBarcode, s.clock.Now())
	if err != nil {
		return nil, err
	}
	e.SetBarcodeData(code, rec.FoodDatabaseID)
	return s.insert(ctx, e)
}

func (s *nutritionService) LogFromFavorite(ctx context.Context, userID, entryID primitive.ObjectID, quantity *float64, meal *domain.MealType) (*domain.NutritionEntry, error) {
	src, err := s.load(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	dup, err := src.Duplicate(quantity, meal, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if src.IsFavorite {
		dup.LogMethod = domain.LogFavorite
	} else {
		dup.LogMethod = domain.LogRecent
	}
	return s.insert(ctx, dup)
}

func (s *nutritionService) GetEntry(ctx context.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error) {
	return s.load(ctx, userID, entryID)
}

func (s *nutritionService) ListEntries(ctx context.Context, userID primitive.ObjectID, filter EntryFilter) ([]*domain.NutritionEntry, error) {
	entries, err := s.entryRepo.List(ctx, repository.EntryQuery{
		UserID:        userID,
		From:          filter.From,
		To:            filter.To,
		MealType:      filter.MealType,
		FavoritesOnly: filter.FavoritesOnly,
		SortBy:        s.settings.SortBy,
		Descending:    s.settings.Descending,
	})
	if err != nil {
		return nil, persistence("list entries", err)
	}
	return entries, nil
}

func (s *nutritionService) UpdateQuantity(ctx context.Context, userID, entryID primitive.ObjectID, quantity float64) (*domain.NutritionEntry, error) {
	return s.mutate(ctx, userID, entryID, func(e *domain.NutritionEntry) error {
		return e.UpdateQuantity(quantity)
	})
}

func (s *nutritionService) SetFavorite(ctx context.Context, userID, entryID primitive.ObjectID, favorite bool) (*domain.NutritionEntry, error) {
	return s.mutate(ctx, userID, entryID, func(e *domain.NutritionEntry) error {
		if favorite {
			e.MarkAsFavorite()
		} else {
			e.RemoveFromFavorites()
		}
		return nil
	})
}

func (s *nutritionService) UpdateNutrition(ctx context.Context, userID, entryID primitive.ObjectID, u domain.NutritionUpdate) (*domain.NutritionEntry, error) {
	return s.mutate(ctx, userID, entryID, func(e *domain.NutritionEntry) error {
		return e.UpdateNutrition(u)
	})
}

func (s *nutritionService) SetAIData(ctx context.Context, userID, entryID primitive.ObjectID, confidence float64, foodDatabaseID string) (*domain.NutritionEntry, error) {
	return s.mutate(ctx, userID, entryID, func(e *domain.NutritionEntry) error {
		return e.SetAIData(confidence, foodDatabaseID)
	})
}

func (s *nutritionService) SetBarcodeData(ctx context.Context, userID, entryID primitive.ObjectID, barcode, foodDatabaseID string) (*domain.NutritionEntry, error) {
	return s.mutate(ctx, userID, entryID, func(e *domain.NutritionEntry) error {
		e.SetBarcodeData(barcode, foodDatabaseID)
		return nil
	})
}

func (s *nutritionService) Verify(ctx context.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error) {
	return s.mutate(ctx, userID, entryID, func(e *domain.NutritionEntry) error {
		e.Verify()
		return nil
	})
}

func (s *nutritionService) DuplicateEntry(ctx context.Context, userID, entryID primitive.ObjectID, quantity *float64, meal *domain.MealType) (*domain.NutritionEntry, error) {
	src, err := s.load(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	dup, err := src.Duplicate(quantity, meal, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, dup)
}

func (s *nutritionService) DeleteEntry(ctx context.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error) {
	unlock := s.locks.lock(entryID)
	defer unlock()

	e, err := s.load(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if err := s.entryRepo.Delete(ctx, entryID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, persistence("delete entry", err)
	}
	return e, nil
}

func (s *nutritionService) RestoreEntry(ctx context.Context, userID primitive.ObjectID, snapshot *domain.NutritionEntry) (*domain.NutritionEntry, error) {
	if snapshot == nil || snapshot.UserID != userID {
		return nil, ErrEntryNotFound
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(snapshot.ID)
	defer unlock()

	if _, err := s.entryRepo.Create(ctx, snapshot); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEntryExists
		}
		return nil, persistence("restore entry", err)
	}
	return snapshot, nil
}

// DailySummary aggregates the calendar day containing day, in the configured timezone.
func (s *nutritionService) DailySummary(ctx context.Context, userID primitive.ObjectID, day time.Time) (*DailySummary, error) {
	start, end := domain.DayBounds(day, s.settings.Location)
	entries, err := s.entryRepo.List(ctx, repository.EntryQuery{
		UserID: userID,
		From:   start,
		To:     end,
		SortBy: repository.SortLoggedAt,
	})
	if err != nil {
		return nil, persistence("list day entries", err)
	}

	totals := domain.AggregateDay(entries, day, s.settings.Location)
	summary := &DailySummary{
		Date:       start.Format(time.DateOnly),
		Totals:     totals,
		Tracked:    make([]MetricSummary, 0, len(s.settings.TrackedMetrics)),
		EntryCount: len(entries),
	}
	for _, e := range entries {
		if e.NeedsVerification() {
			summary.NeedsVerification++
		}
	}
	for _, m := range s.settings.TrackedMetrics {
		info, ok := domain.LookupMetric(m)
		if !ok {
			continue
		}
		consumed := totals.Get(m)
		summary.Tracked = append(summary.Tracked, MetricSummary{
			MetricInfo: info,
			Consumed:   consumed,
			Remaining:  info.Remaining(consumed),
			Display:    info.Display(consumed),
		})
	}
	return summary, nil
}

// RequestPhotoUploadURL attaches a fresh object key to the entry and returns a
// presigned PUT for it. A previous photo is deleted once the entry is saved.
func (s *nutritionService) RequestPhotoUploadURL(ctx context.Context, userID, entryID primitive.ObjectID, contentType string) (*PhotoUpload, error) {
	if s.files == nil {
		return nil, ErrPhotoStorageDisabled
	}
	key, err := storage.MealPhotoKey(userID.Hex(), entryID.Hex(), contentType)
	if err != nil {
		return nil, err
	}

	var (
		upload  *PhotoUpload
		oldKey  string
		expires = storage.DefaultPresignedURLExpiry
	)
	_, err = s.mutate(ctx, userID, entryID, func(e *domain.NutritionEntry) error {
		url, err := s.files.GeneratePresignedUploadURL(ctx, key, contentType, expires)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStorage, err)
		}
		oldKey = e.PhotoKey
		e.PhotoKey = key
		upload = &PhotoUpload{URL: url, ObjectKey: key, ExpiresAt: s.clock.Now().Add(expires)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if oldKey != "" {
		if err := s.files.DeleteObject(ctx, oldKey); err != nil {
			log.Warnf("failed to delete replaced meal photo %s: %v", oldKey, err)
		}
	}
	return upload, nil
}

func (s *nutritionService) PhotoDownloadURL(ctx context.Context, userID, entryID primitive.ObjectID) (string, error) {
	if s.files == nil {
		return "", ErrPhotoStorageDisabled
	}
	e, err := s.load(ctx, userID, entryID)
	if err != nil {
		return "", err
	}
	if e.PhotoKey == "" {
		return "", ErrPhotoNotFound
	}
	url, err := s.files.GeneratePresignedDownloadURL(ctx, e.PhotoKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return url, nil
}

func (s *nutritionService) insert(ctx context.Context, e *domain.NutritionEntry) (*domain.NutritionEntry, error) {
	if _, err := s.entryRepo.Create(ctx, e); err != nil {
		return nil, persistence("create entry", err)
	}
	s.metrics.EntryLogged(e.LogMethod)
	return e, nil
}

func (s *nutritionService) load(ctx context.Context, userID, entryID primitive.ObjectID) (*domain.NutritionEntry, error) {
	e, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, persistence("load entry", err)
	}
	if e.UserID != userID {
		return nil, ErrEntryNotFound
	}
	return e, nil
}

// mutate is lock → load → fn → save for one entry.
func (s *nutritionService) mutate(ctx context.Context, userID, entryID primitive.ObjectID, fn func(*domain.NutritionEntry) error) (*domain.NutritionEntry, error) {
	unlock := s.locks.lock(entryID)
	defer unlock()

	e, err := s.load(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if err := fn(e); err != nil {
		return nil, err
	}
	e.UpdatedAt = s.clock.Now()
	if err := s.entryRepo.Update(ctx, e); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, persistence("save entry", err)
	}
	return e, nil
}
