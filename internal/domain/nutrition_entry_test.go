package domain_test

import (
	"math"
	"testing"
	"time"

	"alcyxob/fittrack/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestEntry(t *testing.T, facts domain.NutritionFacts, quantity float64, loggedAt time.Time) *domain.NutritionEntry {
	t.Helper()
	e, err := domain.NewNutritionEntry(domain.NewEntryParams{
		UserID:      primitive.NewObjectID(),
		FoodName:    "Greek Yogurt",
		Brand:       "Fage",
		ServingSize: "170 g",
		Quantity:    quantity,
		LoggedAt:    loggedAt,
		MealType:    domain.MealBreakfast,
		Nutrition:   facts,
	}, testNow)
	require.NoError(t, err)
	return e
}

func TestNewNutritionEntry_Defaults(t *testing.T) {
	e, err := domain.NewNutritionEntry(domain.NewEntryParams{FoodName: " Apple ", Quantity: 1}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Apple", e.FoodName)
	assert.Equal(t, domain.MealOther, e.MealType)
	assert.Equal(t, domain.LogManual, e.LogMethod)
	assert.Equal(t, testNow, e.LoggedAt)
	assert.False(t, e.IsVerified)
	assert.Equal(t, "Apple", e.DisplayName())
}

func TestNewNutritionEntry_Validation(t *testing.T) {
	tests := []struct {
		name string
		p    domain.NewEntryParams
	}{
		{"missing name", domain.NewEntryParams{Quantity: 1}},
		{"negative quantity", domain.NewEntryParams{FoodName: "x", Quantity: -1}},
		{"unknown meal", domain.NewEntryParams{FoodName: "x", MealType: "brunch"}},
		{"unknown method", domain.NewEntryParams{FoodName: "x", LogMethod: "telepathy"}},
		{"negative calories", domain.NewEntryParams{FoodName: "x", Nutrition: domain.NutritionFacts{Calories: -5}}},
		{"negative sodium", domain.NewEntryParams{FoodName: "x", Nutrition: domain.NutritionFacts{Sodium: floatPtr(-1)}}},
		{"unknown extended", domain.NewEntryParams{FoodName: "x", Nutrition: domain.NutritionFacts{
			Extended: map[domain.MetricType]float64{"unobtainium": 1},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewNutritionEntry(tt.p, testNow)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestNutritionEntry_Totals(t *testing.T) {
	e := newTestEntry(t, domain.NutritionFacts{
		Calories: 200,
		Protein:  10,
		Fiber:    floatPtr(2),
		Extended: map[domain.MetricType]float64{domain.MetricCalcium: 100},
	}, 1.5, testNow)

	assert.Equal(t, 300.0, e.TotalCalories())
	assert.Equal(t, 15.0, e.TotalProtein())
	assert.Equal(t, 3.0, e.TotalFiber())
	assert.Zero(t, e.TotalSugar(), "absent optional metric")
	assert.Equal(t, 150.0, e.Total(domain.MetricCalcium))
	assert.Equal(t, "Greek Yogurt (Fage)", e.DisplayName())

	totals := e.Totals()
	assert.Equal(t, 300.0, totals[domain.MetricCalories])
	assert.Equal(t, 150.0, totals[domain.MetricCalcium])
	assert.Contains(t, totals, domain.MetricFat)
	assert.NotContains(t, totals, domain.MetricSugar)
}

func TestNutritionEntry_NeedsVerification(t *testing.T) {
	e := newTestEntry(t, domain.NutritionFacts{Calories: 100}, 1, testNow)
	assert.False(t, e.NeedsVerification(), "no confidence")

	require.NoError(t, e.SetAIData(0.79, "off:1"))
	assert.True(t, e.NeedsVerification())
	assert.Equal(t, domain.LogAICamera, e.LogMethod)

	require.NoError(t, e.SetAIData(0.8, "off:1"))
	assert.False(t, e.NeedsVerification())

	assert.ErrorIs(t, e.SetAIData(1.2, ""), domain.ErrValidation)
	assert.ErrorIs(t, e.SetAIData(-0.1, ""), domain.ErrValidation)
	assert.ErrorIs(t, e.SetAIData(math.NaN(), ""), domain.ErrValidation)
	assert.Equal(t, 0.8, *e.AIConfidence, "rejected values are not applied")
}

func TestNutritionFacts_ExtendedCannotShadowFields(t *testing.T) {
	for _, m := range []domain.MetricType{
		domain.MetricCalories, domain.MetricProtein, domain.MetricCarbohydrates, domain.MetricFat,
		domain.MetricFiber, domain.MetricSugar, domain.MetricSodium,
	} {
		t.Run(string(m), func(t *testing.T) {
			_, err := domain.NewNutritionEntry(domain.NewEntryParams{
				FoodName:  "Toast",
				Quantity:  1,
				Nutrition: domain.NutritionFacts{Calories: 200, Extended: map[domain.MetricType]float64{m: 900}},
			}, testNow)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	e := newTestEntry(t, domain.NutritionFacts{Calories: 200}, 1, testNow)
	err := e.UpdateNutrition(domain.NutritionUpdate{Extended: map[domain.MetricType]float64{domain.MetricFiber: 40}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, e.TotalCalories(), e.Totals()[domain.MetricCalories])
	assert.NotContains(t, e.Totals(), domain.MetricFiber)
}

func TestNutritionEntry_RejectsNonFiniteValues(t *testing.T) {
	e := newTestEntry(t, domain.NutritionFacts{Calories: 100}, 1, testNow)
	assert.ErrorIs(t, e.UpdateQuantity(math.NaN()), domain.ErrValidation)
	assert.ErrorIs(t, e.UpdateQuantity(math.Inf(1)), domain.ErrValidation)
	assert.Equal(t, 1.0, e.Quantity)

	nan := math.NaN()
	assert.ErrorIs(t, e.UpdateNutrition(domain.NutritionUpdate{Calories: &nan}), domain.ErrValidation)
	assert.Equal(t, 100.0, e.Nutrition.Calories)
}

func TestNutritionEntry_Validate(t *testing.T) {
	require.NoError(t, newTestEntry(t, domain.NutritionFacts{Calories: 100}, 1, testNow).Validate())

	tests := []struct {
		name   string
		mutate func(e *domain.NutritionEntry)
	}{
		{"zero id", func(e *domain.NutritionEntry) { e.ID = primitive.NilObjectID }},
		{"zero user", func(e *domain.NutritionEntry) { e.UserID = primitive.NilObjectID }},
		{"blank name", func(e *domain.NutritionEntry) { e.FoodName = " " }},
		{"negative quantity", func(e *domain.NutritionEntry) { e.Quantity = -3 }},
		{"no logged time", func(e *domain.NutritionEntry) { e.LoggedAt = time.Time{} }},
		{"unknown meal", func(e *domain.NutritionEntry) { e.MealType = "brunchzilla" }},
		{"unknown method", func(e *domain.NutritionEntry) { e.LogMethod = "" }},
		{"confidence above one", func(e *domain.NutritionEntry) { e.AIConfidence = floatPtr(7.5) }},
		{"negative fat", func(e *domain.NutritionEntry) { e.Nutrition.Fat = -1 }},
		{"shadowed calories", func(e *domain.NutritionEntry) {
			e.Nutrition.Extended = map[domain.MetricType]float64{domain.MetricCalories: 900}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEntry(t, domain.NutritionFacts{Calories: 100}, 1, testNow)
			tt.mutate(e)
			assert.ErrorIs(t, e.Validate(), domain.ErrValidation)
		})
	}
}

func TestNutritionEntry_SetBarcodeData(t *testing.T) {
	e := newTestEntry(t, domain.NutritionFacts{Calories: 100}, 1, testNow)
	e.SetBarcodeData("5201054017203", "off:5201054017203")
	assert.Equal(t, domain.LogBarcode, e.LogMethod)
	assert.True(t, e.IsVerified)
	assert.Equal(t, "5201054017203", e.Barcode)
}

func TestNutritionEntry_UpdateQuantity(t *testing.T) {
	e := newTestEntry(t, domain.NutritionFacts{Calories: 100}, 1, testNow)
	assert.ErrorIs(t, e.UpdateQuantity(-2), domain.ErrValidation)
	assert.Equal(t, 1.0, e.Quantity)
	require.NoError(t, e.UpdateQuantity(2.5))
	assert.Equal(t, 250.0, e.TotalCalories())
}

func TestNutritionEntry_UpdateNutritionIsAllOrNothing(t *testing.T) {
	e := newTestEntry(t, domain.NutritionFacts{Calories: 100, Protein: 5}, 1, testNow)

	err := e.UpdateNutrition(domain.NutritionUpdate{Calories: floatPtr(150), Fat: floatPtr(-1)})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 100.0, e.Nutrition.Calories)

	err = e.UpdateNutrition(domain.NutritionUpdate{Extended: map[domain.MetricType]float64{domain.MetricIron: -3}})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, e.Nutrition.Extended)

	require.NoError(t, e.UpdateNutrition(domain.NutritionUpdate{
		Calories: floatPtr(150),
		Sugar:    floatPtr(4),
		Extended: map[domain.MetricType]float64{domain.MetricIron: 1.2},
	}))
	require.NoError(t, e.UpdateNutrition(domain.NutritionUpdate{
		Extended: map[domain.MetricType]float64{domain.MetricZinc: 0.5},
	}))
	assert.Equal(t, 150.0, e.Nutrition.Calories)
	assert.Equal(t, 5.0, e.Nutrition.Protein)
	assert.Equal(t, 4.0, *e.Nutrition.Sugar)
	assert.Equal(t, map[domain.MetricType]float64{domain.MetricIron: 1.2, domain.MetricZinc: 0.5}, e.Nutrition.Extended)
}

func TestNutritionEntry_Duplicate(t *testing.T) {
	e := newTestEntry(t, domain.NutritionFacts{Calories: 100, Sodium: floatPtr(50)}, 1, testNow.Add(-24*time.Hour))
	e.SetBarcodeData("123", "off:123")
	e.MarkAsFavorite()
	e.PhotoKey = "meals/u/e/photo.jpg"

	later := testNow.Add(time.Hour)
	q := 2.0
	meal := domain.MealSnack
	dup, err := e.Duplicate(&q, &meal, later)
	require.NoError(t, err)

	assert.NotEqual(t, e.ID, dup.ID)
	assert.Equal(t, e.UserID, dup.UserID)
	assert.Equal(t, later, dup.LoggedAt)
	assert.Equal(t, 2.0, dup.Quantity)
	assert.Equal(t, domain.MealSnack, dup.MealType)
	assert.Equal(t, domain.LogManual, dup.LogMethod)
	assert.Equal(t, "123", dup.Barcode)
	assert.True(t, dup.IsVerified)
	assert.False(t, dup.IsFavorite)
	assert.Empty(t, dup.PhotoKey)
	assert.Nil(t, dup.AIConfidence)

	*dup.Nutrition.Sodium = 0
	assert.Equal(t, 50.0, *e.Nutrition.Sodium, "facts are deep-copied")

	same, err := e.Duplicate(nil, nil, later)
	require.NoError(t, err)
	assert.Equal(t, e.Quantity, same.Quantity)
	assert.Equal(t, e.MealType, same.MealType)

	bad := -1.0
	_, err = e.Duplicate(&bad, nil, later)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNewEntryFromFood(t *testing.T) {
	rec := domain.FoodRecord{
		Name:           "Oat Milk",
		Brand:          "Oatly",
		ServingSize:    "250 ml",
		Nutrition:      domain.NutritionFacts{Calories: 120},
		FoodDatabaseID: "off:7394376616037",
		IsVerified:     true,
	}
	e, err := domain.NewEntryFromFood(primitive.NewObjectID(), rec, 2, domain.MealBreakfast, domain.LogSearch, testNow)
	require.NoError(t, err)
	assert.Equal(t, domain.LogSearch, e.LogMethod)
	assert.Equal(t, "off:7394376616037", e.FoodDatabaseID)
	assert.True(t, e.IsVerified)
	assert.Equal(t, 240.0, e.TotalCalories())
}

func TestNutritionEntry_IsToday(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 23:30 UTC on the 10th is already the 11th in Berlin.
	e := newTestEntry(t, domain.NutritionFacts{}, 1, time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC))
	assert.True(t, e.IsToday(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), time.UTC))
	assert.False(t, e.IsToday(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), berlin))
	assert.True(t, e.IsToday(time.Date(2025, 3, 11, 8, 0, 0, 0, berlin), berlin))
}
