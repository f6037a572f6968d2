package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alcyxob/fittrack/internal/clock"
	"alcyxob/fittrack/internal/domain"
	fooddatamocks "alcyxob/fittrack/internal/fooddata/mocks"
	"alcyxob/fittrack/internal/repository/memory"
	"alcyxob/fittrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	clock  *clock.Fake
	lookup *fooddatamocks.MockLookup
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctrl := gomock.NewController(t)
	s := &testServer{
		router: gin.New(),
		clock:  clock.NewFake(testNow),
		lookup: fooddatamocks.NewMockLookup(ctrl),
	}
	SetupRoutes(s.router, Dependencies{
		// Token expiry is checked against the wall clock.
		AuthService:      service.NewAuthService(memory.NewUserRepository(), clock.System(), "api-test-secret", time.Hour),
		WorkoutService:   service.NewWorkoutService(memory.NewWorkoutRepository(), s.clock, nil),
		NutritionService: service.NewNutritionService(memory.NewNutritionEntryRepository(), s.lookup, nil, s.clock, nil, service.DefaultNutritionSettings()),
		Clock:            s.clock,
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// login registers a user and returns its bearer token.
func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Ada", "email": email, "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, email, resp.User.Email)
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decode(t, rec, &body)
	return body["error"]
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Ada", "email": "ada@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token := s.login(t, "ada@example.com")

	rec = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "Ada", "email": "ADA@example.com", "password": "correct-horse"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]string
	decode(t, rec, &me)
	assert.Len(t, me["userId"], 24)

	rec = s.do(t, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authorization header is missing", errorMessage(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Token "+token)
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusUnauthorized, raw.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkoutEndpoints_Session(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "ada@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/workouts", token, gin.H{"name": "Push A"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created WorkoutResponse
	decode(t, rec, &created)
	assert.Equal(t, domain.WorkoutPlanned, created.Status)
	base := "/api/v1/workouts/" + created.ID.Hex()

	rec = s.do(t, http.MethodPost, base+"/exercises", token, gin.H{"name": "Bench Press", "type": "resistance", "restTime": 60})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var exResp ExerciseResponse
	decode(t, rec, &exResp)
	assert.Equal(t, 60, exResp.Exercise.RestTime)
	exBase := base + "/exercises/" + exResp.Exercise.ID.Hex()

	rec = s.do(t, http.MethodPost, exBase+"/sets", token, gin.H{"weight": 60, "reps": 8})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var first SetResponse
	decode(t, rec, &first)
	assert.Equal(t, 60.0, first.Set.Weight)
	assert.Equal(t, 8, first.Set.Reps)

	rec = s.do(t, http.MethodPost, exBase+"/sets?progressive=true", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var second SetResponse
	decode(t, rec, &second)
	assert.Equal(t, 62.5, second.Set.Weight)
	assert.Equal(t, 1, second.Set.Order)

	rec = s.do(t, http.MethodPost, base+"/start", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var started TransitionResponse
	decode(t, rec, &started)
	assert.True(t, started.Accepted)
	assert.Equal(t, domain.WorkoutPlanned, started.From)
	assert.Equal(t, domain.WorkoutInProgress, started.To)

	// Starting twice is answered, not failed.
	rec = s.do(t, http.MethodPost, base+"/start", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var again TransitionResponse
	decode(t, rec, &again)
	assert.False(t, again.Accepted)
	assert.Equal(t, domain.WorkoutInProgress, again.Workout.Status)

	rec = s.do(t, http.MethodPost, exBase+"/sets/"+first.Set.ID.Hex()+"/complete", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var afterSet WorkoutResponse
	decode(t, rec, &afterSet)
	assert.Equal(t, 2, afterSet.Stats.TotalSets)
	assert.Equal(t, 1, afterSet.Stats.CompletedSets)
	assert.Equal(t, 50.0, afterSet.Stats.CompletionPercentage)
	assert.Equal(t, 980.0, afterSet.Stats.TotalWeight)
	require.Len(t, afterSet.Stats.Exercises, 1)
	assert.False(t, afterSet.Stats.Exercises[0].IsCompleted)

	rec = s.do(t, http.MethodGet, exBase+"/rest", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rest RestResponse
	decode(t, rec, &rest)
	assert.True(t, rest.InRest)
	assert.InDelta(t, 60, rest.RemainingSeconds, 1e-9)

	s.clock.Advance(45 * time.Minute)
	rec = s.do(t, http.MethodPost, base+"/complete", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var done TransitionResponse
	decode(t, rec, &done)
	assert.True(t, done.Accepted)
	require.NotNil(t, done.Workout.Stats.DurationSeconds)
	assert.Equal(t, 2700.0, *done.Workout.Stats.DurationSeconds)

	rec = s.do(t, http.MethodPost, base+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cancelled TransitionResponse
	decode(t, rec, &cancelled)
	assert.False(t, cancelled.Accepted, "completed workouts cannot be cancelled")
	assert.Equal(t, domain.WorkoutCompleted, cancelled.Workout.Status)

	rec = s.do(t, http.MethodGet, "/api/v1/workouts?status=completed", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []WorkoutResponse
	decode(t, rec, &list)
	assert.Len(t, list, 1)

	rec = s.do(t, http.MethodGet, "/api/v1/workouts?status=paused", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkoutEndpoints_DeleteAndRestore(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "ada@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/workouts", token, gin.H{"name": "Legs"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created WorkoutResponse
	decode(t, rec, &created)
	base := "/api/v1/workouts/" + created.ID.Hex()

	rec = s.do(t, http.MethodPost, base+"/exercises", token, gin.H{"name": "Squat"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var exResp ExerciseResponse
	decode(t, rec, &exResp)
	rec = s.do(t, http.MethodPost, base+"/exercises/"+exResp.Exercise.ID.Hex()+"/sets", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodDelete, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snapshot := rec.Body.Bytes()

	rec = s.do(t, http.MethodGet, base, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/workouts/restore", token, snapshot)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/workouts/restore", token, snapshot)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var restored WorkoutResponse
	decode(t, rec, &restored)
	require.Len(t, restored.Exercises, 1)
	assert.Len(t, restored.Exercises[0].Sets, 1)
	assert.Equal(t, exResp.Exercise.ID, restored.Exercises[0].ID)

	// Template round trip.
	rec = s.do(t, http.MethodPost, base+"/template", token, gin.H{"name": "Legs template"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var tpl WorkoutResponse
	decode(t, rec, &tpl)
	assert.True(t, tpl.IsTemplate)

	rec = s.do(t, http.MethodPost, "/api/v1/workouts/"+tpl.ID.Hex()+"/instantiate", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var session WorkoutResponse
	decode(t, rec, &session)
	assert.False(t, session.IsTemplate)
	assert.Equal(t, "Legs template", session.Name)

	rec = s.do(t, http.MethodPost, base+"/instantiate", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "not a template")
}

func TestWorkoutEndpoints_Errors(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "ada@example.com")
	other := s.login(t, "grace@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/workouts", token, gin.H{"notes": "no name"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/workouts/xyz", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid id format.", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/api/v1/workouts", token, gin.H{"name": "Mine"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created WorkoutResponse
	decode(t, rec, &created)
	base := "/api/v1/workouts/" + created.ID.Hex()

	rec = s.do(t, http.MethodGet, base, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodDelete, base, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/exercises", token, gin.H{"name": "Yoga flow", "type": "yoga"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, base+"/exercises/"+created.ID.Hex(), token, gin.H{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/exercises", token, gin.H{"name": "Row"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var exResp ExerciseResponse
	decode(t, rec, &exResp)
	rec = s.do(t, http.MethodPost, base+"/exercises/"+exResp.Exercise.ID.Hex()+"/sets", token, gin.H{"reps": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/workouts/restore", token, gin.H{
		"id":          primitive.NewObjectID().Hex(),
		"userId":      created.UserID.Hex(),
		"name":        "Forged",
		"status":      "completed",
		"completedAt": testNow,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "restored workouts must be reachable through the lifecycle")
}

func TestNutritionEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "ada@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/nutrition/entries", token, gin.H{
		"foodName":  "Oats",
		"quantity":  2,
		"mealType":  "breakfast",
		"nutrition": gin.H{"calories": 150, "protein": 5},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var oats EntryResponse
	decode(t, rec, &oats)
	assert.Equal(t, domain.LogManual, oats.LogMethod)
	assert.Equal(t, 300.0, oats.Totals[domain.MetricCalories])
	assert.False(t, oats.HasPhoto)

	rec = s.do(t, http.MethodPost, "/api/v1/nutrition/entries", token, gin.H{"foodName": "Oats", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/nutrition/entries", token, gin.H{"foodName": "Oats", "quantity": 1, "mealType": "brunch"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.lookup.EXPECT().Search(gomock.Any(), "nutella").Return(&domain.FoodRecord{
		Name:           "Nutella",
		ServingSize:    "15 g",
		Nutrition:      domain.NutritionFacts{Calories: 80},
		FoodDatabaseID: "off:3017620422003",
	}, nil)
	rec = s.do(t, http.MethodPost, "/api/v1/nutrition/entries/search", token, gin.H{"query": "nutella", "quantity": 1, "mealType": "snack"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var nutella EntryResponse
	decode(t, rec, &nutella)
	assert.Equal(t, domain.LogSearch, nutella.LogMethod)
	assert.Equal(t, "off:3017620422003", nutella.FoodDatabaseID)

	s.lookup.EXPECT().Search(gomock.Any(), "unobtainium").Return(nil, nil)
	rec = s.do(t, http.MethodPost, "/api/v1/nutrition/entries/search", token, gin.H{"query": "unobtainium", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.lookup.EXPECT().Barcode(gomock.Any(), "737628064502").Return(nil, errors.New("connection refused"))
	rec = s.do(t, http.MethodPost, "/api/v1/nutrition/entries/barcode", token, gin.H{"barcode": "737628064502", "quantity": 1})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Food database is unavailable.", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/api/v1/nutrition/entries/search", token, gin.H{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/nutrition/daily?date=2025-03-10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary service.DailySummary
	decode(t, rec, &summary)
	assert.Equal(t, "2025-03-10", summary.Date)
	assert.Equal(t, 2, summary.EntryCount)
	assert.Equal(t, 380.0, summary.Totals[domain.MetricCalories])

	rec = s.do(t, http.MethodGet, "/api/v1/nutrition/daily?date=2025-03-11", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &summary)
	assert.Zero(t, summary.EntryCount)

	rec = s.do(t, http.MethodGet, "/api/v1/nutrition/daily?date=10.03.2025", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/nutrition/entries?meal=breakfast", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var breakfast []EntryResponse
	decode(t, rec, &breakfast)
	require.Len(t, breakfast, 1)
	assert.Equal(t, oats.ID, breakfast[0].ID)

	rec = s.do(t, http.MethodGet, "/api/v1/nutrition/entries?from=yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	entry := "/api/v1/nutrition/entries/" + oats.ID.Hex()
	rec = s.do(t, http.MethodPost, entry+"/favorite", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fav EntryResponse
	decode(t, rec, &fav)
	assert.True(t, fav.IsFavorite)

	rec = s.do(t, http.MethodPost, entry+"/log-again", token, gin.H{"quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var again EntryResponse
	decode(t, rec, &again)
	assert.Equal(t, domain.LogFavorite, again.LogMethod)
	assert.Equal(t, 150.0, again.Totals[domain.MetricCalories])

	rec = s.do(t, http.MethodPatch, entry+"/quantity", token, gin.H{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated EntryResponse
	decode(t, rec, &updated)
	assert.Equal(t, 450.0, updated.Totals[domain.MetricCalories])

	rec = s.do(t, http.MethodPost, entry+"/photo", token, gin.H{"contentType": "image/jpeg"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/nutrition/metrics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var catalogue []domain.MetricInfo
	decode(t, rec, &catalogue)
	assert.NotEmpty(t, catalogue)

	rec = s.do(t, http.MethodDelete, entry, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snapshot := rec.Body.Bytes()
	rec = s.do(t, http.MethodGet, entry, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/v1/nutrition/entries/restore", token, snapshot)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/v1/nutrition/entries/restore", token, snapshot)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
