package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutHandler struct {
	workoutService service.WorkoutService
}

func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---

type CreateWorkoutRequest struct {
	Name  string `json:"name" binding:"required"`
	Notes string `json:"notes"`
}

// NameRequest names a copied workout; empty keeps the source name.
type NameRequest struct {
	Name string `json:"name"`
}

type AddExerciseRequest struct {
	Name     string              `json:"name" binding:"required"`
	Type     domain.ExerciseType `json:"type" binding:"omitempty,oneof=resistance cardio recovery"`
	Category string              `json:"category"`
	Notes    string              `json:"notes"`
	RestTime *int                `json:"restTime"` // Seconds
}

// WorkoutStats are the derived figures of a workout.
type WorkoutStats struct {
	DurationSeconds      *float64        `json:"durationSeconds,omitempty"`
	TotalSets            int             `json:"totalSets"`
	CompletedSets        int             `json:"completedSets"`
	TotalWeight          float64         `json:"totalWeight"`
	CompletionPercentage float64         `json:"completionPercentage"`
	Exercises            []ExerciseStats `json:"exercises"`
}

type ExerciseStats struct {
	ID            string  `json:"id"`
	TotalVolume   float64 `json:"totalVolume"`
	TotalDuration float64 `json:"totalDuration"`
	CompletedSets int     `json:"completedSets"`
	IsCompleted   bool    `json:"isCompleted"`
}

// WorkoutResponse is the workout document plus its derived stats. Posting it
// back to /workouts/restore recreates the workout.
type WorkoutResponse struct {
	*domain.Workout
	Stats WorkoutStats `json:"stats"`
}

type TransitionResponse struct {
	domain.TransitionResult
	Workout WorkoutResponse `json:"workout"`
}

type ExerciseResponse struct {
	Exercise *domain.Exercise `json:"exercise"`
	Workout  WorkoutResponse  `json:"workout"`
}

type SetResponse struct {
	Set     *domain.ExerciseSet `json:"set"`
	Workout WorkoutResponse     `json:"workout"`
}

type RestResponse struct {
	InRest           bool    `json:"inRest"`
	RemainingSeconds float64 `json:"remainingSeconds"`
}

// --- Handler Methods ---

// ListWorkouts godoc
// @Summary List the user's workouts
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param status query string false "planned, inProgress, completed or cancelled"
// @Param templates query bool false "true: templates only, false: sessions only"
// @Param sort query string false "createdAt, updatedAt, name or startedAt"
// @Param order query string false "asc or desc (default)"
// @Success 200 {array} WorkoutResponse
// @Router /workouts [get]
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	filter := service.WorkoutFilter{
		SortBy:     c.Query("sort"),
		Descending: !strings.EqualFold(c.Query("order"), "asc"),
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.WorkoutStatus(raw)
		if !status.Valid() {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Unknown status %q.", raw))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("templates"); raw != "" {
		templates, err := strconv.ParseBool(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "templates must be true or false.")
			return
		}
		filter.Templates = &templates
	}

	workouts, err := h.workoutService.ListWorkouts(c.Request.Context(), userID, filter)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve workouts.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

// CreateWorkout godoc
// @Summary Create a planned workout
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body CreateWorkoutRequest true "Workout details"
// @Success 201 {object} WorkoutResponse
// @Router /workouts [post]
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	w, err := h.workoutService.CreateWorkout(c.Request.Context(), userID, req.Name, req.Notes)
	if err != nil {
		respondWithServiceError(c, err, "Failed to create workout.")
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(w))
}

func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	userID, workoutID, ok := workoutIDs(c)
	if !ok {
		return
	}
	w, err := h.workoutService.GetWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to retrieve workout.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(w))
}

// DeleteWorkout godoc
// @Summary Delete a workout
// @Description Returns the deleted workout; POST it to /workouts/restore to undo.
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 200 {object} WorkoutResponse
// @Router /workouts/{id} [delete]
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	userID, workoutID, ok := workoutIDs(c)
	if !ok {
		return
	}
	w, err := h.workoutService.DeleteWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to delete workout.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(w))
}

func (h *WorkoutHandler) RestoreWorkout(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	var snapshot domain.Workout
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if snapshot.ID.IsZero() {
		abortWithError(c, http.StatusBadRequest, "Snapshot id is required.")
		return
	}

	w, err := h.workoutService.RestoreWorkout(c.Request.Context(), userID, &snapshot)
	if err != nil {
		respondWithServiceError(c, err, "Failed to restore workout.")
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(w))
}

// StartWorkout godoc
// @Summary Start a planned workout
// @Description Always answers 200; "accepted" is false when the workout was not planned.
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 200 {object} TransitionResponse
// @Router /workouts/{id}/start [post]
func (h *WorkoutHandler) StartWorkout(c *gin.Context) {
	h.transition(c, h.workoutService.StartWorkout)
}

func (h *WorkoutHandler) CompleteWorkout(c *gin.Context) {
	h.transition(c, h.workoutService.CompleteWorkout)
}

func (h *WorkoutHandler) CancelWorkout(c *gin.Context) {
	h.transition(c, h.workoutService.CancelWorkout)
}

type transitionFunc func(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, domain.TransitionResult, error)

func (h *WorkoutHandler) transition(c *gin.Context, fn transitionFunc) {
	userID, workoutID, ok := workoutIDs(c)
	if !ok {
		return
	}
	w, res, err := fn(c.Request.Context(), userID, workoutID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to change workout status.")
		return
	}
	c.JSON(http.StatusOK, TransitionResponse{TransitionResult: res, Workout: MapWorkoutToResponse(w)})
}

func (h *WorkoutHandler) DuplicateAsTemplate(c *gin.Context) {
	h.copyWorkout(c, h.workoutService.DuplicateAsTemplate)
}

func (h *WorkoutHandler) InstantiateTemplate(c *gin.Context) {
	h.copyWorkout(c, h.workoutService.InstantiateTemplate)
}

type copyFunc func(ctx context.Context, userID, sourceID primitive.ObjectID, name string) (*domain.Workout, error)

func (h *WorkoutHandler) copyWorkout(c *gin.Context, fn copyFunc) {
	userID, workoutID, ok := workoutIDs(c)
	if !ok {
		return
	}
	var req NameRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}
	w, err := fn(c.Request.Context(), userID, workoutID, req.Name)
	if err != nil {
		respondWithServiceError(c, err, "Failed to copy workout.")
		return
	}
	c.JSON(http.StatusCreated, MapWorkoutToResponse(w))
}

// --- Exercises ---

func (h *WorkoutHandler) AddExercise(c *gin.Context) {
	userID, workoutID, ok := workoutIDs(c)
	if !ok {
		return
	}
	var req AddExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	w, ex, err := h.workoutService.AddExercise(c.Request.Context(), userID, workoutID, service.NewExerciseInput{
		Name:     req.Name,
		Type:     req.Type,
		Category: req.Category,
		Notes:    req.Notes,
		RestTime: req.RestTime,
	})
	if err != nil {
		respondWithServiceError(c, err, "Failed to add exercise.")
		return
	}
	c.JSON(http.StatusCreated, ExerciseResponse{Exercise: ex, Workout: MapWorkoutToResponse(w)})
}

func (h *WorkoutHandler) UpdateExercise(c *gin.Context) {
	userID, workoutID, exerciseID, ok := exerciseIDs(c)
	if !ok {
		return
	}
	var req domain.ExerciseUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	w, err := h.workoutService.UpdateExercise(c.Request.Context(), userID, workoutID, exerciseID, req)
	if err != nil {
		respondWithServiceError(c, err, "Failed to update exercise.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(w))
}

func (h *WorkoutHandler) RemoveExercise(c *gin.Context) {
	userID, workoutID, exerciseID, ok := exerciseIDs(c)
	if !ok {
		return
	}
	w, err := h.workoutService.RemoveExercise(c.Request.Context(), userID, workoutID, exerciseID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to remove exercise.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(w))
}

func (h *WorkoutHandler) RestStatus(c *gin.Context) {
	userID, workoutID, exerciseID, ok := exerciseIDs(c)
	if !ok {
		return
	}
	st, err := h.workoutService.RestStatus(c.Request.Context(), userID, workoutID, exerciseID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to read rest timer.")
		return
	}
	c.JSON(http.StatusOK, RestResponse{InRest: st.InRest, RemainingSeconds: st.Remaining.Seconds()})
}

// --- Sets ---

// AddSet godoc
// @Summary Add a set to an exercise
// @Description With progressive=true the set copies the last one with +2.5 weight (or +1 rep).
// Otherwise a per-type default set is created and the body overrides its values.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param progressive query bool false "Progress from the last set"
// @Param set body domain.SetUpdate false "Set values"
// @Success 201 {object} SetResponse
// @Router /workouts/{id}/exercises/{exerciseId}/sets [post]
func (h *WorkoutHandler) AddSet(c *gin.Context) {
	userID, workoutID, exerciseID, ok := exerciseIDs(c)
	if !ok {
		return
	}

	var (
		w   *domain.Workout
		set *domain.ExerciseSet
		err error
	)
	if progressive, _ := strconv.ParseBool(c.Query("progressive")); progressive {
		w, set, err = h.workoutService.AddProgressiveSet(c.Request.Context(), userID, workoutID, exerciseID)
	} else {
		var req domain.SetUpdate
		if c.Request.ContentLength > 0 {
			if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
				abortWithError(c, http.StatusBadRequest, "Validation error: "+bindErr.Error())
				return
			}
		}
		w, set, err = h.workoutService.AddSet(c.Request.Context(), userID, workoutID, exerciseID, req)
	}
	if err != nil {
		respondWithServiceError(c, err, "Failed to add set.")
		return
	}
	c.JSON(http.StatusCreated, SetResponse{Set: set, Workout: MapWorkoutToResponse(w)})
}

func (h *WorkoutHandler) UpdateSet(c *gin.Context) {
	userID, workoutID, exerciseID, setID, ok := setIDs(c)
	if !ok {
		return
	}
	var req domain.SetUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	w, err := h.workoutService.UpdateSet(c.Request.Context(), userID, workoutID, exerciseID, setID, req)
	if err != nil {
		respondWithServiceError(c, err, "Failed to update set.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(w))
}

func (h *WorkoutHandler) CompleteSet(c *gin.Context) {
	h.setAction(c, h.workoutService.CompleteSet)
}

func (h *WorkoutHandler) ResetSet(c *gin.Context) {
	h.setAction(c, h.workoutService.ResetSet)
}

func (h *WorkoutHandler) RemoveSet(c *gin.Context) {
	h.setAction(c, h.workoutService.RemoveSet)
}

type setFunc func(ctx context.Context, userID, workoutID, exerciseID, setID primitive.ObjectID) (*domain.Workout, error)

func (h *WorkoutHandler) setAction(c *gin.Context, fn setFunc) {
	userID, workoutID, exerciseID, setID, ok := setIDs(c)
	if !ok {
		return
	}
	w, err := fn(c.Request.Context(), userID, workoutID, exerciseID, setID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to update set.")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(w))
}

// --- Mapping ---

// MapWorkoutToResponse computes the derived stats of w.
func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	if w == nil {
		return WorkoutResponse{}
	}
	stats := WorkoutStats{
		TotalSets:            w.TotalSets(),
		CompletedSets:        w.CompletedSetsCount(),
		TotalWeight:          w.TotalWeight(),
		CompletionPercentage: w.CompletionPercentage(),
		Exercises:            make([]ExerciseStats, len(w.Exercises)),
	}
	if d := w.Duration(); d != nil {
		secs := d.Seconds()
		stats.DurationSeconds = &secs
	}
	for i, ex := range w.Exercises {
		stats.Exercises[i] = ExerciseStats{
			ID:            ex.ID.Hex(),
			TotalVolume:   ex.TotalVolume(),
			TotalDuration: ex.TotalDuration(),
			CompletedSets: ex.CompletedSetsCount(),
			IsCompleted:   ex.IsCompleted(),
		}
	}
	return WorkoutResponse{Workout: w, Stats: stats}
}

func MapWorkoutsToResponse(workouts []*domain.Workout) []WorkoutResponse {
	resp := make([]WorkoutResponse, len(workouts))
	for i, w := range workouts {
		resp[i] = MapWorkoutToResponse(w)
	}
	return resp
}

// --- Path helpers ---

func workoutIDs(c *gin.Context) (userID, workoutID primitive.ObjectID, ok bool) {
	if userID, ok = mustUserID(c); !ok {
		return
	}
	workoutID, ok = idParam(c, "id")
	return
}

func exerciseIDs(c *gin.Context) (userID, workoutID, exerciseID primitive.ObjectID, ok bool) {
	if userID, workoutID, ok = workoutIDs(c); !ok {
		return
	}
	exerciseID, ok = idParam(c, "exerciseId")
	return
}

func setIDs(c *gin.Context) (userID, workoutID, exerciseID, setID primitive.ObjectID, ok bool) {
	if userID, workoutID, exerciseID, ok = exerciseIDs(c); !ok {
		return
	}
	setID, ok = idParam(c, "setId")
	return
}
