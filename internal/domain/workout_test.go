package domain_test

import (
	"testing"
	"time"

	"alcyxob/fittrack/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestWorkout(t *testing.T) *domain.Workout {
	t.Helper()
	w, err := domain.NewWorkout(primitive.NewObjectID(), "Push A", testNow)
	require.NoError(t, err)
	return w
}

func TestNewWorkout(t *testing.T) {
	w := newTestWorkout(t)
	assert.Equal(t, domain.WorkoutPlanned, w.Status)
	assert.False(t, w.IsTemplate)
	assert.Nil(t, w.Duration())

	_, err := domain.NewWorkout(primitive.NewObjectID(), "", testNow)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestWorkout_StartTwiceIsNoop(t *testing.T) {
	w := newTestWorkout(t)

	res := w.Start(testNow)
	assert.Equal(t, domain.TransitionResult{Accepted: true, From: domain.WorkoutPlanned, To: domain.WorkoutInProgress}, res)
	require.NotNil(t, w.StartedAt)

	res = w.Start(testNow.Add(time.Minute))
	assert.False(t, res.Accepted)
	assert.Equal(t, domain.WorkoutInProgress, res.From)
	assert.Equal(t, domain.WorkoutInProgress, res.To)
	assert.Equal(t, domain.WorkoutInProgress, w.Status)
	assert.Equal(t, testNow, *w.StartedAt)
}

func TestWorkout_CancelWhilePlannedIsNoop(t *testing.T) {
	w := newTestWorkout(t)
	res := w.Cancel()
	assert.False(t, res.Accepted)
	assert.Equal(t, domain.WorkoutPlanned, w.Status)
}

func TestWorkout_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(w *domain.Workout)
		apply    func(w *domain.Workout) domain.TransitionResult
		accepted bool
		want     domain.WorkoutStatus
	}{
		{
			name:  "complete planned",
			apply: func(w *domain.Workout) domain.TransitionResult { return w.Complete(testNow) },
			want:  domain.WorkoutPlanned,
		},
		{
			name:     "complete in progress",
			setup:    func(w *domain.Workout) { w.Start(testNow) },
			apply:    func(w *domain.Workout) domain.TransitionResult { return w.Complete(testNow.Add(time.Hour)) },
			accepted: true,
			want:     domain.WorkoutCompleted,
		},
		{
			name:     "cancel in progress",
			setup:    func(w *domain.Workout) { w.Start(testNow) },
			apply:    func(w *domain.Workout) domain.TransitionResult { return w.Cancel() },
			accepted: true,
			want:     domain.WorkoutCancelled,
		},
		{
			name:  "start completed",
			setup: func(w *domain.Workout) { w.Start(testNow); w.Complete(testNow) },
			apply: func(w *domain.Workout) domain.TransitionResult { return w.Start(testNow) },
			want:  domain.WorkoutCompleted,
		},
		{
			name:  "cancel cancelled",
			setup: func(w *domain.Workout) { w.Start(testNow); w.Cancel() },
			apply: func(w *domain.Workout) domain.TransitionResult { return w.Cancel() },
			want:  domain.WorkoutCancelled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorkout(t)
			if tt.setup != nil {
				tt.setup(w)
			}
			res := tt.apply(w)
			assert.Equal(t, tt.accepted, res.Accepted)
			assert.Equal(t, tt.want, w.Status)
			assert.Equal(t, tt.want, res.To)
		})
	}
}

func TestWorkout_Duration(t *testing.T) {
	w := newTestWorkout(t)
	w.Start(testNow)
	assert.Nil(t, w.Duration())
	w.Complete(testNow.Add(45 * time.Minute))
	require.NotNil(t, w.Duration())
	assert.Equal(t, 45*time.Minute, *w.Duration())
}

func TestWorkout_RemoveExerciseRenumbersAndCascades(t *testing.T) {
	w := newTestWorkout(t)
	a := newTestExercise(t, domain.ExerciseResistance)
	b := newTestExercise(t, domain.ExerciseCardio)
	c := newTestExercise(t, domain.ExerciseRecovery)
	w.AddExercise(a)
	w.AddExercise(b)
	w.AddExercise(c)
	w.AddExercise(a)
	require.Len(t, w.Exercises, 3)

	s := addSet(a, 60, 8)
	require.True(t, w.RemoveExercise(a))
	assert.False(t, w.RemoveExercise(a))
	assert.False(t, w.RemoveExerciseByID(primitive.NewObjectID()))

	require.Len(t, w.Exercises, 2)
	assert.Same(t, b, w.Exercises[0])
	assert.Equal(t, 0, b.Order)
	assert.Same(t, c, w.Exercises[1])
	assert.Equal(t, 1, c.Order)
	assert.Nil(t, a.Workout())
	assert.Empty(t, a.Sets)
	assert.Nil(t, s.Exercise())
	assert.Nil(t, w.Exercise(a.ID))
	assert.Same(t, b, w.Exercise(b.ID))
}

func TestWorkout_TotalsAndCompletion(t *testing.T) {
	w := newTestWorkout(t)
	bench := newTestExercise(t, domain.ExerciseResistance)
	run := newTestExercise(t, domain.ExerciseCardio)
	w.AddExercise(bench)
	w.AddExercise(run)

	assert.Zero(t, w.CompletionPercentage())

	addSet(bench, 10, 5).Complete(testNow)
	addSet(bench, 20, 3)
	// Loaded cardio sets do not count towards lifted weight.
	addSet(run, 100, 10).Complete(testNow)
	addSet(run, 0, 0)

	assert.Equal(t, 4, w.TotalSets())
	assert.Equal(t, 2, w.CompletedSetsCount())
	assert.Equal(t, 110.0, w.TotalWeight())
	assert.Equal(t, 50.0, w.CompletionPercentage())

	ex, set := w.FindSet(bench.Sets[1].ID)
	assert.Same(t, bench, ex)
	assert.Same(t, bench.Sets[1], set)
	ex, set = w.FindSet(primitive.NewObjectID())
	assert.Nil(t, ex)
	assert.Nil(t, set)
}

func TestWorkout_DuplicateAsTemplate(t *testing.T) {
	w := newTestWorkout(t)
	w.Start(testNow)
	bench := newTestExercise(t, domain.ExerciseResistance)
	w.AddExercise(bench)
	addSet(bench, 60, 8).Complete(testNow)
	addSet(bench, 60, 8).Complete(testNow)
	run := newTestExercise(t, domain.ExerciseCardio)
	w.AddExercise(run)
	run.AddSet(run.CreateDefaultSet())

	later := testNow.Add(time.Hour)
	tpl := w.DuplicateAsTemplate("X", later)

	assert.NotEqual(t, w.ID, tpl.ID)
	assert.True(t, tpl.IsTemplate)
	require.NotNil(t, tpl.TemplateID)
	assert.Equal(t, w.ID, *tpl.TemplateID)
	assert.Equal(t, "X", tpl.Name)
	assert.Equal(t, domain.WorkoutPlanned, tpl.Status)
	assert.Nil(t, tpl.StartedAt)
	assert.Equal(t, later, tpl.CreatedAt)
	require.Len(t, tpl.Exercises, len(w.Exercises))
	assert.Equal(t, w.TotalSets(), tpl.TotalSets())
	assert.Zero(t, tpl.CompletedSetsCount())
	for i, ex := range tpl.Exercises {
		assert.NotEqual(t, w.Exercises[i].ID, ex.ID)
		assert.Same(t, tpl, ex.Workout())
		assert.Equal(t, tpl.ID, ex.WorkoutID)
		assert.Len(t, ex.Sets, len(w.Exercises[i].Sets))
		for _, s := range ex.Sets {
			assert.False(t, s.IsCompleted)
		}
	}
	assert.Equal(t, 2, w.CompletedSetsCount(), "source untouched")

	blank := w.DuplicateAsTemplate(" ", later)
	assert.Equal(t, w.Name, blank.Name)
}

func TestWorkout_InstantiateTemplate(t *testing.T) {
	tpl := newTestWorkout(t)
	tpl.IsTemplate = true
	tpl.AddExercise(newTestExercise(t, domain.ExerciseResistance))

	inst := tpl.InstantiateTemplate("Monday push", testNow)
	assert.False(t, inst.IsTemplate)
	assert.Equal(t, domain.WorkoutPlanned, inst.Status)
	require.NotNil(t, inst.TemplateID)
	assert.Equal(t, tpl.ID, *inst.TemplateID)
	assert.Len(t, inst.Exercises, 1)
}

func TestWorkout_RelinkAfterDecode(t *testing.T) {
	w := newTestWorkout(t)
	ex := newTestExercise(t, domain.ExerciseResistance)
	w.AddExercise(ex)
	addSet(ex, 60, 8)
	addSet(ex, 65, 6)

	data, err := bson.Marshal(w)
	require.NoError(t, err)
	var decoded domain.Workout
	require.NoError(t, bson.Unmarshal(data, &decoded))
	require.Len(t, decoded.Exercises, 1)
	assert.Nil(t, decoded.Exercises[0].Workout())

	decoded.Relink()
	dex := decoded.Exercises[0]
	assert.Same(t, &decoded, dex.Workout())
	for i, s := range dex.Sets {
		assert.Same(t, dex, s.Exercise())
		assert.Equal(t, i, s.Order)
	}

	// Completing a decoded set must reach the decoded parent.
	dex.Sets[0].Complete(testNow)
	require.NotNil(t, dex.LastSetCompletedAt)
}

func TestWorkout_Validate(t *testing.T) {
	valid := func(t *testing.T) *domain.Workout {
		w := newTestWorkout(t)
		ex, err := domain.NewExercise("Bench", domain.ExerciseResistance, testNow)
		require.NoError(t, err)
		w.AddExercise(ex)
		addSet(ex, 60, 8)
		return w
	}
	require.NoError(t, valid(t).Validate())

	done := valid(t)
	done.Start(testNow)
	done.Exercises[0].Sets[0].Complete(testNow.Add(time.Minute))
	done.Complete(testNow.Add(time.Hour))
	require.NoError(t, done.Validate())

	stamp := testNow
	tests := []struct {
		name   string
		mutate func(w *domain.Workout)
	}{
		{"zero id", func(w *domain.Workout) { w.ID = primitive.NilObjectID }},
		{"zero user", func(w *domain.Workout) { w.UserID = primitive.NilObjectID }},
		{"blank name", func(w *domain.Workout) { w.Name = "" }},
		{"unknown status", func(w *domain.Workout) { w.Status = "bogus" }},
		{"completed without start", func(w *domain.Workout) {
			w.Status = domain.WorkoutCompleted
			w.CompletedAt = &stamp
		}},
		{"in progress without start", func(w *domain.Workout) { w.Status = domain.WorkoutInProgress }},
		{"planned with start", func(w *domain.Workout) { w.StartedAt = &stamp }},
		{"completed before start", func(w *domain.Workout) {
			started, completed := testNow, testNow.Add(-time.Minute)
			w.Status = domain.WorkoutCompleted
			w.StartedAt, w.CompletedAt = &started, &completed
		}},
		{"cancelled with completion", func(w *domain.Workout) {
			w.Status = domain.WorkoutCancelled
			w.StartedAt, w.CompletedAt = &stamp, &stamp
		}},
		{"nil exercise", func(w *domain.Workout) { w.Exercises = append(w.Exercises, nil) }},
		{"duplicate exercise", func(w *domain.Workout) { w.Exercises = append(w.Exercises, w.Exercises[0]) }},
		{"unknown exercise type", func(w *domain.Workout) { w.Exercises[0].Type = "yoga" }},
		{"negative rest", func(w *domain.Workout) { w.Exercises[0].RestTime = -1 }},
		{"nil set", func(w *domain.Workout) { w.Exercises[0].Sets = append(w.Exercises[0].Sets, nil) }},
		{"negative weight", func(w *domain.Workout) { w.Exercises[0].Sets[0].Weight = -50 }},
		{"negative reps", func(w *domain.Workout) { w.Exercises[0].Sets[0].Reps = -2 }},
		{"completed set without time", func(w *domain.Workout) { w.Exercises[0].Sets[0].IsCompleted = true }},
		{"completion time on open set", func(w *domain.Workout) { w.Exercises[0].Sets[0].CompletedAt = &stamp }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := valid(t)
			tt.mutate(w)
			assert.ErrorIs(t, w.Validate(), domain.ErrValidation)
		})
	}
}
