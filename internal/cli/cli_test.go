package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"alcyxob/fittrack/internal/app"
	"alcyxob/fittrack/internal/clock"
	"alcyxob/fittrack/internal/config"
	"alcyxob/fittrack/internal/domain"
	"alcyxob/fittrack/internal/repository"
	"alcyxob/fittrack/internal/repository/memory"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	color.NoColor = true
}

var testNow = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

type fixture struct {
	rt         *Runtime
	configPath string
	loads      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{rt: &Runtime{
		Repos: &app.Repositories{
			Users:    memory.NewUserRepository(),
			Workouts: memory.NewWorkoutRepository(),
			Entries:  memory.NewNutritionEntryRepository(),
		},
		Clock: clock.NewFake(testNow),
	}}
}

func (f *fixture) load(configPath string) (*Runtime, error) {
	f.loads++
	f.configPath = configPath
	return f.rt, nil
}

func run(t *testing.T, load Loader, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(load)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const templatesFile = `
[[workout]]
name = "Push A"

[[workout.exercise]]
name = "Bench Press"
sets = 3
reps = 8
weight = 60

[[workout.exercise]]
name = "Dips"
sets = 2

[[workout]]
name = "Easy Run"

[[workout.exercise]]
name = "Run"
type = "cardio"
sets = 1
duration = 1800
`

func TestImportTemplates(t *testing.T) {
	f := newFixture(t)
	userID := primitive.NewObjectID()
	path := filepath.Join(t.TempDir(), "templates.toml")
	require.NoError(t, os.WriteFile(path, []byte(templatesFile), 0o600))

	out, err := run(t, f.load, "import-templates", "--config", "/etc/fittrack", "--user", userID.Hex(), path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/fittrack", f.configPath)
	assert.Contains(t, out, "✔ Push A (2 exercises, 5 sets)")
	assert.Contains(t, out, "✔ Easy Run (1 exercises, 1 sets)")
	assert.Contains(t, out, "Imported 2 templates.")

	templates := true
	stored, err := f.rt.Repos.Workouts.List(context.Background(), repository.WorkoutQuery{UserID: userID, Templates: &templates})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestImportTemplates_Rejected(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()

	_, err := run(t, f.load, "import-templates", "--user", "nope", filepath.Join(dir, "x.toml"))
	assert.ErrorContains(t, err, "invalid --user")

	_, err = run(t, f.load, "import-templates", filepath.Join(dir, "x.toml"))
	assert.ErrorContains(t, err, "required flag")

	_, err = run(t, f.load, "import-templates", "--user", primitive.NewObjectID().Hex(), filepath.Join(dir, "missing.toml"))
	assert.ErrorContains(t, err, "missing.toml")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[[workout]]\nname = \"\"\n"), 0o600))
	_, err = run(t, f.load, "import-templates", "--user", primitive.NewObjectID().Hex(), bad)
	assert.ErrorContains(t, err, "name is required")

	assert.Zero(t, f.loads, "invalid input never opens the database")

	boom := errors.New("no reachable servers")
	good := filepath.Join(dir, "good.toml")
	require.NoError(t, os.WriteFile(good, []byte(templatesFile), 0o600))
	_, err = run(t, func(string) (*Runtime, error) { return nil, boom }, "import-templates", "--user", primitive.NewObjectID().Hex(), good)
	assert.ErrorIs(t, err, boom)
}

func TestDailyTotals(t *testing.T) {
	f := newFixture(t)
	userID := primitive.NewObjectID()
	sodium := 2500.0
	e, err := domain.NewNutritionEntry(domain.NewEntryParams{
		UserID:    userID,
		FoodName:  "Ramen",
		Quantity:  1,
		LoggedAt:  testNow,
		MealType:  domain.MealDinner,
		Nutrition: domain.NutritionFacts{Calories: 520, Protein: 20, Sodium: &sodium},
	}, testNow)
	require.NoError(t, err)
	_, err = f.rt.Repos.Entries.Create(context.Background(), e)
	require.NoError(t, err)

	out, err := run(t, f.load, "daily-totals", "--user", userID.Hex())
	require.NoError(t, err)
	assert.Contains(t, out, "NUTRITION 2025-03-10")
	assert.Contains(t, out, "Calories: 520.0 / 2000 kcal, 1480.0 kcal to go")
	assert.Contains(t, out, "Sodium: 2500.0 / 2300 mg (over)")
	assert.Contains(t, out, "Sugar: 0.0 / 50 g")
	assert.Contains(t, out, "Entries: 1")
	assert.NotContains(t, out, "Needs verification")

	out, err = run(t, f.load, "daily-totals", "-u", userID.Hex(), "--date", "2025-03-09")
	require.NoError(t, err)
	assert.Contains(t, out, "NUTRITION 2025-03-09")
	assert.Contains(t, out, "Entries: 0")

	_, err = run(t, f.load, "daily-totals", "--user", userID.Hex(), "--date", "yesterday")
	assert.ErrorContains(t, err, "invalid --date")
}

func TestDailyTotals_Timezone(t *testing.T) {
	f := newFixture(t)
	f.rt.Config = config.Config{Nutrition: config.NutritionConfig{
		Timezone:       "Asia/Tokyo",
		TrackedMetrics: []string{"calories"},
	}}
	userID := primitive.NewObjectID()

	// 18:00 UTC is already the 11th in Tokyo.
	out, err := run(t, f.load, "daily-totals", "--user", userID.Hex())
	require.NoError(t, err)
	assert.Contains(t, out, "NUTRITION 2025-03-11")
	assert.NotContains(t, out, "Protein")

	f.rt.Config.Nutrition.Timezone = "Mars/Olympus"
	_, err = run(t, f.load, "daily-totals", "--user", userID.Hex())
	assert.ErrorContains(t, err, "nutrition.timezone")
}
