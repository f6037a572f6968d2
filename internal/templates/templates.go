// Package templates reads workout templates from TOML files.
//
//	[[workout]]
//	name = "Push A"
//
//	[[workout.exercise]]
//	name = "Bench Press"
//	type = "resistance"
//	rest = 120
//	sets = 3
//	reps = 8
//	weight = 60
package templates

import (
	"fmt"
	"os"
	"strings"
	"time"

	"alcyxob/fittrack/internal/domain"

	"github.com/BurntSushi/toml"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type file struct {
	Workouts []TemplateDef `toml:"workout"`
}

// TemplateDef is one [[workout]] table.
type TemplateDef struct {
	Name      string        `toml:"name"`
	Notes     string        `toml:"notes,omitempty"`
	Exercises []ExerciseDef `toml:"exercise"`
}

// ExerciseDef is one [[workout.exercise]] table. Zero values keep the
// per-type defaults of a new set.
type ExerciseDef struct {
	Name     string  `toml:"name"`
	Type     string  `toml:"type"` // resistance (default), cardio, recovery
	Category string  `toml:"category,omitempty"`
	Notes    string  `toml:"notes,omitempty"`
	Rest     *int    `toml:"rest,omitempty"` // Seconds
	Sets     int     `toml:"sets"`
	Reps     int     `toml:"reps,omitempty"`
	Weight   float64 `toml:"weight,omitempty"`
	Duration float64 `toml:"duration,omitempty"` // Seconds
	Distance float64 `toml:"distance,omitempty"`
}

// Parse decodes a template document. Unknown keys are rejected so typos do not
// silently drop data.
func Parse(data []byte) ([]TemplateDef, error) {
	var f file
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("invalid TOML format: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown template keys: %s", strings.Join(keys, ", "))
	}
	for i, def := range f.Workouts {
		if err := def.validate(); err != nil {
			return nil, fmt.Errorf("workout #%d: %w", i+1, err)
		}
	}
	return f.Workouts, nil
}

// ParseFile reads and parses path.
func ParseFile(path string) ([]TemplateDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

func (d TemplateDef) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("name is required")
	}
	for _, ex := range d.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return fmt.Errorf("%s: exercise name is required", d.Name)
		}
		if ex.Sets < 0 {
			return fmt.Errorf("%s/%s: sets must not be negative", d.Name, ex.Name)
		}
		if ex.Reps < 0 || ex.Weight < 0 || ex.Duration < 0 || ex.Distance < 0 {
			return fmt.Errorf("%s/%s: set values must not be negative", d.Name, ex.Name)
		}
		if ex.Rest != nil && *ex.Rest < 0 {
			return fmt.Errorf("%s/%s: rest must not be negative", d.Name, ex.Name)
		}
		if ex.Type != "" && !domain.ExerciseType(ex.Type).Valid() {
			return fmt.Errorf("%s/%s: unknown exercise type %q", d.Name, ex.Name, ex.Type)
		}
	}
	return nil
}

// Build creates the template workout described by d for userID.
func (d TemplateDef) Build(userID primitive.ObjectID, now time.Time) (*domain.Workout, error) {
	w, err := domain.NewWorkout(userID, d.Name, now)
	if err != nil {
		return nil, err
	}
	w.Notes = d.Notes
	w.IsTemplate = true

	for _, def := range d.Exercises {
		typ := domain.ExerciseType(def.Type)
		if typ == "" {
			typ = domain.ExerciseResistance
		}
		ex, err := domain.NewExercise(def.Name, typ, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", def.Name, err)
		}
		ex.Category = def.Category
		ex.Notes = def.Notes
		if def.Rest != nil {
			ex.RestTime = *def.Rest
		}
		w.AddExercise(ex)

		for i := 0; i < def.Sets; i++ {
			set := ex.CreateDefaultSet()
			if err := set.Update(def.setUpdate()); err != nil {
				return nil, fmt.Errorf("%s: %w", def.Name, err)
			}
			ex.AddSet(set)
		}
	}
	return w, nil
}

func (def ExerciseDef) setUpdate() domain.SetUpdate {
	var u domain.SetUpdate
	if def.Reps > 0 {
		reps := def.Reps
		u.Reps = &reps
		u.TargetReps = &reps
	}
	if def.Weight > 0 {
		weight := def.Weight
		u.Weight = &weight
		u.TargetWeight = &weight
	}
	if def.Duration > 0 {
		d := def.Duration
		u.Duration = &d
	}
	if def.Distance > 0 {
		dist := def.Distance
		u.Distance = &dist
	}
	return u
}
