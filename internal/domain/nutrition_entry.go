package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealType is the meal an entry was logged against.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
	MealOther     MealType = "other"
)

func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack, MealOther:
		return true
	}
	return false
}

// LogMethod records how an entry was created.
type LogMethod string

const (
	LogManual   LogMethod = "manual"
	LogSearch   LogMethod = "search"
	LogBarcode  LogMethod = "barcode"
	LogAICamera LogMethod = "aiCamera"
	LogFavorite LogMethod = "favorite"
	LogRecent   LogMethod = "recent"
)

func (l LogMethod) Valid() bool {
	switch l {
	case LogManual, LogSearch, LogBarcode, LogAICamera, LogFavorite, LogRecent:
		return true
	}
	return false
}

// aiConfidenceThreshold is the confidence below which an AI estimate needs review.
const aiConfidenceThreshold = 0.8

// NutritionFacts are per-serving values. Calories and the three macros are
// always present; everything else is optional.
type NutritionFacts struct {
	Calories      float64                `bson:"calories" json:"calories"`
	Protein       float64                `bson:"protein" json:"protein"`
	Carbohydrates float64                `bson:"carbohydrates" json:"carbohydrates"`
	Fat           float64                `bson:"fat" json:"fat"`
	Fiber         *float64               `bson:"fiber,omitempty" json:"fiber,omitempty"`
	Sugar         *float64               `bson:"sugar,omitempty" json:"sugar,omitempty"`
	Sodium        *float64               `bson:"sodium,omitempty" json:"sodium,omitempty"`
	Extended      map[MetricType]float64 `bson:"extended,omitempty" json:"extended,omitempty"` // Vitamins, minerals, supplements
}

// Value returns the per-serving value of metric and whether it is present.
func (f NutritionFacts) Value(metric MetricType) (float64, bool) {
	switch metric {
	case MetricCalories:
		return f.Calories, true
	case MetricProtein:
		return f.Protein, true
	case MetricCarbohydrates:
		return f.Carbohydrates, true
	case MetricFat:
		return f.Fat, true
	case MetricFiber:
		return deref(f.Fiber)
	case MetricSugar:
		return deref(f.Sugar)
	case MetricSodium:
		return deref(f.Sodium)
	}
	v, ok := f.Extended[metric]
	return v, ok
}

func (f NutritionFacts) validate() error {
	for _, c := range []struct {
		field string
		v     float64
	}{
		{"calories", f.Calories},
		{"protein", f.Protein},
		{"carbohydrates", f.Carbohydrates},
		{"fat", f.Fat},
	} {
		if err := nonNegative(c.field, c.v); err != nil {
			return err
		}
	}
	for field, p := range map[string]*float64{"fiber": f.Fiber, "sugar": f.Sugar, "sodium": f.Sodium} {
		if p != nil {
			if err := nonNegative(field, *p); err != nil {
				return err
			}
		}
	}
	for metric, v := range f.Extended {
		if !metric.Valid() {
			return invalid("extended", "unknown metric "+string(metric))
		}
		if metric.hasField() {
			return invalid("extended", string(metric)+" has its own field")
		}
		if err := nonNegative(string(metric), v); err != nil {
			return err
		}
	}
	return nil
}

// hasField is true for the metrics NutritionFacts stores outside Extended.
func (t MetricType) hasField() bool {
	switch t {
	case MetricCalories, MetricProtein, MetricCarbohydrates, MetricFat,
		MetricFiber, MetricSugar, MetricSodium:
		return true
	}
	return false
}

func (f NutritionFacts) clone() NutritionFacts {
	out := f
	out.Fiber = cloneFloat(f.Fiber)
	out.Sugar = cloneFloat(f.Sugar)
	out.Sodium = cloneFloat(f.Sodium)
	if f.Extended != nil {
		out.Extended = make(map[MetricType]float64, len(f.Extended))
		for k, v := range f.Extended {
			out.Extended[k] = v
		}
	}
	return out
}

// FoodRecord is what a food-data lookup returns for a search or barcode.
type FoodRecord struct {
	Name           string         `json:"name"`
	Brand          string         `json:"brand,omitempty"`
	ServingSize    string         `json:"servingSize"`
	Nutrition      NutritionFacts `json:"nutrition"` // Per serving
	FoodDatabaseID string         `json:"foodDatabaseId,omitempty"`
	Barcode        string         `json:"barcode,omitempty"`
	IsVerified     bool           `json:"isVerified"`
}

// NutritionEntry is one logged food intake.
type NutritionEntry struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	FoodName       string             `bson:"foodName" json:"foodName"`
	Brand          string             `bson:"brand,omitempty" json:"brand,omitempty"`
	ServingSize    string             `bson:"servingSize" json:"servingSize"` // e.g., "1 cup (240 ml)"
	Quantity       float64            `bson:"quantity" json:"quantity"`       // Number of servings
	LoggedAt       time.Time          `bson:"loggedAt" json:"loggedAt"`
	MealType       MealType           `bson:"mealType" json:"mealType"`
	LogMethod      LogMethod          `bson:"logMethod" json:"logMethod"`
	Nutrition      NutritionFacts     `bson:"nutrition" json:"nutrition"`
	FoodDatabaseID string             `bson:"foodDatabaseId,omitempty" json:"foodDatabaseId,omitempty"`
	Barcode        string             `bson:"barcode,omitempty" json:"barcode,omitempty"`
	AIConfidence   *float64           `bson:"aiConfidence,omitempty" json:"aiConfidence,omitempty"`
	IsVerified     bool               `bson:"isVerified" json:"isVerified"`
	IsFavorite     bool               `bson:"isFavorite" json:"isFavorite"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	PhotoKey       string             `bson:"photoKey,omitempty" json:"-"` // S3 object key of the meal photo
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewEntryParams are the inputs of a new entry. Zero MealType means "other",
// zero LogMethod means manual and zero LoggedAt means now.
type NewEntryParams struct {
	UserID      primitive.ObjectID
	FoodName    string
	Brand       string
	ServingSize string
	Quantity    float64
	LoggedAt    time.Time
	MealType    MealType
	LogMethod   LogMethod
	Nutrition   NutritionFacts
	Notes       string
}

// NewNutritionEntry validates p and builds an entry.
func NewNutritionEntry(p NewEntryParams, now time.Time) (*NutritionEntry, error) {
	p.FoodName = strings.TrimSpace(p.FoodName)
	if p.FoodName == "" {
		return nil, invalid("foodName", "is required")
	}
	if err := nonNegative("quantity", p.Quantity); err != nil {
		return nil, err
	}
	if p.MealType == "" {
		p.MealType = MealOther
	}
	if !p.MealType.Valid() {
		return nil, invalid("mealType", "unknown meal type "+string(p.MealType))
	}
	if p.LogMethod == "" {
		p.LogMethod = LogManual
	}
	if !p.LogMethod.Valid() {
		return nil, invalid("logMethod", "unknown log method "+string(p.LogMethod))
	}
	if err := p.Nutrition.validate(); err != nil {
		return nil, err
	}
	if p.LoggedAt.IsZero() {
		p.LoggedAt = now
	}
	return &NutritionEntry{
		ID:          primitive.NewObjectID(),
		UserID:      p.UserID,
		FoodName:    p.FoodName,
		Brand:       strings.TrimSpace(p.Brand),
		ServingSize: p.ServingSize,
		Quantity:    p.Quantity,
		LoggedAt:    p.LoggedAt,
		MealType:    p.MealType,
		LogMethod:   p.LogMethod,
		Nutrition:   p.Nutrition.clone(),
		Notes:       p.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewEntryFromFood builds an entry from a lookup result.
func NewEntryFromFood(userID primitive.ObjectID, rec FoodRecord, quantity float64, meal MealType, method LogMethod, now time.Time) (*NutritionEntry, error) {
	e, err := NewNutritionEntry(NewEntryParams{
		UserID:      userID,
		FoodName:    rec.Name,
		Brand:       rec.Brand,
		ServingSize: rec.ServingSize,
		Quantity:    quantity,
		MealType:    meal,
		LogMethod:   method,
		Nutrition:   rec.Nutrition,
	}, now)
	if err != nil {
		return nil, err
	}
	e.FoodDatabaseID = rec.FoodDatabaseID
	e.Barcode = rec.Barcode
	e.IsVerified = rec.IsVerified
	return e, nil
}

// UpdateQuantity sets the number of servings.
func (e *NutritionEntry) UpdateQuantity(q float64) error {
	if err := nonNegative("quantity", q); err != nil {
		return err
	}
	e.Quantity = q
	return nil
}

func (e *NutritionEntry) MarkAsFavorite() { e.IsFavorite = true }

func (e *NutritionEntry) RemoveFromFavorites() { e.IsFavorite = false }

// NutritionUpdate overwrites per-serving facts; nil fields are untouched.
// Extended values are merged into the existing map.
type NutritionUpdate struct {
	Calories      *float64               `json:"calories,omitempty"`
	Protein       *float64               `json:"protein,omitempty"`
	Carbohydrates *float64               `json:"carbohydrates,omitempty"`
	Fat           *float64               `json:"fat,omitempty"`
	Fiber         *float64               `json:"fiber,omitempty"`
	Sugar         *float64               `json:"sugar,omitempty"`
	Sodium        *float64               `json:"sodium,omitempty"`
	Extended      map[MetricType]float64 `json:"extended,omitempty"`
}

// UpdateNutrition applies u. Either every field is applied or none is.
func (e *NutritionEntry) UpdateNutrition(u NutritionUpdate) error {
	next := e.Nutrition.clone()
	if u.Calories != nil {
		next.Calories = *u.Calories
	}
	if u.Protein != nil {
		next.Protein = *u.Protein
	}
	if u.Carbohydrates != nil {
		next.Carbohydrates = *u.Carbohydrates
	}
	if u.Fat != nil {
		next.Fat = *u.Fat
	}
	if u.Fiber != nil {
		next.Fiber = cloneFloat(u.Fiber)
	}
	if u.Sugar != nil {
		next.Sugar = cloneFloat(u.Sugar)
	}
	if u.Sodium != nil {
		next.Sodium = cloneFloat(u.Sodium)
	}
	if len(u.Extended) > 0 {
		if next.Extended == nil {
			next.Extended = make(map[MetricType]float64, len(u.Extended))
		}
		for k, v := range u.Extended {
			next.Extended[k] = v
		}
	}
	if err := next.validate(); err != nil {
		return err
	}
	e.Nutrition = next
	return nil
}

// SetAIData records an AI camera estimate.
func (e *NutritionEntry) SetAIData(confidence float64, foodDatabaseID string) error {
	if err := validConfidence(confidence); err != nil {
		return err
	}
	c := confidence
	e.AIConfidence = &c
	e.FoodDatabaseID = foodDatabaseID
	e.LogMethod = LogAICamera
	return nil
}

func validConfidence(c float64) error {
	if err := nonNegative("aiConfidence", c); err != nil {
		return err
	}
	if c > 1 {
		return invalid("aiConfidence", "must be between 0 and 1")
	}
	return nil
}

// SetBarcodeData records a barcode match. Barcode matches count as verified.
func (e *NutritionEntry) SetBarcodeData(barcode, foodDatabaseID string) {
	e.Barcode = barcode
	e.FoodDatabaseID = foodDatabaseID
	e.LogMethod = LogBarcode
	e.IsVerified = true
}

func (e *NutritionEntry) Verify() { e.IsVerified = true }

// Duplicate logs the same food again under a new identity as a manual entry.
// quantity and meal override the source values when given.
func (e *NutritionEntry) Duplicate(quantity *float64, meal *MealType, now time.Time) (*NutritionEntry, error) {
	q := e.Quantity
	if quantity != nil {
		q = *quantity
	}
	m := e.MealType
	if meal != nil {
		m = *meal
	}
	dup, err := NewNutritionEntry(NewEntryParams{
		UserID:      e.UserID,
		FoodName:    e.FoodName,
		Brand:       e.Brand,
		ServingSize: e.ServingSize,
		Quantity:    q,
		MealType:    m,
		LogMethod:   LogManual,
		Nutrition:   e.Nutrition,
		Notes:       e.Notes,
	}, now)
	if err != nil {
		return nil, err
	}
	dup.FoodDatabaseID = e.FoodDatabaseID
	dup.Barcode = e.Barcode
	dup.IsVerified = e.IsVerified
	return dup, nil
}

// Validate checks a whole entry, as when it is read back from a client
// snapshot instead of being built by NewNutritionEntry.
func (e *NutritionEntry) Validate() error {
	if e.ID.IsZero() {
		return invalid("id", "is required")
	}
	if e.UserID.IsZero() {
		return invalid("userId", "is required")
	}
	if strings.TrimSpace(e.FoodName) == "" {
		return invalid("foodName", "is required")
	}
	if err := nonNegative("quantity", e.Quantity); err != nil {
		return err
	}
	if e.LoggedAt.IsZero() {
		return invalid("loggedAt", "is required")
	}
	if !e.MealType.Valid() {
		return invalid("mealType", "unknown meal type "+string(e.MealType))
	}
	if !e.LogMethod.Valid() {
		return invalid("logMethod", "unknown log method "+string(e.LogMethod))
	}
	if e.AIConfidence != nil {
		if err := validConfidence(*e.AIConfidence); err != nil {
			return err
		}
	}
	return e.Nutrition.validate()
}

// Total is the consumed amount of metric (per-serving value × quantity).
// Metrics the entry does not carry are 0.
func (e *NutritionEntry) Total(metric MetricType) float64 {
	v, _ := e.Nutrition.Value(metric)
	return v * e.Quantity
}

func (e *NutritionEntry) TotalCalories() float64      { return e.Total(MetricCalories) }
func (e *NutritionEntry) TotalProtein() float64       { return e.Total(MetricProtein) }
func (e *NutritionEntry) TotalCarbohydrates() float64 { return e.Total(MetricCarbohydrates) }
func (e *NutritionEntry) TotalFat() float64           { return e.Total(MetricFat) }
func (e *NutritionEntry) TotalFiber() float64         { return e.Total(MetricFiber) }
func (e *NutritionEntry) TotalSugar() float64         { return e.Total(MetricSugar) }
func (e *NutritionEntry) TotalSodium() float64        { return e.Total(MetricSodium) }

// Totals returns the consumed amount of every metric the entry carries.
func (e *NutritionEntry) Totals() map[MetricType]float64 {
	out := make(map[MetricType]float64, 7+len(e.Nutrition.Extended))
	for _, m := range MandatoryMetrics {
		out[m] = e.Total(m)
	}
	for _, m := range []MetricType{MetricFiber, MetricSugar, MetricSodium} {
		if v, ok := e.Nutrition.Value(m); ok {
			out[m] = v * e.Quantity
		}
	}
	for m, v := range e.Nutrition.Extended {
		out[m] = v * e.Quantity
	}
	return out
}

// NeedsVerification is true for AI estimates below the confidence threshold.
func (e *NutritionEntry) NeedsVerification() bool {
	return e.AIConfidence != nil && *e.AIConfidence < aiConfidenceThreshold
}

// IsToday reports whether the entry was logged on now's calendar day in loc.
func (e *NutritionEntry) IsToday(now time.Time, loc *time.Location) bool {
	start, end := DayBounds(now, loc)
	return !e.LoggedAt.Before(start) && e.LoggedAt.Before(end)
}

// DisplayName is the food name followed by the brand in parentheses, if any.
func (e *NutritionEntry) DisplayName() string {
	if e.Brand == "" {
		return e.FoodName
	}
	return e.FoodName + " (" + e.Brand + ")"
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
