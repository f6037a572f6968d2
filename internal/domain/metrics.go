package domain

import (
	"fmt"
	"math"
)

// MetricType names one trackable nutrition quantity.
type MetricType string

// Polarity is the desirable direction of daily intake for a metric.
type Polarity string

const (
	HigherIsBetter Polarity = "higherIsBetter"
	LowerIsBetter  Polarity = "lowerIsBetter"
)

// MetricCategory groups metrics for display.
type MetricCategory string

const (
	CategoryMacro       MetricCategory = "macro"
	CategoryVitamin     MetricCategory = "vitamin"
	CategoryMineral     MetricCategory = "mineral"
	CategoryPerformance MetricCategory = "performance"
	CategoryHealth      MetricCategory = "health"
)

const (
	// Macros
	MetricCalories      MetricType = "calories"
	MetricProtein       MetricType = "protein"
	MetricCarbohydrates MetricType = "carbohydrates"
	MetricFat           MetricType = "fat"
	MetricFiber         MetricType = "fiber"
	MetricSugar         MetricType = "sugar"
	MetricSodium        MetricType = "sodium"
	MetricSaturatedFat  MetricType = "saturatedFat"
	MetricTransFat      MetricType = "transFat"
	MetricCholesterol   MetricType = "cholesterol"
	MetricWater         MetricType = "water"

	// Vitamins
	MetricVitaminA        MetricType = "vitaminA"
	MetricVitaminC        MetricType = "vitaminC"
	MetricVitaminD        MetricType = "vitaminD"
	MetricVitaminE        MetricType = "vitaminE"
	MetricVitaminK        MetricType = "vitaminK"
	MetricThiamin         MetricType = "thiamin"
	MetricRiboflavin      MetricType = "riboflavin"
	MetricNiacin          MetricType = "niacin"
	MetricPantothenicAcid MetricType = "pantothenicAcid"
	MetricVitaminB6       MetricType = "vitaminB6"
	MetricBiotin          MetricType = "biotin"
	MetricFolate          MetricType = "folate"
	MetricVitaminB12      MetricType = "vitaminB12"
	MetricCholine         MetricType = "choline"

	// Minerals
	MetricCalcium    MetricType = "calcium"
	MetricIron       MetricType = "iron"
	MetricMagnesium  MetricType = "magnesium"
	MetricPhosphorus MetricType = "phosphorus"
	MetricPotassium  MetricType = "potassium"
	MetricZinc       MetricType = "zinc"
	MetricCopper     MetricType = "copper"
	MetricManganese  MetricType = "manganese"
	MetricSelenium   MetricType = "selenium"
	MetricIodine     MetricType = "iodine"
	MetricChromium   MetricType = "chromium"
	MetricMolybdenum MetricType = "molybdenum"

	// Performance supplements
	MetricCaffeine    MetricType = "caffeine"
	MetricCreatine    MetricType = "creatine"
	MetricBetaAlanine MetricType = "betaAlanine"
	MetricGlutamine   MetricType = "glutamine"
	MetricBCAA        MetricType = "bcaa"
	MetricOmega3      MetricType = "omega3"

	// Health
	MetricAlcohol    MetricType = "alcohol"
	MetricAddedSugar MetricType = "addedSugar"
)

// MetricInfo is the static description of a metric. Targets are adult
// reference daily values.
type MetricInfo struct {
	Type        MetricType     `json:"type"`
	Name        string         `json:"name"`
	Unit        string         `json:"unit"`
	Category    MetricCategory `json:"category"`
	Polarity    Polarity       `json:"polarity"`
	DailyTarget float64        `json:"dailyTarget"`
}

var metricCatalogue = []MetricInfo{
	{MetricCalories, "Calories", "kcal", CategoryMacro, HigherIsBetter, 2000},
	{MetricProtein, "Protein", "g", CategoryMacro, HigherIsBetter, 50},
	{MetricCarbohydrates, "Carbohydrates", "g", CategoryMacro, HigherIsBetter, 275},
	{MetricFat, "Fat", "g", CategoryMacro, HigherIsBetter, 78},
	{MetricFiber, "Fiber", "g", CategoryMacro, HigherIsBetter, 28},
	{MetricSugar, "Sugar", "g", CategoryMacro, LowerIsBetter, 50},
	{MetricSodium, "Sodium", "mg", CategoryMacro, LowerIsBetter, 2300},
	{MetricSaturatedFat, "Saturated Fat", "g", CategoryMacro, LowerIsBetter, 20},
	{MetricTransFat, "Trans Fat", "g", CategoryMacro, LowerIsBetter, 2},
	{MetricCholesterol, "Cholesterol", "mg", CategoryMacro, LowerIsBetter, 300},
	{MetricWater, "Water", "ml", CategoryMacro, HigherIsBetter, 2500},

	{MetricVitaminA, "Vitamin A", "mcg", CategoryVitamin, HigherIsBetter, 900},
	{MetricVitaminC, "Vitamin C", "mg", CategoryVitamin, HigherIsBetter, 90},
	{MetricVitaminD, "Vitamin D", "mcg", CategoryVitamin, HigherIsBetter, 20},
	{MetricVitaminE, "Vitamin E", "mg", CategoryVitamin, HigherIsBetter, 15},
	{MetricVitaminK, "Vitamin K", "mcg", CategoryVitamin, HigherIsBetter, 120},
	{MetricThiamin, "Thiamin (B1)", "mg", CategoryVitamin, HigherIsBetter, 1.2},
	{MetricRiboflavin, "Riboflavin (B2)", "mg", CategoryVitamin, HigherIsBetter, 1.3},
	{MetricNiacin, "Niacin (B3)", "mg", CategoryVitamin, HigherIsBetter, 16},
	{MetricPantothenicAcid, "Pantothenic Acid (B5)", "mg", CategoryVitamin, HigherIsBetter, 5},
	{MetricVitaminB6, "Vitamin B6", "mg", CategoryVitamin, HigherIsBetter, 1.7},
	{MetricBiotin, "Biotin (B7)", "mcg", CategoryVitamin, HigherIsBetter, 30},
	{MetricFolate, "Folate (B9)", "mcg", CategoryVitamin, HigherIsBetter, 400},
	{MetricVitaminB12, "Vitamin B12", "mcg", CategoryVitamin, HigherIsBetter, 2.4},
	{MetricCholine, "Choline", "mg", CategoryVitamin, HigherIsBetter, 550},

	{MetricCalcium, "Calcium", "mg", CategoryMineral, HigherIsBetter, 1300},
	{MetricIron, "Iron", "mg", CategoryMineral, HigherIsBetter, 18},
	{MetricMagnesium, "Magnesium", "mg", CategoryMineral, HigherIsBetter, 420},
	{MetricPhosphorus, "Phosphorus", "mg", CategoryMineral, HigherIsBetter, 1250},
	{MetricPotassium, "Potassium", "mg", CategoryMineral, HigherIsBetter, 4700},
	{MetricZinc, "Zinc", "mg", CategoryMineral, HigherIsBetter, 11},
	{MetricCopper, "Copper", "mg", CategoryMineral, HigherIsBetter, 0.9},
	{MetricManganese, "Manganese", "mg", CategoryMineral, HigherIsBetter, 2.3},
	{MetricSelenium, "Selenium", "mcg", CategoryMineral, HigherIsBetter, 55},
	{MetricIodine, "Iodine", "mcg", CategoryMineral, HigherIsBetter, 150},
	{MetricChromium, "Chromium", "mcg", CategoryMineral, HigherIsBetter, 35},
	{MetricMolybdenum, "Molybdenum", "mcg", CategoryMineral, HigherIsBetter, 45},

	{MetricCaffeine, "Caffeine", "mg", CategoryPerformance, LowerIsBetter, 400},
	{MetricCreatine, "Creatine", "g", CategoryPerformance, HigherIsBetter, 5},
	{MetricBetaAlanine, "Beta-Alanine", "g", CategoryPerformance, HigherIsBetter, 3.2},
	{MetricGlutamine, "L-Glutamine", "g", CategoryPerformance, HigherIsBetter, 5},
	{MetricBCAA, "BCAA", "g", CategoryPerformance, HigherIsBetter, 10},
	{MetricOmega3, "Omega-3", "g", CategoryPerformance, HigherIsBetter, 1.6},

	{MetricAlcohol, "Alcohol", "g", CategoryHealth, LowerIsBetter, 28},
	{MetricAddedSugar, "Added Sugar", "g", CategoryHealth, LowerIsBetter, 50},
}

var metricsByType = func() map[MetricType]MetricInfo {
	m := make(map[MetricType]MetricInfo, len(metricCatalogue))
	for _, info := range metricCatalogue {
		m[info.Type] = info
	}
	return m
}()

// MandatoryMetrics are present on every nutrition entry.
var MandatoryMetrics = []MetricType{MetricCalories, MetricProtein, MetricCarbohydrates, MetricFat}

// AllMetrics returns the catalogue in display order.
func AllMetrics() []MetricInfo {
	out := make([]MetricInfo, len(metricCatalogue))
	copy(out, metricCatalogue)
	return out
}

// LookupMetric returns the static info for t.
func LookupMetric(t MetricType) (MetricInfo, bool) {
	info, ok := metricsByType[t]
	return info, ok
}

// ParseMetricType validates a metric name.
func ParseMetricType(s string) (MetricType, error) {
	t := MetricType(s)
	if _, ok := metricsByType[t]; !ok {
		return "", invalid("metric", fmt.Sprintf("unknown metric %q", s))
	}
	return t, nil
}

// Valid reports whether t is in the catalogue.
func (t MetricType) Valid() bool {
	_, ok := metricsByType[t]
	return ok
}

// Remaining is the daily target minus consumed, floored at zero.
func (m MetricInfo) Remaining(consumed float64) float64 {
	return math.Max(0, m.DailyTarget-consumed)
}

// Display is the value a dashboard shows: what is left for higher-is-better
// metrics and today's total for lower-is-better ones.
func (m MetricInfo) Display(consumed float64) float64 {
	if m.Polarity == LowerIsBetter {
		return consumed
	}
	return m.Remaining(consumed)
}
