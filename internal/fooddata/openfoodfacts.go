package fooddata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"alcyxob/fittrack/internal/domain"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "https://world.openfoodfacts.org"
	DefaultTimeout = 3 * time.Second

	searchPageSize = 5
	per100gServing = "100 g"
	idPrefix       = "off:"
)

// offNutrient maps an Open Food Facts nutriment key (without the _100g or
// _serving suffix) to a metric. OFF reports everything in grams, factor converts
// to the metric's unit.
type offNutrient struct {
	key    string
	metric domain.MetricType
	factor float64
}

var extendedNutrients = []offNutrient{
	{"saturated-fat", domain.MetricSaturatedFat, 1},
	{"trans-fat", domain.MetricTransFat, 1},
	{"cholesterol", domain.MetricCholesterol, 1000},
	{"added-sugars", domain.MetricAddedSugar, 1},
	{"alcohol", domain.MetricAlcohol, 1},
	{"vitamin-a", domain.MetricVitaminA, 1e6},
	{"vitamin-c", domain.MetricVitaminC, 1000},
	{"vitamin-d", domain.MetricVitaminD, 1e6},
	{"calcium", domain.MetricCalcium, 1000},
	{"iron", domain.MetricIron, 1000},
	{"potassium", domain.MetricPotassium, 1000},
	{"magnesium", domain.MetricMagnesium, 1000},
	{"zinc", domain.MetricZinc, 1000},
	{"caffeine", domain.MetricCaffeine, 1000},
}

// OpenFoodFacts is a Lookup backed by the Open Food Facts public API.
type OpenFoodFacts struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenFoodFacts creates a client. Empty baseURL and zero timeout use the defaults.
func NewOpenFoodFacts(baseURL string, timeout time.Duration) *OpenFoodFacts {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenFoodFacts{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type offProduct struct {
	Code        string         `json:"code"`
	ProductName string         `json:"product_name"`
	Brands      string         `json:"brands"`
	ServingSize string         `json:"serving_size"`
	Nutriments  map[string]any `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}

type offProductResponse struct {
	Status  int         `json:"status"`
	Product *offProduct `json:"product"`
}

// Search returns the first product matching query that has energy data.
func (o *OpenFoodFacts) Search(ctx context.Context, query string) (*domain.FoodRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(searchPageSize))

	var resp offSearchResponse
	if err := o.get(ctx, o.baseURL+"/cgi/search.pl?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	for i := range resp.Products {
		if rec := resp.Products[i].toRecord(); rec != nil {
			return rec, nil
		}
	}
	log.Debugf("open food facts: no usable product for query %q", query)
	return nil, nil
}

// Barcode looks up a single product by its EAN/UPC code.
func (o *OpenFoodFacts) Barcode(ctx context.Context, code string) (*domain.FoodRecord, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var resp offProductResponse
	if err := o.get(ctx, o.baseURL+"/api/v2/product/"+url.PathEscape(code)+".json", &resp); err != nil {
		return nil, err
	}
	if resp.Status != 1 || resp.Product == nil {
		return nil, nil
	}
	if resp.Product.Code == "" {
		resp.Product.Code = code
	}
	rec := resp.Product.toRecord()
	if rec != nil {
		rec.Barcode = code
	}
	return rec, nil
}

func (o *OpenFoodFacts) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("open food facts request: %w", err)
	}
	defer resp.Body.Close()

	// OFF answers unknown barcodes with 404 and a status 0 body.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("open food facts returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode open food facts response: %w", err)
	}
	return nil
}

// toRecord converts a product, preferring per-serving values. Products without
// a name or without calories are misses.
func (p *offProduct) toRecord() *domain.FoodRecord {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		return nil
	}
	suffix, serving := "_serving", strings.TrimSpace(p.ServingSize)
	if kcal, ok := p.nutriment("energy-kcal", suffix); !ok || kcal <= 0 {
		suffix, serving = "_100g", per100gServing
	}
	kcal, _ := p.nutriment("energy-kcal", suffix)
	if kcal <= 0 {
		return nil
	}
	if serving == "" {
		serving = "1 serving"
	}

	facts := domain.NutritionFacts{Calories: kcal}
	facts.Protein, _ = p.nutriment("proteins", suffix)
	facts.Carbohydrates, _ = p.nutriment("carbohydrates", suffix)
	facts.Fat, _ = p.nutriment("fat", suffix)
	if v, ok := p.nutriment("fiber", suffix); ok {
		facts.Fiber = &v
	}
	if v, ok := p.nutriment("sugars", suffix); ok {
		facts.Sugar = &v
	}
	if v, ok := p.nutriment("sodium", suffix); ok {
		mg := v * 1000
		facts.Sodium = &mg
	}
	for _, n := range extendedNutrients {
		if v, ok := p.nutriment(n.key, suffix); ok {
			if facts.Extended == nil {
				facts.Extended = make(map[domain.MetricType]float64)
			}
			facts.Extended[n.metric] = v * n.factor
		}
	}

	rec := &domain.FoodRecord{
		Name:        name,
		Brand:       firstBrand(p.Brands),
		ServingSize: serving,
		Nutrition:   facts,
	}
	if p.Code != "" {
		rec.FoodDatabaseID = idPrefix + p.Code
	}
	return rec
}

// nutriment reads key+suffix. OFF mixes JSON numbers and numeric strings;
// negative or unparsable values count as absent.
func (p *offProduct) nutriment(key, suffix string) (float64, bool) {
	raw, ok := p.Nutriments[key+suffix]
	if !ok {
		return 0, false
	}
	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if v < 0 {
		return 0, false
	}
	return v, true
}

func firstBrand(brands string) string {
	first, _, _ := strings.Cut(brands, ",")
	return strings.TrimSpace(first)
}
