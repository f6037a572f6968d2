//go:generate mockgen -source=$GOFILE -destination=mocks/lookup_mocks.go -package=mocks

// Package fooddata looks up foods by free-text query or barcode in an external
// food database.
package fooddata

import (
	"context"

	"alcyxob/fittrack/internal/domain"
)

// Lookup resolves foods. A miss is (nil, nil); errors are transport or decode
// failures only.
type Lookup interface {
	Search(ctx context.Context, query string) (*domain.FoodRecord, error)
	Barcode(ctx context.Context, code string) (*domain.FoodRecord, error)
}
