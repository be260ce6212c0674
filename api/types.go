// Package api - API types for warehouse cost estimation
// These types define the contract for the HTTP endpoints.
// The API is stateless, idempotent, and deterministic.
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"warehouse-cost/core/output"
	"warehouse-cost/core/types"
)

// EstimateRequest is the input to POST /estimate and POST /compare
type EstimateRequest struct {
	// Catalog names the pricing catalog (optional, server default if empty)
	Catalog string `json:"catalog,omitempty"`

	// StoragePolicy overrides the catalog's storage policy (optional)
	StoragePolicy string `json:"storage_policy,omitempty"`

	// ClusterTier is ignored by /compare
	ClusterTier    string `json:"cluster_tier,omitempty"`
	PricingVersion string `json:"pricing_version,omitempty"`
	BillingMode    string `json:"billing_mode,omitempty"`

	// StorageGB and QueriesPerHour are required; zero is valid
	StorageGB      *decimal.Decimal `json:"storage_gb"`
	QueriesPerHour *decimal.Decimal `json:"queries_per_hour"`

	// QueryDurationSeconds defaults to 12 seconds
	QueryDurationSeconds *decimal.Decimal `json:"query_duration_seconds,omitempty"`
}

// EstimateResponse is the output of POST /estimate and POST /compare
type EstimateResponse struct {
	RequestID string                   `json:"request_id"`
	Timestamp time.Time                `json:"timestamp"`
	Status    string                   `json:"status"`
	Result    *output.EstimationResult `json:"result,omitempty"`
	Errors    []ErrorDetail            `json:"errors,omitempty"`
}

// DiffRequest is the input to POST /diff
type DiffRequest struct {
	Base EstimateRequest `json:"base"`
	Head EstimateRequest `json:"head"`
}

// DiffResponse is the output of POST /diff
type DiffResponse struct {
	RequestID string                    `json:"request_id"`
	Timestamp time.Time                 `json:"timestamp"`
	Status    string                    `json:"status"`
	Base      *output.EstimationResult  `json:"base,omitempty"`
	Head      *output.EstimationResult  `json:"head,omitempty"`
	Delta     *types.FormattedBreakdown `json:"delta,omitempty"`
	Errors    []ErrorDetail             `json:"errors,omitempty"`
}

// ErrorDetail describes one rejected field or setting
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CatalogSummary describes a pricing catalog in GET /catalogs
type CatalogSummary struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	Currency      string                 `json:"currency"`
	StoragePolicy string                 `json:"storage_policy"`
	Versions      []types.PricingVersion `json:"versions"`
	Fingerprint   string                 `json:"fingerprint"`
}
