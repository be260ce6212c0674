// Package api - HTTP handlers for cost estimation
// The handlers wrap the estimator - they contain NO cost logic.
package api

import (
	"encoding/json"
	stderrors "errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"warehouse-cost/core/estimator"
	"warehouse-cost/core/output"
	"warehouse-cost/core/pricing"
	"warehouse-cost/core/types"
	"warehouse-cost/internal/errors"
)

// handleEstimate handles POST /estimate
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req EstimateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	in, tables, err := s.resolve(&req)
	if err != nil {
		s.metrics.observeEstimate(catalogLabel(tables), err)
		s.writeEstimateError(w, r, err)
		return
	}

	breakdown, err := estimator.Estimate(in, tables)
	s.metrics.observeEstimate(tables.Name, err)
	if err != nil {
		s.writeEstimateError(w, r, err)
		return
	}

	result := output.NewResult(tables, in, []estimator.TierEstimate{{Tier: in.ClusterTier, Breakdown: breakdown}}, s.version)
	result.Metadata.Duration = time.Since(start).String()

	s.logger.Debug("estimate computed",
		zap.String("request_id", requestIDFrom(r)),
		zap.String("catalog", tables.Name),
		zap.String("tier", string(in.ClusterTier)),
		zap.String("monthly_total", breakdown.Monthly.Total.String()),
	)
	s.writeJSON(w, &EstimateResponse{
		RequestID: requestIDFrom(r),
		Timestamp: time.Now().UTC(),
		Status:    "ok",
		Result:    result,
	}, http.StatusOK)
}

// handleCompare handles POST /compare
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req EstimateRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	in, tables, err := s.resolve(&req)
	if err != nil {
		s.metrics.observeEstimate(catalogLabel(tables), err)
		s.writeEstimateError(w, r, err)
		return
	}

	estimates, err := estimator.EstimateAllTiers(in, tables)
	s.metrics.observeEstimate(tables.Name, err)
	if err != nil {
		s.writeEstimateError(w, r, err)
		return
	}

	result := output.NewResult(tables, in, estimates, s.version)
	result.Metadata.Duration = time.Since(start).String()
	s.writeJSON(w, &EstimateResponse{
		RequestID: requestIDFrom(r),
		Timestamp: time.Now().UTC(),
		Status:    "ok",
		Result:    result,
	}, http.StatusOK)
}

// handleDiff handles POST /diff
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	var req DiffRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	base, baseResult, baseErr := s.estimate(&req.Base)
	head, headResult, headErr := s.estimate(&req.Head)
	if err := multierr.Combine(baseErr, headErr); err != nil {
		status, details := errorDetails(err)
		s.writeJSON(w, &DiffResponse{
			RequestID: requestIDFrom(r),
			Timestamp: time.Now().UTC(),
			Status:    "error",
			Errors:    details,
		}, status)
		return
	}

	delta, err := estimator.Diff(base, head)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	formatted := estimator.Format(delta)
	s.writeJSON(w, &DiffResponse{
		RequestID: requestIDFrom(r),
		Timestamp: time.Now().UTC(),
		Status:    "ok",
		Base:      baseResult,
		Head:      headResult,
		Delta:     &formatted,
	}, http.StatusOK)
}

// handleListCatalogs handles GET /catalogs
func (s *Server) handleListCatalogs(w http.ResponseWriter, r *http.Request) {
	names := s.registry.Names()
	summaries := make([]CatalogSummary, 0, len(names))
	for _, name := range names {
		tables, err := s.registry.Get(name)
		if err != nil {
			continue
		}
		summaries = append(summaries, summarize(tables))
	}
	s.writeJSON(w, map[string]interface{}{
		"default":  s.cfg.Pricing.Catalog,
		"catalogs": summaries,
	}, http.StatusOK)
}

// handleGetCatalog handles GET /catalogs/{name}. The catalog is returned in
// its HCL form when the client asks for text/plain.
func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	tables, err := s.registry.Get(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if acceptsPlainText(r.Header.Values("Accept")) {
		src, err := pricing.Encode(tables)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(src)
		return
	}

	s.writeJSON(w, tables, http.StatusOK)
}

// acceptsPlainText reports whether any Accept header lists text/plain,
// ignoring parameters such as charset or q
func acceptsPlainText(accept []string) bool {
	for _, header := range accept {
		for _, part := range strings.Split(header, ",") {
			mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
			if err == nil && mediaType == "text/plain" {
				return true
			}
		}
	}
	return false
}

// estimate prices one side of a diff
func (s *Server) estimate(req *EstimateRequest) (*types.CostBreakdown, *output.EstimationResult, error) {
	in, tables, err := s.resolve(req)
	if err != nil {
		s.metrics.observeEstimate(catalogLabel(tables), err)
		return nil, nil, err
	}
	breakdown, err := estimator.Estimate(in, tables)
	s.metrics.observeEstimate(tables.Name, err)
	if err != nil {
		return nil, nil, err
	}
	result := output.NewResult(tables, in, []estimator.TierEstimate{{Tier: in.ClusterTier, Breakdown: breakdown}}, s.version)
	return breakdown, result, nil
}

// resolve turns a request into an estimator input and the tables to price it
// with. Tables are returned with the error once the catalog has resolved.
func (s *Server) resolve(req *EstimateRequest) (types.CostInput, *pricing.Tables, error) {
	var missing error
	if req.StorageGB == nil {
		missing = multierr.Append(missing, errors.Input("storage_gb is required"))
	}
	if req.QueriesPerHour == nil {
		missing = multierr.Append(missing, errors.Input("queries_per_hour is required"))
	}
	if missing != nil {
		return types.CostInput{}, nil, missing
	}

	var policy types.StoragePolicy
	if req.StoragePolicy != "" {
		policy = types.StoragePolicy(req.StoragePolicy)
		if !policy.IsValid() {
			return types.CostInput{}, nil, errors.Configf("unknown storage policy %q", req.StoragePolicy)
		}
	}

	tables, err := s.cfg.Tables(s.registry, req.Catalog, policy)
	if err != nil {
		return types.CostInput{}, nil, err
	}

	var duration decimal.NullDecimal
	if req.QueryDurationSeconds != nil {
		duration = decimal.NewNullDecimal(*req.QueryDurationSeconds)
	}
	in, err := s.cfg.Defaults.Input(req.ClusterTier, req.PricingVersion, req.BillingMode, *req.StorageGB, *req.QueriesPerHour, duration)
	if err != nil {
		return types.CostInput{}, tables, err
	}
	return in, tables, nil
}

func (s *Server) writeEstimateError(w http.ResponseWriter, r *http.Request, err error) {
	status, details := errorDetails(err)
	s.logger.Debug("estimate rejected",
		zap.String("request_id", requestIDFrom(r)),
		zap.Error(err),
	)
	s.writeJSON(w, &EstimateResponse{
		RequestID: requestIDFrom(r),
		Timestamp: time.Now().UTC(),
		Status:    "error",
		Errors:    details,
	}, status)
}

// decodeBody decodes a JSON body, rejecting unknown fields and trailing data
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(errors.TypeInput, "invalid request body", err)
	}
	if dec.More() {
		return errors.Input("invalid request body: trailing data")
	}
	return nil
}

// errorDetails flattens err into one detail per underlying error
func errorDetails(err error) (int, []ErrorDetail) {
	var details []ErrorDetail
	for _, e := range multierr.Errors(err) {
		detail := ErrorDetail{Code: string(errors.TypeInternal), Message: e.Error()}
		var domainErr *errors.Error
		if stderrors.As(e, &domainErr) {
			detail.Code = string(domainErr.Type)
			detail.Message = domainErr.Message
			if domainErr.Cause != nil {
				detail.Message += ": " + domainErr.Cause.Error()
			}
		}
		details = append(details, detail)
	}
	return statusFor(err), details
}

// catalogLabel is the metrics label for tables. Only registered catalog
// names are used so request data cannot add label values.
func catalogLabel(tables *pricing.Tables) string {
	if tables == nil {
		return "unknown"
	}
	return tables.Name
}

func summarize(t *pricing.Tables) CatalogSummary {
	return CatalogSummary{
		Name:          t.Name,
		Description:   t.Description,
		Currency:      string(t.Currency),
		StoragePolicy: string(t.Storage.Policy),
		Versions:      t.VersionNames(),
		Fingerprint:   t.Fingerprint(),
	}
}
