package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"carverify/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "carverify/usecase"

type ReportRequest struct {
	VehicleIdentifier domain.VehicleIdentifier
	ReportType        domain.ReportType
	UserID            string
	OrderID           string
}

type ReportService struct {
	ppsr    PPSRSearcher
	nevdis  NEVDISSearcher
	pricing PricingQuoter
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

func NewReportService(ppsr PPSRSearcher, nevdis NEVDISSearcher, pricing PricingQuoter, logger *slog.Logger) (*ReportService, error) {
	if ppsr == nil || nevdis == nil || pricing == nil {
		return nil, errors.New("report service requires ppsr, nevdis and pricing clients")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		ppsr:    ppsr,
		nevdis:  nevdis,
		pricing: pricing,
		logger:  logger.With("component", "report"),
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}, nil
}

// GenerateReport builds one report. A PPSR failure aborts the report with
// domain.ErrReportGeneration; NEVDIS and pricing failures are recorded in
// Errors and lower DataQuality.
func (s *ReportService) GenerateReport(ctx context.Context, req ReportRequest) (*domain.VehicleReport, error) {
	start := s.now()
	reportType, err := domain.ParseReportType(string(req.ReportType))
	if err != nil {
		return nil, err
	}
	id := req.VehicleIdentifier.Normalize()
	if err := id.Validate(); err != nil {
		return nil, err
	}

	report := &domain.VehicleReport{
		ID:                newReportID(start),
		VehicleIdentifier: id,
		ReportType:        reportType,
		GeneratedAt:       start,
		UserID:            req.UserID,
		OrderID:           req.OrderID,
	}
	ctx, span := s.tracer.Start(ctx, "report.generate", trace.WithAttributes(
		attribute.String("report.id", report.ID),
		attribute.String("report.type", string(reportType)),
		attribute.String("vehicle.identifier_type", string(id.Type)),
	))
	defer span.End()
	logger := s.logger.With("report_id", report.ID, "report_type", reportType, "vehicle", id.String())

	ppsr, err := s.searchPPSR(ctx, id)
	if err != nil {
		logger.Error("ppsr search failed; report aborted", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "ppsr search failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrReportGeneration, err)
	}
	report.PPSR = *ppsr

	var errs []string
	if reportType.IncludesRegistry() {
		nevdis, err := s.searchNEVDIS(ctx, id)
		if err != nil {
			logger.Warn("nevdis search failed; continuing without registry data", "error", err)
			errs = append(errs, "NEVDIS lookup failed: "+err.Error())
		} else {
			report.NEVDIS = nevdis
		}

		report.Pricing = s.quote(ctx, pricingRequest(id, report.NEVDIS))
		if report.Pricing == nil {
			logger.Warn("no pricing provider answered")
			errs = append(errs, "Pricing data unavailable")
		}
	}

	risk := AnalyzeRisk(report.PPSR, report.NEVDIS, report.Pricing)
	report.RiskScore = risk.Score
	report.RiskFactors = risk.Factors
	report.Recommendations = risk.Recommendations
	report.Summary = domain.BuildSummary(report.PPSR, report.NEVDIS, report.Pricing, risk.Level)
	report.DataQuality = domain.DataQualityFor(len(errs))
	report.Errors = errs
	report.CompletionTime = s.now().Sub(start).Milliseconds()

	span.SetAttributes(
		attribute.Int("report.risk_score", report.RiskScore),
		attribute.String("report.data_quality", string(report.DataQuality)),
	)
	logger.Info("report generated",
		"risk_score", report.RiskScore,
		"risk_level", report.Summary.RiskLevel,
		"data_quality", report.DataQuality,
		"duration_ms", report.CompletionTime,
	)
	return report, nil
}

func (s *ReportService) searchPPSR(ctx context.Context, id domain.VehicleIdentifier) (*domain.PPSRResult, error) {
	ctx, span := s.tracer.Start(ctx, "ppsr.search")
	defer span.End()
	res, err := s.ppsr.SearchVehicle(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ppsr search failed")
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("ppsr: %w: empty result", domain.ErrMalformedResponse)
	}
	span.SetAttributes(attribute.String("ppsr.certificate", res.CertificateNumber))
	return res, nil
}

func (s *ReportService) searchNEVDIS(ctx context.Context, id domain.VehicleIdentifier) (*domain.NEVDISResult, error) {
	ctx, span := s.tracer.Start(ctx, "nevdis.search")
	defer span.End()
	res, err := s.nevdis.SearchVehicle(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "nevdis search failed")
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("nevdis: %w: empty result", domain.ErrMalformedResponse)
	}
	return res, nil
}

func (s *ReportService) quote(ctx context.Context, req domain.PricingRequest) *domain.VehiclePricing {
	ctx, span := s.tracer.Start(ctx, "pricing.quote")
	defer span.End()
	quote := s.pricing.GetVehiclePricing(ctx, req)
	if quote != nil {
		span.SetAttributes(attribute.String("pricing.source", string(quote.DataSource)))
	}
	return quote
}

// pricingRequest uses the registry's make/model/year as hints when present
// and always carries the identifier itself.
func pricingRequest(id domain.VehicleIdentifier, nevdis *domain.NEVDISResult) domain.PricingRequest {
	req := domain.PricingRequest{
		VIN:   id.VIN,
		Rego:  id.Rego,
		State: id.State,
	}
	if nevdis != nil {
		req.Make = nevdis.Make
		req.Model = nevdis.Model
		req.Year = nevdis.Year
	}
	return req
}

func newReportID(now time.Time) string {
	return fmt.Sprintf("RPT-%d-%s", now.UnixMilli(), strings.ToUpper(uuid.NewString()[:8]))
}
