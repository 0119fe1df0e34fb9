package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"carverify/internal/config"
	"carverify/internal/domain"
	"carverify/internal/infra/nevdis"
	"carverify/internal/infra/ppsr"
	"carverify/internal/infra/ppsr/b2g"
	"carverify/internal/infra/pricing"
	"carverify/internal/usecase"
)

func runReport(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	vin := fs.String("vin", "", "vehicle identification number")
	rego := fs.String("rego", "", "registration plate")
	state := fs.String("state", "", "registration state")
	reportType := fs.String("type", "BASIC", "report type")
	userID := fs.String("user-id", "", "user id recorded on the report")
	orderID := fs.String("order-id", "", "order id recorded on the report")
	out := fs.String("out", "", "write the report JSON here instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	id, err := identifierFromFlags(*vin, *rego, *state)
	if err != nil {
		fmt.Fprintf(stderr, "invalid vehicle: %v\n", err)
		return 1
	}
	rt, err := domain.ParseReportType(*reportType)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc, err := newReportService(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "init: %v\n", err)
		return 1
	}

	report, err := svc.GenerateReport(context.Background(), usecase.ReportRequest{
		VehicleIdentifier: id,
		ReportType:        rt,
		UserID:            *userID,
		OrderID:           *orderID,
	})
	if err != nil {
		fmt.Fprintf(stderr, "generate report: %v\n", err)
		return 1
	}
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "encode report: %v\n", err)
		return 1
	}
	if *out != "" {
		if err := os.WriteFile(*out, payload, 0o600); err != nil {
			fmt.Fprintf(stderr, "write report: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "report=%s risk=%d level=%s quality=%s\n", report.ID, report.RiskScore, report.Summary.RiskLevel, report.DataQuality)
		return 0
	}
	fmt.Fprintln(stdout, string(payload))
	return 0
}

func identifierFromFlags(vin, rego, state string) (domain.VehicleIdentifier, error) {
	switch {
	case vin != "" && rego != "":
		return domain.VehicleIdentifier{}, errors.New("use either --vin or --rego, not both")
	case vin != "":
		return domain.NewVINIdentifier(vin)
	case rego != "":
		return domain.NewRegoIdentifier(rego, domain.State(strings.ToUpper(state)))
	}
	return domain.VehicleIdentifier{}, errors.New("--vin or --rego is required")
}

func newReportService(cfg config.Config, logger *slog.Logger) (*usecase.ReportService, error) {
	var b2gClient *b2g.Client
	if cfg.B2GConfigured() {
		c, err := b2g.NewFromConfig(cfg, logger)
		if err != nil {
			return nil, err
		}
		b2gClient = c
	}
	return usecase.NewReportService(
		ppsr.NewFromConfig(cfg, b2gClient, logger),
		nevdis.NewFromConfig(cfg, logger),
		pricing.NewFromConfig(cfg, logger),
		logger,
	)
}
