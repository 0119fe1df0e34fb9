package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"carverify/internal/config"
	"carverify/internal/domain"
	"carverify/internal/infra/ppsr/b2g"
	"carverify/internal/usecase"
)

// runRisk re-scores a saved report and flags any drift from its stored score.
func runRisk(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("risk", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "report JSON file")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *in == "" {
		fmt.Fprintln(stderr, "risk requires --in <report.json>")
		return 1
	}

	payload, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintf(stderr, "read report: %v\n", err)
		return 1
	}
	var report domain.VehicleReport
	if err := json.Unmarshal(payload, &report); err != nil {
		fmt.Fprintf(stderr, "decode report: %v\n", err)
		return 1
	}

	risk := usecase.AnalyzeRisk(report.PPSR, report.NEVDIS, report.Pricing)
	fmt.Fprintf(stdout, "score=%d level=%s\n", risk.Score, risk.Level)
	if len(risk.Factors) > 0 {
		fmt.Fprintf(stdout, "factors=%s\n", strings.Join(risk.Factors, "; "))
	}
	if len(risk.Recommendations) > 0 {
		fmt.Fprintf(stdout, "recommendations=%s\n", strings.Join(risk.Recommendations, "; "))
	}
	if report.RiskScore != risk.Score {
		fmt.Fprintf(stdout, "drift: stored score %d\n", report.RiskScore)
		return 2
	}
	return 0
}

func runPPSRCheck(args []string, stdout, stderr io.Writer) int {
	client, code := b2gFromEnv(args, stderr)
	if client == nil {
		return code
	}
	if client.TestConnection(context.Background()) {
		fmt.Fprintln(stdout, "reachable=true")
		return 0
	}
	fmt.Fprintln(stdout, "reachable=false")
	return 1
}

// runPPSRVerifyPassword health-checks a candidate password against the
// registry. Nothing is stored; the running server rotates through its admin API.
func runPPSRVerifyPassword(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ppsr verify-password", flag.ContinueOnError)
	fs.SetOutput(stderr)
	passwordFile := fs.String("password-file", "", "file holding the candidate password")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *passwordFile == "" {
		fmt.Fprintln(stderr, "ppsr verify-password requires --password-file <file>")
		return 1
	}
	raw, err := os.ReadFile(*passwordFile)
	if err != nil {
		fmt.Fprintf(stderr, "read password: %v\n", err)
		return 1
	}

	client, code := b2gFromEnv(fs.Args(), stderr)
	if client == nil {
		return code
	}
	if err := client.VerifyPassword(context.Background(), strings.TrimSpace(string(raw))); err != nil {
		fmt.Fprintf(stderr, "verify: %v\n", err)
		fmt.Fprintln(stdout, "verified=false")
		return 1
	}
	fmt.Fprintln(stdout, "verified=true")
	return 0
}

func b2gFromEnv(args []string, stderr io.Writer) (*b2g.Client, int) {
	if len(args) > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(args, " "))
		return nil, 1
	}
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return nil, 1
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client, err := b2g.NewFromConfig(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "ppsr b2g: %v\n", err)
		return nil, 1
	}
	return client, 0
}
