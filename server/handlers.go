package main

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	klog "k8s.io/klog/v2"

	"github.com/S-Chan/cspm/assess"
	"github.com/S-Chan/cspm/config"
	"github.com/S-Chan/cspm/integration"
	"github.com/S-Chan/cspm/version"
)

//go:embed templates/*
var templates embed.FS

const (
	statusSuccess = "success"
	statusError   = "error"

	scanIDHeader = "X-Scan-Id"
)

// snapshotFetcher is satisfied by *integration.Fetcher
type snapshotFetcher interface {
	Fetch(ctx context.Context, bucket, key string) (integration.Document, error)
}

// ScanResponse is returned by /api/scan on success
type ScanResponse struct {
	Status   string           `json:"status"`
	Findings []assess.Finding `json:"findings"`
}

// ErrorResponse is returned by /api/scan on any failure
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type dashboardData struct {
	Bucket   string
	Key      string
	ScanPath string
	Version  string
}

type server struct {
	fetcher   snapshotFetcher
	bucket    string
	key       string
	dashboard *template.Template
}

func newServer(fetcher snapshotFetcher, cfg config.Config) (*server, error) {
	tmpl, err := template.ParseFS(templates, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing dashboard template: %w", err)
	}
	return &server{
		fetcher:   fetcher,
		bucket:    cfg.Bucket,
		key:       cfg.Key,
		dashboard: tmpl,
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/scan", s.handleScan)
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	return mux
}

// handleScan fetches the snapshot, runs the assessment and reports findings.
// Every failure is reported as a 500 carrying the error text.
func (s *server) handleScan(w http.ResponseWriter, r *http.Request) {
	scanID := uuid.NewString()
	w.Header().Set(scanIDHeader, scanID)
	start := time.Now()

	findings, err := s.scan(r.Context())
	if err != nil {
		klog.ErrorS(err, "Scan failed", "scanID", scanID, "bucket", s.bucket, "key", s.key)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Status:  statusError,
			Message: err.Error(),
		})
		return
	}

	klog.InfoS("Scan completed", "scanID", scanID, "findings", len(findings), "duration", time.Since(start))
	writeJSON(w, http.StatusOK, ScanResponse{
		Status:   statusSuccess,
		Findings: findings,
	})
}

func (s *server) scan(ctx context.Context) (findings []assess.Finding, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("internal error during assessment: %v", rec)
		}
	}()

	doc, err := s.fetcher.Fetch(ctx, s.bucket, s.key)
	if err != nil {
		return nil, err
	}
	klog.V(4).InfoS("Assessing snapshot", "categories", len(doc))
	return assess.Aggregate(doc)
}

func (s *server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	err := s.dashboard.Execute(&buf, dashboardData{
		Bucket:   s.bucket,
		Key:      s.key,
		ScanPath: "/api/scan",
		Version:  version.String(),
	})
	if err != nil {
		klog.ErrorS(err, "Failed to render dashboard")
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		klog.V(4).InfoS("Failed to write dashboard", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.ErrorS(err, "Failed to encode response")
	}
}
