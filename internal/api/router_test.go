package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"market-scannerv1/internal/model"
)

type stubScanner struct {
	report model.ScanReport
}

func (s stubScanner) Scan(ctx context.Context) model.ScanReport { return s.report }

func init() {
	gin.SetMode(gin.TestMode)
}

func TestScanEndpoint_ReturnsReport(t *testing.T) {
	report := model.ScanReport{
		Total: 1,
		Resultados: []model.SignalResult{{
			Par:      "BTC",
			Sinal:    "FLUXO CACHOEIRA (5m)",
			TF:       "5m",
			Suporte:  "SUPORTE PERIGOSO",
			Pilha:    "---",
			Variacao: "1.25%",
			Binance:  "https://www.binance.com/pt/futures/BTCUSDT",
		}},
	}
	r := NewRouter(stubScanner{report: report}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scan", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var got model.ScanReport
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("body is not a report: %v", err)
	}
	if got.Total != 1 || got.Resultados[0].Par != "BTC" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestScanEndpoint_EmptyReportIsStill200(t *testing.T) {
	r := NewRouter(stubScanner{report: model.EmptyReport()}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scan", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("upstream failure must not become an HTTP error, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"total":0`) || !strings.Contains(body, `"resultados":[]`) {
		t.Errorf("empty report must serialize an empty array, got %s", body)
	}
}

func TestHealthAndCORS(t *testing.T) {
	r := NewRouter(stubScanner{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health: got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("cors header: got %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/scan", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight: got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewRouter(stubScanner{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("metrics: got %d", w.Code)
	}
}
