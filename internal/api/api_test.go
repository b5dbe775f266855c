package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fature/cpa-engine/internal/domain"
	"github.com/fature/cpa-engine/internal/health"
	"github.com/fature/cpa-engine/internal/rules"
)

// fakeValidator approves leads with a deposit of at least 30.
type fakeValidator struct {
	calls int
}

func (v *fakeValidator) Validate(ctx context.Context, input domain.ValidationInput) domain.ValidationResult {
	v.calls++
	result := domain.ValidationResult{
		ValidationID: "v-test",
		AffiliateID:  input.AffiliateID,
		UserID:       input.UserID,
		Option:       input.Option,
		Result:       domain.ResultApproved,
		Timestamp:    time.Now().UTC(),
	}
	if input.DepositAmount < 30 {
		result.Result = domain.ResultRejected
		result.Reason = "deposit below minimum"
	}
	return result
}

func (v *fakeValidator) Stats() rules.StatsSnapshot {
	return rules.StatsSnapshot{Total: int64(v.calls)}
}

// fakeStore serves the handler's config lookups and the health probe.
type fakeStore struct {
	values map[string]domain.ConfigValue
}

func (s *fakeStore) Get(ctx context.Context, key string) domain.Resolution {
	if v, ok := s.values[key]; ok {
		return domain.Resolution{Key: key, Status: domain.StatusPresent, Value: v, Source: domain.SourceLocal}
	}
	return domain.Resolution{Key: key, Status: domain.StatusAbsent, Source: domain.SourceError}
}

func (s *fakeStore) Close() error                         { return nil }
func (s *fakeStore) PingOrigin(ctx context.Context) error { return nil }
func (s *fakeStore) PingRemote(ctx context.Context) error { return nil }
func (s *fakeStore) RemoteEnabled() bool                  { return false }
func (s *fakeStore) Stats() (int, time.Duration)          { return len(s.values), 300 * time.Second }

func newTestServer(validator Validator, store *fakeStore) *Server {
	probe := health.NewProbe(store, nil)
	return NewServer(domain.ServerConfig{Port: 8080}, validator, store, probe, prometheus.NewRegistry(), "test")
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	return env
}

func validBody() map[string]any {
	return map[string]any{
		"user_id":           "user-001",
		"affiliate_id":      "aff-001",
		"deposit_amount":    50.0,
		"bet_count":         15,
		"ggr_amount":        20.0,
		"registration_date": time.Now().AddDate(0, 0, -5).Format(time.RFC3339),
	}
}

func TestValidateEndpoint(t *testing.T) {
	t.Run("ApprovedLead", func(t *testing.T) {
		srv := newTestServer(&fakeValidator{}, &fakeStore{})

		rec := postJSON(t, srv, "/api/v1/validate", validBody())
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		env := decodeEnvelope(t, rec)
		if !env.Success {
			t.Fatalf("expected success envelope: %s", rec.Body.String())
		}

		data, _ := json.Marshal(env.Data)
		var result domain.ValidationResult
		if err := json.Unmarshal(data, &result); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if result.Result != domain.ResultApproved {
			t.Errorf("expected approved, got %s", result.Result)
		}
		if result.Option != domain.OptionOne {
			t.Errorf("expected default option, got %s", result.Option)
		}
	})

	t.Run("MissingUserID", func(t *testing.T) {
		srv := newTestServer(&fakeValidator{}, &fakeStore{})

		body := validBody()
		delete(body, "user_id")

		rec := postJSON(t, srv, "/api/v1/validate", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Success || env.Error == "" {
			t.Errorf("expected error envelope: %s", rec.Body.String())
		}
	})

	t.Run("BadRegistrationDate", func(t *testing.T) {
		srv := newTestServer(&fakeValidator{}, &fakeStore{})

		body := validBody()
		body["registration_date"] = "15/01/2026"

		rec := postJSON(t, srv, "/api/v1/validate", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("UnknownOption", func(t *testing.T) {
		srv := newTestServer(&fakeValidator{}, &fakeStore{})

		body := validBody()
		body["validation_option"] = "opcao9"

		rec := postJSON(t, srv, "/api/v1/validate", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		srv := newTestServer(&fakeValidator{}, &fakeStore{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/validate", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBatchEndpoint(t *testing.T) {
	t.Run("MixedBatch", func(t *testing.T) {
		srv := newTestServer(&fakeValidator{}, &fakeStore{})

		approved := validBody()
		rejected := validBody()
		rejected["deposit_amount"] = 10.0
		malformed := validBody()
		delete(malformed, "user_id")

		rec := postJSON(t, srv, "/api/v1/validate/batch", map[string]any{
			"leads": []map[string]any{approved, rejected, malformed},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		env := decodeEnvelope(t, rec)
		data, _ := json.Marshal(env.Data)
		var resp BatchValidateResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			t.Fatalf("decode batch response: %v", err)
		}

		if resp.Total != 3 || resp.Approved != 1 || resp.Rejected != 1 || resp.Errors != 1 {
			t.Errorf("unexpected batch totals: %+v", resp)
		}
		if len(resp.Results) != 3 {
			t.Errorf("expected 3 results, got %d", len(resp.Results))
		}
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		srv := newTestServer(&fakeValidator{}, &fakeStore{})

		rec := postJSON(t, srv, "/api/v1/validate/batch", map[string]any{"leads": []any{}})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestConfigEndpoint(t *testing.T) {
	store := &fakeStore{values: map[string]domain.ConfigValue{
		domain.OptionOne.MinDepositKey(): domain.FloatValue(30),
		domain.KeyValidationDays:         domain.IntValue(30),
	}}
	srv := newTestServer(&fakeValidator{}, store)

	rec := get(srv, "/api/v1/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	configs, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected config map, got %T", env.Data)
	}

	if configs[domain.OptionOne.MinDepositKey()] != float64(30) {
		t.Errorf("unexpected deposit config: %v", configs[domain.OptionOne.MinDepositKey()])
	}
	if _, present := configs[domain.OptionTwo.MinDepositKey()]; present {
		t.Error("absent keys must be omitted")
	}
}

func TestStatsEndpoint(t *testing.T) {
	validator := &fakeValidator{}
	srv := newTestServer(validator, &fakeStore{})

	postJSON(t, srv, "/api/v1/validate", validBody())

	rec := get(srv, "/api/v1/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	data, _ := json.Marshal(env.Data)
	var snap rules.StatsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if snap.Total != 1 {
		t.Errorf("expected 1 validation recorded, got %d", snap.Total)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&fakeValidator{}, &fakeStore{})

	t.Run("Health", func(t *testing.T) {
		rec := get(srv, "/health")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var status struct {
			Status  string `json:"status"`
			Version string `json:"version"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("decode health: %v", err)
		}
		if status.Status != "healthy" {
			t.Errorf("expected healthy, got %s", status.Status)
		}
		if status.Version != "test" {
			t.Errorf("expected version test, got %s", status.Version)
		}
	})

	t.Run("Ready", func(t *testing.T) {
		rec := get(srv, "/ready")
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		rec := get(srv, "/metrics")
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("RequestIDHeader", func(t *testing.T) {
		rec := get(srv, "/ready")
		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected a generated request ID header")
		}
	})
}
