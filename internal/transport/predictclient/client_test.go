package predictclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kailas-cloud/toxmod/internal/domain"
)

func TestPredict_SendsTextAndLabels(t *testing.T) {
	var got PredictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(domain.PredictionRecord{
			Timestamp:   "2025-08-21T10:00:00.000000Z",
			RequestText: got.Text,
			Response:    domain.LabelMap{"toxic": 1},
			TrueLabels:  got.TrueLabels,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	rec, err := c.Predict(context.Background(), "you idiot", domain.LabelMap{"insult": 1})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got.Text != "you idiot" || got.TrueLabels["insult"] != 1 {
		t.Errorf("request = %+v", got)
	}
	if rec.Response["toxic"] != 1 || rec.TrueLabels["insult"] != 1 {
		t.Errorf("record = %+v", rec)
	}
}

func TestPredict_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"detail":"Model not loaded"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Predict(context.Background(), "hi", nil)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("err = %v, want ErrStatus", err)
	}
}

func TestPredict_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Predict(context.Background(), "hi", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrStatus) {
		t.Error("transport failure must not look like a status error")
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"healthy","message":"ok","model":"log_reg_model:v1"}`))
	}))
	defer srv.Close()

	h, err := NewClient(srv.URL, 0).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if h.Status != "healthy" || h.Model != "log_reg_model:v1" {
		t.Errorf("got %+v", h)
	}
}
