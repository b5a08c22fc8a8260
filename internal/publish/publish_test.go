package publish

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"learnerportal/internal/ledger"
	"learnerportal/internal/models"
)

func testLearner() models.Learner {
	return models.NewLearner("ana@example.com", "Ana", "Consultora", models.Skills{}, 0)
}

func TestPublishSendsPayload(t *testing.T) {
	var got Payload
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("invalid payload %s: %v", body, err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second, true)
	l := ledger.Ledger{"s1-lunes": true, "s1-martes": false, "s2-lunes": true}

	if outcome := client.Publish(context.Background(), testLearner(), l); outcome != Dispatched {
		t.Fatalf("Publish() = %v, want dispatched", outcome)
	}

	if contentType != "application/json" {
		t.Errorf("Content-Type = %q", contentType)
	}
	want := Payload{
		Portal:       "simpledata",
		Email:        "ana@example.com",
		Name:         "Ana",
		Role:         "Consultora",
		Completed:    2,
		ProgressJSON: `{"s1-lunes":true,"s1-martes":false,"s2-lunes":true}`,
	}
	if got != want {
		t.Errorf("payload = %+v, want %+v", got, want)
	}
}

func TestPublishEmptyLedger(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "simpledata", 5*time.Second, false)
	if outcome := client.Publish(context.Background(), testLearner(), ledger.New()); outcome != Dispatched {
		t.Fatalf("Publish() = %v, want dispatched", outcome)
	}

	if raw["completadas"] != float64(0) {
		t.Errorf("completadas = %v, want 0", raw["completadas"])
	}
	if raw["progresoJSON"] != "{}" {
		t.Errorf("progresoJSON = %v, want {}", raw["progresoJSON"])
	}
}

func TestPublishIgnoresRemoteStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "script error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", 5*time.Second, false)
	if outcome := client.Publish(context.Background(), testLearner(), ledger.New()); outcome != Dispatched {
		t.Errorf("Publish() = %v, want dispatched regardless of status", outcome)
	}
}

func TestPublishTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, "", time.Second, false)
	if outcome := client.Publish(context.Background(), testLearner(), ledger.New()); outcome != DispatchFailed {
		t.Errorf("Publish() = %v, want dispatch failed", outcome)
	}
}

func TestPublishDisabled(t *testing.T) {
	client := NewClient("", "", time.Second, false)
	if client.Enabled() {
		t.Error("Enabled() = true for an empty endpoint")
	}
	if outcome := client.Publish(context.Background(), testLearner(), ledger.New()); outcome != DispatchFailed {
		t.Errorf("Publish() = %v, want dispatch failed", outcome)
	}
}

func TestOutcomeString(t *testing.T) {
	if Dispatched.String() != "dispatched" || DispatchFailed.String() != "dispatch failed" {
		t.Errorf("unexpected strings: %q, %q", Dispatched, DispatchFailed)
	}
}
