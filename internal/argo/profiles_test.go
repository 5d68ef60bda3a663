package argo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestEnrichProfilesPlaceholders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	client := New(testOptions(ts.URL))
	raw := []RawProfile{
		{Token: "ptok-1"},
		{Token: "ptok-2"},
	}
	profiles := client.EnrichProfiles(context.Background(), "SS12345", "at", raw)
	if len(profiles) != 2 {
		t.Fatalf("profiles = %d, want 2", len(profiles))
	}
	for i, p := range profiles {
		if p.Index != i {
			t.Errorf("profile %d index = %d", i, p.Index)
		}
		if p.Class != "N/D" {
			t.Errorf("profile %d class = %q, want N/D", i, p.Class)
		}
		if p.School != "SS12345" {
			t.Errorf("profile %d school = %q", i, p.School)
		}
	}
	if profiles[0].Name != "STUDENTE 1" || profiles[1].Name != "STUDENTE 2" {
		t.Fatalf("names = %q, %q", profiles[0].Name, profiles[1].Name)
	}
	if profiles[0].AuthToken != "ptok-1" || profiles[1].AuthToken != "ptok-2" {
		t.Fatalf("tokens not preserved: %q, %q", profiles[0].AuthToken, profiles[1].AuthToken)
	}
}

func TestEnrichProfilesHintSkipsProbes(t *testing.T) {
	var hits int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	client := New(testOptions(ts.URL))
	raw := []RawProfile{{
		Token: "ptok-1",
		Data: map[string]interface{}{
			"alunno":    map[string]interface{}{"desNominativo": "Mario Rossi", "desClasse": "3A"},
			"desScuola": "ITIS GALILEI",
		},
	}}
	profiles := client.EnrichProfiles(context.Background(), "SS12345", "at", raw)
	if atomic.LoadInt64(&hits) != 0 {
		t.Fatalf("expected no probe calls, got %d", hits)
	}
	if profiles[0].Name != "MARIO ROSSI" || profiles[0].Class != "3A" || profiles[0].School != "ITIS GALILEI" {
		t.Fatalf("profile = %+v", profiles[0])
	}
}

func TestEnrichProfilesProbeRecovery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rest/dettaglioprofilo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-auth-token") != "ptok-1" {
			t.Errorf("x-auth-token = %q", r.Header.Get("x-auth-token"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"alunno": map[string]interface{}{"desNominativo": "Mario Rossi", "desClasse": "3AB"},
			},
		})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := New(testOptions(ts.URL))
	profiles := client.EnrichProfiles(context.Background(), "SS12345", "at", []RawProfile{{Token: "ptok-1"}})
	if profiles[0].Name != "MARIO ROSSI" {
		t.Fatalf("name = %q", profiles[0].Name)
	}
	if profiles[0].Class != "3A" {
		t.Fatalf("class = %q, want 3A (multi-letter section reduced)", profiles[0].Class)
	}
}

func TestEnrichProfilesLegacyBaseFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/legacy/rest/dettaglioprofilo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"alunno": map[string]interface{}{"nominativo": "Lucia Bianchi", "classe": "5 F"},
		})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := New(testOptions(ts.URL))
	profiles := client.EnrichProfiles(context.Background(), "SS12345", "at", []RawProfile{{Token: "ptok-1"}})
	if profiles[0].Name != "LUCIA BIANCHI" || profiles[0].Class != "5F" {
		t.Fatalf("profile = %+v", profiles[0])
	}
}

func TestRunProbesMergesPartialResults(t *testing.T) {
	mux := http.NewServeMux()
	// First probe knows the name, a later one knows the class.
	mux.HandleFunc("/api/rest/dettaglioprofilo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"alunno": map[string]interface{}{"desNominativo": "Mario Rossi"},
		})
	})
	mux.HandleFunc("/api/rest/schedaalunno", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"alunno": map[string]interface{}{"desClasse": "2B"},
		})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := New(testOptions(ts.URL))
	headers := client.Headers("SS12345", "at", "ptok-1")
	ident := client.runProbes(context.Background(), headers, enumerationProbes)
	if ident.Name != "Mario Rossi" || ident.Class != "2B" {
		t.Fatalf("merged identity = %+v", ident)
	}
}
