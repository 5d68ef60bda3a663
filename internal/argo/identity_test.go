package argo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestResolveIdentityFastPath(t *testing.T) {
	var hits int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	client := New(testOptions(ts.URL))
	ident := client.ResolveIdentity(context.Background(), ResolveInput{
		School:      "SS12345",
		Username:    "user1",
		AccessToken: "at",
		HintName:    "mario rossi",
		HintClass:   "3A",
	})
	if atomic.LoadInt64(&hits) != 0 {
		t.Fatalf("expected no network calls, got %d", hits)
	}
	if ident.Name != "MARIO ROSSI" || ident.Class != "3A" {
		t.Fatalf("identity = %+v", ident)
	}
}

func TestResolveIdentityRejectsUsernameEcho(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rest/dettaglioprofilo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"alunno": map[string]interface{}{"desNominativo": "Mario Rossi", "desClasse": "3A"},
			},
		})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := New(testOptions(ts.URL))
	// The hint carries the username echoed back as the display name, a
	// shape the cascade must not trust.
	ident := client.ResolveIdentity(context.Background(), ResolveInput{
		School:      "SS12345",
		Username:    "mario.rossi.99",
		AccessToken: "at",
		HintName:    "MARIO.ROSSI.99",
		HintClass:   "3A",
	})
	if ident.Name != "MARIO ROSSI" || ident.Class != "3A" {
		t.Fatalf("identity = %+v", ident)
	}
}

func TestResolveIdentityMergesHintClass(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rest/anagrafe", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"alunno": map[string]interface{}{"desNominativo": "Mario Rossi"},
		})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := New(testOptions(ts.URL))
	ident := client.ResolveIdentity(context.Background(), ResolveInput{
		School:      "SS12345",
		Username:    "user1",
		AccessToken: "at",
		HintClass:   "4C",
	})
	if ident.Name != "MARIO ROSSI" || ident.Class != "4C" {
		t.Fatalf("identity = %+v", ident)
	}
}

func TestResolveIdentityScrapeFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/argoweb/famiglia/index.jsf", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<span id="intesta-alunno"> Mario Rossi </span>
<span id="intesta-classe">3 A</span>
</body></html>`)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	client := New(testOptions(ts.URL))
	ident := client.ResolveIdentity(context.Background(), ResolveInput{
		School:      "SS12345",
		Username:    "user1",
		AccessToken: "at",
		Jar:         jar,
	})
	if ident.Name != "MARIO ROSSI" || ident.Class != "3A" {
		t.Fatalf("identity = %+v", ident)
	}
}

func TestResolveIdentityNeverFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	client := New(testOptions(ts.URL))
	ident := client.ResolveIdentity(context.Background(), ResolveInput{
		School:      "SS12345",
		Username:    "user1",
		AccessToken: "at",
	})
	if ident.Name != "" || ident.Class != "" {
		t.Fatalf("expected empty identity, got %+v", ident)
	}
}
