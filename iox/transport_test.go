package iox

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBearerTransportAddsHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := NewBearerClient("secret-token", 5*time.Second)
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	DiscardClose(resp.Body)

	if got != "Bearer secret-token" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestBearerTransportDoesNotMutateOriginal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	tr := &BearerTransport{Token: "secret"}
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	DiscardClose(resp.Body)

	if req.Header.Get("Authorization") != "" {
		t.Error("original request was mutated")
	}
}
