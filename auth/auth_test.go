package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetTokenAndSetAuthHeader(t *testing.T) {
	// Simple OAuth2 token endpoint returning a static token
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"token123","token_type":"bearer","expires_in":3600}`))
	}))
	defer server.Close()

	cfg := Conf{ClientID: "id", ClientSecret: "secret", AuthURL: server.URL}
	client := NewClientCred(cfg)

	token, err := client.GetToken()
	if err != nil {
		t.Fatalf("GetToken returned error: %v", err)
	}
	if token != "token123" {
		t.Fatalf("unexpected token %s", token)
	}

	req, _ := http.NewRequest("GET", "http://example.com", nil)
	if err := client.SetAuthHeader(req); err != nil {
		t.Fatalf("SetAuthHeader returned error: %v", err)
	}
	if auth := req.Header.Get("Authorization"); auth == "" {
		t.Fatalf("Authorization header not set")
	}
}

func TestClientAddsBearer(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"abc","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()
	var got string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer api.Close()

	cc := NewClientCred(Conf{ClientID: "id", ClientSecret: "secret", AuthURL: tokenSrv.URL})
	cli := cc.Client(context.Background(), &http.Client{})
	resp, err := cli.Get(api.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if got != "Bearer abc" {
		t.Fatalf("unexpected authorization %q", got)
	}
}

func TestConfAudienceAndValidate(t *testing.T) {
	var audience string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		audience = r.Form.Get("audience")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"t","token_type":"bearer","expires_in":3600}`))
	}))
	defer server.Close()

	cfg := Conf{ClientID: "id", ClientSecret: "secret", AuthURL: server.URL, Audience: "telemetry"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, err := NewClientCred(cfg).GetToken(); err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if audience != "telemetry" {
		t.Fatalf("audience = %q", audience)
	}

	if err := (Conf{}).Validate(); err != nil {
		t.Fatalf("empty conf must be valid: %v", err)
	}
	if err := (Conf{AuthURL: server.URL}).Validate(); err == nil {
		t.Fatal("expected missing client_id error")
	}
	if err := (Conf{ClientID: "id", AuthURL: "not a url"}).Validate(); err == nil {
		t.Fatal("expected invalid url error")
	}
}
