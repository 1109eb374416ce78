package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchArchitecture(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		token   string
		wantErr error
		wantUID string
	}{
		{
			name:    "plain body",
			status:  http.StatusOK,
			body:    `{"uid": "shop", "name": "Shop"}`,
			token:   "secret",
			wantUID: "shop",
		},
		{
			name:    "data envelope",
			status:  http.StatusOK,
			body:    `{"data": {"uid": "shop", "name": "Shop"}}`,
			wantUID: "shop",
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			body:    `{"error": "nope"}`,
			wantErr: ErrArchitectureNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotPath = r.URL.Path
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			t.Setenv(TokenEnvVar, "from-env")

			arch, err := FetchArchitecture(context.Background(), RemoteConfig{
				BaseURL: srv.URL + "/api/",
				UID:     "shop",
				Token:   tt.token,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FetchArchitecture() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchArchitecture() error = %v", err)
			}

			if arch.UID != tt.wantUID {
				t.Errorf("UID = %q, want %q", arch.UID, tt.wantUID)
			}
			if gotPath != "/api/architectures/shop" {
				t.Errorf("path = %q", gotPath)
			}
			wantToken := tt.token
			if wantToken == "" {
				wantToken = "from-env"
			}
			if gotAuth != "Bearer "+wantToken {
				t.Errorf("Authorization = %q, want Bearer %s", gotAuth, wantToken)
			}
		})
	}
}

func TestFetchArchitectureRequiresConfig(t *testing.T) {
	ctx := context.Background()

	if _, err := FetchArchitecture(ctx, RemoteConfig{UID: "x"}); err == nil {
		t.Error("expected error without base url")
	}
	if _, err := FetchArchitecture(ctx, RemoteConfig{BaseURL: "http://localhost"}); err == nil {
		t.Error("expected error without uid")
	}
}

func TestFetchArchitectureClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := FetchArchitecture(context.Background(), RemoteConfig{BaseURL: srv.URL, UID: "shop"})
	if err == nil {
		t.Fatal("expected error for 403")
	}
	if errors.Is(err, ErrArchitectureNotFound) {
		t.Error("403 should not be reported as not found")
	}
}
