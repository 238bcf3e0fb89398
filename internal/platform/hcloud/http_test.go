package hcloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/hetznercloud/hcloud-go/v2/hcloud/schema"
)

// testServer creates an httptest server that can be used to mock Hetzner Cloud API responses.
type testServer struct {
	server *httptest.Server
	mux    *http.ServeMux
}

// newTestServer creates a new test server for mocking the Hetzner Cloud API.
func newTestServer() *testServer {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	return &testServer{
		server: server,
		mux:    mux,
	}
}

// close shuts down the test server.
func (ts *testServer) close() {
	ts.server.Close()
}

// client returns an hcloud.Client configured to use the test server.
func (ts *testServer) client() *hcloud.Client {
	return hcloud.NewClient(
		hcloud.WithToken("test-token"),
		hcloud.WithEndpoint(ts.server.URL),
	)
}

// realClient returns a RealClient configured to use the test server.
func (ts *testServer) realClient() *RealClient {
	return NewRealClient("test-token", WithHCloudClient(ts.client()))
}

// handleFunc registers a handler for a specific path.
func (ts *testServer) handleFunc(pattern string, handler http.HandlerFunc) {
	ts.mux.HandleFunc(pattern, handler)
}

// jsonResponse writes a JSON response with the given status code and body.
func jsonResponse(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func TestRealClient_GetServerByName_WithHTTPMock(t *testing.T) {
	t.Parallel()
	t.Run("server exists", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer()
		defer ts.close()

		ts.handleFunc("/servers", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("name") != "demo-cp-1" {
				jsonResponse(w, http.StatusOK, schema.ServerListResponse{Servers: []schema.Server{}})
				return
			}
			jsonResponse(w, http.StatusOK, schema.ServerListResponse{
				Servers: []schema.Server{{ID: 42, Name: "demo-cp-1", Status: "running"}},
			})
		})

		server, err := ts.realClient().GetServerByName(context.Background(), "demo-cp-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if server == nil {
			t.Fatal("expected a server, got nil")
		}
		if server.ID != 42 || server.Name != "demo-cp-1" {
			t.Errorf("unexpected server: ID=%d Name=%q", server.ID, server.Name)
		}
	})

	t.Run("server does not exist", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer()
		defer ts.close()

		ts.handleFunc("/servers", func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, http.StatusOK, schema.ServerListResponse{Servers: []schema.Server{}})
		})

		server, err := ts.realClient().GetServerByName(context.Background(), "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if server != nil {
			t.Errorf("expected nil for a missing server, got %+v", server)
		}
	})
}

func TestRealClient_ListServersByLabel_WithHTTPMock(t *testing.T) {
	t.Parallel()
	ts := newTestServer()
	defer ts.close()

	var gotSelector string
	ts.handleFunc("/servers", func(w http.ResponseWriter, r *http.Request) {
		gotSelector = r.URL.Query().Get("label_selector")
		jsonResponse(w, http.StatusOK, schema.ServerListResponse{
			Servers: []schema.Server{
				{ID: 1, Name: "demo-cp-1", Status: "running"},
				{ID: 2, Name: "demo-worker-1", Status: "running"},
			},
		})
	})

	servers, err := ts.realClient().ListServersByLabel(context.Background(), "kubelift.io/cluster=demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(servers))
	}
	if gotSelector != "kubelift.io/cluster=demo" {
		t.Errorf("expected label selector to be passed through, got %q", gotSelector)
	}
}
