package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbarbosa/espalier/internal/logging"
	"github.com/pbarbosa/espalier/internal/runtime"
	"github.com/pbarbosa/espalier/pkg/domain"
	"github.com/pbarbosa/espalier/pkg/ports"
	"github.com/pbarbosa/espalier/pkg/profile"
)

type engineRunner struct {
	engine   *runtime.Engine
	profiles *profile.Registry
}

func (r *engineRunner) Run(ctx context.Context, pipeline *ports.Pipeline, profileName string) (*domain.ExecutionResult, error) {
	prof, err := r.profiles.Get(profileName)
	if err != nil {
		return nil, err
	}
	return r.engine.Execute(ctx, pipeline.Graph, nil, prof)
}

func testServer(t *testing.T) http.Handler {
	t.Helper()
	g := domain.NewGraph()
	pass := domain.ExecutableFunc(func(ctx context.Context, in *domain.ExecutionContext) (*domain.ExecutionContext, error) {
		return in, nil
	})
	require.NoError(t, g.AddNode("fetch", pass, nil))
	require.NoError(t, g.AddNode("score", pass, nil))
	require.NoError(t, g.AddEdge("fetch", "score"))

	pipeline := &ports.Pipeline{Name: "scoring", Profile: "balanced", Graph: g}
	profiles := profile.Default()
	runner := &engineRunner{engine: runtime.NewEngine(), profiles: profiles}
	return NewHandler(pipeline, runner, profiles, logging.NewNop())
}

func TestServer_Health(t *testing.T) {
	srv := httptest.NewServer(testServer(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "scoring", body["pipeline"])
	assert.Equal(t, float64(2), body["nodes"])
}

func TestServer_Profiles(t *testing.T) {
	srv := httptest.NewServer(testServer(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/profiles")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 3)

	names := make([]string, 0, len(body))
	for _, p := range body {
		names = append(names, p["name"].(string))
	}
	assert.Equal(t, []string{"balanced", "incident-safe", "resilient"}, names)
}

func TestServer_Graph(t *testing.T) {
	srv := httptest.NewServer(testServer(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/graph")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Pipeline string `json:"pipeline"`
		Nodes    []struct {
			ID    string   `json:"id"`
			Needs []string `json:"needs"`
		} `json:"nodes"`
		Edges []struct {
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"edges"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "scoring", body.Pipeline)
	require.Len(t, body.Nodes, 2)
	require.Len(t, body.Edges, 1)
	assert.Equal(t, "fetch", body.Edges[0].Source)
	assert.Equal(t, []string{"fetch"}, body.Nodes[1].Needs)
}

func TestServer_RunAndMermaidOverlay(t *testing.T) {
	srv := httptest.NewServer(testServer(t))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["succeeded"])

	// The mermaid view now carries the last run's statuses.
	resp2, err := http.Get(srv.URL + "/graph/mermaid")
	require.NoError(t, err)
	defer resp2.Body.Close()
	buf := make([]byte, 4096)
	n, _ := resp2.Body.Read(buf)
	assert.Contains(t, string(buf[:n]), "class fetch succeeded;")
}

func TestServer_RunUnknownProfile(t *testing.T) {
	srv := httptest.NewServer(testServer(t))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/run?profile=turbo", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	srv := httptest.NewServer(testServer(t))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
