package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/altinukshini/bk-tui/internal/model"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]ClientOption{WithRateLimit(rate.Inf, 1)}, opts...)
	c, err := NewClient(srv.URL+"/v2", "acme", opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestPipelinePath(t *testing.T) {
	c := &Client{org: "acme"}
	got := c.pipelinePath("web app", "builds/3")
	want := "organizations/acme/pipelines/web%20app/builds/3"
	if got != want {
		t.Errorf("pipelinePath() = %q, want %q", got, want)
	}
}

func TestNewClientRejectsBadScheme(t *testing.T) {
	if _, err := NewClient("ftp://example.com", "acme"); err == nil {
		t.Fatal("expected error for ftp base url")
	}
}

func TestListBuildsSendsBearerAndQuery(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"number":7,"state":"passed","branch":"main","started_at":"2024-05-15T12:00:00.000Z","finished_at":"2024-05-15T12:01:30.000Z"}]`)
	}, WithToken("s3cret"))

	builds, err := c.ListBuilds(context.Background(), "web", BuildsFilter{Branch: "main"})
	if err != nil {
		t.Fatalf("ListBuilds: %v", err)
	}

	if gotPath != "/v2/organizations/acme/pipelines/web/builds" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "branch=main&per_page=30" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAuth != "Bearer s3cret" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if len(builds) != 1 || builds[0].Number != 7 {
		t.Fatalf("builds = %+v", builds)
	}
	if builds[0].FinishedAt == nil || builds[0].Duration(*builds[0].FinishedAt) != "1m" {
		t.Errorf("duration not decoded from timestamps")
	}
}

func TestNoTokenSendsNoAuthorization(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `[]`)
	})

	if _, err := c.ListPipelines(context.Background(), 0, 0); err != nil {
		t.Fatalf("ListPipelines: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want none", gotAuth)
	}
}

func TestListBuilds404IsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	builds, err := c.ListBuilds(context.Background(), "gone", BuildsFilter{})
	if err != nil {
		t.Fatalf("ListBuilds: %v", err)
	}
	if builds == nil || len(builds) != 0 {
		t.Errorf("builds = %v, want empty", builds)
	}
}

func TestGetBuild404IsErrNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	_, err := c.GetBuild(context.Background(), "web", 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if StatusCode(err) != http.StatusNotFound {
		t.Errorf("StatusCode = %d", StatusCode(err))
	}
}

func TestServerErrorKeepsStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})

	_, err := c.GetPipeline(context.Background(), "web")
	if err == nil {
		t.Fatal("expected error")
	}
	if StatusCode(err) != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", StatusCode(err))
	}
}

func TestCreateBuildPostsBody(t *testing.T) {
	var got model.CreateBuild
	var method string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"number":8,"state":"scheduled"}`)
	})

	b, err := c.CreateBuild(context.Background(), "web", model.CreateBuild{Commit: "HEAD", Branch: "main", Message: "manual"})
	if err != nil {
		t.Fatalf("CreateBuild: %v", err)
	}
	if method != http.MethodPost {
		t.Errorf("method = %s", method)
	}
	if got.Branch != "main" || got.Commit != "HEAD" || got.Message != "manual" {
		t.Errorf("body = %+v", got)
	}
	if b.Number != 8 {
		t.Errorf("number = %d", b.Number)
	}
}

func TestUpdatePipelineConfigurationPatches(t *testing.T) {
	var method string
	var body map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = io.WriteString(w, `{"slug":"web","configuration":"steps: []"}`)
	})

	if _, err := c.UpdatePipelineConfiguration(context.Background(), "web", "steps:\n  - wait\n"); err != nil {
		t.Fatalf("UpdatePipelineConfiguration: %v", err)
	}
	if method != http.MethodPatch {
		t.Errorf("method = %s", method)
	}
	if body["configuration"] != "steps:\n  - wait\n" {
		t.Errorf("configuration = %q", body["configuration"])
	}
}

func TestBuildActionsUsePut(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		_, _ = io.WriteString(w, `{}`)
	})
	ctx := context.Background()

	if _, err := c.RebuildBuild(ctx, "web", 3); err != nil {
		t.Fatal(err)
	}
	if _, err := c.CancelBuild(ctx, "web", 3); err != nil {
		t.Fatal(err)
	}
	if _, err := c.RetryJob(ctx, "web", 3, "job-1"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"PUT /v2/organizations/acme/pipelines/web/builds/3/rebuild",
		"PUT /v2/organizations/acme/pipelines/web/builds/3/cancel",
		"PUT /v2/organizations/acme/pipelines/web/builds/3/jobs/job-1/retry",
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestGetJobLog(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v2/organizations/acme/pipelines/web/builds/3/jobs/missing/log" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"url":"x","content":"~~~ Running\n$ make\n","size":18}`)
	})
	ctx := context.Background()

	jl, err := c.GetJobLog(ctx, "web", 3, "job-1")
	if err != nil {
		t.Fatalf("GetJobLog: %v", err)
	}
	if jl.Content != "~~~ Running\n$ make\n" {
		t.Errorf("content = %q", jl.Content)
	}

	empty, err := c.GetJobLog(ctx, "web", 3, "missing")
	if err != nil {
		t.Fatalf("GetJobLog missing: %v", err)
	}
	if empty.Content != "" {
		t.Errorf("content = %q, want empty", empty.Content)
	}
}

func TestCanceledContextStopsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}, WithRateLimit(rate.Limit(0.001), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ListPipelines(ctx, 0, 0); err == nil {
		t.Fatal("expected error from canceled context")
	}
}

func TestListAgents(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `[{"id":"a1","name":"ci-1","connection_state":"connected","meta_data":["queue=deploy"],"job":{"id":"j1","state":"running"}}]`)
	})

	agents, err := c.ListAgents(context.Background(), 100, 1)
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if gotPath != "/v2/organizations/acme/agents" {
		t.Errorf("path = %q", gotPath)
	}
	if len(agents) != 1 {
		t.Fatalf("agents = %+v", agents)
	}
	a := agents[0]
	if !a.Connected() || !a.Busy() || a.Queue() != "deploy" {
		t.Errorf("agent = %+v", a)
	}
}

func TestListAgentsForbiddenIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"Forbidden"}`)
	})

	agents, err := c.ListAgents(context.Background(), 100, 1)
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if len(agents) != 0 {
		t.Errorf("agents = %+v, want none", agents)
	}
}

func TestRateLimitRecorded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("RateLimit-Remaining", "150")
		w.Header().Set("RateLimit-Limit", "200")
		w.Header().Set("RateLimit-Reset", "30")
		_, _ = io.WriteString(w, `[]`)
	})

	if _, err := c.ListPipelines(context.Background(), 10, 1); err != nil {
		t.Fatalf("ListPipelines: %v", err)
	}
	rl := c.RateLimit()
	if rl.Remaining != 150 || rl.Limit != 200 || rl.Reset != 30 {
		t.Errorf("RateLimit() = %+v", rl)
	}
}
