package api

import (
	"context"
	"os"
	"testing"
)

func TestIntegrationListBuilds(t *testing.T) {
	if os.Getenv("BK_TUI_INTEGRATION") == "" {
		t.Skip("Set BK_TUI_INTEGRATION=1 to run integration tests")
	}

	client, err := NewClient("", os.Getenv("BUILDKITE_ORG"), WithToken(os.Getenv("BUILDKITE_TOKEN")))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	pipelines, err := client.ListPipelines(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("ListPipelines: %v", err)
	}
	if len(pipelines) == 0 {
		t.Skip("organization has no pipelines")
	}

	builds, err := client.ListBuilds(context.Background(), pipelines[0].Slug, BuildsFilter{PerPage: 5})
	if err != nil {
		t.Fatalf("ListBuilds: %v", err)
	}

	t.Logf("Found %d builds for %s", len(builds), pipelines[0].Slug)
	for _, b := range builds {
		t.Logf("  #%d %s [%s] %s", b.Number, b.Title(), b.Status(), b.Branch)
	}
}
