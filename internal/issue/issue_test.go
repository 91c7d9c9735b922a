// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestCatalog(t *testing.T) {
	t.Parallel()

	ids := []Id{
		ManifestNotFoundId,
		ManifestParseErrorId,
		UnrecognizedDependencyId,
		FetchFailedId,
		PropagationFailedId,
		RegistryUnavailableId,
		ConfigLoadFailedId,
		AlreadyAddedId,
	}

	if ManifestNotFoundId != 1 {
		t.Errorf("ManifestNotFoundId = %d, want 1", ManifestNotFoundId)
	}
	for _, id := range ids {
		entry := Get(id)
		if entry == nil {
			t.Errorf("Get(%d) = nil", id)
			continue
		}
		if entry.Id() != id {
			t.Errorf("Get(%d).Id() = %d", id, entry.Id())
		}
		if !strings.HasPrefix(strings.TrimSpace(string(entry.MarkdownMsg())), "# ") {
			t.Errorf("issue %d should start with a heading", id)
		}
	}

	values := Values()
	if len(values) != len(ids) {
		t.Fatalf("Values() returned %d entries, want %d", len(values), len(ids))
	}
	for i, entry := range values {
		if entry.Id() != ids[i] {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, entry.Id(), ids[i])
		}
	}

	if Get(0) != nil {
		t.Error("Get(0) should be nil")
	}
}

func TestIssueDocLinksAreCopied(t *testing.T) {
	t.Parallel()

	entry := Get(ManifestNotFoundId)
	links := entry.DocLinks()
	if len(links) == 0 {
		t.Fatal("expected doc links")
	}
	links[0] = "changed"
	if entry.DocLinks()[0] == "changed" {
		t.Error("DocLinks() should return a copy")
	}
}

func TestIssueRender(t *testing.T) {
	t.Parallel()

	out, err := Get(UnrecognizedDependencyId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "Unrecognized dependency") {
		t.Errorf("rendered output missing title:\n%s", out)
	}

	out, err = Get(PropagationFailedId).Render("notty")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "https://smaug.dev/docs/packages") {
		t.Errorf("rendered output missing doc link:\n%s", out)
	}
}
