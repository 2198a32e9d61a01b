// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	t.Parallel()

	if PlatformUnreachableId != 1 {
		t.Errorf("PlatformUnreachableId = %d, want 1", PlatformUnreachableId)
	}

	all := Values()
	if len(all) != int(WriteOutputFailedId) {
		t.Fatalf("catalog has %d entries, want %d", len(all), WriteOutputFailedId)
	}
	for i, entry := range all {
		if entry.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, entry.Id(), i+1)
		}
		if strings.TrimSpace(string(entry.MarkdownMsg())) == "" {
			t.Errorf("issue %d has no guidance", entry.Id())
		}
	}
}

func TestGet_Unknown(t *testing.T) {
	t.Parallel()

	if Get(0) != nil || Get(Id(999)) != nil {
		t.Error("Get() should return nil for unknown ids")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	entry := Get(SpaceNotFoundId)
	if entry == nil {
		t.Fatal("Get(SpaceNotFoundId) returned nil")
	}
	out, err := entry.Render("notty")
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if !strings.Contains(out, "target space does not exist") {
		t.Errorf("rendered output is missing the title: %q", out)
	}
}

func TestIssue_RenderWithLinks(t *testing.T) {
	t.Parallel()

	entry := &Issue{id: 42, mdMsg: "# Title", docLinks: []HttpLink{"https://example.com/docs"}}
	out, err := entry.Render("notty")
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if !strings.Contains(out, "https://example.com/docs") {
		t.Errorf("rendered output is missing the link: %q", out)
	}
	links := entry.DocLinks()
	links[0] = "mutated"
	if entry.DocLinks()[0] != "https://example.com/docs" {
		t.Error("DocLinks() must return a copy")
	}
}
