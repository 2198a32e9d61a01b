// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/invowk/pkgport/pkg/content"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL+"/"), WithToken("secret"), WithHTTPClient(srv.Client()))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestClient_SendsAuthAndUserAgent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer secret")
		}
		if got := r.Header.Get("User-Agent"); got != "pkgport/test" {
			t.Errorf("User-Agent = %q", got)
		}
		if r.URL.Path != "/package-manager/api/packages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeJSON(t, w, []content.PackageSummary{{ID: "1", Key: "key-1", Flavor: content.FlavorStudio}})
	})
	WithUserAgent("pkgport/test")(client)

	got, err := client.ListPackages(t.Context())
	if err != nil {
		t.Fatalf("ListPackages() failed: %v", err)
	}
	if len(got) != 1 || got[0].Key != "key-1" || !got[0].Flavor.IsStudio() {
		t.Errorf("ListPackages() = %+v", got)
	}
}

func TestClient_StatusError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such space", http.StatusNotFound)
	})

	_, err := client.GetSpace(t.Context(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetSpace() error = %v, want ErrNotFound", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("GetSpace() error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound || statusErr.Body != "no such space" {
		t.Errorf("StatusError = %+v", statusErr)
	}
	if statusErr.Path != "/package-manager/api/spaces/missing" {
		t.Errorf("StatusError.Path = %q", statusErr.Path)
	}
}

func TestClient_ServerErrorIsNotNotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := client.ListSpaces(t.Context())
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("ListSpaces() error = %v, want non-404 status error", err)
	}
}

func TestClient_MissingBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient().ListPackages(t.Context()); err == nil {
		t.Fatal("expected error without a base URL")
	}
}

func TestExportPackages_Query(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/package-manager/api/core/packages/export/batch" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if keys := q["packageKeys"]; !slices.Equal(keys, []string{"a", "b"}) {
			t.Errorf("packageKeys = %v", keys)
		}
		if q.Get("withDependencies") != "true" {
			t.Errorf("withDependencies = %q", q.Get("withDependencies"))
		}
		_, _ = w.Write([]byte("zip-bytes"))
	})

	data, err := client.ExportPackages(t.Context(), []string{"a", "b"}, true)
	if err != nil {
		t.Fatalf("ExportPackages() failed: %v", err)
	}
	if string(data) != "zip-bytes" {
		t.Errorf("ExportPackages() = %q", data)
	}
}

func TestExportPackagesByVersion_Body(t *testing.T) {
	t.Parallel()

	pairs := []content.PackageVersion{{PackageKey: "a", Version: "1.0.0"}}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/package-manager/api/core/packages/export/batch/by-version" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var got []content.PackageVersion
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		if !slices.Equal(got, pairs) {
			t.Errorf("body = %v, want %v", got, pairs)
		}
		_, _ = w.Write([]byte("zip"))
	})

	if _, err := client.ExportPackagesByVersion(t.Context(), pairs, false); err != nil {
		t.Fatalf("ExportPackagesByVersion() failed: %v", err)
	}
}

func TestImportPackages_Multipart(t *testing.T) {
	t.Parallel()

	vars := []content.VariableManifest{{PackageKey: "a", Version: "1.0.0", Variables: []content.VariableExport{}}}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/package-manager/api/core/packages/import/batch" || r.URL.Query().Get("overwrite") != "true" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() failed: %v", err)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if string(data) != "archive" {
			t.Errorf("file part = %q", data)
		}
		var got []content.VariableManifest
		if err := json.Unmarshal([]byte(r.FormValue("mappedVariables")), &got); err != nil {
			t.Errorf("mappedVariables is not JSON: %v", err)
		}
		if len(got) != 1 || got[0].PackageKey != "a" {
			t.Errorf("mappedVariables = %+v", got)
		}
		writeJSON(t, w, []content.ImportReport{{
			PackageKey:       "a",
			ImportedVersions: []content.VersionMapping{{OldVersion: "1.0.0", NewVersion: "1.0.1"}},
		}})
	})

	reports, err := client.ImportPackages(t.Context(), []byte("archive"), vars, true)
	if err != nil {
		t.Fatalf("ImportPackages() failed: %v", err)
	}
	if len(reports) != 1 || reports[0].ImportedVersions[0].NewVersion != "1.0.1" {
		t.Errorf("ImportPackages() = %+v", reports)
	}
}

func TestSpacesAndRuntimeVariables(t *testing.T) {
	t.Parallel()

	var moved, setVars atomic.Bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/package-manager/api/spaces":
			var req createSpaceRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decoding body: %v", err)
			}
			writeJSON(t, w, content.Space{ID: "new-id", Name: req.Name, IconReference: req.IconReference})
		case r.Method == http.MethodPut && r.URL.Path == "/package-manager/api/packages/key-1/move/new-id":
			moved.Store(true)
		case r.Method == http.MethodGet && r.URL.Path == "/package-manager/api/nodes/by-package-key/key-1/variables/runtime-values":
			if r.URL.Query().Get("appMode") != "VIEWER" {
				t.Errorf("appMode = %q", r.URL.Query().Get("appMode"))
			}
			writeJSON(t, w, []content.VariableAssignment{{Key: "dm", Type: content.VariableTypeDataModel, Value: "dm-1"}})
		case r.Method == http.MethodPost && r.URL.Path == "/package-manager/api/nodes/by-package-key/key-1/variables/values":
			setVars.Store(true)
		case r.Method == http.MethodGet && r.URL.Path == "/package-manager/api/nodes/key-1/key-1":
			writeJSON(t, w, content.PackageNode{Key: "key-1", PackageKey: "key-1", SpaceID: "s-1"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	})
	ctx := t.Context()

	space, err := client.CreateSpace(ctx, "Studio", "earth")
	if err != nil || space.ID != "new-id" || space.Name != "Studio" {
		t.Fatalf("CreateSpace() = %+v, %v", space, err)
	}
	if err := client.MovePackage(ctx, "key-1", space.ID); err != nil || !moved.Load() {
		t.Fatalf("MovePackage() failed: %v", err)
	}
	assignments, err := client.GetRuntimeVariables(ctx, "key-1", content.AppModeViewer)
	if err != nil || len(assignments) != 1 {
		t.Fatalf("GetRuntimeVariables() = %+v, %v", assignments, err)
	}
	if err := client.SetRuntimeVariables(ctx, "key-1", assignments); err != nil || !setVars.Load() {
		t.Fatalf("SetRuntimeVariables() failed: %v", err)
	}
	node, err := client.GetPackageNode(ctx, "key-1")
	if err != nil || node.SpaceID != "s-1" {
		t.Fatalf("GetPackageNode() = %+v, %v", node, err)
	}
}
