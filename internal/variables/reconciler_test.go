// SPDX-License-Identifier: MPL-2.0

package variables

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/invowk/pkgport/pkg/content"
)

type fakeSource struct {
	calls     int
	gotPairs  []content.PackageVersion
	manifests []content.VariableManifest
	err       error
}

func (f *fakeSource) ExportVariables(_ context.Context, pairs []content.PackageVersion) ([]content.VariableManifest, error) {
	f.calls++
	f.gotPairs = pairs
	return f.manifests, f.err
}

func TestDeriveRequestPairs(t *testing.T) {
	t.Parallel()

	entries := []content.PackageManifestEntry{
		{
			PackageKey: "key-1",
			DependenciesByVersion: map[string][]content.DependencyEntry{
				"1.0.0": {{Key: "key-2", Version: "1.0.0"}},
			},
		},
		{
			PackageKey: "key-2",
			DependenciesByVersion: map[string][]content.DependencyEntry{
				"1.1.1": {},
				"1.0.0": {},
			},
		},
		{PackageKey: "key-3"},
	}

	got := DeriveRequestPairs(entries)
	want := []content.PackageVersion{
		{PackageKey: "key-1", Version: "1.0.0"},
		{PackageKey: "key-2", Version: "1.0.0"},
		{PackageKey: "key-2", Version: "1.1.1"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("DeriveRequestPairs() = %v, want %v", got, want)
	}
}

func TestDeriveRequestPairs_KeepsDuplicates(t *testing.T) {
	t.Parallel()

	entry := content.PackageManifestEntry{
		PackageKey:            "dup",
		DependenciesByVersion: map[string][]content.DependencyEntry{"1.0.0": {}},
	}
	got := DeriveRequestPairs([]content.PackageManifestEntry{entry, entry})
	if len(got) != 2 {
		t.Errorf("got %d pairs, want 2 (duplicates are collapsed server-side)", len(got))
	}
}

func TestFixConnectionVariables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   content.VariableExport
		want content.VariableExport
	}{
		{
			name: "connection with appName",
			in: content.VariableExport{
				Key:      "conn",
				Type:     content.VariableTypeConnection,
				Value:    map[string]any{"appName": "sap", "connectionId": "c-1"},
				Metadata: map[string]any{"appName": "stale", "other": "kept"},
			},
			want: content.VariableExport{
				Key:      "conn",
				Type:     content.VariableTypeConnection,
				Value:    map[string]any{"appName": "sap", "connectionId": "c-1"},
				Metadata: map[string]any{"appName": "sap", "other": "kept"},
			},
		},
		{
			name: "connection with nil metadata gains metadata",
			in: content.VariableExport{
				Key:   "conn",
				Type:  content.VariableTypeConnection,
				Value: map[string]any{"appName": "sap"},
			},
			want: content.VariableExport{
				Key:      "conn",
				Type:     content.VariableTypeConnection,
				Value:    map[string]any{"appName": "sap"},
				Metadata: map[string]any{"appName": "sap"},
			},
		},
		{
			name: "connection with null value passes through",
			in: content.VariableExport{
				Key:      "conn",
				Type:     content.VariableTypeConnection,
				Value:    nil,
				Metadata: nil,
			},
			want: content.VariableExport{
				Key:      "conn",
				Type:     content.VariableTypeConnection,
				Value:    nil,
				Metadata: nil,
			},
		},
		{
			name: "connection without appName passes through",
			in: content.VariableExport{
				Key:      "conn",
				Type:     content.VariableTypeConnection,
				Value:    map[string]any{"connectionId": "c-1"},
				Metadata: map[string]any{"x": "y"},
			},
			want: content.VariableExport{
				Key:      "conn",
				Type:     content.VariableTypeConnection,
				Value:    map[string]any{"connectionId": "c-1"},
				Metadata: map[string]any{"x": "y"},
			},
		},
		{
			name: "non-connection variable is untouched",
			in: content.VariableExport{
				Key:   "dm",
				Type:  content.VariableTypeDataModel,
				Value: map[string]any{"appName": "ignored"},
			},
			want: content.VariableExport{
				Key:   "dm",
				Type:  content.VariableTypeDataModel,
				Value: map[string]any{"appName": "ignored"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := []content.VariableManifest{{PackageKey: "p", Version: "1.0.0", Variables: []content.VariableExport{tt.in}}}
			got := FixConnectionVariables(in)
			if !reflect.DeepEqual(got[0].Variables[0], tt.want) {
				t.Errorf("FixConnectionVariables() = %+v, want %+v", got[0].Variables[0], tt.want)
			}

			again := FixConnectionVariables(got)
			if !reflect.DeepEqual(again, got) {
				t.Errorf("FixConnectionVariables() is not idempotent: %+v then %+v", got, again)
			}
		})
	}
}

func TestFixConnectionVariables_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	metadata := map[string]any{"appName": "stale"}
	in := []content.VariableManifest{{
		PackageKey: "p",
		Version:    "1.0.0",
		Variables: []content.VariableExport{{
			Key:      "conn",
			Type:     content.VariableTypeConnection,
			Value:    map[string]any{"appName": "fresh"},
			Metadata: metadata,
		}},
	}}
	FixConnectionVariables(in)
	if metadata["appName"] != "stale" {
		t.Errorf("input metadata was modified: %v", metadata)
	}
}

func TestReconciler_FetchAndFix(t *testing.T) {
	t.Parallel()

	src := &fakeSource{manifests: []content.VariableManifest{{
		PackageKey: "key-1",
		Version:    "1.0.0",
		Variables: []content.VariableExport{{
			Key:   "conn",
			Type:  content.VariableTypeConnection,
			Value: map[string]any{"appName": "sap"},
		}},
	}}}
	r := NewReconciler(src)

	pairs := []content.PackageVersion{{PackageKey: "key-1", Version: "1.0.0"}}
	got, err := r.FetchAndFix(t.Context(), pairs)
	if err != nil {
		t.Fatalf("FetchAndFix() failed: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
	if !slices.Equal(src.gotPairs, pairs) {
		t.Errorf("source got pairs %v, want %v", src.gotPairs, pairs)
	}
	if got[0].Variables[0].Metadata["appName"] != "sap" {
		t.Errorf("connection metadata not fixed: %+v", got[0].Variables[0])
	}
}

func TestReconciler_FetchAndFix_NoPairs(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	got, err := NewReconciler(src).FetchAndFix(t.Context(), nil)
	if err != nil {
		t.Fatalf("FetchAndFix() failed: %v", err)
	}
	if got != nil || src.calls != 0 {
		t.Errorf("expected no call and nil result, got %v after %d calls", got, src.calls)
	}
}

func TestReconciler_FetchAndFix_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := NewReconciler(&fakeSource{err: boom}).FetchAndFix(t.Context(), []content.PackageVersion{{PackageKey: "a", Version: "1"}})
	if !errors.Is(err, boom) {
		t.Fatalf("FetchAndFix() error = %v, want wrapped boom", err)
	}
}
