// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/invowk/pkgport/pkg/content"
)

const (
	importFilePart      = "file"
	importVariablesPart = "mappedVariables"
	importArchiveName   = "export.zip"
)

// ListPackages returns every package visible to the token.
func (c *Client) ListPackages(ctx context.Context) ([]content.PackageSummary, error) {
	var packages []content.PackageSummary
	if err := c.getJSON(ctx, "/packages", nil, &packages); err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	return packages, nil
}

// ExportPackages exports the active versions of keys as one batch archive.
func (c *Client) ExportPackages(ctx context.Context, keys []string, withDependencies bool) ([]byte, error) {
	query := url.Values{}
	for _, k := range keys {
		query.Add("packageKeys", k)
	}
	query.Set("withDependencies", strconv.FormatBool(withDependencies))

	data, err := c.doBytes(ctx, http.MethodGet, "/core/packages/export/batch", query, http.NoBody, "")
	if err != nil {
		return nil, fmt.Errorf("exporting packages: %w", err)
	}
	return data, nil
}

// ExportPackagesByVersion exports explicit package versions as one batch archive.
func (c *Client) ExportPackagesByVersion(ctx context.Context, pairs []content.PackageVersion, withDependencies bool) ([]byte, error) {
	body, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("exporting packages by version: encoding request: %w", err)
	}
	query := url.Values{"withDependencies": {strconv.FormatBool(withDependencies)}}

	data, err := c.doBytes(ctx, http.MethodPost, "/core/packages/export/batch/by-version", query, bytes.NewReader(body), contentTypeJSON)
	if err != nil {
		return nil, fmt.Errorf("exporting packages by version: %w", err)
	}
	return data, nil
}

// ExportVariables returns the variables with their assignments for every
// requested package version, in one batched call.
func (c *Client) ExportVariables(ctx context.Context, pairs []content.PackageVersion) ([]content.VariableManifest, error) {
	var manifests []content.VariableManifest
	if err := c.doJSON(ctx, http.MethodPost, "/core/packages/export/batch/variables-with-assignments", nil, pairs, &manifests); err != nil {
		return nil, fmt.Errorf("exporting variables: %w", err)
	}
	return manifests, nil
}

// ImportPackages submits a batch archive together with its variable
// manifests. The platform answers with the versions it created.
func (c *Client) ImportPackages(ctx context.Context, archiveData []byte, variables []content.VariableManifest, overwrite bool) ([]content.ImportReport, error) {
	if variables == nil {
		variables = []content.VariableManifest{}
	}
	varsJSON, err := json.Marshal(variables)
	if err != nil {
		return nil, fmt.Errorf("importing packages: encoding variables: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(importFilePart, importArchiveName)
	if err != nil {
		return nil, fmt.Errorf("importing packages: %w", err)
	}
	if _, err := fw.Write(archiveData); err != nil {
		return nil, fmt.Errorf("importing packages: %w", err)
	}
	if err := mw.WriteField(importVariablesPart, string(varsJSON)); err != nil {
		return nil, fmt.Errorf("importing packages: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("importing packages: %w", err)
	}

	query := url.Values{"overwrite": {strconv.FormatBool(overwrite)}}
	data, err := c.doBytes(ctx, http.MethodPost, "/core/packages/import/batch", query, &body, mw.FormDataContentType())
	if err != nil {
		return nil, fmt.Errorf("importing packages: %w", err)
	}

	var reports []content.ImportReport
	if len(bytes.TrimSpace(data)) == 0 {
		return reports, nil
	}
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("importing packages: decoding response: %w", err)
	}
	return reports, nil
}

// ListPackagesWithVariableAssignments returns the packages that carry at
// least one variable assignment of the given type.
func (c *Client) ListPackagesWithVariableAssignments(ctx context.Context, varType content.VariableType) ([]content.PackageWithAssignments, error) {
	var packages []content.PackageWithAssignments
	query := url.Values{"type": {varType.String()}}
	if err := c.getJSON(ctx, "/packages/with-variable-assignments", query, &packages); err != nil {
		return nil, fmt.Errorf("listing packages with %s assignments: %w", varType, err)
	}
	return packages, nil
}

// MovePackage moves a package into a space.
func (c *Client) MovePackage(ctx context.Context, packageKey, spaceID string) error {
	path := escapedPath("packages", packageKey, "move", spaceID)
	if err := c.doJSON(ctx, http.MethodPut, path, nil, nil, nil); err != nil {
		return fmt.Errorf("moving package %s to space %s: %w", packageKey, spaceID, err)
	}
	return nil
}
