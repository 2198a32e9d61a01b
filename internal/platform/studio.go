// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/invowk/pkgport/pkg/content"
)

type createSpaceRequest struct {
	Name          string `json:"name"`
	IconReference string `json:"iconReference"`
}

// GetPackageNode returns the root node of a package.
func (c *Client) GetPackageNode(ctx context.Context, packageKey string) (*content.PackageNode, error) {
	var node content.PackageNode
	if err := c.getJSON(ctx, escapedPath("nodes", packageKey, packageKey), nil, &node); err != nil {
		return nil, fmt.Errorf("getting node of package %s: %w", packageKey, err)
	}
	return &node, nil
}

// ListSpaces returns the live space catalog.
func (c *Client) ListSpaces(ctx context.Context) ([]content.Space, error) {
	var spaces []content.Space
	if err := c.getJSON(ctx, "/spaces", nil, &spaces); err != nil {
		return nil, fmt.Errorf("listing spaces: %w", err)
	}
	return spaces, nil
}

// GetSpace returns one space by id.
func (c *Client) GetSpace(ctx context.Context, id string) (*content.Space, error) {
	var space content.Space
	if err := c.getJSON(ctx, escapedPath("spaces", id), nil, &space); err != nil {
		return nil, fmt.Errorf("getting space %s: %w", id, err)
	}
	return &space, nil
}

// CreateSpace creates a space and returns it with its new id.
func (c *Client) CreateSpace(ctx context.Context, name, iconReference string) (*content.Space, error) {
	var space content.Space
	req := createSpaceRequest{Name: name, IconReference: iconReference}
	if err := c.doJSON(ctx, http.MethodPost, "/spaces", nil, req, &space); err != nil {
		return nil, fmt.Errorf("creating space %q: %w", name, err)
	}
	return &space, nil
}

// ListDataPools returns the data model catalog grouped by data pool.
func (c *Client) ListDataPools(ctx context.Context) ([]content.DataPool, error) {
	var pools []content.DataPool
	if err := c.getJSON(ctx, "/compute-pools/pools-with-data-models", nil, &pools); err != nil {
		return nil, fmt.Errorf("listing data pools: %w", err)
	}
	return pools, nil
}

// GetRuntimeVariables returns the runtime variable assignments of a package
// as seen in the given app mode.
func (c *Client) GetRuntimeVariables(ctx context.Context, packageKey string, mode content.AppMode) ([]content.VariableAssignment, error) {
	var assignments []content.VariableAssignment
	path := escapedPath("nodes", "by-package-key", packageKey, "variables", "runtime-values")
	query := url.Values{"appMode": {string(mode)}}
	if err := c.getJSON(ctx, path, query, &assignments); err != nil {
		return nil, fmt.Errorf("getting runtime variables of %s: %w", packageKey, err)
	}
	return assignments, nil
}

// SetRuntimeVariables replaces the runtime variable assignments of a package.
func (c *Client) SetRuntimeVariables(ctx context.Context, packageKey string, assignments []content.VariableAssignment) error {
	path := escapedPath("nodes", "by-package-key", packageKey, "variables", "values")
	if err := c.doJSON(ctx, http.MethodPost, path, nil, assignments, nil); err != nil {
		return fmt.Errorf("setting runtime variables of %s: %w", packageKey, err)
	}
	return nil
}
