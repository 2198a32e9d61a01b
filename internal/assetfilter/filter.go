// SPDX-License-Identifier: MPL-2.0

// Package assetfilter removes node types that must not leave the platform
// from exported inner package archives.
package assetfilter

import (
	"strings"

	"github.com/invowk/pkgport/pkg/archive"
	"github.com/invowk/pkgport/pkg/content"
)

// StripScenarioNodes returns a copy of an inner archive without the node
// files under nodes/ whose type is not exportable. The package descriptor and
// every other entry pass through unchanged.
func StripScenarioNodes(inner []byte) ([]byte, error) {
	return archive.MapEntries(inner, func(e archive.Entry) (archive.Entry, bool, error) {
		if !strings.HasPrefix(e.Name, content.NodesDir) {
			return e, true, nil
		}
		node, err := content.ParseNode(e.Data)
		if err != nil {
			return e, false, err
		}
		return e, node.Type.Exportable(), nil
	})
}

// CountNodes returns the number of node files in an inner archive, grouped by type.
func CountNodes(inner []byte) (map[content.NodeType]int, error) {
	entries, err := archive.ReadEntries(inner)
	if err != nil {
		return nil, err
	}
	counts := make(map[content.NodeType]int)
	for _, e := range entries {
		if !strings.HasPrefix(e.Name, content.NodesDir) {
			continue
		}
		node, parseErr := content.ParseNode(e.Data)
		if parseErr != nil {
			return nil, parseErr
		}
		counts[node.Type]++
	}
	return counts, nil
}
