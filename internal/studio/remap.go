// SPDX-License-Identifier: MPL-2.0

package studio

import (
	"bytes"
	"strings"

	"github.com/invowk/pkgport/pkg/archive"
	"github.com/invowk/pkgport/pkg/content"
)

// spaceIDField is the top-level node field naming the owning space.
const spaceIDField = "spaceId"

// RemapSpace points package.json and every node file of an inner archive at
// newSpaceID. Occurrences of the space id recorded in the descriptor are
// replaced textually first, so references inside serialized documents and
// configurations follow along; the top-level spaceId of each file is then set
// regardless of its previous value. The archive is returned unchanged when
// newSpaceID is empty.
func RemapSpace(inner []byte, newSpaceID string) ([]byte, error) {
	if newSpaceID == "" {
		return inner, nil
	}
	oldSpaceID, err := descriptorSpaceID(inner)
	if err != nil {
		return nil, err
	}

	var oldID, newID []byte
	if oldSpaceID != "" && oldSpaceID != newSpaceID {
		oldID, newID = []byte(oldSpaceID), []byte(newSpaceID)
	}
	return archive.MapEntries(inner, func(e archive.Entry) (archive.Entry, bool, error) {
		if e.Name != content.PackageDescriptorFile && !strings.HasPrefix(e.Name, content.NodesDir) {
			return e, true, nil
		}
		if oldID != nil {
			e.Data = bytes.ReplaceAll(e.Data, oldID, newID)
		}
		data, setErr := content.SetNodeField(e.Data, spaceIDField, newSpaceID)
		if setErr != nil {
			return e, false, setErr
		}
		e.Data = data
		return e, true, nil
	})
}

func descriptorSpaceID(inner []byte) (string, error) {
	entries, err := archive.ReadEntries(inner)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.Name != content.PackageDescriptorFile {
			continue
		}
		node, parseErr := content.ParseNode(e.Data)
		if parseErr != nil {
			return "", parseErr
		}
		return node.SpaceID, nil
	}
	return "", nil
}
