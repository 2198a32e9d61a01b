// SPDX-License-Identifier: MPL-2.0

package content

type (
	// Space is a tenant-scoped container that studio packages belong to.
	Space struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		IconReference string `json:"iconReference"`
	}

	// DataModelRef is a resolved data model attached to a listed package.
	DataModelRef struct {
		Name        string `json:"name"`
		PoolID      string `json:"poolId"`
		DataModelID string `json:"dataModelId"`
	}

	// PackageSummary is one entry of the platform package listing.
	PackageSummary struct {
		ID            string         `json:"id"`
		Key           string         `json:"key"`
		Name          string         `json:"name"`
		Flavor        Flavor         `json:"flavor"`
		ActiveVersion string         `json:"activeVersion,omitempty"`
		SpaceID       string         `json:"spaceId,omitempty"`
		Datamodels    []DataModelRef `json:"datamodels,omitempty"`
	}

	// PackageWithAssignments is a package together with the variable
	// assignments of one requested type.
	PackageWithAssignments struct {
		Key                 string               `json:"key"`
		SpaceID             string               `json:"spaceId"`
		VariableAssignments []VariableAssignment `json:"variableAssignments"`
	}

	// DataModel is one data model inside a data pool.
	DataModel struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// DataPool is one entry of the data model catalog.
	DataPool struct {
		ID         string      `json:"id"`
		Name       string      `json:"name"`
		DataModels []DataModel `json:"dataModels"`
	}

	// PackageNode is the root node of a package as returned by the node lookup.
	PackageNode struct {
		Key        string `json:"key"`
		PackageKey string `json:"packageKey"`
		Name       string `json:"name"`
		SpaceID    string `json:"spaceId"`
	}

	// VersionMapping records the version a package version was imported as.
	VersionMapping struct {
		OldVersion string `json:"oldVersion"`
		NewVersion string `json:"newVersion"`
	}

	// ImportReport lists the imported versions of one package.
	ImportReport struct {
		PackageKey       string           `json:"packageKey"`
		ImportedVersions []VersionMapping `json:"importedVersions"`
	}
)
