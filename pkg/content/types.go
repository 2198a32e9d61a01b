// SPDX-License-Identifier: MPL-2.0

package content

const (
	// FlavorStudio marks packages that carry space, runtime variable and
	// data model metadata alongside their nodes.
	FlavorStudio Flavor = "STUDIO"
	// FlavorAppPackage marks classic application packages.
	FlavorAppPackage Flavor = "APP_PACKAGE"

	// NodeTypePackage is the root node of every package.
	NodeTypePackage NodeType = "PACKAGE"
	// NodeTypeView is a view definition.
	NodeTypeView NodeType = "VIEW"
	// NodeTypeAnalysis is an analysis definition.
	NodeTypeAnalysis NodeType = "ANALYSIS"
	// NodeTypeSkill is a skill definition.
	NodeTypeSkill NodeType = "SKILL"
	// NodeTypeKnowledgeModel is a knowledge model definition.
	NodeTypeKnowledgeModel NodeType = "KNOWLEDGE_MODEL"
	// NodeTypeScenario is the reserved scenario type. Scenario nodes are
	// never carried in an exported archive.
	NodeTypeScenario NodeType = "SCENARIO"

	// VariableTypePlainText is a literal text value.
	VariableTypePlainText VariableType = "PLAIN_TEXT"
	// VariableTypeDataModel references a data model by id.
	VariableTypeDataModel VariableType = "DATA_MODEL"
	// VariableTypeConnection references an external system connection.
	VariableTypeConnection VariableType = "CONNECTION"
	// VariableTypeAssignmentRule binds a value through an assignment rule.
	VariableTypeAssignmentRule VariableType = "ASSIGNMENT_RULE"

	// AppModeViewer is the runtime variable lookup mode used for export.
	AppModeViewer AppMode = "VIEWER"
)

type (
	// Flavor classifies a package and decides which extra metadata travels with it.
	Flavor string

	// NodeType is the type discriminator of a node inside a package.
	NodeType string

	// VariableType is the type discriminator of a package variable.
	VariableType string

	// AppMode selects which runtime variable values the platform returns.
	AppMode string
)

// IsStudio reports whether packages of this flavor carry studio metadata.
func (f Flavor) IsStudio() bool { return f == FlavorStudio }

// String returns the string representation of the Flavor.
func (f Flavor) String() string { return string(f) }

// Exportable reports whether nodes of this type may be persisted in an
// exported package archive.
func (t NodeType) Exportable() bool {
	switch t {
	case NodeTypeScenario:
		return false
	default:
		return true
	}
}

// String returns the string representation of the NodeType.
func (t NodeType) String() string { return string(t) }

// IsConnection reports whether the variable references a connection.
func (t VariableType) IsConnection() bool { return t == VariableTypeConnection }

// String returns the string representation of the VariableType.
func (t VariableType) String() string { return string(t) }
