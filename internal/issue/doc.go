// SPDX-License-Identifier: MPL-2.0

// Package issue provides the fatal error kind of the export and import flows.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. A small catalog of Markdown guidance, rendered with
// glamour, can be linked to an error through its IssueID.
package issue
