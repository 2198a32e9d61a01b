// SPDX-License-Identifier: MPL-2.0

// Package cueutil formats CUE validation errors for users.
//
// Configuration files are validated by unifying them with an embedded schema.
// The raw CUE errors name internal positions; FormatError rewrites them as
// "<file>: <json-path>: <message>" lines:
//
//	userValue := ctx.CompileBytes(data, cue.Filename(path))
//	unified := schema.Unify(userValue)
//	if err := unified.Validate(cue.Concrete(false)); err != nil {
//	    return cueutil.FormatError(err, path)
//	}
package cueutil
