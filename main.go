// SPDX-License-Identifier: MPL-2.0

// pkgport exports and imports batches of content packages.
package main

import cmd "github.com/invowk/pkgport/cmd/pkgport"

func main() {
	cmd.Execute()
}
