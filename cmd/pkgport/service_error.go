// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/invowk/pkgport/internal/issue"
)

// issueRenderStyle is the glamour style used for catalog entries.
const issueRenderStyle = "dark"

// renderFailure prints the guidance for a failed command to stderr: the
// suggestions (or the full cause chain with verbose) and the rendered catalog
// entry of an actionable error. The error line itself is printed by fang.
func renderFailure(stderr io.Writer, err error, verbose bool, style string) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return
	}

	switch {
	case verbose:
		fmt.Fprintln(stderr, VerboseStyle.Render(ae.Format(true)))
	case ae.HasSuggestions():
		for _, suggestion := range ae.Suggestions {
			fmt.Fprintln(stderr, WarningStyle.Render("  • "+suggestion))
		}
	}

	if ae.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(ae.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(style)
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", ae.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}
