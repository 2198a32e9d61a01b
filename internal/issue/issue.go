// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalog entry.
type Id int

const (
	PlatformUnreachableId Id = iota + 1
	AuthenticationFailedId
	PackageNotFoundId
	SpaceNotFoundId
	InvalidArchiveId
	GitSyncFailedId
	ConfigLoadFailedId
	WriteOutputFailedId
)

type (
	// MarkdownMsg is Markdown guidance rendered below a fatal error.
	MarkdownMsg string

	// HttpLink is a documentation or external reference.
	HttpLink string

	// Issue is one catalog entry.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the catalog id.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw Markdown guidance.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the guidance and its links for the terminal with the given
// glamour style ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	platformUnreachableIssue = &Issue{
		id: PlatformUnreachableId,
		mdMsg: `
# The platform could not be reached

## Things you can try
- Check ` + "`platform.url`" + ` with:
~~~
$ pkgport config show
~~~
- Make sure the team URL is reachable from this machine (VPN, proxy).`,
	}

	authenticationFailedIssue = &Issue{
		id: AuthenticationFailedId,
		mdMsg: `
# The platform rejected the credentials

The API token is read from the environment variable named by ` + "`platform.token_env`" + `
(default ` + "`PKGPORT_TOKEN`" + `), or from a ` + "`.env`" + ` file in the working directory.

## Things you can try
- Export a valid token:
~~~
$ export PKGPORT_TOKEN=<api-key>
~~~
- Check that the key has the package manager permissions for this team.`,
	}

	packageNotFoundIssue = &Issue{
		id: PackageNotFoundId,
		mdMsg: `
# A requested package does not exist

## Things you can try
- List the packages visible to your token:
~~~
$ pkgport package list
~~~
- With ` + "`--keysByVersion`" + `, the value is ` + "`<packageKey>_<version>`" + `, split at the last underscore.`,
	}

	spaceNotFoundIssue = &Issue{
		id: SpaceNotFoundId,
		mdMsg: `
# The target space does not exist

A studio manifest in ` + "`studio.json`" + ` names a ` + "`space.id`" + ` that is not part of the target team.

## Things you can try
- Remove the ` + "`id`" + ` field to resolve the space by name, or create it when missing.
- Replace it with the id of an existing space.`,
	}

	invalidArchiveIssue = &Issue{
		id: InvalidArchiveId,
		mdMsg: `
# The archive could not be read

Batch archives hold ` + "`manifest.json`" + `, optional ` + "`variables.json`" + ` and ` + "`studio.json`" + `,
and one ` + "`<packageKey>_<version>.zip`" + ` per package version.

## Things you can try
- Re-export the packages with ` + "`pkgport package export`" + `.
- When importing a directory, make sure it is an extracted export (` + "`--unzip`" + ` or a branch).`,
	}

	gitSyncFailedIssue = &Issue{
		id: GitSyncFailedId,
		mdMsg: `
# The git branch could not be synchronized

## Things you can try
- Check ` + "`git.repository`" + ` and ` + "`git.username`" + ` in the configuration.
- Export a token in the variable named by ` + "`git.token_env`" + ` (default ` + "`PKGPORT_GIT_TOKEN`" + `).
- For imports, make sure the branch exists on the remote.`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# The configuration could not be loaded

## Things you can try
- Write a fresh default configuration:
~~~
$ pkgport config init
~~~
- Validate the path passed with ` + "`--config`" + `.`,
	}

	writeOutputFailedIssue = &Issue{
		id: WriteOutputFailedId,
		mdMsg: `
# The output could not be written

## Things you can try
- Check that the ` + "`--output`" + ` directory (or ` + "`batch.output_dir`" + `) exists and is writable.`,
	}

	issues = map[Id]*Issue{
		platformUnreachableIssue.Id():  platformUnreachableIssue,
		authenticationFailedIssue.Id(): authenticationFailedIssue,
		packageNotFoundIssue.Id():      packageNotFoundIssue,
		spaceNotFoundIssue.Id():        spaceNotFoundIssue,
		invalidArchiveIssue.Id():       invalidArchiveIssue,
		gitSyncFailedIssue.Id():        gitSyncFailedIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		writeOutputFailedIssue.Id():    writeOutputFailedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int { return int(a.id - b.id) })
}

// Get returns the catalog entry with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
