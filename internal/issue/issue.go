// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

// Issue identifiers. Zero means "no catalog entry".
const (
	ManifestNotFoundId Id = iota + 1
	ManifestParseErrorId
	UnrecognizedDependencyId
	FetchFailedId
	PropagationFailedId
	RegistryUnavailableId
	ConfigLoadFailedId
	AlreadyAddedId
)

type (
	// Id identifies an entry in the issue catalog.
	Id int //nolint:revive // matches the catalog's naming

	// MarkdownMsg is Markdown text shown to the user.
	MarkdownMsg string

	// HttpLink is a documentation link.
	HttpLink string //nolint:revive

	// Issue is a catalog entry with guidance for one kind of failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No Smaug.toml found!

smaug reads your dependencies from a Smaug.toml file at the root of your
DragonRuby project.

## Things you can try:
- Run smaug from your project directory, or pass it explicitly:
~~~
$ smaug install path/to/mygame
~~~

- Create a minimal manifest:
~~~toml
[project]
name = "mygame"

[dependencies]
draco = "^0.6"
~~~`,
		docLinks: []HttpLink{"https://smaug.dev/docs/manifest"},
	}

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# Failed to parse Smaug.toml!

Your manifest is not valid TOML.

## Common issues:
- Unquoted version strings (write ` + "`draco = \"0.6.0\"`" + `, not ` + "`draco = 0.6.0`" + `)
- Duplicate keys in the same table
- Inline tables spread over several lines

## Things you can try:
- Check the line and column in the error message above
- Run with verbose mode for more details:
~~~
$ smaug --verbose install
~~~`,
		docLinks: []HttpLink{"https://smaug.dev/docs/manifest"},
	}

	unrecognizedDependencyIssue = &Issue{
		id: UnrecognizedDependencyId,
		mdMsg: `
# Unrecognized dependency!

A dependency in your manifest does not look like any source smaug knows.

## Supported forms:
~~~toml
[dependencies]
draco = "^0.6"                                     # registry version
ui = "../ui-lib"                                   # local directory
sprites = "vendor/sprites.zip"                     # local zip archive
physics = "https://example.com/physics.zip"        # remote zip archive
tween = "https://github.com/someone/tween.git"     # git repository
scenes = { repo = "https://github.com/someone/scenes.git", tag = "v1.2.0" }
~~~

A git dependency may name at most one of ` + "`branch`, `rev` or `tag`" + `.`,
		docLinks: []HttpLink{"https://smaug.dev/docs/dependencies"},
	}

	fetchFailedIssue = &Issue{
		id: FetchFailedId,
		mdMsg: `
# Failed to fetch a dependency!

smaug could not download, unpack or check out one of your dependencies.
Dependencies installed before it were kept.

## Things you can try:
- Check your network connection and retry
- For git dependencies, make sure the branch, rev or tag exists
- For archives, make sure the zip contains a Smaug.toml
- Clear the staging cache and retry:
~~~
$ smaug config show
~~~`,
	}

	propagationFailedIssue = &Issue{
		id: PropagationFailedId,
		mdMsg: `
# A dependency has no usable Smaug.toml!

Every smaug package ships a Smaug.toml with a ` + "`[package]`" + ` table listing
the files it installs and the Ruby files it requires.

## Things you can try:
- Ask the package author to publish a manifest
- Check that install paths stay inside the package and your project`,
		docLinks: []HttpLink{"https://smaug.dev/docs/packages"},
	}

	registryUnavailableIssue = &Issue{
		id: RegistryUnavailableId,
		mdMsg: `
# Could not reach the package registry!

## Things you can try:
- Check your network connection
- Check the registry URL in your configuration:
~~~
$ smaug config show
~~~
- Override it for one run:
~~~
$ SMAUG_REGISTRY_URL=https://api.smaug.dev smaug add draco
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your config.cue does not match the configuration schema.

## Example configuration:
~~~cue
cache_dir: "/home/me/.cache/smaug"
dependencies_dir: "smaug"
registry: url: "https://api.smaug.dev"
ui: {
	verbose: false
	assume_yes: false
}
~~~`,
	}

	alreadyAddedIssue = &Issue{
		id: AlreadyAddedId,
		mdMsg: `
# Dependency already added!

The package is already declared in your Smaug.toml. Edit the version there
and run ` + "`smaug install`" + ` to change it.`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():       manifestNotFoundIssue,
		manifestParseErrorIssue.Id():     manifestParseErrorIssue,
		unrecognizedDependencyIssue.Id(): unrecognizedDependencyIssue,
		fetchFailedIssue.Id():            fetchFailedIssue,
		propagationFailedIssue.Id():      propagationFailedIssue,
		registryUnavailableIssue.Id():    registryUnavailableIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		alreadyAddedIssue.Id():           alreadyAddedIssue,
	}
)

// Id returns the catalog identifier.
func (i *Issue) Id() Id { //nolint:revive
	return i.id
}

// MarkdownMsg returns the guidance text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the guidance with the glamour style at stylePath
// ("dark", "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		md += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			md += "- " + string(link) + "\n"
		}
	}
	return render(md, stylePath)
}

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the catalog entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
