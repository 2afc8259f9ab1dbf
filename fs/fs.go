package appfs

import "embed"

// FS holds all non-Go files shipped with the binary: goose SQL migrations,
// email templates and static assets.
//
//go:embed migrations templates assets
var FS embed.FS
