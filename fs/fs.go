package appfs

import "embed"

//go:embed migrations all:assets
var FS embed.FS
