// Package appfs embeds the static assets shipped with every binary.
package appfs

import "embed"

//go:embed assets migrations/*.sql templates templates/email/_*
var FS embed.FS
