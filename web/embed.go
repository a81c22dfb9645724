package web

import "embed"

// Content holds the calculator page served at "/".
//
//go:embed index.html app.js styles.css
var Content embed.FS
