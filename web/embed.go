package web

import "embed"

// StaticFS embeds the dashboard single-page app.
//
//go:embed static/*
var StaticFS embed.FS
