package version

// AppVersion is overridden at build time with -ldflags "-X envnotify/version.AppVersion=...".
var AppVersion = "v0.1.0"
