package version

// Version is the release version. Release builds override it with
// -ldflags "-X designate/pkg/version.Version=v1.2.3".
var Version = "v0.3.0-dev"
