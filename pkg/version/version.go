package version

// GitVersion is overridden at link time:
//
//	go build -ldflags "-X sensorhub/pkg/version.GitVersion=$(git describe --tags)"
var GitVersion = "v0.0.0-dev"
