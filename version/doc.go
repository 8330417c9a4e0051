// Package version reports build information for adminkit binaries.
//
// Release builds set the variables with -ldflags:
//
//	go build -ldflags "-X github.com/entadmin/adminkit/version.Version=v1.2.0" ./cmd/adminctl
//
// Unset fields are filled from the VCS stamp embedded by the Go toolchain.
package version
