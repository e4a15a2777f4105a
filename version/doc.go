// Package version provides build version information embedding.
//
// Version, git commit, branch, and build time are set at compile time
// via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/attendant/version.Version=1.0.0"
//
// When ldflags are absent, commit, dirty state, and build time fall back to
// the VCS metadata stamped by the Go toolchain via runtime/debug.
package version
