// Package testsupport holds shared fixtures for package tests: temp-dir
// configs, stub tool binaries, fake tracks and an opened job store.
package testsupport
