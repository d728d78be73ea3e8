// Package testutil holds fakes and fixtures shared by package tests.
//
//   - FakeRunner records commands instead of executing them and can be told
//     what a command prints or how it fails.
//   - TempHome, WriteTree and ReadFile set up and inspect real directory
//     trees under t.TempDir.
package testutil
