// Package paths maps the target user's home and XDG base directories onto
// the locations nyarchify reads and writes.
//
// Every method returns a path under the resolved target home; nothing here
// consults the acting user's identity. Build Dirs with FromXDG after the
// identity has been applied, or construct it directly in tests.
package paths
