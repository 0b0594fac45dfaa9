// Package platform hides the file mode differences between Unix and Windows.
// On Unix it applies permission bits directly; on Windows, which has no
// permission or executable bits, the checks are relaxed.
package platform
