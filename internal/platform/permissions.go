package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// windowsExecutable lists the extensions Windows runs directly.
var windowsExecutable = map[string]bool{".exe": true, ".bat": true, ".cmd": true, ".com": true}

// IsExecutable reports whether the file at path with the given info can be
// run directly. On Unix any execute bit counts; on Windows the extension
// decides.
func IsExecutable(path string, info os.FileInfo) bool {
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return windowsExecutable[strings.ToLower(filepath.Ext(path))]
	}
	return info.Mode()&0o111 != 0
}
