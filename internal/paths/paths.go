package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	appName = "buildplan"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the directory for persistent application data.
//
//	Linux:   $XDG_DATA_HOME/buildplan or ~/.local/share/buildplan
//	macOS:   ~/Library/Application Support/buildplan
func Data() string {
	return filepath.Join(xdg.DataHome, appName)
}

// Default path to the build history ledger.
//
//	Linux:   $XDG_DATA_HOME/buildplan/ledger
//	macOS:   ~/Library/Application Support/buildplan/ledger
func Ledger() string {
	return filepath.Join(Data(), "ledger")
}

// Path to the directory for runtime files (PIDs).
//
//	Linux:   $XDG_RUNTIME_DIR/buildplan or /run/user/<uid>/buildplan
//	macOS:   ~/Library/Caches/buildplan/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, appName)
	}
	return filepath.Join(xdg.CacheHome, appName, "run")
}

// Default path to the PID file.
//
//	Linux:   $XDG_RUNTIME_DIR/buildplan/buildplan.pid
//	macOS:   ~/Library/Caches/buildplan/run/buildplan.pid
func PIDFile() string {
	return filepath.Join(Runtime(), "buildplan.pid")
}
