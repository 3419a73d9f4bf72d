package install

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wasmedge/wasmedgeup/internal/platform"
)

// writeEnvScript emits <install>/env: a shell fragment users source to put
// the installation on PATH and on the dynamic linker search path. The script
// flavor follows the target platform, not the host.
func (i *Installer) writeEnvScript() error {
	envPath := filepath.Join(i.installPath, "env")
	binDir := filepath.Join(i.installPath, "bin")
	libDir := filepath.Join(i.installPath, "lib")

	var b strings.Builder
	switch i.platform.OS {
	case platform.Darwin:
		b.WriteString("#!/bin/sh\n")
		fmt.Fprintf(&b, "export PATH=%s:$PATH\n", binDir)
		fmt.Fprintf(&b, "export DYLD_LIBRARY_PATH=%s:$DYLD_LIBRARY_PATH\n", libDir)
	case platform.Windows:
		b.WriteString("@echo off\n")
		fmt.Fprintf(&b, "set PATH=%s;%%PATH%%\n", binDir)
	default:
		b.WriteString("#!/bin/sh\n")
		fmt.Fprintf(&b, "export PATH=%s:$PATH\n", binDir)
		fmt.Fprintf(&b, "export LD_LIBRARY_PATH=%s:$LD_LIBRARY_PATH\n", libDir)
	}

	if err := os.WriteFile(envPath, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write env script: %w", err)
	}

	if i.platform.OS != platform.Windows {
		if err := os.Chmod(envPath, 0755); err != nil {
			return fmt.Errorf("failed to mark env script executable: %w", err)
		}
	}

	i.log.WithField("path", envPath).Debug("Wrote environment script")
	return nil
}
