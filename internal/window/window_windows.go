//go:build windows

package window

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tool is the helper binary used on this platform.
const Tool = "powershell"

const foregroundScript = `Add-Type @"
using System;
using System.Runtime.InteropServices;
public class FG {
  [DllImport("user32.dll")] public static extern IntPtr GetForegroundWindow();
  [DllImport("user32.dll")] public static extern uint GetWindowThreadProcessId(IntPtr h, out uint pid);
}
"@
$h = [FG]::GetForegroundWindow()
$procId = 0
[void][FG]::GetWindowThreadProcessId($h, [ref]$procId)
$p = Get-Process -Id $procId
Write-Output $p.ProcessName
Write-Output $p.MainWindowTitle`

type powershell struct{}

// New returns the detector for this platform.
func New() Detector {
	return powershell{}
}

func (powershell) Active(ctx context.Context) (Info, error) {
	out, err := exec.CommandContext(ctx, Tool, "-NoProfile", "-Command", foregroundScript).Output()
	if err != nil {
		return Info{}, fmt.Errorf("powershell foreground window: %w", err)
	}
	lines := strings.SplitN(strings.ReplaceAll(string(out), "\r\n", "\n"), "\n", 2)
	var app, title string
	if len(lines) > 0 {
		app = lines[0]
	}
	if len(lines) > 1 {
		title = lines[1]
	}
	return normalize(app, title), nil
}
