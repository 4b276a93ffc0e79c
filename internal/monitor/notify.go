package monitor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Notify sends a desktop notification for the given alert. On macOS it uses
// osascript, on Linux it tries notify-send. If neither is available, it falls
// back to printing to stderr.
func Notify(alert Alert) error {
	switch runtime.GOOS {
	case "darwin":
		return notifyMacOS(alert)
	case "linux":
		return notifyLinux(alert)
	default:
		return notifyFallback(os.Stderr, alert)
	}
}

func notifyMacOS(alert Alert) error {
	script := fmt.Sprintf(
		`display notification %q with title "DeProductify" subtitle %q`,
		alert.Message, alert.Title,
	)
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		return notifyFallback(os.Stderr, alert)
	}
	return nil
}

func notifyLinux(alert Alert) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return notifyFallback(os.Stderr, alert)
	}

	args := []string{"--app-name=deproductify"}
	if alert.Level == LevelCritical {
		args = append(args, "--urgency=critical")
	}
	args = append(args, "DeProductify - "+alert.Title, alert.Message)
	if err := exec.Command("notify-send", args...).Run(); err != nil {
		return notifyFallback(os.Stderr, alert)
	}
	return nil
}

// notifyFallback prints the alert when no desktop notification system is
// available.
func notifyFallback(w io.Writer, alert Alert) error {
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", alert.Level, alert.Title, alert.Message)
	return err
}
