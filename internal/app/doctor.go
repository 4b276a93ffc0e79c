package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/deproductify/internal/config"
	"github.com/blackwell-systems/deproductify/internal/keys"
	"github.com/blackwell-systems/deproductify/internal/ocr"
	"github.com/blackwell-systems/deproductify/internal/output"
	"github.com/blackwell-systems/deproductify/internal/screen"
	"github.com/blackwell-systems/deproductify/internal/store"
	"github.com/blackwell-systems/deproductify/internal/window"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that capture tools and credentials are available",
	Long: `Check every detector's external dependency, the semantic fallback
credentials and the history database. Prints a pass/fail line for each check
and a summary of how many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var checks []doctorCheck
	if cfg.Sources.Vision {
		checks = append(checks, checkScreenshot(screen.Tool()))
		checks = append(checks, checkTesseract(ocr.New(cfg.Vision.TesseractPath)))
	}
	if cfg.Sources.Window {
		checks = append(checks, checkWindowTool(window.Tool))
	}
	if cfg.Sources.Keyboard {
		checks = append(checks, checkKeyboard(keys.New(cfg.Keyboard.Device)))
	}
	if cfg.Classifier.Enabled {
		checks = append(checks, checkAPIKey(cfg.Classifier.APIKeyEnv))
	}
	checks = append(checks, checkDatabase(config.DBPath()))

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doctorOutput{Checks: checks, PassedCount: passed, TotalCount: len(checks)})
	}

	fmt.Fprintln(out, output.Section("Doctor"))
	fmt.Fprintln(out)
	for _, c := range checks {
		renderDoctorCheck(out, c)
	}
	fmt.Fprintln(out)
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Fprintf(out, " %s\n\n", output.StyleCalm.Render(summary))
	} else {
		fmt.Fprintf(out, " %s\n\n", output.StyleWarning.Render(summary))
	}
	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(w io.Writer, c doctorCheck) {
	indicator := output.StyleCalm.Render("✓")
	if !c.Passed {
		indicator = output.StyleWarning.Render("✗")
	}
	fmt.Fprintf(w, "  %s  %-24s %s\n", indicator, c.Name, output.StyleMuted.Render(c.Message))
}

func checkScreenshot(tool string) doctorCheck {
	if tool == "" {
		return doctorCheck{Name: "Screenshot tool", Message: screen.ErrNoTool.Error()}
	}
	return doctorCheck{Name: "Screenshot tool", Passed: true, Message: tool}
}

func checkTesseract(t *ocr.Tesseract) doctorCheck {
	if !t.Available() {
		return doctorCheck{Name: "Tesseract OCR", Message: "not installed; vision scores brightness only"}
	}
	return doctorCheck{Name: "Tesseract OCR", Passed: true, Message: "installed"}
}

func checkWindowTool(tool string) doctorCheck {
	if tool == "" {
		return doctorCheck{Name: "Window detection", Message: "unsupported on this platform"}
	}
	path, err := exec.LookPath(tool)
	if err != nil {
		return doctorCheck{Name: "Window detection", Message: fmt.Sprintf("%s not found in PATH", tool)}
	}
	return doctorCheck{Name: "Window detection", Passed: true, Message: path}
}

type deviceResolver interface {
	Device() (string, error)
}

func checkKeyboard(feed deviceResolver) doctorCheck {
	dev, err := feed.Device()
	if err != nil {
		return doctorCheck{Name: "Keyboard device", Message: err.Error()}
	}
	f, err := os.Open(dev)
	if err != nil {
		return doctorCheck{Name: "Keyboard device", Message: fmt.Sprintf("%s not readable (add yourself to the input group): %v", dev, err)}
	}
	_ = f.Close()
	return doctorCheck{Name: "Keyboard device", Passed: true, Message: dev}
}

func checkAPIKey(env string) doctorCheck {
	if os.Getenv(env) == "" {
		return doctorCheck{Name: "Classifier API key", Message: fmt.Sprintf("%s not set; semantic fallback disabled", env)}
	}
	return doctorCheck{Name: "Classifier API key", Passed: true, Message: env + " is set"}
}

func checkDatabase(path string) doctorCheck {
	db, err := store.Open(path)
	if err != nil {
		return doctorCheck{Name: "History database", Message: fmt.Sprintf("cannot open %s: %v", path, err)}
	}
	defer func() { _ = db.Close() }()

	n, err := db.CountClassifications()
	if err != nil {
		return doctorCheck{Name: "History database", Message: err.Error()}
	}
	return doctorCheck{Name: "History database", Passed: true, Message: fmt.Sprintf("%s (%d cached classifications)", path, n)}
}
