package wizard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"

	"github.com/windguard/edgeprov/internal/config"
)

// ErrAborted is returned when the user declines to overwrite a file.
var ErrAborted = errors.New("aborted by user")

// Function variable for dependency injection in tests.
var confirmOverwrite = defaultConfirmOverwrite

// WriteConfig writes cfg to outputPath with a descriptive header. An
// existing file is overwritten only after confirmation unless force is set.
// The file holds credentials and is written with mode 0600.
func WriteConfig(cfg *config.Demo, outputPath string, force bool) error {
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			ok, err := confirmOverwrite(outputPath)
			if err != nil {
				return err
			}
			if !ok {
				return ErrAborted
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", outputPath, err)
		}
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(outputPath))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func generateHeader(outputPath string) string {
	return fmt.Sprintf(`# edgeprov demo configuration
# Generated by 'edgeprov init' on %s
# File: %s
#
# This file contains credentials. Do not commit it.
`, time.Now().Format(time.RFC3339), outputPath)
}

func defaultConfirmOverwrite(path string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("%s already exists. Overwrite?", path)).
		Value(&ok).
		Run()
	return ok, err
}
