// Package validation checks user-supplied file paths before models are read
// or diagrams are written.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ModelExtensions are the model file types the loader understands.
var ModelExtensions = []string{".json", ".yaml", ".yml", ".hcl"}

// hasTraversal reports whether any segment of the raw path is "..".
// Cleaning first would fold "a/../b" into "b" and hide it.
func hasTraversal(path string) bool {
	segments := strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' })
	return slices.Contains(segments, "..")
}

// ValidateOutputPath validates an output path for security and accessibility.
// The parent directory must exist and be writable.
func ValidateOutputPath(outputPath string) error {
	if strings.TrimSpace(outputPath) == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	if hasTraversal(outputPath) {
		return fmt.Errorf("path traversal detected in output path: %s", outputPath)
	}

	absPath, err := filepath.Abs(filepath.Clean(outputPath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if info, err := os.Stat(absPath); err == nil && info.IsDir() {
		return fmt.Errorf("output path is a directory: %s", absPath)
	}

	dir := filepath.Dir(absPath)
	dirInfo, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
		return fmt.Errorf("failed to access output directory: %w", err)
	}
	if !dirInfo.IsDir() {
		return fmt.Errorf("output path parent is not a directory: %s", dir)
	}

	// Probe writability with a throwaway file
	testFile := filepath.Join(dir, ".archstudio_write_test")
	f, err := os.OpenFile(testFile, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("output directory is not writable: %s: %w", dir, err)
	}
	f.Close()
	os.Remove(testFile)

	return nil
}

// ValidateInputPath validates an input path. Relative paths may not climb
// out of the working directory.
func ValidateInputPath(inputPath string, mustBeDir bool) error {
	if strings.TrimSpace(inputPath) == "" {
		return fmt.Errorf("input path cannot be empty")
	}

	if !filepath.IsAbs(inputPath) && hasTraversal(inputPath) {
		return fmt.Errorf("potentially unsafe path detected: %s", inputPath)
	}

	cleanPath := filepath.Clean(inputPath)
	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input path does not exist: %s", cleanPath)
		}
		return fmt.Errorf("failed to access input path: %w", err)
	}

	if mustBeDir && !info.IsDir() {
		return fmt.Errorf("input path must be a directory: %s", cleanPath)
	}
	if !mustBeDir && info.IsDir() {
		return fmt.Errorf("input path must be a file: %s", cleanPath)
	}

	return nil
}

// ValidateModelPath checks that path is a readable model file with a known
// extension.
func ValidateModelPath(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(ModelExtensions, ext) {
		return fmt.Errorf("unsupported model file extension %q (expected one of %s)", ext, strings.Join(ModelExtensions, ", "))
	}
	return ValidateInputPath(path, false)
}

// Paths exposes the package validators as a value.
type Paths struct{}

func (Paths) ValidateOutputPath(path string) error { return ValidateOutputPath(path) }

func (Paths) ValidateModelPath(path string) error { return ValidateModelPath(path) }
