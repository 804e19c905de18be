package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/apex/log"
	"github.com/aymanbagabas/go-udiff"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

var (
	colorWrote   = color.New(color.FgGreen, color.Bold).SprintFunc()
	colorStale   = color.New(color.FgYellow, color.Bold).SprintFunc()
	colorHeader  = color.New(color.FgCyan, color.Bold).SprintFunc()
	colorCurrent = color.New(color.Faint).SprintFunc()
)

// errStale is returned by --check when a file on disk differs from the
// regenerated one.
var errStale = errors.New("generated files are out of date")

type outFile struct {
	Path    string
	Content string
}

// outputMode selects what emit does with generated files.
type outputMode struct {
	Check bool // diff against the files on disk, write nothing
	Print bool // highlight to stdout, write nothing
}

func emit(files []outFile, mode outputMode) error {
	switch {
	case mode.Print:
		return printFiles(files)
	case mode.Check:
		return checkFiles(files)
	default:
		return writeFiles(files)
	}
}

func writeFiles(files []outFile) error {
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(f.Path, []byte(f.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
		fmt.Printf("%s %s (%s)\n", colorWrote("wrote"), f.Path, humanize.Bytes(uint64(len(f.Content))))
	}
	return nil
}

func checkFiles(files []outFile) error {
	stale := 0
	for _, f := range files {
		old, err := os.ReadFile(f.Path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", f.Path, err)
		}
		if bytes.Equal(old, []byte(f.Content)) {
			fmt.Printf("%s %s\n", colorCurrent("ok"), f.Path)
			continue
		}
		stale++
		fmt.Printf("%s %s\n", colorStale("stale"), f.Path)
		fmt.Print(udiff.Unified(f.Path, f.Path+" (generated)", string(old), f.Content))
	}
	if stale > 0 {
		return fmt.Errorf("%w: %d of %d", errStale, stale, len(files))
	}
	return nil
}

func printFiles(files []outFile) error {
	for _, f := range files {
		fmt.Println(colorHeader("// " + f.Path))
		if err := quick.Highlight(os.Stdout, f.Content, "c", "terminal256", "nord"); err != nil {
			log.WithError(err).Debug("highlight failed")
			fmt.Print(f.Content)
		}
	}
	return nil
}
