package bluenoise

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Convert decodes cfg.InputPath and writes the generated C source for
// cfg.Mode. The input is fully decoded before any output file is touched, so
// a decode failure leaves existing outputs alone. Output files are truncated
// and are not removed if a later write fails.
//
// Errors wrap ErrDecode or ErrIO.
func Convert(cfg Config) error {
	cfg = cfg.withDefaults()
	log := cfg.Logger

	t, err := Load(cfg.InputPath)
	if err != nil {
		return err
	}
	log.Info("decoded texture", "path", cfg.InputPath, "width", t.Width, "height", t.Height)

	switch cfg.Mode {
	case Combined:
		err = writeFile(cfg.HeaderPath, func(w io.Writer) error {
			return WriteCombined(w, t)
		})
		if err != nil {
			return err
		}
		log.Info("wrote header", "path", cfg.HeaderPath, "values", t.Len())
	case Split:
		err = writeFile(cfg.HeaderPath, func(w io.Writer) error {
			return WriteHeader(w, t)
		})
		if err != nil {
			return err
		}
		log.Info("wrote header", "path", cfg.HeaderPath)

		include := filepath.Base(cfg.HeaderPath)
		err = writeFile(cfg.SourcePath, func(w io.Writer) error {
			return WriteSource(w, t, include)
		})
		if err != nil {
			return err
		}
		log.Info("wrote source", "path", cfg.SourcePath, "values", t.Len())
	default:
		return fmt.Errorf("unknown output mode %v", cfg.Mode)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrIO, path, err)
	}

	err = write(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: writing %s: %w", ErrIO, path, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrIO, path, err)
	}
	return nil
}
