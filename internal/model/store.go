package model

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Store manages model files on disk under a single directory, plus the
// active-model id file written by the settings CLI. The recording
// pipeline only reads from the store; downloads run from the `models`
// subcommands, fully outside the capture/transcribe path.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created on
// first download, not here.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the on-disk path for a catalog id.
func (s *Store) Path(id string) (string, error) {
	v, err := Lookup(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, v.FileName), nil
}

// IsDownloaded reports whether the model's data is present locally.
func (s *Store) IsDownloaded(id string) bool {
	path, err := s.Path(id)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

// Download fetches a model into the store. The file is streamed to a
// .tmp sibling and renamed into place, so a partial download is never
// mistaken for a model. Progress lines go to out when it is non-nil.
func (s *Store) Download(id string, out io.Writer) error {
	v, err := Lookup(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating models dir: %w", err)
	}

	destPath := filepath.Join(s.dir, v.FileName)
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		if out != nil {
			fmt.Fprintf(out, "%s already downloaded (%.0f MB)\n", id, float64(info.Size())/(1024*1024))
		}
		return nil
	}

	resp, err := http.Get(v.URL) //nolint:gosec // catalog URLs are compile-time constants
	if err != nil {
		return fmt.Errorf("downloading %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: HTTP %d", id, resp.StatusCode)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	var w io.Writer = f
	if out != nil {
		w = &progressWriter{writer: f, out: out, total: resp.ContentLength, label: v.FileName}
	}

	written, err := io.Copy(w, resp.Body)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing model file: %w", err)
	}
	if out != nil {
		fmt.Fprintf(out, "\ndownloaded %.1f MB\n", float64(written)/(1024*1024))
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("moving model file: %w", err)
	}
	return nil
}

// Remove deletes a model file from the store. The caller (the
// Coordinator) is responsible for refusing removal of the active model.
func (s *Store) Remove(id string) error {
	path, err := s.Path(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %q", ErrModelNotAvailable, id)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing model file: %w", err)
	}
	return nil
}

const activeModelFile = "active_model"

// ActiveModelID reads the persisted active-model id. Missing or empty
// file means the default model. The pipeline only ever reads this; the
// settings CLI writes it.
func (s *Store) ActiveModelID() string {
	data, err := os.ReadFile(filepath.Join(s.dir, activeModelFile))
	if err != nil {
		return DefaultModelID
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return DefaultModelID
	}
	return id
}

// WriteActiveModelID persists the active-model id for the next start.
func (s *Store) WriteActiveModelID(id string) error {
	if _, err := Lookup(id); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating models dir: %w", err)
	}
	path := filepath.Join(s.dir, activeModelFile)
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing active model file: %w", err)
	}
	return nil
}

// progressWriter wraps a writer and prints download progress.
type progressWriter struct {
	writer  io.Writer
	out     io.Writer
	total   int64
	written int64
	label   string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.total > 0 {
		pct := float64(pw.written) / float64(pw.total) * 100
		fmt.Fprintf(pw.out, "\r%s: %.1f MB / %.1f MB (%.0f%%)",
			pw.label,
			float64(pw.written)/(1024*1024),
			float64(pw.total)/(1024*1024),
			pct)
	} else {
		fmt.Fprintf(pw.out, "\r%s: %.1f MB downloaded",
			pw.label, float64(pw.written)/(1024*1024))
	}
	return n, err
}
