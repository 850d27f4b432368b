package whisper

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
)

const DefaultBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// ProgressFunc is called during download with bytes downloaded and total
type ProgressFunc func(downloaded, total int64)

// Store is a directory of downloaded models.
type Store struct {
	Dir     string
	BaseURL string
	Client  *http.Client
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, BaseURL: DefaultBaseURL, Client: http.DefaultClient}
}

// DefaultDir is $XDG_DATA_HOME/whisperclip/models/whisper, falling back to
// ~/.local/share.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "whisperclip", "models", "whisper"), nil
}

func DefaultStore() (*Store, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir), nil
}

// Path returns where id lives in the store, or "" for an unknown id.
func (s *Store) Path(id string) string {
	info := GetModel(id)
	if info == nil {
		return ""
	}
	return filepath.Join(s.Dir, info.Filename)
}

func (s *Store) URL(id string) string {
	info := GetModel(id)
	if info == nil {
		return ""
	}
	return s.BaseURL + "/" + info.Filename
}

func (s *Store) IsInstalled(id string) bool {
	path := s.Path(id)
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Size() > 0
}

// Installed returns the ids present in the store, in catalog order.
func (s *Store) Installed() []string {
	var ids []string
	for _, m := range catalog {
		if s.IsInstalled(m.ID) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Download fetches id into the store. The file only appears under its final
// name once it is complete.
func (s *Store) Download(ctx context.Context, id string, onProgress ProgressFunc) error {
	info := GetModel(id)
	if info == nil {
		return fmt.Errorf("unknown model: %s", id)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(id), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	dest := s.Path(id)
	tmp, err := os.CreateTemp(s.Dir, info.Filename+".*.downloading")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	total := resp.ContentLength
	if total < 0 {
		total = info.SizeBytes
	}
	pw := &progressWriter{total: total, onProgress: onProgress}

	n, err := io.Copy(io.MultiWriter(tmp, pw), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to write model: %w", err)
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return fmt.Errorf("download truncated: got %d of %d bytes", n, resp.ContentLength)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to finalize download: %w", err)
	}
	log.Printf("Models: downloaded %s to %s", id, dest)
	return nil
}

func (s *Store) Remove(id string) error {
	if GetModel(id) == nil {
		return fmt.Errorf("unknown model: %s", id)
	}
	if !s.IsInstalled(id) {
		return fmt.Errorf("model not installed: %s", id)
	}
	if err := os.Remove(s.Path(id)); err != nil {
		return fmt.Errorf("failed to remove model: %w", err)
	}
	return nil
}

type progressWriter struct {
	done       int64
	total      int64
	onProgress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.done += int64(len(b))
	if p.onProgress != nil {
		p.onProgress(p.done, p.total)
	}
	return len(b), nil
}

// Package level helpers operate on the default store.

func GetModelsDir() (string, error) { return DefaultDir() }

// GetModelPath returns "" for an unknown id or an unresolvable home.
func GetModelPath(id string) string {
	s, err := DefaultStore()
	if err != nil {
		return ""
	}
	return s.Path(id)
}

func IsInstalled(id string) bool {
	s, err := DefaultStore()
	if err != nil {
		return false
	}
	return s.IsInstalled(id)
}

func Download(ctx context.Context, id string, onProgress ProgressFunc) error {
	s, err := DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to get models directory: %w", err)
	}
	return s.Download(ctx, id, onProgress)
}

func Remove(id string) error {
	s, err := DefaultStore()
	if err != nil {
		return err
	}
	return s.Remove(id)
}
