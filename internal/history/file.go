package history

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps one `<site>_job_ids.txt` per site, one ID per line. Writes only
// append lines for IDs the file does not have yet.
type FileStore struct {
	mu  sync.Mutex
	dir string
	log *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("history: empty directory")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{dir: dir, log: logger.With("component", "history", "backend", "file")}, nil
}

// Path returns the file backing site.
func (s *FileStore) Path(site string) string {
	key, _ := siteKey(site)
	return filepath.Join(s.dir, filepath.Base(key)+"_job_ids.txt")
}

func (s *FileStore) Load(ctx context.Context, site string) (Set, error) {
	if _, err := siteKey(site); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(site)
}

func (s *FileStore) read(site string) (Set, error) {
	set := Set{}
	f, err := os.Open(s.Path(site))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return set, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			set[id] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return set, nil
}

func (s *FileStore) Append(ctx context.Context, site string, ids []string) error {
	if _, err := siteKey(site); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(site)
	if err != nil {
		return err
	}
	var b strings.Builder
	added := 0
	for _, id := range ids {
		if existing.Has(id) {
			continue
		}
		b.WriteString(id)
		b.WriteByte('\n')
		added++
	}
	if added == 0 {
		return nil
	}

	f, err := os.OpenFile(s.Path(site), os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open history for append: %w", err)
	}
	partial, err := endsMidLine(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("inspect history: %w", err)
	}
	out := b.String()
	if partial {
		// a hand edit or an interrupted write left the last ID unterminated
		out = "\n" + out
	}
	if _, err := f.WriteString(out); err != nil {
		f.Close()
		return fmt.Errorf("append history: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync history: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close history: %w", err)
	}
	s.log.Info("💾 history updated", "site", site, "added", added, "total", len(existing)+added)
	return nil
}

// endsMidLine reports whether f is non-empty and its last byte is not a newline.
func endsMidLine(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

func (s *FileStore) Close() error {
	return nil
}
