package mirror

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"decensor/pkg/errors"
	"decensor/pkg/logger"
)

// Store is the on-disk batch directory. It holds one plain-text file per
// batch, named by the batch's decimal-digit name.
type Store struct {
	dir    string
	logger logger.Logger
}

// NewStore creates a store rooted at dir. The directory itself is created
// lazily on the first write.
func NewStore(dir string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{dir: dir, logger: log}
}

// Dir returns the batch directory path
func (s *Store) Dir() string {
	return s.dir
}

// LocalBatches returns the names of batches present locally. A missing
// directory means no batches yet, not an error.
func (s *Store) LocalBatches() (map[string]bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("failed to read batch directory: %w", err)
	}

	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			// Leftover temp file or foreign content
			continue
		}
		names[entry.Name()] = true
	}

	return names, nil
}

// WriteBatch stores a batch's content under its name using an atomic
// replace. On failure the previous content, if any, is untouched.
func (s *Store) WriteBatch(name string, r io.Reader) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create batch directory: %w", err)
	}

	target := filepath.Join(s.dir, name)
	tempPath := target + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary batch file: %w", err)
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write batch %s: %w", name, err)
	}

	// Ensure data is on disk before the rename makes it visible
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync batch file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close batch file: %w", err)
	}

	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace batch file: %w", err)
	}

	return nil
}

// Scan searches every batch file for postID and returns its identity.
// The comparison is done on the ID's text form; converting every stored
// ID to an integer would cost more than it buys. Returns ErrNotFound when
// no batch holds the ID.
func (s *Store) Scan(postID int) (Identity, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Identity{}, errors.ErrNotFound
		}
		return Identity{}, fmt.Errorf("failed to read batch directory: %w", err)
	}

	idText := strconv.Itoa(postID)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		identity, err := s.scanFile(entry.Name(), idText)
		if err != nil {
			return Identity{}, err
		}
		if identity != (Identity{}) {
			return identity, nil
		}
	}

	return Identity{}, errors.ErrNotFound
}

// scanFile scans a single batch file for idText. A zero Identity with nil
// error means no match in this file.
func (s *Store) scanFile(name, idText string) (Identity, error) {
	file, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return Identity{}, fmt.Errorf("failed to open batch %s: %w", name, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		id, md5ext, ok := strings.Cut(line, ":")
		if !ok {
			return Identity{}, &errors.MalformedRecordError{Batch: name, Line: lineNum, Text: line}
		}

		if id != idText {
			continue
		}

		md5ext = strings.TrimSpace(md5ext)
		dot := strings.LastIndex(md5ext, ".")
		if dot < 1 || dot == len(md5ext)-1 {
			return Identity{}, &errors.MalformedRecordError{Batch: name, Line: lineNum, Text: line}
		}

		return Identity{MD5: md5ext[:dot], Ext: md5ext[dot+1:]}, nil
	}

	if err := scanner.Err(); err != nil {
		return Identity{}, fmt.Errorf("failed to read batch %s: %w", name, err)
	}

	return Identity{}, nil
}

// Stats returns the number of batches and records in the store. Used by
// the status command; a missing directory counts as empty.
func (s *Store) Stats() (batches int, records int, err error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to read batch directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(entry.Name()); err != nil {
			continue
		}

		batches++

		file, err := os.Open(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return 0, 0, fmt.Errorf("failed to open batch %s: %w", entry.Name(), err)
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) != "" {
				records++
			}
		}
		scanErr := scanner.Err()
		file.Close()
		if scanErr != nil {
			return 0, 0, fmt.Errorf("failed to read batch %s: %w", entry.Name(), scanErr)
		}
	}

	return batches, records, nil
}
