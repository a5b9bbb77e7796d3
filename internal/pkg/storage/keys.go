package storage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	ErrInvalidOwnerID = errors.New("invalid owner id")
	ErrInvalidKey     = errors.New("invalid storage key")
)

const profileSegment = "profile"

var ownerIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateOwnerID accepts opaque identifiers made of letters, digits, '-' and '_'.
// Separators, dots and traversal sequences are rejected.
func ValidateOwnerID(ownerID string) error {
	if !ownerIDPattern.MatchString(ownerID) {
		return fmt.Errorf("%w: %q", ErrInvalidOwnerID, ownerID)
	}
	return nil
}

// PrimaryStem is the filename of a primary derivative: {digest}.{ext}.
func PrimaryStem(digest, ext string) string {
	return digest + "." + ext
}

// ThumbnailStem is the filename of a thumbnail derivative: thumbnail_{digest}.jpg.
func ThumbnailStem(digest string) string {
	return "thumbnail_" + digest + ".jpg"
}

// Resolve builds the logical key {ownerID}/profile/{stem}.
func (s *LocalStore) Resolve(ownerID, stem string) (string, error) {
	if err := ValidateOwnerID(ownerID); err != nil {
		return "", err
	}
	if !validStem(stem) {
		return "", fmt.Errorf("%w: stem %q", ErrInvalidKey, stem)
	}
	return path.Join(ownerID, profileSegment, stem), nil
}

// PhysicalPath maps a logical key to a location under the storage root.
// The result is always a descendant of the root; keys that would escape it are rejected,
// including through symlinked directories.
func (s *LocalStore) PhysicalPath(key string) (string, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 3 || parts[1] != profileSegment {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if err := ValidateOwnerID(parts[0]); err != nil {
		return "", err
	}
	if !validStem(parts[2]) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	full := filepath.Join(s.root, parts[0], parts[1], parts[2])
	if !within(s.root, full) {
		return "", fmt.Errorf("%w: %q escapes storage root", ErrInvalidKey, key)
	}
	if err := s.checkSymlinks(filepath.Dir(full)); err != nil {
		return "", err
	}
	return full, nil
}

// checkSymlinks resolves the deepest existing ancestor of dir and verifies it stays under the root.
func (s *LocalStore) checkSymlinks(dir string) error {
	for d := dir; within(s.root, d); d = filepath.Dir(d) {
		resolved, err := filepath.EvalSymlinks(d)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		if !within(s.root, resolved) {
			return fmt.Errorf("%w: %s resolves outside storage root", ErrInvalidKey, d)
		}
		return nil
	}
	return nil
}

func validStem(stem string) bool {
	if stem == "" || stem == "." || stem == ".." || len(stem) > 255 {
		return false
	}
	return !strings.ContainsAny(stem, `/\`) && !strings.Contains(stem, "..")
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
