// Package fs implements a blob store on the local filesystem.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	iofs "io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pantrycore/internal/blob/core"
)

const attrsSuffix = ".attrs.json"

// Store maps blob keys to relative file paths under a root directory.
// Content type and user metadata live in a JSON sidecar next to each file.
type Store struct {
	root string
}

// New returns a filesystem-backed blob store rooted at path, creating the
// directory if needed. An empty root defaults to ./photos.
func New(root string) (*Store, error) {
	if root == "" {
		root = "photos"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// sanitizeKey rejects keys that would escape the root directory.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key")
	}
	clean := filepath.ToSlash(filepath.Clean(key))
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(clean, "/../") {
		return "", fmt.Errorf("invalid key traversal")
	}
	return clean, nil
}

func (s *Store) paths(key string) (dataPath, attrsPath string, err error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, filepath.FromSlash(k))
	attrsPath = dataPath + attrsSuffix
	return dataPath, attrsPath, nil
}

type attrsFile struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	StoredAt    time.Time         `json:"stored_at"`
}

func (a attrsFile) info(s *Store, key string) core.Info {
	return core.Info{
		Key:          key,
		Size:         a.Size,
		ContentType:  a.ContentType,
		ETag:         a.ETag,
		Metadata:     core.CloneMetadata(a.Metadata),
		LastModified: a.StoredAt,
		URL:          s.localURL(key),
	}
}

func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	dataPath, attrsPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	// Create-only check. Not atomic against concurrent writers of the same
	// key; acceptable for the local dev driver.
	if _, err := os.Stat(dataPath); err == nil {
		return core.Info{}, fmt.Errorf("blob %s already exists", key)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return core.Info{}, err
	}

	// Stream to a temp file first so the final rename is atomic and the
	// digest covers exactly what landed on disk.
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".put-*")
	if err != nil {
		return core.Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	digest := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, digest), r)
	if err != nil {
		_ = tmp.Close()
		return core.Info{}, err
	}
	if err := tmp.Close(); err != nil {
		return core.Info{}, err
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		return core.Info{}, err
	}

	attrs := attrsFile{
		ContentType: opts.ContentType,
		Metadata:    core.CloneMetadata(opts.Metadata),
		ETag:        hex.EncodeToString(digest.Sum(nil)),
		Size:        size,
		StoredAt:    time.Now().UTC(),
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		_ = os.Remove(dataPath)
		return core.Info{}, err
	}
	// Without its sidecar the data file is invisible to Get/Head/List and
	// would block every retry, so roll it back.
	if err := os.WriteFile(attrsPath, raw, 0o644); err != nil {
		_ = os.Remove(dataPath)
		return core.Info{}, err
	}
	return attrs.info(s, key), nil
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	dataPath, attrsPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	file, err := os.Open(dataPath)
	if err != nil {
		return core.Info{}, nil, err
	}
	attrs, err := readAttrs(attrsPath)
	if err != nil {
		_ = file.Close()
		return core.Info{}, nil, err
	}
	return attrs.info(s, key), file, nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	_, attrsPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	attrs, err := readAttrs(attrsPath)
	if err != nil {
		return core.Info{}, err
	}
	return attrs.info(s, key), nil
}

func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	dataPath, attrsPath, err := s.paths(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(dataPath); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.Remove(dataPath); err != nil {
		return false, err
	}
	_ = os.Remove(attrsPath)
	return true, nil
}

func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	err := filepath.WalkDir(s.root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, attrsSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(path, attrsSuffix))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		attrs, err := readAttrs(path)
		if err != nil {
			return err
		}
		infos = append(infos, attrs.info(s, key))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL returns a pseudo URL for local development. Only GET is
// supported.
func (s *Store) PresignURL(_ context.Context, key string, opts core.SignedURLOptions) (string, error) {
	if opts.Method != "" && strings.ToUpper(opts.Method) != "GET" {
		return "", core.ErrUnsupported
	}
	return s.localURL(key), nil
}

func (s *Store) localURL(key string) string {
	return (&url.URL{Scheme: "http", Host: "local.blob", Path: "/" + key}).String()
}

func readAttrs(path string) (attrsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return attrsFile{}, err
	}
	var attrs attrsFile
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return attrsFile{}, err
	}
	return attrs, nil
}
