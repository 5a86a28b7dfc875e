package storage

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

type DiskStorage struct {
	// BasePath 当前进程可写的目录
	BasePath  string
	urlPrefix string
	dirs      map[string]bool
	dirsMutex sync.Mutex
}

func NewDiskStorage(basePath, urlPrefix string) (*DiskStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	return &DiskStorage{
		BasePath:  basePath,
		urlPrefix: urlPrefix,
		dirs:      make(map[string]bool, 10),
	}, nil
}

func (s *DiskStorage) createDir(dir string) error {
	s.dirsMutex.Lock()
	defer s.dirsMutex.Unlock()

	if ok := s.dirs[dir]; ok {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	s.dirs[dir] = true
	return nil
}

func (s *DiskStorage) fullPath(key string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.BasePath, filepath.FromSlash(key)), nil
}

func (s *DiskStorage) Save(_ context.Context, key string, r io.Reader, _ string) (int64, error) {
	fileName, err := s.fullPath(key)
	if err != nil {
		return 0, err
	}
	if err := s.createDir(filepath.Dir(fileName)); err != nil {
		return 0, err
	}
	file, err := os.Create(fileName)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(file, r)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func (s *DiskStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	fileName, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}
	return os.Open(fileName)
}

func (s *DiskStorage) Delete(_ context.Context, key string) error {
	fileName, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fileName); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *DiskStorage) Serve(w http.ResponseWriter, r *http.Request, key string) {
	fileName, err := s.fullPath(key)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if fi, err := os.Stat(fileName); err != nil || fi.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, fileName)
}

func (s *DiskStorage) URL(key string) string { return joinURL(s.urlPrefix, key) }
