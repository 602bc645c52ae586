package artifacts

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"speedr-backend/internal/shared/storage/object"
)

const storeNamespace = "videos"

var allowedMimeTypes = map[string]struct{}{
	"video/mp4":       {},
	"video/quicktime": {},
	"video/x-msvideo": {},
	"video/webm":      {},
}

// Service contains business logic for artifacts.
type Service struct {
	Store object.ObjectStore
	Repo  ArtifactsRepo
	Now   func() time.Time
}

// Upload validates the media type, stores the bytes under a fresh UUID name
// and records the artifact metadata.
func (s *Service) Upload(ctx context.Context, fileName, declaredType string, r io.Reader) (Artifact, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return Artifact{}, ErrInvalidInput
	}

	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return Artifact{}, fmt.Errorf("read upload: %w", err)
	}
	if len(head) == 0 {
		return Artifact{}, ErrEmptyFile
	}

	mimeType, err := resolveMimeType(declaredType, head)
	if err != nil {
		return Artifact{}, err
	}

	storageKey, size, _, err := s.Store.Save(ctx, storeNamespace, fileName, br)
	if err != nil {
		return Artifact{}, fmt.Errorf("store artifact: %w", err)
	}
	if size == 0 {
		return Artifact{}, ErrEmptyFile
	}

	a := Artifact{
		ID:           uuid.NewString(),
		OriginalName: fileName,
		MimeType:     mimeType,
		SizeBytes:    size,
		StorageKey:   storageKey,
		CreatedAt:    s.now(),
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

// Get returns artifact metadata by ID.
func (s *Service) Get(ctx context.Context, id string) (Artifact, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return Artifact{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// Locator returns the worker-visible address of the artifact's bytes.
func (s *Service) Locator(a Artifact) string {
	return s.Store.Locator(a.StorageKey)
}

// ContentSize resolves the artifact and stats the stored bytes. Missing bytes
// are reported as ErrNotFound even when the metadata row exists.
func (s *Service) ContentSize(ctx context.Context, a Artifact) (int64, error) {
	size, err := s.Store.Stat(ctx, a.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return size, nil
}

// OpenWindow opens exactly length bytes starting at offset.
func (s *Service) OpenWindow(ctx context.Context, a Artifact, offset, length int64) (io.ReadCloser, error) {
	rc, err := s.Store.OpenRange(ctx, a.StorageKey, offset, length)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rc, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func resolveMimeType(declared string, head []byte) (string, error) {
	declared = normalizeMimeType(declared)
	if declared != "" && declared != "application/octet-stream" {
		if _, ok := allowedMimeTypes[declared]; ok {
			return declared, nil
		}
		return "", ErrUnsupportedType
	}
	sniffed := normalizeMimeType(http.DetectContentType(head))
	if sniffed == "video/avi" {
		sniffed = "video/x-msvideo"
	}
	if _, ok := allowedMimeTypes[sniffed]; ok {
		return sniffed, nil
	}
	return "", ErrUnsupportedType
}

func normalizeMimeType(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(v); err == nil {
		return strings.ToLower(parsed)
	}
	return strings.ToLower(v)
}
