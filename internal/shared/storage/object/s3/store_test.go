package s3

import (
	"errors"
	"fmt"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"speedr-backend/internal/shared/storage/object"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "videos/clip.mp4", want: "videos/clip.mp4"},
		{name: "simple prefix", prefix: "root", key: "videos/clip.mp4", want: "root/videos/clip.mp4"},
		{name: "prefix trailing slash", prefix: "root/", key: "videos/clip.mp4", want: "root/videos/clip.mp4"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/videos/clip.mp4", want: "root/videos/clip.mp4"},
		{name: "nested prefix", prefix: "root/sub", key: "videos/clip.mp4", want: "root/sub/videos/clip.mp4"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestRangeHeaderIsInclusive(t *testing.T) {
	if got := rangeHeader(0, 1024); got != "bytes=0-1023" {
		t.Fatalf("expected bytes=0-1023, got %s", got)
	}
	if got := rangeHeader(10485750, 10); got != "bytes=10485750-10485759" {
		t.Fatalf("unexpected header %s", got)
	}
}

func TestMapS3ErrorNotFound(t *testing.T) {
	err := mapS3Error(fmt.Errorf("head: %w", &s3types.NotFound{}))
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	err = mapS3Error(fmt.Errorf("get: %w", &s3types.NoSuchKey{}))
	if !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for NoSuchKey, got %v", err)
	}
	other := errors.New("boom")
	if mapS3Error(other) != other {
		t.Fatalf("expected unrelated errors to pass through")
	}
}

func TestLocator(t *testing.T) {
	s := &Store{bucket: "clips", prefix: "speedr"}
	if got := s.Locator("videos/a.mp4"); got != "s3://clips/speedr/videos/a.mp4" {
		t.Fatalf("unexpected locator %s", got)
	}
}
