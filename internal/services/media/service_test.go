package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeStorage struct {
	putKeys     []string
	deleteCalls int
}

func (f *fakeStorage) EnsureBucket(_ context.Context) error {
	return nil
}

func (f *fakeStorage) PutPhoto(_ context.Context, key string, _ io.Reader, _ int64, _ string) error {
	f.putKeys = append(f.putKeys, key)
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.local/" + key, nil
}

func (f *fakeStorage) Delete(_ context.Context, _ string) error {
	f.deleteCalls++
	return nil
}

func TestUploadPhotoBuildsKeyAndURL(t *testing.T) {
	storage := &fakeStorage{}
	svc := NewService(storage)

	up, err := svc.UploadPhoto(context.Background(), 7, "sunset.jpg", "image/jpeg", strings.NewReader("abc"), 3)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(up.ObjectKey, "photos/7/") || !strings.HasSuffix(up.ObjectKey, ".jpg") {
		t.Fatalf("unexpected object key %q", up.ObjectKey)
	}
	base := strings.TrimSuffix(strings.TrimPrefix(up.ObjectKey, "photos/7/"), ".jpg")
	_, id, ok := strings.Cut(base, "_")
	if !ok {
		t.Fatalf("object key %q missing timestamp separator", up.ObjectKey)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("object key id %q is not a uuid: %v", id, err)
	}
	if up.URL != "https://signed.local/"+up.ObjectKey {
		t.Fatalf("unexpected url %q", up.URL)
	}
	if len(storage.putKeys) != 1 {
		t.Fatalf("expected one put, got %d", len(storage.putKeys))
	}
}

func TestUploadPhotoIgnoresUntrustedFilenameExtension(t *testing.T) {
	svc := NewService(&fakeStorage{})
	ctx := context.Background()

	up, err := svc.UploadPhoto(ctx, 7, "photo.exe", "image/jpeg", strings.NewReader("abc"), 3)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasSuffix(up.ObjectKey, ".jpg") {
		t.Fatalf("filename extension leaked into object key %q", up.ObjectKey)
	}

	up, err = svc.UploadPhoto(ctx, 7, "shot.jpeg", "image/jpeg", strings.NewReader("abc"), 3)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasSuffix(up.ObjectKey, ".jpeg") {
		t.Fatalf("known filename extension was not kept in %q", up.ObjectKey)
	}
}

func TestUploadPhotoRejectsBadInput(t *testing.T) {
	svc := NewService(&fakeStorage{})
	ctx := context.Background()

	if _, err := svc.UploadPhoto(ctx, 7, "x.gif", "image/gif", strings.NewReader("abc"), 3); !errors.Is(err, ErrUnsupportedExt) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
	if _, err := svc.UploadPhoto(ctx, 7, "x.jpg", "image/jpeg", strings.NewReader("abc"), maxUploadBytes+1); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected size rejection, got %v", err)
	}
	if _, err := svc.UploadPhoto(ctx, 0, "x.jpg", "image/jpeg", strings.NewReader("abc"), 3); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
}
