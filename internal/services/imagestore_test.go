package services

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"hamkae-backend/internal/common"
)

func TestLocalImageStoreRoundTrip(t *testing.T) {
	store, err := NewLocalImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	data := []byte("fake jpeg bytes")
	ref, err := store.Store(data, "jpg")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !strings.HasSuffix(ref, ".jpg") {
		t.Errorf("ref %q missing extension", ref)
	}
	if strings.ContainsAny(ref, "/\\") {
		t.Errorf("ref %q must be a bare file name", ref)
	}

	got, err := store.Fetch(ref)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("fetched bytes differ from stored bytes")
	}

	if !store.Delete(ref) {
		t.Error("delete should report success")
	}
	if store.Delete(ref) {
		t.Error("second delete should report the file was gone")
	}
	if _, err := store.Fetch(ref); err == nil {
		t.Error("fetch after delete must fail")
	}
}

func TestLocalImageStoreRejectsPathTraversal(t *testing.T) {
	store, err := NewLocalImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Fetch("../etc/passwd"); err == nil {
		t.Error("fetch must reject refs with path separators")
	}
	if store.Delete("../somefile") {
		t.Error("delete must reject refs with path separators")
	}
}

func encodeTestImage(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: 128}), image.Point{}, draw.Src)
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func encodeBlackImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestValidateImage(t *testing.T) {
	const maxBytes = 10 << 20

	jpg := encodeTestImage(t, "jpeg", 640, 480)
	ext, err := ValidateImage(jpg, "image/jpeg", maxBytes)
	if err != nil {
		t.Fatalf("valid jpeg rejected: %v", err)
	}
	if ext != "jpg" {
		t.Errorf("ext = %q, want jpg", ext)
	}

	pngData := encodeTestImage(t, "png", 640, 480)
	ext, err = ValidateImage(pngData, "image/png", maxBytes)
	if err != nil {
		t.Fatalf("valid png rejected: %v", err)
	}
	if ext != "png" {
		t.Errorf("ext = %q, want png", ext)
	}
}

func TestValidateImageRejectsBadInput(t *testing.T) {
	const maxBytes = 10 << 20

	cases := []struct {
		name        string
		data        []byte
		contentType string
		maxBytes    int64
	}{
		{"unsupported type", encodeTestImage(t, "jpeg", 640, 480), "image/gif", maxBytes},
		{"empty body", nil, "image/jpeg", maxBytes},
		{"not an image", []byte("hello"), "image/jpeg", maxBytes},
		{"too small", encodeTestImage(t, "jpeg", 100, 100), "image/jpeg", maxBytes},
		{"over size cap", encodeTestImage(t, "jpeg", 640, 480), "image/jpeg", 10},
		{"too dark", encodeBlackImage(t, 640, 480), "image/png", maxBytes},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateImage(tc.data, tc.contentType, tc.maxBytes)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if !errors.Is(err, common.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}
