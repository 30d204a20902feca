// Package uploads pushes images to Cloudinary and keeps the owning record's
// image reference in sync.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Kind selects an upload pipeline. Each kind has its own folder, size cap
// and transformation.
type Kind string

const (
	KindProfile   Kind = "profiles"
	KindRoom      Kind = "rooms"
	KindInventory Kind = "inventory"
)

// Profile is the pipeline configuration for one Kind.
type Profile struct {
	Folder         string
	MaxBytes       int64
	Transformation string
}

// Profiles maps each Kind to its pipeline. The folders, caps and crop
// bounds match what the resort's asset library expects.
var Profiles = map[Kind]Profile{
	KindProfile:   {Folder: "tontan-resort/profiles", MaxBytes: 2 << 20, Transformation: "c_limit,w_500,h_500"},
	KindRoom:      {Folder: "tontan-resort/rooms", MaxBytes: 5 << 20, Transformation: "c_limit,w_1200,h_800"},
	KindInventory: {Folder: "tontan-resort/inventory", MaxBytes: 3 << 20, Transformation: "c_limit,w_800,h_800"},
}

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	_, ok := Profiles[k]
	return ok
}

// Asset is a stored image.
type Asset struct {
	PublicID string
	URL      string
}

var (
	// ErrUnsupportedFormat indicates the payload is not a JPEG or PNG.
	ErrUnsupportedFormat = errors.New("uploads: only jpeg and png images are accepted")
	// ErrTooLarge indicates the payload exceeds the kind's size cap.
	ErrTooLarge = errors.New("uploads: file exceeds the size limit")
)

// Store persists and removes image assets.
type Store interface {
	Upload(ctx context.Context, r io.Reader, kind Kind) (*Asset, error)
	Destroy(ctx context.Context, publicID string) error
}

// CloudinaryStore implements Store against the Cloudinary API.
type CloudinaryStore struct {
	client *cloudinary.Cloudinary
}

// NewCloudinaryStore builds a store from a cloudinary:// URL.
func NewCloudinaryStore(url string) (*CloudinaryStore, error) {
	client, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("uploads: cloudinary config: %w", err)
	}
	return &CloudinaryStore{client: client}, nil
}

// Upload pushes the image into the kind's folder with its crop bound applied.
func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, kind Kind) (*Asset, error) {
	profile, ok := Profiles[kind]
	if !ok {
		return nil, fmt.Errorf("uploads: unknown kind %q", kind)
	}
	resp, err := s.client.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         profile.Folder,
		Transformation: profile.Transformation,
	})
	if err != nil {
		return nil, fmt.Errorf("uploads: cloudinary upload: %w", err)
	}
	return &Asset{PublicID: resp.PublicID, URL: resp.SecureURL}, nil
}

// Destroy removes an asset. Unknown ids are treated as already gone.
func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	_, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("uploads: cloudinary destroy: %w", err)
	}
	return nil
}

// DetectFormat sniffs the magic bytes of an image payload.
func DetectFormat(head []byte) (string, error) {
	switch {
	case len(head) >= 3 && head[0] == 0xFF && head[1] == 0xD8 && head[2] == 0xFF:
		return "jpeg", nil
	case len(head) >= 8 && string(head[:8]) == "\x89PNG\r\n\x1a\n":
		return "png", nil
	}
	return "", ErrUnsupportedFormat
}

// PublicIDFromURL recovers the Cloudinary public id from a delivery URL so a
// replaced image can be destroyed. It returns false for references that are
// not Cloudinary URLs, such as the default placeholders.
func PublicIDFromURL(url string) (string, bool) {
	idx := strings.Index(url, "/upload/")
	if idx < 0 {
		return "", false
	}
	rest := url[idx+len("/upload/"):]
	// Strip the version segment, e.g. v1700000000/.
	if len(rest) > 1 && rest[0] == 'v' {
		if slash := strings.Index(rest, "/"); slash > 0 && allDigits(rest[1:slash]) {
			rest = rest[slash+1:]
		}
	}
	if dot := strings.LastIndex(rest, "."); dot > 0 {
		rest = rest[:dot]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
