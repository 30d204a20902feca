package uploads

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Target is the owning record of an uploaded image. Set stores the new URL
// and returns the previous reference; Default is the placeholder that must
// never be destroyed.
type Target struct {
	Set     func(ctx context.Context, id int64, url string) (previous string, err error)
	Default string
}

// Service runs the upload pipeline: sniff, push to the store, update the
// owning record, then destroy the replaced asset.
type Service struct {
	store   Store
	targets map[Kind]Target
}

// NewService constructs a Service. targets must cover every Kind the routes
// expose.
func NewService(store Store, targets map[Kind]Target) *Service {
	return &Service{store: store, targets: targets}
}

// Remove destroys a stored asset by its folder-local name. The owning
// record keeps whatever URL it holds; the caller is expected to re-upload
// or fall back to the default placeholder.
func (s *Service) Remove(ctx context.Context, kind Kind, name string) error {
	if s.store == nil {
		return fmt.Errorf("uploads: no store configured")
	}
	profile, ok := Profiles[kind]
	if !ok {
		return fmt.Errorf("uploads: unknown kind %q", kind)
	}
	return s.store.Destroy(ctx, profile.Folder+"/"+name)
}

// Replace uploads the image and swaps it into the owning record. The old
// asset is destroyed unless it is the kind's default placeholder. A failed
// destroy is reported through the returned cleanup error but does not undo
// the swap.
func (s *Service) Replace(ctx context.Context, kind Kind, id int64, r io.Reader, size int64) (*Asset, error) {
	target, ok := s.targets[kind]
	if !ok {
		return nil, fmt.Errorf("uploads: unknown kind %q", kind)
	}
	profile := Profiles[kind]
	if size > profile.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, profile.MaxBytes)
	}

	br := bufio.NewReader(r)
	head, err := br.Peek(8)
	if err != nil && len(head) < 3 {
		return nil, ErrUnsupportedFormat
	}
	if _, err := DetectFormat(head); err != nil {
		return nil, err
	}

	asset, err := s.store.Upload(ctx, io.LimitReader(br, profile.MaxBytes), kind)
	if err != nil {
		return nil, err
	}
	previous, err := target.Set(ctx, id, asset.URL)
	if err != nil {
		// The record was not updated; drop the orphaned asset.
		_ = s.store.Destroy(ctx, asset.PublicID)
		return nil, err
	}
	if previous != "" && previous != target.Default {
		if publicID, ok := PublicIDFromURL(previous); ok {
			if derr := s.store.Destroy(ctx, publicID); derr != nil {
				return asset, fmt.Errorf("uploads: destroy replaced asset %s: %w", publicID, derr)
			}
		}
	}
	return asset, nil
}
