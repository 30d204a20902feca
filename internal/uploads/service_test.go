package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	jpegHead = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F'}
	pngHead  = []byte("\x89PNG\r\n\x1a\n")
)

type fakeStore struct {
	uploads   int
	destroyed []string
	failSet   bool
}

func (f *fakeStore) Upload(_ context.Context, r io.Reader, kind Kind) (*Asset, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	f.uploads++
	publicID := fmt.Sprintf("%s/img%d", Profiles[kind].Folder, f.uploads)
	return &Asset{
		PublicID: publicID,
		URL:      "https://res.cloudinary.com/demo/image/upload/v1700000000/" + publicID + ".jpg",
	}, nil
}

func (f *fakeStore) Destroy(_ context.Context, publicID string) error {
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

type fakeRecord struct {
	image string
}

func newFixture(defaultImage, current string) (*Service, *fakeStore, *fakeRecord) {
	store := &fakeStore{}
	record := &fakeRecord{image: current}
	svc := NewService(store, map[Kind]Target{
		KindRoom: {
			Default: defaultImage,
			Set: func(_ context.Context, _ int64, url string) (string, error) {
				previous := record.image
				record.image = url
				return previous, nil
			},
		},
	})
	return svc, store, record
}

func TestReplaceUploadsAndUpdatesRecord(t *testing.T) {
	svc, store, record := newFixture("default-room.jpg", "default-room.jpg")

	payload := append(append([]byte{}, jpegHead...), bytes.Repeat([]byte{0}, 100)...)
	asset, err := svc.Replace(context.Background(), KindRoom, 1, bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	require.Equal(t, asset.URL, record.image)
	require.Equal(t, 1, store.uploads)
	require.Empty(t, store.destroyed, "the default placeholder must never be destroyed")
}

func TestReplaceDestroysPreviousUpload(t *testing.T) {
	previous := "https://res.cloudinary.com/demo/image/upload/v1690000000/tontan-resort/rooms/old42.jpg"
	svc, store, record := newFixture("default-room.jpg", previous)

	payload := append(append([]byte{}, pngHead...), bytes.Repeat([]byte{0}, 100)...)
	_, err := svc.Replace(context.Background(), KindRoom, 1, bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	require.NotEqual(t, previous, record.image)
	require.Equal(t, []string{"tontan-resort/rooms/old42"}, store.destroyed)
}

func TestReplaceRejectsUnsupportedFormat(t *testing.T) {
	svc, store, _ := newFixture("default-room.jpg", "default-room.jpg")

	payload := []byte("GIF89a.............")
	_, err := svc.Replace(context.Background(), KindRoom, 1, bytes.NewReader(payload), int64(len(payload)))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	require.Zero(t, store.uploads)
}

func TestReplaceEnforcesSizeCap(t *testing.T) {
	svc, store, _ := newFixture("default-room.jpg", "default-room.jpg")

	_, err := svc.Replace(context.Background(), KindRoom, 1, bytes.NewReader(jpegHead), Profiles[KindRoom].MaxBytes+1)
	require.ErrorIs(t, err, ErrTooLarge)
	require.Zero(t, store.uploads)
}

func TestReplaceUnknownKind(t *testing.T) {
	svc, _, _ := newFixture("default-room.jpg", "default-room.jpg")

	_, err := svc.Replace(context.Background(), "documents", 1, bytes.NewReader(jpegHead), 8)
	require.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	format, err := DetectFormat(jpegHead)
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)

	format, err = DetectFormat(pngHead)
	require.NoError(t, err)
	require.Equal(t, "png", format)

	_, err = DetectFormat([]byte("GIF89a"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = DetectFormat(nil)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestPublicIDFromURL(t *testing.T) {
	id, ok := PublicIDFromURL("https://res.cloudinary.com/demo/image/upload/v1700000000/tontan-resort/rooms/abc123.jpg")
	require.True(t, ok)
	require.Equal(t, "tontan-resort/rooms/abc123", id)

	_, ok = PublicIDFromURL("default-room.jpg")
	require.False(t, ok)

	id, ok = PublicIDFromURL("https://res.cloudinary.com/demo/image/upload/tontan-resort/profiles/xyz.png")
	require.True(t, ok)
	require.Equal(t, "tontan-resort/profiles/xyz", id)
}
