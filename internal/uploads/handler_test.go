package uploads

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/tontan-resort/tontan-pms/internal/auth"
	"github.com/tontan-resort/tontan-pms/internal/shared"
)

// routerFixture mounts the upload routes behind the same role gates the
// application wires.
func routerFixture(t *testing.T) (chi.Router, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	set := func(_ context.Context, _ int64, _ string) (string, error) { return "", nil }
	svc := NewService(store, map[Kind]Target{
		KindProfile:   {Default: "default-avatar.jpg", Set: set},
		KindRoom:      {Default: "default-room.jpg", Set: set},
		KindInventory: {Default: "default-inventory.jpg", Set: set},
	})

	mw := auth.NewMiddleware(nil, nil)
	h := NewHandler(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		svc,
		mw.RequireRole(shared.RoleAdmin, shared.RoleManager),
		mw.RequireRole(shared.RoleAdmin, shared.RoleStaff),
		mw.RequireRole(shared.RoleAdmin),
	)
	r := chi.NewRouter()
	r.Route("/upload", h.MountRoutes)
	return r, store
}

func multipartImage(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	payload := append(append([]byte{}, jpegHead...), bytes.Repeat([]byte{0}, 64)...)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, r chi.Router, method, path string, role shared.Role) *httptest.ResponseRecorder {
	t.Helper()
	var (
		body        io.Reader
		contentType string
	)
	if method == http.MethodPost {
		body, contentType = multipartImage(t)
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req = req.WithContext(shared.ContextWithActor(req.Context(), shared.Actor{UserID: 3, Role: role}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRoomUploadRequiresManagerRole(t *testing.T) {
	r, store := routerFixture(t)

	rec := doUpload(t, r, http.MethodPost, "/upload/room/7", shared.RoleUser)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Zero(t, store.uploads)

	rec = doUpload(t, r, http.MethodPost, "/upload/room/7", shared.RoleStaff)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doUpload(t, r, http.MethodPost, "/upload/room/7", shared.RoleManager)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, store.uploads)
}

func TestInventoryUploadRequiresStaffRole(t *testing.T) {
	r, store := routerFixture(t)

	rec := doUpload(t, r, http.MethodPost, "/upload/inventory/4", shared.RoleManager)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Zero(t, store.uploads)

	rec = doUpload(t, r, http.MethodPost, "/upload/inventory/4", shared.RoleStaff)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, store.uploads)
}

func TestProfileUploadIsSelfService(t *testing.T) {
	r, store := routerFixture(t)

	rec := doUpload(t, r, http.MethodPost, "/upload/profile", shared.RoleUser)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, store.uploads)
}

func TestDeleteImageIsAdminOnly(t *testing.T) {
	r, store := routerFixture(t)

	rec := doUpload(t, r, http.MethodDelete, "/upload/rooms/old42", shared.RoleManager)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, store.destroyed)

	rec = doUpload(t, r, http.MethodDelete, "/upload/rooms/old42", shared.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"tontan-resort/rooms/old42"}, store.destroyed)

	rec = doUpload(t, r, http.MethodDelete, "/upload/documents/old42", shared.RoleAdmin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
