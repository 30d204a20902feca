package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tontan-resort/tontan-pms/internal/shared"
)

type memoryRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]*User)}
}

func (r *memoryRepo) FindByLogin(_ context.Context, login string) (*User, error) {
	for _, u := range r.users {
		if u.Username == login || u.Email == login {
			copied := *u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindByID(_ context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memoryRepo) Create(_ context.Context, user User) (int64, error) {
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return 0, ErrDuplicateAccount
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = &user
	return user.ID, nil
}

func (r *memoryRepo) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	if u, ok := r.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (r *memoryRepo) UpdateDetails(_ context.Context, id int64, name, email, phone, position string) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Name, u.Email, u.PhoneNumber, u.Position = name, email, phone, position
	return nil
}

func (r *memoryRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *memoryRepo) UpdateProfileImage(_ context.Context, id int64, image string) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.ProfileImage = image
	return nil
}

type captureMailer struct {
	to    string
	token string
}

func (m *captureMailer) EnqueueResetEmail(_ context.Context, to, token string) error {
	m.to, m.token = to, token
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *captureMailer) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newMemoryRepo()
	mailer := &captureMailer{}
	svc := NewService(repo, NewTokenManager("test-secret", time.Hour), rdb, mailer, 10*time.Minute)
	return svc, repo, mailer
}

func seedUser(t *testing.T, repo *memoryRepo, username, password string, status AccountStatus) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	id, err := repo.Create(context.Background(), User{
		Name:         "Somchai",
		Email:        username + "@tontanresort.local",
		Username:     username,
		PasswordHash: string(hash),
		Role:         shared.RoleStaff,
		Department:   DepartmentFrontDesk,
		Status:       status,
	})
	require.NoError(t, err)
	return id
}

func TestRegisterDefaultsAndToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	user, token, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Somchai",
		Email:    "somchai@tontanresort.local",
		Username: "somchai",
		Password: "secret1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, shared.RoleStaff, user.Role)
	require.Equal(t, DepartmentFrontDesk, user.Department)
	require.Equal(t, StatusActive, user.Status)
}

func TestRegisterDuplicate(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "somchai", "secret1", StatusActive)

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Other",
		Email:    "somchai@tontanresort.local",
		Username: "other",
		Password: "secret1",
	})
	require.ErrorIs(t, err, ErrDuplicateAccount)
}

func TestAuthenticate(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "somchai", "secret1", StatusActive)
	ctx := context.Background()

	user, token, err := svc.Authenticate(ctx, "somchai", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotNil(t, user.LastLogin)

	// Email works as login too.
	_, _, err = svc.Authenticate(ctx, "somchai@tontanresort.local", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Authenticate(ctx, "somchai", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Authenticate(ctx, "nobody", "secret1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedUser(t, repo, "somchai", "secret1", StatusSuspended)

	_, _, err := svc.Authenticate(context.Background(), "somchai", "secret1")
	require.ErrorIs(t, err, shared.ErrAccountDisabled)
}

func TestUpdatePassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	id := seedUser(t, repo, "somchai", "secret1", StatusActive)
	ctx := context.Background()

	require.ErrorIs(t, svc.UpdatePassword(ctx, id, "wrong", "newsecret"), shared.ErrInvalidCredentials)
	require.NoError(t, svc.UpdatePassword(ctx, id, "secret1", "newsecret"))

	_, _, err := svc.Authenticate(ctx, "somchai", "newsecret")
	require.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, repo, mailer := newTestService(t)
	seedUser(t, repo, "somchai", "secret1", StatusActive)
	ctx := context.Background()

	require.NoError(t, svc.ForgotPassword(ctx, "somchai"))
	require.Equal(t, "somchai@tontanresort.local", mailer.to)
	require.NotEmpty(t, mailer.token)

	require.NoError(t, svc.ResetPassword(ctx, mailer.token, "resetsecret"))
	_, _, err := svc.Authenticate(ctx, "somchai", "resetsecret")
	require.NoError(t, err)

	// Token is single use.
	require.ErrorIs(t, svc.ResetPassword(ctx, mailer.token, "again"), ErrResetTokenInvalid)
}

func TestForgotPasswordUnknownLoginIsSilent(t *testing.T) {
	svc, _, mailer := newTestService(t)

	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost"))
	require.Empty(t, mailer.token)
}

func TestResetPasswordUnknownToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.ResetPassword(context.Background(), "bogus", "whatever")
	require.ErrorIs(t, err, ErrResetTokenInvalid)
}
