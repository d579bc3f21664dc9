package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"malaria_clinic/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testSigningKey = "test-signing-key"

// mockAuthRepo is a lightweight in-test mock for repository.Authorization.
type mockAuthRepo struct {
	CreateFn        func(username, hash string) (int, error)
	GetByUsernameFn func(username string) (*models.User, error)
	CountFn         func() (int, error)
	UpdateFn        func(id int, hash string) error

	createCalls []struct {
		username string
		hash     string
	}
	getCalls []string
	updates  []string
}

func (m *mockAuthRepo) Create(_ context.Context, username, hash string) (int, error) {
	m.createCalls = append(m.createCalls, struct {
		username string
		hash     string
	}{username: username, hash: hash})
	return m.CreateFn(username, hash)
}

func (m *mockAuthRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.getCalls = append(m.getCalls, username)
	return m.GetByUsernameFn(username)
}

func (m *mockAuthRepo) Count(context.Context) (int, error) {
	return m.CountFn()
}

func (m *mockAuthRepo) UpdatePassword(_ context.Context, id int, hash string) error {
	m.updates = append(m.updates, hash)
	if m.UpdateFn == nil {
		return nil
	}
	return m.UpdateFn(id, hash)
}

func newTestAuth(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, testSigningKey, time.Hour)
}

func userWithPassword(t *testing.T, id int, name, password string) *models.User {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	return &models.User{ID: id, Username: name, PasswordHash: hash}
}

// --- SignUp tests ---

func TestAuthService_SignUp_SuccessHashesPasswordAndCallsRepo(t *testing.T) {
	mock := &mockAuthRepo{
		CreateFn: func(username, hash string) (int, error) {
			return 42, nil
		},
	}
	svc := newTestAuth(mock)

	id, err := svc.SignUp(context.Background(), "alice", "s3cr3t")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}

	if len(mock.createCalls) != 1 {
		t.Fatalf("expected 1 Create call, got %d", len(mock.createCalls))
	}
	call := mock.createCalls[0]
	if call.username != "alice" {
		t.Errorf("expected username 'alice', got %q", call.username)
	}
	if call.hash == "s3cr3t" {
		t.Errorf("expected hashed password not equal to raw password")
	}
	if err := verifyPassword(call.hash, "s3cr3t"); err != nil {
		t.Errorf("stored hash does not verify with original password: %v", err)
	}
}

func TestAuthService_SignUp_EmptyPassword(t *testing.T) {
	mock := &mockAuthRepo{
		CreateFn: func(username, hash string) (int, error) {
			t.Fatal("Create should not be called for empty password")
			return 0, nil
		},
	}
	svc := newTestAuth(mock)

	_, err := svc.SignUp(context.Background(), "bob", "   ")
	if !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestAuthService_SignUp_RepoError(t *testing.T) {
	mock := &mockAuthRepo{
		CreateFn: func(username, hash string) (int, error) {
			return 0, errors.New("db down")
		},
	}
	svc := newTestAuth(mock)

	if _, err := svc.SignUp(context.Background(), "carl", "pass123"); err == nil {
		t.Fatalf("expected repo error, got nil")
	}
}

// --- CheckCredentials tests ---

func TestAuthService_CheckCredentials(t *testing.T) {
	admin := userWithPassword(t, 1, "admin", "admin")

	tests := []struct {
		name     string
		username string
		password string
		user     *models.User
		repoErr  error
		want     bool
		wantErr  bool
	}{
		{name: "exact match", username: "admin", password: "admin", user: admin, want: true},
		{name: "password is trimmed", username: "admin", password: "  admin\t", user: admin, want: true},
		{name: "wrong password", username: "admin", password: "nope", user: admin, want: false},
		{name: "unknown user", username: "ghost", password: "admin", want: false},
		{name: "repo failure", username: "admin", password: "admin", repoErr: errors.New("locked"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAuthRepo{
				GetByUsernameFn: func(string) (*models.User, error) {
					return tt.user, tt.repoErr
				},
			}
			ok, err := newTestAuth(mock).CheckCredentials(context.Background(), tt.username, tt.password)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.want {
				t.Fatalf("ok = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestAuthService_CheckCredentials_PlainTextRow(t *testing.T) {
	legacy := func() *models.User { return &models.User{ID: 9, Username: "admin", PasswordHash: "admin"} }

	t.Run("accepted and rehashed", func(t *testing.T) {
		mock := &mockAuthRepo{GetByUsernameFn: func(string) (*models.User, error) { return legacy(), nil }}
		ok, err := newTestAuth(mock).CheckCredentials(context.Background(), "ADMIN", " admin ")
		if err != nil || !ok {
			t.Fatalf("ok=%v err=%v, want true", ok, err)
		}
		if len(mock.updates) != 1 || !isHashed(mock.updates[0]) {
			t.Fatalf("expected one bcrypt upgrade, got %q", mock.updates)
		}
		if verifyPassword(mock.updates[0], "admin") != nil {
			t.Fatal("upgraded hash does not match the password")
		}
	})

	t.Run("wrong password is not upgraded", func(t *testing.T) {
		mock := &mockAuthRepo{GetByUsernameFn: func(string) (*models.User, error) { return legacy(), nil }}
		ok, err := newTestAuth(mock).CheckCredentials(context.Background(), "admin", "Admin")
		if err != nil || ok {
			t.Fatalf("ok=%v err=%v, want false", ok, err)
		}
		if len(mock.updates) != 0 {
			t.Fatalf("unexpected upgrade: %q", mock.updates)
		}
	})

	t.Run("failed upgrade still logs in", func(t *testing.T) {
		mock := &mockAuthRepo{
			GetByUsernameFn: func(string) (*models.User, error) { return legacy(), nil },
			UpdateFn:        func(int, string) error { return errors.New("readonly database") },
		}
		ok, err := newTestAuth(mock).CheckCredentials(context.Background(), "admin", "admin")
		if err != nil || !ok {
			t.Fatalf("ok=%v err=%v, want true", ok, err)
		}
	})
}

// --- EnsureAdmin tests ---

func TestAuthService_EnsureAdmin_SeedsEmptyTable(t *testing.T) {
	mock := &mockAuthRepo{
		CountFn:  func() (int, error) { return 0, nil },
		CreateFn: func(string, string) (int, error) { return 1, nil },
	}

	created, err := newTestAuth(mock).EnsureAdmin(context.Background(), "admin", "admin")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if !created {
		t.Fatal("expected admin to be created")
	}
	if len(mock.createCalls) != 1 || mock.createCalls[0].username != "admin" {
		t.Fatalf("unexpected create calls: %+v", mock.createCalls)
	}
}

func TestAuthService_EnsureAdmin_SkipsWhenUsersExist(t *testing.T) {
	mock := &mockAuthRepo{
		CountFn: func() (int, error) { return 3, nil },
		CreateFn: func(string, string) (int, error) {
			t.Fatal("Create should not be called when users exist")
			return 0, nil
		},
	}

	created, err := newTestAuth(mock).EnsureAdmin(context.Background(), "admin", "admin")
	if err != nil || created {
		t.Fatalf("created=%v err=%v, want false/nil", created, err)
	}
}

// --- GenerateToken tests ---

func TestAuthService_GenerateToken_Success(t *testing.T) {
	user := userWithPassword(t, 7, "diana", "letmein")

	mock := &mockAuthRepo{
		GetByUsernameFn: func(username string) (*models.User, error) {
			if username != "diana" {
				t.Fatalf("expected username 'diana', got %q", username)
			}
			return user, nil
		},
	}
	svc := newTestAuth(mock)

	token, err := svc.GenerateToken(context.Background(), "diana", "letmein")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	uid, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if uid != 7 {
		t.Fatalf("expected user id 7 from token, got %d", uid)
	}
	if len(mock.getCalls) != 1 {
		t.Fatalf("expected 1 GetByUsername call, got %d", len(mock.getCalls))
	}
}

func TestAuthService_GenerateToken_UserNotFound(t *testing.T) {
	mock := &mockAuthRepo{
		GetByUsernameFn: func(username string) (*models.User, error) {
			return nil, nil
		},
	}

	_, err := newTestAuth(mock).GenerateToken(context.Background(), "ghost", "pw")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got: %v", err)
	}
}

func TestAuthService_GenerateToken_InvalidPassword(t *testing.T) {
	user := userWithPassword(t, 1, "eve", "correct")
	mock := &mockAuthRepo{
		GetByUsernameFn: func(username string) (*models.User, error) {
			return user, nil
		},
	}

	_, err := newTestAuth(mock).GenerateToken(context.Background(), "eve", "wrong")
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got: %v", err)
	}
}

func TestAuthService_GenerateToken_RepoError(t *testing.T) {
	mock := &mockAuthRepo{
		GetByUsernameFn: func(username string) (*models.User, error) {
			return nil, errors.New("query failed")
		},
	}

	if _, err := newTestAuth(mock).GenerateToken(context.Background(), "john", "pw"); err == nil {
		t.Fatalf("expected repo error, got nil")
	}
}

// --- ParseToken tests ---

func TestAuthService_ParseToken_Success(t *testing.T) {
	svc := newTestAuth(&mockAuthRepo{})
	token, err := svc.issueToken(99)
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	uid, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken returned error: %v", err)
	}
	if uid != 99 {
		t.Fatalf("expected user id 99, got %d", uid)
	}
}

func TestAuthService_ParseToken_Malformed(t *testing.T) {
	svc := newTestAuth(&mockAuthRepo{})
	if _, err := svc.ParseToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestAuthService_ParseToken_InvalidSignature(t *testing.T) {
	svc := newTestAuth(&mockAuthRepo{})
	other := NewAuthService(&mockAuthRepo{}, "different-key", time.Hour)

	badToken, err := other.issueToken(5)
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	if _, err := svc.ParseToken(badToken); err == nil {
		t.Fatalf("expected signature verification error")
	}
}

func TestAuthService_ParseToken_Expired(t *testing.T) {
	svc := newTestAuth(&mockAuthRepo{})

	past := time.Now().Add(-2 * time.Hour)
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past),
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Minute)),
		},
		UserID: 11,
	})
	expiredToken, err := tk.SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := svc.ParseToken(expiredToken); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestAuthService_ParseToken_UnexpectedAlg(t *testing.T) {
	svc := newTestAuth(&mockAuthRepo{})

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}

	now := time.Now()
	tk := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: 12,
	})
	tokenStr, err := tk.SignedString(privateKey)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := svc.ParseToken(tokenStr); err == nil {
		t.Fatalf("expected error due to unexpected signing method")
	}
}

func TestNewAuthService_DefaultTTL(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, testSigningKey, 0)
	if svc.tokenTTL != defaultTokenTTL {
		t.Fatalf("tokenTTL = %v, want %v", svc.tokenTTL, defaultTokenTTL)
	}
}
