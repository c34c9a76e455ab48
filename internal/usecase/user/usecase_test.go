package user

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-registry/internal/domain/user"
	pkgerrors "user-registry/pkg/errors"
)

const testMaxPhotoBytes = 5 * 1024 * 1024

func strPtr(s string) *string { return &s }

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, r *domain.Registration) (int64, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockPhotoStore is a mock implementation of the PhotoStore interface
type MockPhotoStore struct {
	mock.Mock
}

func (m *MockPhotoStore) Save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	args := m.Called(ctx, fh)
	return args.String(0), args.Error(1)
}

func setupTestService(t *testing.T) (*Service, *MockRepository, *MockPhotoStore) {
	mockRepo := new(MockRepository)
	mockStore := new(MockPhotoStore)
	svc := New(mockRepo, mockStore, testMaxPhotoBytes, zaptest.NewLogger(t))
	return svc, mockRepo, mockStore
}

// ==================== CREATE USER TESTS ====================

func TestCreateUser_WithoutPhoto(t *testing.T) {
	svc, mockRepo, mockStore := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Create", ctx, &domain.Registration{
		Name:  strPtr("Budi"),
		Email: strPtr("budi@example.com"),
	}).Return(int64(1), nil)

	resp, err := svc.CreateUser(ctx, CreateUserRequest{Name: strPtr("Budi"), Email: strPtr("budi@example.com")})

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Nil(t, resp.Photo)
	mockRepo.AssertExpectations(t)
	mockStore.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateUser_WithPhoto(t *testing.T) {
	svc, mockRepo, mockStore := setupTestService(t)
	ctx := context.Background()
	fh := &multipart.FileHeader{Filename: "me.jpg", Size: 1024}

	mockStore.On("Save", ctx, fh).Return("1700000000000-42.jpg", nil)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(r *domain.Registration) bool {
		return r.Photo != nil && *r.Photo == "1700000000000-42.jpg"
	})).Return(int64(7), nil)

	resp, err := svc.CreateUser(ctx, CreateUserRequest{Name: strPtr("Sari"), Email: strPtr("sari@example.com"), Photo: fh})

	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.ID)
	require.NotNil(t, resp.Photo)
	assert.Equal(t, "1700000000000-42.jpg", *resp.Photo)
	mockStore.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_PhotoTooLarge(t *testing.T) {
	svc, mockRepo, mockStore := setupTestService(t)
	fh := &multipart.FileHeader{Filename: "huge.png", Size: testMaxPhotoBytes + 1}

	resp, err := svc.CreateUser(context.Background(), CreateUserRequest{Name: strPtr("Big"), Email: strPtr("big@example.com"), Photo: fh})

	assert.Nil(t, resp)
	var tooLarge *pkgerrors.UploadTooLargeError
	require.ErrorAs(t, err, &tooLarge)
	assert.Equal(t, int64(testMaxPhotoBytes), tooLarge.Limit)
	mockStore.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_PhotoExactlyAtLimit(t *testing.T) {
	svc, mockRepo, mockStore := setupTestService(t)
	ctx := context.Background()
	fh := &multipart.FileHeader{Filename: "edge.png", Size: testMaxPhotoBytes}

	mockStore.On("Save", ctx, fh).Return("edge.png", nil)
	mockRepo.On("Create", ctx, mock.Anything).Return(int64(3), nil)

	_, err := svc.CreateUser(ctx, CreateUserRequest{Name: strPtr("Edge"), Email: strPtr("edge@example.com"), Photo: fh})
	require.NoError(t, err)
}

func TestCreateUser_EmptyValuesPassedThrough(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Create", ctx, &domain.Registration{
		Name:  strPtr(""),
		Email: strPtr("empty@example.com"),
	}).Return(int64(4), nil)

	resp, err := svc.CreateUser(ctx, CreateUserRequest{Name: strPtr(""), Email: strPtr("empty@example.com")})

	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.ID)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_AbsentFieldsReachRepository(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Create", ctx, &domain.Registration{}).
		Return(int64(0), errors.New("NOT NULL constraint failed: users.name"))

	_, err := svc.CreateUser(ctx, CreateUserRequest{})

	var dbErr *pkgerrors.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_StoreFailure(t *testing.T) {
	svc, mockRepo, mockStore := setupTestService(t)
	ctx := context.Background()
	fh := &multipart.FileHeader{Filename: "me.jpg", Size: 10}

	mockStore.On("Save", ctx, fh).Return("", pkgerrors.NewStorageError("failed to store photo", errors.New("disk full")))

	_, err := svc.CreateUser(ctx, CreateUserRequest{Name: strPtr("Rina"), Email: strPtr("rina@example.com"), Photo: fh})

	var storageErr *pkgerrors.StorageError
	require.ErrorAs(t, err, &storageErr)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_RepositoryError(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.Anything).Return(int64(0), errors.New("duplicate key value violates unique constraint"))

	_, err := svc.CreateUser(ctx, CreateUserRequest{Name: strPtr("Dup"), Email: strPtr("dup@example.com")})

	var dbErr *pkgerrors.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Contains(t, err.Error(), "unique constraint")
}

// ==================== LIST USERS TESTS ====================

func TestListUsers_Success(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()
	photo := "1-1.png"

	mockRepo.On("List", ctx).Return([]domain.User{
		{ID: 2, Name: "Second", Email: "second@example.com", Photo: &photo},
		{ID: 1, Name: "First", Email: "first@example.com"},
	}, nil)

	resp, err := svc.ListUsers(ctx, ListUsersRequest{})

	require.NoError(t, err)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, int64(2), resp.Users[0].ID)
	assert.Equal(t, &photo, resp.Users[0].Photo)
	assert.Nil(t, resp.Users[1].Photo)
}

func TestListUsers_Empty(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return([]domain.User{}, nil)

	resp, err := svc.ListUsers(ctx, ListUsersRequest{})

	require.NoError(t, err)
	assert.Empty(t, resp.Users)
}

func TestListUsers_RepositoryError(t *testing.T) {
	svc, mockRepo, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return(nil, errors.New("connection refused"))

	resp, err := svc.ListUsers(ctx, ListUsersRequest{})

	assert.Nil(t, resp)
	var dbErr *pkgerrors.DatabaseError
	require.ErrorAs(t, err, &dbErr)
}
