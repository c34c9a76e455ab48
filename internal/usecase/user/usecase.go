package user

import (
	"context"
	"errors"
	"mime/multipart"

	"go.uber.org/zap"

	domain "user-registry/internal/domain/user"
	pkgerrors "user-registry/pkg/errors"
)

// Repository defines the interface for user data access operations.
type Repository interface {
	Create(ctx context.Context, r *domain.Registration) (int64, error) // Insert a new user, returning its id
	List(ctx context.Context) ([]domain.User, error)                   // All users ordered by id descending
}

// PhotoStore persists uploaded photos and returns the generated filename.
type PhotoStore interface {
	Save(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

// Service implements the registration and listing use cases.
type Service struct {
	repo          Repository  // Repository for data access
	photos        PhotoStore  // Destination for uploaded photos
	maxPhotoBytes int64       // Largest accepted photo
	log           *zap.Logger // Logger for structured logging
}

// New creates a new Service. maxPhotoBytes must be positive.
func New(r Repository, photos PhotoStore, maxPhotoBytes int64, log *zap.Logger) *Service {
	return &Service{
		repo:          r,
		photos:        photos,
		maxPhotoBytes: maxPhotoBytes,
		log:           log,
	}
}

// CreateUser stores the optional photo and then inserts the user.
// A photo written before a failed insert is left on disk.
func (s *Service) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	s.log.Info("creating user",
		zap.Stringp("name", in.Name),
		zap.Stringp("email", in.Email),
		zap.Bool("photo", in.Photo != nil),
	)

	var photo *string
	if in.Photo != nil {
		if in.Photo.Size > s.maxPhotoBytes {
			s.log.Warn("photo rejected",
				zap.String("filename", in.Photo.Filename),
				zap.Int64("size", in.Photo.Size),
				zap.Int64("limit", s.maxPhotoBytes),
			)
			return nil, pkgerrors.NewUploadTooLargeError(s.maxPhotoBytes)
		}

		name, err := s.photos.Save(ctx, in.Photo)
		if err != nil {
			s.log.Error("failed to store photo", zap.String("filename", in.Photo.Filename), zap.Error(err))
			return nil, err
		}
		photo = &name
	}

	id, err := s.repo.Create(ctx, &domain.Registration{
		Name:  in.Name,
		Email: in.Email,
		Photo: photo,
	})
	if err != nil {
		s.log.Error("failed to create user", zap.Stringp("email", in.Email), zap.Error(err))
		var dbErr *pkgerrors.DatabaseError
		if errors.As(err, &dbErr) {
			return nil, err
		}
		return nil, pkgerrors.NewDatabaseError("failed to create user", err)
	}

	return &CreateUserResponse{ID: id, Photo: photo}, nil
}

// ListUsers returns every user, most recently created first.
func (s *Service) ListUsers(ctx context.Context, _ ListUsersRequest) (*ListUsersResponse, error) {
	domainUsers, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("failed to list users", zap.Error(err))
		var dbErr *pkgerrors.DatabaseError
		if errors.As(err, &dbErr) {
			return nil, err
		}
		return nil, pkgerrors.NewDatabaseError("failed to list users", err)
	}

	s.log.Debug("listed users", zap.Int("count", len(domainUsers)))

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = User{
			ID:    du.ID,
			Name:  du.Name,
			Email: du.Email,
			Photo: du.Photo,
		}
	}

	return &ListUsersResponse{Users: users}, nil
}

