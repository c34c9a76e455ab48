package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-registry/internal/domain/user"
	pkgerrors "user-registry/pkg/errors"
	"user-registry/pkg/logger"
)

// UserRepoPG implements the Repository interface using GORM.
// Despite the name it also runs against SQLite in development and tests.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
// Name and Email are pointers so an absent form field reaches the NOT NULL
// constraint as NULL rather than as an empty string.
type UserSchema struct {
	ID    int64   `gorm:"primaryKey;autoIncrement"`  // Unique identifier with auto-increment
	Name  *string `gorm:"type:text;not null"`        // Display name (required)
	Email *string `gorm:"type:text;not null;unique"` // Email address (required, unique)
	Photo *string `gorm:"type:text"`                 // Stored photo filename, NULL when none
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Migrate creates the users table when it does not exist yet.
// An existing table is left exactly as it is, whatever created it.
func (r *UserRepoPG) Migrate(ctx context.Context) error {
	migrator := r.db.WithContext(ctx).Migrator()
	if migrator.HasTable(&UserSchema{}) {
		r.log.Info("users table ready", zap.Bool("created", false))
		return nil
	}

	if err := migrator.CreateTable(&UserSchema{}); err != nil {
		// A concurrent start may have created it between the two calls.
		if migrator.HasTable(&UserSchema{}) {
			return nil
		}
		r.log.Error("failed to create users table", zap.Error(err))
		return pkgerrors.NewStartupError("schema", err)
	}

	r.log.Info("users table ready", zap.Bool("created", true))
	return nil
}

// Create inserts a new user into the database.
func (r *UserRepoPG) Create(ctx context.Context, reg *user.Registration) (int64, error) {
	if reg == nil {
		return 0, errors.New("registration cannot be nil")
	}

	log := logger.WithContext(ctx, r.log)

	model := UserSchema{
		Name:  reg.Name,
		Email: reg.Email,
		Photo: reg.Photo,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn("email already registered", zap.Stringp("email", reg.Email))
			return 0, pkgerrors.NewDatabaseError("email already registered", err)
		}
		log.Error("failed to create user in db", zap.Error(err), zap.Stringp("email", reg.Email))
		return 0, pkgerrors.NewDatabaseError("failed to create user", err)
	}

	log.Info("user created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// List retrieves every user, newest first.
func (r *UserRepoPG) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&models).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to list users from db", zap.Error(err))
		return nil, pkgerrors.NewDatabaseError("failed to list users", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = user.User{
			ID:    model.ID,
			Name:  value(model.Name),
			Email: value(model.Email),
			Photo: model.Photo,
		}
	}

	return users, nil
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
