package services

import (
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell/inkwell-be/internal/models"
)

// RegisterInput carries the fields required to create a new account.
type RegisterInput struct {
	FirstName  string
	MiddleName string
	LastName   string
	Username   string
	Email      string
	Password   string
	Role       string
}

// ProfileInput carries the mutable profile fields.
type ProfileInput struct {
	FirstName  string
	MiddleName string
	LastName   string
	Pronouns   string
	Bio        string
	Role       string
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(input RegisterInput) (models.User, error)
	Authenticate(email, password string) (models.User, error)
	GetByID(id int64) (models.User, error)
	UpdateProfile(id int64, input ProfileInput) error
	SetProfileImage(id int64, path string) error
}

// UserService provides business logic for user management.
type UserService struct {
	db     *sql.DB
	events EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events EventServiceProvider) *UserService {
	return &UserService{db: db, events: events}
}

const userColumns = `id, first_name, COALESCE(middle_name, ''), last_name, username, email,
	password_hash, role, COALESCE(bio, ''), COALESCE(pronouns, ''), profile_image, created_at`

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.FirstName, &user.MiddleName, &user.LastName,
		&user.Username, &user.Email, &user.PasswordHash, &user.Role,
		&user.Bio, &user.Pronouns, &user.ProfileImage, &user.CreatedAt)
	return user, err
}

// Register creates a new user account, hashing the password before storage.
func (s *UserService) Register(input RegisterInput) (models.User, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.Role = strings.TrimSpace(input.Role)

	if input.FirstName == "" || input.LastName == "" || input.Username == "" ||
		input.Email == "" || input.Password == "" || input.Role == "" {
		return models.User{}, ErrMissingFields
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	stmt, err := s.db.Prepare(`INSERT INTO users(first_name, middle_name, last_name, username, email, password_hash, role)
		VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return models.User{}, err
	}
	defer stmt.Close()

	res, err := stmt.Exec(input.FirstName, input.MiddleName, input.LastName,
		input.Username, input.Email, string(hashedPassword), input.Role)
	if err != nil {
		if dup := duplicateFieldError(err); dup != nil {
			return models.User{}, dup
		}
		return models.User{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}

	s.events.Record("user.register", "info", fmt.Sprintf("User %q registered.", input.Username), &id)
	return s.GetByID(id)
}

// duplicateFieldError maps a UNIQUE constraint violation to the field it hit.
func duplicateFieldError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed: users.email") {
		return ErrDuplicateEmail
	}
	if strings.Contains(msg, "UNIQUE constraint failed: users.username") {
		return ErrDuplicateUsername
	}
	return nil
}

// GetByID retrieves a single user by their ID. The password hash is blanked.
func (s *UserService) GetByID(id int64) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials. An unknown email and a wrong
// password both return ErrInvalidCredentials so callers cannot tell which.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile overwrites the mutable profile fields for the given user.
// Callers must pass the authenticated session's own user id.
func (s *UserService) UpdateProfile(id int64, input ProfileInput) error {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if input.FirstName == "" || input.LastName == "" {
		return ErrMissingFields
	}

	stmt, err := s.db.Prepare(`UPDATE users SET first_name = ?, middle_name = ?, last_name = ?,
		pronouns = ?, bio = ?, role = ? WHERE id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(input.FirstName, input.MiddleName, input.LastName,
		input.Pronouns, input.Bio, input.Role, id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetProfileImage records the relative path of an already-saved image.
func (s *UserService) SetProfileImage(id int64, path string) error {
	res, err := s.db.Exec("UPDATE users SET profile_image = ? WHERE id = ?", path, id)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrUserNotFound
	}
	s.events.Record("user.image.upload", "info", "Profile image updated.", &id)
	return nil
}
