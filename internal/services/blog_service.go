package services

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/inkwell/inkwell-be/internal/models"
	"github.com/inkwell/inkwell-be/internal/uploads"
)

// BlogServiceProvider defines the interface for blog services.
type BlogServiceProvider interface {
	Create(userID int64, title, content string, imagePath *string) (int64, error)
	GetAll() ([]models.Blog, error)
	GetByID(id int64) (models.Blog, error)
	Update(id, userID int64, title, content string, imagePath *string) error
	Delete(id, userID int64) error
}

// BlogService provides business logic for blog post management.
type BlogService struct {
	db     *sql.DB
	images *uploads.Store
	events EventServiceProvider
}

// NewBlogService creates a new BlogService.
func NewBlogService(db *sql.DB, images *uploads.Store, events EventServiceProvider) *BlogService {
	return &BlogService{db: db, images: images, events: events}
}

// Create inserts a new blog post and returns its id. The image, if any,
// has already been saved by the handler; only its path is recorded here.
func (s *BlogService) Create(userID int64, title, content string, imagePath *string) (int64, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return 0, ErrMissingFields
	}

	stmt, err := s.db.Prepare("INSERT INTO blogs (user_id, title, content, blog_image) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	res, err := stmt.Exec(userID, title, content, imagePath)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	s.events.Record("blog.create", "info", fmt.Sprintf("Blog %d created.", id), &userID)
	return id, nil
}

// GetAll returns every blog post joined with its author's username,
// newest first.
func (s *BlogService) GetAll() ([]models.Blog, error) {
	rows, err := s.db.Query(`SELECT b.id, b.user_id, b.title, b.content, b.blog_image, b.created_at, u.username
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		ORDER BY b.created_at DESC, b.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blogs []models.Blog
	for rows.Next() {
		var blog models.Blog
		if err := rows.Scan(&blog.ID, &blog.UserID, &blog.Title, &blog.Content,
			&blog.BlogImage, &blog.CreatedAt, &blog.Author); err != nil {
			return nil, err
		}
		blogs = append(blogs, blog)
	}
	return blogs, rows.Err()
}

// GetByID returns a single blog post with its author's username.
func (s *BlogService) GetByID(id int64) (models.Blog, error) {
	var blog models.Blog
	row := s.db.QueryRow(`SELECT b.id, b.user_id, b.title, b.content, b.blog_image, b.created_at, u.username
		FROM blogs b
		JOIN users u ON b.user_id = u.id
		WHERE b.id = ?`, id)
	err := row.Scan(&blog.ID, &blog.UserID, &blog.Title, &blog.Content,
		&blog.BlogImage, &blog.CreatedAt, &blog.Author)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Blog{}, ErrBlogNotFound
		}
		return models.Blog{}, err
	}
	return blog, nil
}

// Update rewrites a post's title and content, and optionally its image.
// The id+owner predicate lives in the UPDATE itself; zero affected rows is
// the only authorization signal and yields ErrNotOwner. When a new image
// replaces an old one the old file is removed best-effort; when the update
// does not stick, the freshly saved file is removed instead.
func (s *BlogService) Update(id, userID int64, title, content string, imagePath *string) error {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return ErrMissingFields
	}

	var oldImage *string
	if imagePath != nil {
		// Snapshot the current image so the replaced file can be cleaned
		// up after the ownership-gated update succeeds.
		row := s.db.QueryRow("SELECT blog_image FROM blogs WHERE id = ?", id)
		if err := row.Scan(&oldImage); err != nil && err != sql.ErrNoRows {
			return err
		}
	}

	var res sql.Result
	var err error
	if imagePath != nil {
		res, err = s.db.Exec("UPDATE blogs SET title = ?, content = ?, blog_image = ? WHERE id = ? AND user_id = ?",
			title, content, imagePath, id, userID)
	} else {
		res, err = s.db.Exec("UPDATE blogs SET title = ?, content = ? WHERE id = ? AND user_id = ?",
			title, content, id, userID)
	}
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if imagePath != nil {
			if err := s.images.Remove(*imagePath); err != nil {
				log.Warn().Err(err).Str("file", *imagePath).Msg("Failed to remove orphaned blog image")
			}
		}
		return ErrNotOwner
	}

	if imagePath != nil && oldImage != nil && *oldImage != *imagePath {
		if err := s.images.Remove(*oldImage); err != nil {
			log.Warn().Err(err).Str("file", *oldImage).Msg("Failed to remove replaced blog image")
		}
	}

	s.events.Record("blog.update", "info", fmt.Sprintf("Blog %d updated.", id), &userID)
	return nil
}

// Delete removes a post with the same id+owner predicate. The database row
// goes first; removing an attached image file afterwards is best-effort and
// never reverses the deletion.
func (s *BlogService) Delete(id, userID int64) error {
	var image *string
	row := s.db.QueryRow("SELECT blog_image FROM blogs WHERE id = ?", id)
	if err := row.Scan(&image); err != nil && err != sql.ErrNoRows {
		return err
	}

	res, err := s.db.Exec("DELETE FROM blogs WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotOwner
	}

	if image != nil {
		if err := s.images.Remove(*image); err != nil {
			log.Warn().Err(err).Str("file", *image).Msg("Failed to remove image of deleted blog")
			s.events.Record("blog.image.orphan", "warn",
				fmt.Sprintf("Image %q of deleted blog %d left on disk.", *image, id), &userID)
		}
	}

	s.events.Record("blog.delete", "info", fmt.Sprintf("Blog %d deleted.", id), &userID)
	return nil
}
