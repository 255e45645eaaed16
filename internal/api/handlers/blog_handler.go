package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/inkwell/inkwell-be/internal/auth"
	"github.com/inkwell/inkwell-be/internal/models"
	"github.com/inkwell/inkwell-be/internal/services"
	"github.com/inkwell/inkwell-be/internal/uploads"
	ws "github.com/inkwell/inkwell-be/internal/websocket"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to temp files.
const maxMultipartMemory = 10 << 20

// BlogHandler handles HTTP requests for blog posts.
type BlogHandler struct {
	blogs  services.BlogServiceProvider
	images *uploads.Store
	hub    *ws.Hub
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(blogs services.BlogServiceProvider, images *uploads.Store, hub *ws.Hub) *BlogHandler {
	return &BlogHandler{blogs: blogs, images: images, hub: hub}
}

// blogPayload is the incoming shape for create and update, arriving either
// as JSON or as multipart form fields with an optional "blog_image" file.
type blogPayload struct {
	Title     string
	Content   string
	ImagePath *string
}

// parsePayload reads title, content, and an optional image from either a
// JSON or a multipart body. A supplied image is validated and saved here,
// before the database is touched.
func (h *BlogHandler) parsePayload(r *http.Request) (blogPayload, error) {
	var p blogPayload

	if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return p, services.ErrMissingFields
		}
		p.Title = r.FormValue("title")
		p.Content = r.FormValue("content")

		file, header, err := r.FormFile("blog_image")
		if err == nil {
			defer file.Close()
			path, err := h.images.Save(header.Filename, header.Size, file)
			if err != nil {
				return p, err
			}
			p.ImagePath = &path
		} else if err != http.ErrMissingFile {
			return p, err
		}
		return p, nil
	}

	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return p, services.ErrMissingFields
	}
	p.Title = body.Title
	p.Content = body.Content
	return p, nil
}

// Create handles new blog post creation.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	payload, err := h.parsePayload(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	id, err := h.blogs.Create(userID, payload.Title, payload.Content, payload.ImagePath)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to create blog")
		if payload.ImagePath != nil {
			if rmErr := h.images.Remove(*payload.ImagePath); rmErr != nil {
				log.Warn().Err(rmErr).Str("file", *payload.ImagePath).Msg("Failed to remove orphaned blog image")
			}
		}
		respondServiceError(w, err)
		return
	}

	blog, err := h.blogs.GetByID(id)
	if err != nil {
		log.Error().Err(err).Int64("blog_id", id).Msg("Failed to load created blog")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.hub.BroadcastMessage("blog.created", blog)
	respondSuccess(w, http.StatusCreated, envelope{"message": "Blog created successfully.", "blog": blog})
}

// GetAll handles listing every blog post, newest first.
func (h *BlogHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.blogs.GetAll()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list blogs")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if blogs == nil {
		blogs = []models.Blog{}
	}
	respondSuccess(w, http.StatusOK, envelope{"blogs": blogs})
}

// Get handles retrieving a single blog post by id.
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := blogID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Blog ID is required.")
		return
	}

	blog, err := h.blogs.GetByID(id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, envelope{"blog": blog})
}

// Update handles rewriting a post. Ownership is enforced inside the
// service's single UPDATE statement.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := blogID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Blog ID is required.")
		return
	}

	payload, err := h.parsePayload(r)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.blogs.Update(id, userID, payload.Title, payload.Content, payload.ImagePath); err != nil {
		log.Warn().Err(err).Int64("blog_id", id).Int64("user_id", userID).Msg("Failed to update blog")
		respondServiceError(w, err)
		return
	}

	h.hub.BroadcastMessage("blog.updated", envelope{"id": id})
	respondSuccess(w, http.StatusOK, envelope{"message": "Blog updated successfully."})
}

// Delete handles removing a post, again ownership-gated in the service.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	id, err := blogID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Blog ID is required.")
		return
	}

	if err := h.blogs.Delete(id, userID); err != nil {
		log.Warn().Err(err).Int64("blog_id", id).Int64("user_id", userID).Msg("Failed to delete blog")
		respondServiceError(w, err)
		return
	}

	h.hub.BroadcastMessage("blog.deleted", envelope{"id": id})
	respondSuccess(w, http.StatusOK, envelope{"message": "Blog deleted successfully."})
}

func blogID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.ErrMissingFields
	}
	return id, nil
}
