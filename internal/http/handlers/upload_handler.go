package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/http/middleware"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/internal/http/response"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/config"
	"github.com/Suryanshambekar/EcoFinds-x-BeetleBorgs/pkg/logger"
)

const maxImagesPerUpload = 5

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type UploadHandler struct {
	cfg       config.UploadConfig
	jwtSecret string
}

func NewUploadHandler(cfg config.UploadConfig, jwtSecret string) *UploadHandler {
	return &UploadHandler{cfg: cfg, jwtSecret: jwtSecret}
}

func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(mw.RequireJWT(h.jwtSecret))

	r.Post("/image", h.uploadImage)
	r.Post("/images", h.uploadImages)

	return r
}

func (h *UploadHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxBytes); err != nil {
		response.BadRequest(w, "image too large or malformed upload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		response.BadRequest(w, "image file is required")
		return
	}
	defer file.Close()

	url, err := h.saveImage(file, header)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (h *UploadHandler) uploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBytes*maxImagesPerUpload)
	if err := r.ParseMultipartForm(h.cfg.MaxBytes * maxImagesPerUpload); err != nil {
		response.BadRequest(w, "images too large or malformed upload")
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		response.BadRequest(w, "at least one image is required")
		return
	}
	if len(files) > maxImagesPerUpload {
		response.BadRequest(w, fmt.Sprintf("at most %d images per upload", maxImagesPerUpload))
		return
	}

	urls := make([]string, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			response.BadRequest(w, "malformed upload")
			return
		}
		url, err := h.saveImage(file, header)
		file.Close()
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		urls = append(urls, url)
	}

	response.WriteJSON(w, http.StatusCreated, map[string]any{"urls": urls})
}

// saveImage writes the upload under a random name, never the client's, and
// returns the public URL.
func (h *UploadHandler) saveImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > h.cfg.MaxBytes {
		return "", fmt.Errorf("image exceeds %d bytes", h.cfg.MaxBytes)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		return "", fmt.Errorf("unsupported image type: %s", ext)
	}

	if err := os.MkdirAll(h.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("prepare upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(h.cfg.Dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("store image: %w", err)
	}

	logger.Info("image stored", "file", name, "size", header.Size)
	return h.cfg.PublicBase + "/" + name, nil
}
