package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Pranavsingh431/thermo-final/service"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var (
	errUnsupportedType = errors.New("unsupported image type, use jpg, jpeg or png")
	errTooLarge        = errors.New("image exceeds the upload size limit")
)

// UploadImage handles a single thermal image upload and runs the full
// analysis synchronously. An optional camp_name form field labels the report
// when no tower can be matched.
func (h *Handlers) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}

	path, err := h.saveUpload(c, file)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	report, err := h.svc.ProcessImage(c.Request.Context(), path, file.Filename, "", c.PostForm("camp_name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze image"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// UploadBatch handles a multi-image upload. Files that fail validation are
// reported as skipped; one bad image never aborts the rest.
func (h *Handlers) UploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Multipart form is required"})
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one image is required"})
		return
	}

	var items []service.BatchItem
	var skipped []gin.H
	for _, file := range files {
		path, err := h.saveUpload(c, file)
		if err != nil {
			skipped = append(skipped, gin.H{"filename": file.Filename, "error": err.Error()})
			continue
		}
		items = append(items, service.BatchItem{Path: path, OriginalFilename: file.Filename})
	}
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "No processable images in upload",
			"skipped": skipped,
		})
		return
	}

	batch, err := h.svc.RunBatch(c.Request.Context(), items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run batch analysis"})
		return
	}

	resp := gin.H{"batch": batch}
	if len(skipped) > 0 {
		resp["skipped"] = skipped
	}
	c.JSON(http.StatusOK, resp)
}

// saveUpload validates one uploaded file and stores it under a fresh name so
// concurrent uploads of the same filename never collide.
func (h *Handlers) saveUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", errUnsupportedType
	}
	if file.Size > h.cfg.MaxUploadMB<<20 {
		return "", errTooLarge
	}

	path := filepath.Join(h.cfg.UploadDir, uuid.New().String()+ext)
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return path, nil
}
