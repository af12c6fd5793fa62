package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AIWebFAZ/frdfund/internal/audit"
	"github.com/AIWebFAZ/frdfund/internal/middleware"
	"github.com/AIWebFAZ/frdfund/internal/models"
)

const maxUploadBytes = 10 << 20 // 10MB

var allowedExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".jpg": {}, ".jpeg": {}, ".png": {},
}

type DocumentHandler struct {
	db        *gorm.DB
	audit     *audit.Recorder
	uploadDir string
}

func NewDocumentHandler(db *gorm.DB, recorder *audit.Recorder, uploadDir string) *DocumentHandler {
	return &DocumentHandler{db: db, audit: recorder, uploadDir: uploadDir}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	actor, _ := middleware.Actor(c)

	projectID, bad := pathID(c)
	if bad {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No file uploaded"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File exceeds 10MB limit"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, allowed := allowedExtensions[ext]; !allowed {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Only documents and images are allowed"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	storedName := uuid.New().String() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, storedName)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error"})
		return
	}

	doc := models.Document{
		ProjectID:    projectID,
		DocumentType: c.DefaultPostForm("document_type", "other"),
		FileName:     file.Filename,
		StoredName:   storedName,
		FileSize:     file.Size,
		UploadedBy:   actor.ID,
		Description:  c.PostForm("description"),
	}
	if err := h.db.Create(&doc).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}

	id := doc.ID
	h.audit.Record(audit.Entry{
		Actor:    actor,
		Action:   models.AuditCreate,
		Table:    "project_documents",
		RecordID: &id,
		NewValues: map[string]any{
			"project_id":    projectID,
			"file_name":     doc.FileName,
			"document_type": doc.DocumentType,
		},
		Origin: originFrom(c),
	})

	ok(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	projectID, bad := pathID(c)
	if bad {
		return
	}

	var docs []models.Document
	if err := h.db.Where("project_id = ?", projectID).Order("created_at asc").Find(&docs).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}
	ok(c, docs)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	actor, _ := middleware.Actor(c)
	id, bad := pathID(c)
	if bad {
		return
	}

	var doc models.Document
	err := h.db.First(&doc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Document not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}

	if err := h.db.Delete(&doc).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Server error"})
		return
	}
	// stored file removal is best effort
	_ = os.Remove(filepath.Join(h.uploadDir, doc.StoredName))

	h.audit.Record(audit.Entry{
		Actor:    actor,
		Action:   models.AuditDelete,
		Table:    "project_documents",
		RecordID: &id,
		OldValues: map[string]any{
			"project_id": doc.ProjectID,
			"file_name":  doc.FileName,
		},
		Origin: originFrom(c),
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document deleted"})
}
