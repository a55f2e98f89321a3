package handler

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	appErrors "github.com/globlecampus/campus-api/pkg/errors"
	"github.com/globlecampus/campus-api/pkg/response"
	"github.com/globlecampus/campus-api/pkg/storage"
)

// FileHandler streams stored material files behind signed tokens.
type FileHandler struct {
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
}

// NewFileHandler creates a new handler.
func NewFileHandler(store *storage.LocalStorage, signer *storage.SignedURLSigner) *FileHandler {
	return &FileHandler{store: store, signer: signer}
}

// Serve godoc
// @Summary Fetch a file using a signed download token
// @Tags Materials
// @Produce application/octet-stream
// @Param token path string true "Signed token issued by the download endpoint"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Serve(c *gin.Context) {
	_, relPath, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link"))
		return
	}

	path := h.store.Path(relPath)
	if _, err := os.Stat(path); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file no longer available"))
		return
	}
	c.FileAttachment(path, filepath.Base(relPath))
}
