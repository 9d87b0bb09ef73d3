package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhi542/MouldLensAI/constants"
)

// DefaultCameraID matches captures from devices that predate the
// camera_id form field.
const DefaultCameraID = "CAM_01"

// handleUpload accepts one image per request. Non-200 codes are reserved
// for malformed requests (missing file, wrong type); once the pipeline
// runs, the answer is always 200 with an authoritative status field.
func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image file provided"})
		return
	}
	if s.cfg.MaxUploadSize > 0 && fileHeader.Size > s.cfg.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
		return
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	if !constants.IsImageContentType(mimeType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file type, please upload an image"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("upload file close error", "error", cerr)
		}
	}()

	imageData, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}

	cameraID := c.DefaultPostForm("camera_id", DefaultCameraID)

	rec := s.proc.Process(c.Request.Context(), imageData, mimeType, cameraID)
	if s.telemetry != nil {
		s.telemetry.Observe(rec)
	}
	c.JSON(http.StatusOK, rec)
}
