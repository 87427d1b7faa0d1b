package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"archivo-storage-api/internal/application/ports"
	"archivo-storage-api/internal/infrastructure/jwt"
	archivodto "archivo-storage-api/internal/interface/api/rest/dto/archivo"
	"archivo-storage-api/internal/interface/api/rest/middleware"
	"archivo-storage-api/internal/interface/api/rest/validator"
)

const (
	// direct uploads go through the backend, keep them small
	maxDirectSize = int64(10 << 20)
	// 50MB
	maxVersionSize = int64(50 << 20)
)

type UploadController struct {
	archivoService ports.ArchivoService
	logger         *zap.Logger
}

func NewUploadController(
	r *gin.Engine,
	archivoService ports.ArchivoService,
	logger *zap.Logger,
	jwtService *jwt.Service,
) *UploadController {
	uc := &UploadController{
		archivoService: archivoService,
		logger:         logger,
	}

	r.POST(RouteUploadRequest, middleware.AuthMiddleware(jwtService), uc.RequestUploadHandler)
	r.POST(RouteUploadConfirm, middleware.AuthMiddleware(jwtService), uc.ConfirmUploadHandler)
	r.POST(RouteUploadDirect, middleware.AuthMiddleware(jwtService), uc.DirectUploadHandler)
	r.POST(RouteUploadVersion, middleware.AuthMiddleware(jwtService), uc.CreateVersionHandler)

	return uc
}

func (uc *UploadController) RequestUploadHandler(c *gin.Context) {
	var req archivodto.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}
	if errs := validator.ValidateUpload(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	ticket, err := uc.archivoService.RequestUpload(c.Request.Context(), archivodto.ToUploadRequest(req, middleware.Actor(c)))
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		uc.logger.Error("RequestUpload() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, archivodto.ToResponseTicket(*ticket))
}

func (uc *UploadController) ConfirmUploadHandler(c *gin.Context) {
	var req archivodto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}
	ok, id := validator.IsUUID(req.ArchivoID)
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "archivo_id must be a valid UUID"},
		)
		return
	}

	a, err := uc.archivoService.ConfirmUpload(c.Request.Context(), id, req.Checksum)
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		uc.logger.Error("ConfirmUpload() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, archivodto.ToResponseArchivo(*a))
}

func (uc *UploadController) DirectUploadHandler(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fh.Size <= 0 || fh.Size > maxDirectSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large or empty"})
		return
	}

	entidadID, _ := strconv.ParseInt(c.PostForm("entidad_id"), 10, 64)
	req := archivodto.UploadRequest{
		EntidadTipo:   c.PostForm("entidad_tipo"),
		EntidadID:     entidadID,
		Categoria:     c.PostForm("categoria"),
		NombreArchivo: fh.Filename,
		MimeType:      fh.Header.Get("Content-Type"),
		TamanoBytes:   fh.Size,
		EsObligatorio: c.PostForm("es_obligatorio") == "true",
	}
	if errs := validator.ValidateUpload(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer f.Close()

	a, err := uc.archivoService.DirectUpload(c.Request.Context(), ports.DirectUpload{
		UploadRequest: archivodto.ToUploadRequest(req, middleware.Actor(c)),
		Body:          f,
	})
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		uc.logger.Error("DirectUpload() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, archivodto.ToResponseArchivo(*a))
}

func (uc *UploadController) CreateVersionHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("archivo_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "archivo_id must be a valid UUID"},
		)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fh.Size <= 0 || fh.Size > maxVersionSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large or empty"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer f.Close()

	a, err := uc.archivoService.CreateVersion(
		c.Request.Context(),
		id,
		fh.Filename,
		fh.Header.Get("Content-Type"),
		fh.Size,
		f,
		middleware.Actor(c),
	)
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		uc.logger.Error("CreateVersion() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, archivodto.ToResponseArchivo(*a))
}
