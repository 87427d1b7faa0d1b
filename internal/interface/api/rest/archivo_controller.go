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

type ArchivoController struct {
	archivoService ports.ArchivoService
	logger         *zap.Logger
}

func NewArchivoController(
	r *gin.Engine,
	archivoService ports.ArchivoService,
	logger *zap.Logger,
	jwtService *jwt.Service,
) *ArchivoController {
	ac := &ArchivoController{
		archivoService: archivoService,
		logger:         logger,
	}

	r.GET(RouteArchivos, ac.GetArchivosHandler)
	r.GET(RouteArchivosStats, ac.GetStatsHandler)
	r.GET(RouteArchivosFormatos, ac.GetFormatosHandler)
	r.GET(RouteArchivosEntidad, ac.GetArchivosEntidadHandler)
	r.GET(RouteArchivo, ac.GetArchivoHandler)
	r.GET(RouteArchivoURL, ac.GetDownloadURLHandler)
	r.GET(RouteArchivoVersiones, ac.GetVersionesHandler)
	r.PATCH(RouteArchivoMetadata, middleware.AuthMiddleware(jwtService), ac.UpdateMetadataHandler)
	r.DELETE(RouteArchivo, middleware.AuthMiddleware(jwtService), ac.DeleteArchivoHandler)

	return ac
}

func (ac *ArchivoController) GetArchivosHandler(c *gin.Context) {
	page, err := validator.ValidatePage(c.Query("page"))
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": err.Error()},
		)
		return
	}

	archivos, err := ac.archivoService.FindAll(c.Request.Context(), page)
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		ac.logger.Error("FindAll() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, archivodto.ResponseData{
		Data: archivodto.ToResponseArchivos(archivos),
	})
}

func (ac *ArchivoController) GetArchivoHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("archivo_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "archivo_id must be a valid UUID"},
		)
		return
	}

	a, err := ac.archivoService.FindByID(c.Request.Context(), id)
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		if status == http.StatusInternalServerError {
			ac.logger.Error("FindByID() error", zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusOK, archivodto.ToResponseArchivo(*a))
}

func (ac *ArchivoController) GetArchivosEntidadHandler(c *gin.Context) {
	entidadTipo := c.Param("entidad_tipo")
	entidadID, err := strconv.ParseInt(c.Param("entidad_id"), 10, 64)
	if err != nil || entidadID <= 0 {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "entidad_id must be a positive integer"},
		)
		return
	}

	archivos, err := ac.archivoService.FindByEntidad(c.Request.Context(), entidadTipo, entidadID)
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		ac.logger.Error("FindByEntidad() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, archivodto.ResponseData{
		Data: archivodto.ToResponseArchivos(archivos),
	})
}

func (ac *ArchivoController) GetDownloadURLHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("archivo_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "archivo_id must be a valid UUID"},
		)
		return
	}

	url, err := ac.archivoService.GetDownloadURL(c.Request.Context(), id)
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		if status == http.StatusInternalServerError || status == http.StatusBadGateway {
			ac.logger.Error("GetDownloadURL() error", zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusOK, archivodto.DownloadURL{URL: url})
}

func (ac *ArchivoController) GetVersionesHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("archivo_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "archivo_id must be a valid UUID"},
		)
		return
	}

	versiones, err := ac.archivoService.GetVersions(c.Request.Context(), id)
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		if status == http.StatusInternalServerError {
			ac.logger.Error("GetVersions() error", zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusOK, archivodto.ResponseData{
		Data: archivodto.ToResponseArchivos(versiones),
	})
}

func (ac *ArchivoController) GetStatsHandler(c *gin.Context) {
	stats, err := ac.archivoService.GetStorageStats(c.Request.Context())
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		ac.logger.Error("GetStorageStats() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, archivodto.ToResponseStats(*stats))
}

func (ac *ArchivoController) GetFormatosHandler(c *gin.Context) {
	formatos, err := ac.archivoService.GetFormats(c.Request.Context())
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		ac.logger.Error("GetFormats() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": archivodto.ToResponseFormatos(formatos)})
}

func (ac *ArchivoController) UpdateMetadataHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("archivo_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "archivo_id must be a valid UUID"},
		)
		return
	}

	var req archivodto.MetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": err.Error(),
		})
		return
	}
	if errs := validator.ValidateMetadataPatch(req.Metadata); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": errs,
		})
		return
	}

	a, err := ac.archivoService.UpdateMetadata(c.Request.Context(), id, req.Metadata, middleware.Actor(c))
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		if status == http.StatusInternalServerError {
			ac.logger.Error("UpdateMetadata() error", zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusOK, archivodto.ToResponseArchivo(*a))
}

func (ac *ArchivoController) DeleteArchivoHandler(c *gin.Context) {
	ok, id := validator.IsUUID(c.Param("archivo_id"))
	if !ok {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "archivo_id must be a valid UUID"},
		)
		return
	}

	if err := ac.archivoService.Delete(c.Request.Context(), id, middleware.Actor(c)); err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		if status == http.StatusInternalServerError {
			ac.logger.Error("Delete() error", zap.Error(err))
		}
		return
	}

	c.Status(http.StatusNoContent)
}
