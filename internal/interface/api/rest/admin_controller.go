package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"archivo-storage-api/internal/application/ports"
	"archivo-storage-api/internal/infrastructure/jwt"
	archivodto "archivo-storage-api/internal/interface/api/rest/dto/archivo"
	"archivo-storage-api/internal/interface/api/rest/middleware"
)

type AdminController struct {
	limpiador ports.Limpiador
	validador ports.Validador
	logger    *zap.Logger
}

func NewAdminController(
	r *gin.Engine,
	limpiador ports.Limpiador,
	validador ports.Validador,
	logger *zap.Logger,
	jwtService *jwt.Service,
) *AdminController {
	ac := &AdminController{
		limpiador: limpiador,
		validador: validador,
		logger:    logger,
	}

	admin := r.Group("", middleware.AuthMiddleware(jwtService), middleware.AdminMiddleware())
	admin.POST(RouteAdminLimpieza, ac.RunCleanupHandler)
	admin.GET(RouteAdminReporte, ac.StorageReportHandler)
	admin.POST(RouteAdminFormatos, ac.RefreshFormatosHandler)

	return ac
}

// RunCleanupHandler triggers the full cleanup bundle on demand, same passes
// the scheduler runs at night.
func (ac *AdminController) RunCleanupHandler(c *gin.Context) {
	sum := ac.limpiador.RunAll(c.Request.Context())

	c.JSON(http.StatusOK, archivodto.ToResponseCleanup(*sum))
}

func (ac *AdminController) StorageReportHandler(c *gin.Context) {
	rep, err := ac.limpiador.WeeklyStorageReport(c.Request.Context())
	if err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		ac.logger.Error("WeeklyStorageReport() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, archivodto.ToResponseReport(*rep))
}

// RefreshFormatosHandler reloads the format policy catalog from the database.
func (ac *AdminController) RefreshFormatosHandler(c *gin.Context) {
	if err := ac.validador.RefreshCache(c.Request.Context()); err != nil {
		status, msg := statusForError(err)
		c.JSON(status, gin.H{"error": msg})
		ac.logger.Error("RefreshCache() error", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}
