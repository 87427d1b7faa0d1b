package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	// upload protocol
	RouteUpload        = RouteApiV1 + "/upload"
	RouteUploadRequest = RouteUpload + "/request-url"
	RouteUploadConfirm = RouteUpload + "/confirm"
	RouteUploadDirect  = RouteUpload + "/direct"
	RouteUploadVersion = RouteUpload + "/:archivo_id/version"

	// archivos
	RouteArchivos         = RouteApiV1 + "/archivos"
	RouteArchivo          = RouteArchivos + "/:archivo_id"
	RouteArchivoURL       = RouteArchivo + "/download-url"
	RouteArchivoVersiones = RouteArchivo + "/versiones"
	RouteArchivoMetadata  = RouteArchivo + "/metadata"
	RouteArchivosEntidad  = RouteArchivos + "/entidad/:entidad_tipo/:entidad_id"
	RouteArchivosStats    = RouteArchivos + "/stats"
	RouteArchivosFormatos = RouteArchivos + "/formatos"

	// admin
	RouteAdmin         = RouteApiV1 + "/admin"
	RouteAdminLimpieza = RouteAdmin + "/limpieza"
	RouteAdminReporte  = RouteAdmin + "/reporte-almacenamiento"
	RouteAdminFormatos = RouteAdmin + "/formatos/refresh"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
