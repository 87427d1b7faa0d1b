package formato

const (
	SelectFormatosActivos = `
		SELECT id, extension, categoria, mime_type, tamano_maximo, activo, created_at, updated_at
		FROM formatos_permitidos
		WHERE activo = true
		ORDER BY categoria, extension
	`
)
