package procesamiento

const (
	InsertTarea = `
		INSERT INTO tareas_procesamiento (archivo_id, tipo, estado, intentos, max_intentos)
		VALUES ($1, $2, $3, $4, $5)
	`
	SelectTareasByArchivo = `
		SELECT id, archivo_id, tipo, estado, intentos, max_intentos, resultado, mensaje_error, created_at, procesado_en
		FROM tareas_procesamiento
		WHERE archivo_id = $1
		ORDER BY created_at ASC
	`
	ResetFailedTareas = `
		UPDATE tareas_procesamiento
		SET estado = 'pendiente', mensaje_error = ''
		WHERE estado = 'error' AND intentos < max_intentos
	`
	DeleteTareasByArchivo = `
		DELETE FROM tareas_procesamiento
		WHERE archivo_id = $1
	`
)
