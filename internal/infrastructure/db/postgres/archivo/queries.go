package archivo

const allColumns = `
		  id, entidad_tipo, entidad_id, nombre_original, nombre_almacenado, extension,
		  mime_type, tamano_bytes, bucket, object_key, categoria, estado,
		  es_publico, es_obligatorio, version, archivo_padre_id, es_version_actual,
		  checksum_md5, checksum_sha256, virus_escaneado, virus_detectado, resultado_scan,
		  url_descarga, url_expira_en, metadata,
		  creado_por, actualizado_por, created_at, updated_at, eliminado_por, eliminado_en`

const (
	InsertArchivo = `
		INSERT INTO archivos (
		  id, entidad_tipo, entidad_id, nombre_original, nombre_almacenado, extension,
		  mime_type, tamano_bytes, bucket, object_key, categoria, estado,
		  es_publico, es_obligatorio, version, archivo_padre_id, es_version_actual,
		  metadata, creado_por, actualizado_por
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING` + allColumns + `
	`
	SelectArchivoByID = `
		SELECT` + allColumns + `
		FROM archivos
		WHERE id = $1
	`
	SelectArchivosByEntidad = `
		SELECT` + allColumns + `
		FROM archivos
		WHERE entidad_tipo = $1 AND entidad_id = $2 AND eliminado_en IS NULL
		ORDER BY created_at DESC
	`
	SelectArchivosAll = `
		SELECT` + allColumns + `
		FROM archivos
		WHERE eliminado_en IS NULL
		ORDER BY created_at DESC
		LIMIT 50 OFFSET ( ($1 - 1) * 50 )
	`
	SelectVersions = `
		SELECT` + allColumns + `
		FROM archivos
		WHERE (id = $1 OR archivo_padre_id = $1) AND eliminado_en IS NULL
		ORDER BY version ASC
	`
	SelectMaxVersion = `
		SELECT COALESCE(MAX(version), 0)
		FROM archivos
		WHERE id = $1 OR archivo_padre_id = $1
	`
	ClearVersionActual = `
		UPDATE archivos
		SET es_version_actual = false, updated_at = now()
		WHERE id = $1 OR archivo_padre_id = $1
	`
	UpdateConfirmed = `
		UPDATE archivos
		SET estado = 'DISPONIBLE', tamano_bytes = $2, checksum_md5 = $3, updated_at = now()
		WHERE id = $1
	`
	UpdateDownloadURL = `
		UPDATE archivos
		SET url_descarga = $2, url_expira_en = $3, updated_at = now()
		WHERE id = $1
	`
	UpdateMetadata = `
		UPDATE archivos
		SET metadata = $2, actualizado_por = $3, updated_at = now()
		WHERE id = $1
	`
	SoftDeleteArchivo = `
		UPDATE archivos
		SET estado = 'ELIMINADO', eliminado_por = $2, eliminado_en = now(),
		    url_descarga = NULL, url_expira_en = NULL, updated_at = now()
		WHERE id = $1 AND eliminado_en IS NULL
	`
	HardDeleteArchivo = `
		DELETE FROM archivos
		WHERE id = $1
	`
	SelectEliminadosBefore = `
		SELECT` + allColumns + `
		FROM archivos
		WHERE estado = 'ELIMINADO' AND eliminado_en < $1
		ORDER BY eliminado_en ASC
		LIMIT $2
	`
	SelectPendientesBefore = `
		SELECT` + allColumns + `
		FROM archivos
		WHERE estado = 'PENDIENTE' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	ClearExpiredURLs = `
		UPDATE archivos
		SET url_descarga = NULL, url_expira_en = NULL, updated_at = now()
		WHERE url_expira_en IS NOT NULL AND url_expira_en < $1
	`
	SelectStatsByCategoria = `
		SELECT categoria, COUNT(*), COALESCE(SUM(tamano_bytes), 0)
		FROM archivos
		WHERE estado = 'DISPONIBLE' AND eliminado_en IS NULL
		GROUP BY categoria
	`
	SelectStatsByEntidadTipo = `
		SELECT entidad_tipo, COUNT(*), COALESCE(SUM(tamano_bytes), 0)
		FROM archivos
		WHERE estado = 'DISPONIBLE' AND eliminado_en IS NULL
		GROUP BY entidad_tipo
	`
	SelectTotalBytesByBucket = `
		SELECT bucket, COUNT(*), COALESCE(SUM(tamano_bytes), 0)
		FROM archivos
		WHERE estado = 'DISPONIBLE' AND eliminado_en IS NULL
		GROUP BY bucket
	`
)
