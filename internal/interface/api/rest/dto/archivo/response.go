package archivo

import (
	"time"

	"github.com/google/uuid"
)

type (
	Archivo struct {
		ID              uuid.UUID         `json:"id"`
		EntidadTipo     string            `json:"entidad_tipo"`
		EntidadID       int64             `json:"entidad_id"`
		NombreOriginal  string            `json:"nombre_original"`
		Extension       string            `json:"extension"`
		MimeType        string            `json:"mime_type"`
		TamanoBytes     int64             `json:"tamano_bytes"`
		Categoria       string            `json:"categoria"`
		Estado          string            `json:"estado"`
		EsPublico       bool              `json:"es_publico"`
		Version         int               `json:"version"`
		EsVersionActual bool              `json:"es_version_actual"`
		ChecksumMD5     string            `json:"checksum_md5,omitempty"`
		URLDescarga     *string           `json:"url_descarga,omitempty"`
		URLExpiraEn     *time.Time        `json:"url_expira_en,omitempty"`
		Metadata        map[string]string `json:"metadata,omitempty"`
		CreadoPor       string            `json:"creado_por"`
		CreatedAt       time.Time         `json:"created_at"`
		UpdatedAt       time.Time         `json:"updated_at"`
	}
	Archivos     []Archivo
	ResponseData struct {
		Data Archivos `json:"data"`
	}

	UploadTicket struct {
		ArchivoID       uuid.UUID         `json:"archivo_id"`
		UploadURL       string            `json:"upload_url"`
		ObjectKey       string            `json:"object_key"`
		Bucket          string            `json:"bucket"`
		ExpiresInSec    int64             `json:"expires_in_sec"`
		RequiredHeaders map[string]string `json:"required_headers"`
	}

	DownloadURL struct {
		URL string `json:"url"`
	}

	CategoriaStats struct {
		Categoria  string `json:"categoria"`
		Cantidad   int64  `json:"cantidad"`
		TotalBytes int64  `json:"total_bytes"`
	}
	EntidadStats struct {
		EntidadTipo string `json:"entidad_tipo"`
		Cantidad    int64  `json:"cantidad"`
		TotalBytes  int64  `json:"total_bytes"`
	}
	StorageStats struct {
		TotalArchivos  int64            `json:"total_archivos"`
		TotalBytes     int64            `json:"total_bytes"`
		PorCategoria   []CategoriaStats `json:"por_categoria"`
		PorEntidadTipo []EntidadStats   `json:"por_entidad_tipo"`
	}

	Formato struct {
		Extension      string `json:"extension"`
		MimeType       string `json:"mime_type"`
		Categoria      string `json:"categoria"`
		TamanoMaxBytes int64  `json:"tamano_max_bytes"`
	}
	Formatos []Formato

	BucketReport struct {
		Bucket          string `json:"bucket"`
		MetadataBytes   int64  `json:"metadata_bytes"`
		ObservedBytes   int64  `json:"observed_bytes"`
		MetadataCount   int64  `json:"metadata_count"`
		Discrepancia    int64  `json:"discrepancia"`
		HayDiscrepancia bool   `json:"hay_discrepancia"`
	}
	StorageReport struct {
		GeneradoEn time.Time      `json:"generado_en"`
		Buckets    []BucketReport `json:"buckets"`
	}

	CleanupSummary struct {
		RetencionRevisados  int   `json:"retencion_revisados"`
		RetencionEliminados int   `json:"retencion_eliminados"`
		HuerfanosRevisados  int   `json:"huerfanos_revisados"`
		HuerfanosEliminados int   `json:"huerfanos_eliminados"`
		URLsInvalidadas     int64 `json:"urls_invalidadas"`
		TareasReenviadas    int64 `json:"tareas_reenviadas"`
	}
)
