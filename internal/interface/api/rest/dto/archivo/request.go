package archivo

type (
	UploadRequest struct {
		EntidadTipo   string            `json:"entidad_tipo"`
		EntidadID     int64             `json:"entidad_id"`
		Categoria     string            `json:"categoria"`
		NombreArchivo string            `json:"nombre_archivo"`
		MimeType      string            `json:"mime_type"`
		TamanoBytes   int64             `json:"tamano_bytes"`
		Metadata      map[string]string `json:"metadata,omitempty"`
		EsObligatorio bool              `json:"es_obligatorio"`
	}
	ConfirmRequest struct {
		ArchivoID string `json:"archivo_id"`
		Checksum  string `json:"checksum,omitempty"`
	}
	MetadataRequest struct {
		Metadata map[string]string `json:"metadata"`
	}
)
