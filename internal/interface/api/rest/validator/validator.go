package validator

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"archivo-storage-api/internal/domain/archivo"
	archivodto "archivo-storage-api/internal/interface/api/rest/dto/archivo"
)

const (
	maxNombreLen      = 255
	maxMetadataKeys   = 32
	maxMetadataValLen = 1024
)

func ValidatePage(page string) (int, error) {
	if page == "" {
		return 1, nil
	}
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		return 0, errors.New("invalid page")
	}

	return p, nil
}

func IsUUID(s string) (bool, uuid.UUID) {
	id, err := uuid.Parse(s)
	return err == nil, id
}

func ValidateUpload(r archivodto.UploadRequest) map[string]string {
	errs := make(map[string]string)

	nombre := strings.TrimSpace(r.NombreArchivo)
	mime := strings.TrimSpace(r.MimeType)

	if strings.TrimSpace(r.EntidadTipo) == "" {
		errs["entidad_tipo"] = "entidad_tipo is required"
	}
	if r.EntidadID <= 0 {
		errs["entidad_id"] = "entidad_id must be a positive integer"
	}

	if !archivo.Categoria(r.Categoria).Valid() {
		errs["categoria"] = "unknown categoria"
	}

	if nombre == "" {
		errs["nombre_archivo"] = "nombre_archivo is required"
	} else if utf8.RuneCountInString(nombre) > maxNombreLen {
		errs["nombre_archivo"] = "nombre_archivo too long"
	} else if filepath.Ext(nombre) == "" {
		errs["nombre_archivo"] = "nombre_archivo must carry an extension"
	}

	if mime == "" {
		errs["mime_type"] = "mime_type is required"
	} else if !strings.Contains(mime, "/") {
		errs["mime_type"] = "invalid mime_type format"
	}

	if r.TamanoBytes <= 0 {
		errs["tamano_bytes"] = "tamano_bytes must be a positive integer"
	}

	if e := validateMetadata(r.Metadata); e != "" {
		errs["metadata"] = e
	}

	if len(errs) == 0 {
		return nil
	}

	return errs
}

func ValidateMetadataPatch(metadata map[string]string) map[string]string {
	errs := make(map[string]string)

	if len(metadata) == 0 {
		errs["metadata"] = "metadata is required"
	} else if e := validateMetadata(metadata); e != "" {
		errs["metadata"] = e
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateMetadata(metadata map[string]string) string {
	if len(metadata) > maxMetadataKeys {
		return "too many metadata keys"
	}
	for k, v := range metadata {
		if strings.TrimSpace(k) == "" {
			return "metadata keys must not be empty"
		}
		if len(v) > maxMetadataValLen {
			return "metadata value too long for key " + k
		}
	}
	return ""
}
