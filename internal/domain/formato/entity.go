package formato

import (
	"time"

	"archivo-storage-api/internal/domain/archivo"
)

type (
	// FormatoPermitido is one (extension, categoria) row of the upload policy
	// catalog. Read-only at request time; mutated only by catalog admins.
	FormatoPermitido struct {
		ID           int64
		Extension    string
		Categoria    archivo.Categoria
		MimeType     string
		TamanoMaximo int64
		Activo       bool

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	FormatosPermitidos []*FormatoPermitido
)
