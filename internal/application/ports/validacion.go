package ports

import (
	"context"

	"archivo-storage-api/internal/domain/archivo"
	"archivo-storage-api/internal/domain/formato"
)

// Validador enforces the format/size policy catalog against upload requests.
type Validador interface {
	ValidateFormat(extension string, categoria archivo.Categoria, tamano int64) error
	ValidateMimeType(mimeType string, categoria archivo.Categoria) error
	MaxSize(categoria archivo.Categoria) int64
	RefreshCache(ctx context.Context) error
	Formats(ctx context.Context) (formato.FormatosPermitidos, error)
}
