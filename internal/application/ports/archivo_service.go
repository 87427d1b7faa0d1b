package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"archivo-storage-api/internal/domain/archivo"
	"archivo-storage-api/internal/domain/formato"
)

type UploadRequest struct {
	EntidadTipo   string
	EntidadID     int64
	Categoria     archivo.Categoria
	NombreArchivo string
	MimeType      string
	TamanoBytes   int64
	Metadata      map[string]string
	EsObligatorio bool
	Actor         string
}

// UploadTicket is everything the caller needs to PUT the bytes directly
// against the blob store.
type UploadTicket struct {
	ArchivoID       uuid.UUID
	UploadURL       string
	ObjectKey       string
	Bucket          string
	ExpiresInSec    int64
	RequiredHeaders map[string]string
}

type DirectUpload struct {
	UploadRequest
	Body io.Reader
}

type StorageStats struct {
	PorCategoria   []archivo.CategoriaStats
	PorEntidadTipo []archivo.EntidadStats
	TotalBytes     int64
	TotalArchivos  int64
}

type ArchivoService interface {
	RequestUpload(ctx context.Context, req UploadRequest) (*UploadTicket, error)
	ConfirmUpload(ctx context.Context, id uuid.UUID, clientChecksum string) (*archivo.Archivo, error)
	DirectUpload(ctx context.Context, req DirectUpload) (*archivo.Archivo, error)
	GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error)
	CreateVersion(ctx context.Context, originalID uuid.UUID, nombre string, mimeType string, tamano int64, body io.Reader, actor string) (*archivo.Archivo, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string, actor string) (*archivo.Archivo, error)
	FindByID(ctx context.Context, id uuid.UUID) (*archivo.Archivo, error)
	FindByEntidad(ctx context.Context, entidadTipo string, entidadID int64) (archivo.Archivos, error)
	FindAll(ctx context.Context, page int) (archivo.Archivos, error)
	GetVersions(ctx context.Context, id uuid.UUID) (archivo.Archivos, error)
	GetStorageStats(ctx context.Context) (*StorageStats, error)
	GetFormats(ctx context.Context) (formato.FormatosPermitidos, error)
}
