package archivo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, req *Archivo) (*Archivo, error)
	FetchByID(ctx context.Context, id uuid.UUID) (*Archivo, error)
	FetchByEntidad(ctx context.Context, entidadTipo string, entidadID int64) (Archivos, error)
	FetchAll(ctx context.Context, page int) (Archivos, error)

	// Version chains are resolved through the root id, never by walking
	// parent pointers.
	FetchVersions(ctx context.Context, rootID uuid.UUID) (Archivos, error)
	MaxVersion(ctx context.Context, rootID uuid.UUID) (int, error)

	// CreateVersion demotes the chain's current version and inserts the
	// new one in a single transaction, so the chain never observes zero
	// current versions.
	CreateVersion(ctx context.Context, rootID uuid.UUID, req *Archivo) (*Archivo, error)

	UpdateConfirmed(ctx context.Context, id uuid.UUID, tamano int64, checksumMD5 string) error
	UpdateDownloadURL(ctx context.Context, id uuid.UUID, url string, expiraEn time.Time) error
	UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string, actor string) error
	SoftDelete(ctx context.Context, id uuid.UUID, actor string) error
	HardDelete(ctx context.Context, id uuid.UUID) error

	FetchEliminadosBefore(ctx context.Context, cutoff time.Time, limit int) (Archivos, error)
	FetchPendientesBefore(ctx context.Context, cutoff time.Time, limit int) (Archivos, error)
	ClearExpiredURLs(ctx context.Context, now time.Time) (int64, error)

	StatsByCategoria(ctx context.Context) ([]CategoriaStats, error)
	StatsByEntidadTipo(ctx context.Context) ([]EntidadStats, error)
	TotalBytesByBucket(ctx context.Context) ([]BucketUsage, error)
}
