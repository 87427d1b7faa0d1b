package archivo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domain "archivo-storage-api/internal/domain/archivo"
	"archivo-storage-api/internal/infrastructure/db/postgres"
	"archivo-storage-api/pkg/apperrors"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) domain.Repository {
	return &Repository{db: db}
}

func scanArchivo(row pgx.Row) (*Archivo, error) {
	a := new(Archivo)

	err := row.Scan(
		&a.ID,
		&a.EntidadTipo,
		&a.EntidadID,

		&a.NombreOriginal,
		&a.NombreAlmacenado,
		&a.Extension,
		&a.MimeType,
		&a.TamanoBytes,
		&a.Bucket,
		&a.ObjectKey,
		&a.Categoria,
		&a.Estado,

		&a.EsPublico,
		&a.EsObligatorio,

		&a.Version,
		&a.ArchivoPadreID,
		&a.EsVersionActual,

		&a.ChecksumMD5,
		&a.ChecksumSHA256,
		&a.VirusEscaneado,
		&a.VirusDetectado,
		&a.ResultadoScan,

		&a.URLDescarga,
		&a.URLExpiraEn,
		&a.Metadata,

		&a.CreadoPor,
		&a.ActualizadoPor,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.EliminadoPor,
		&a.EliminadoEn,
	)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (r *Repository) fetchMany(ctx context.Context, query string, args ...any) (domain.Archivos, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var as Archivos
	for rows.Next() {
		a, err := scanArchivo(rows)
		if err != nil {
			return nil, err
		}
		as = append(as, a)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(&as), nil
}

func insertArgs(req *domain.Archivo) []any {
	return []any{
		req.ID, req.EntidadTipo, req.EntidadID, req.NombreOriginal, req.NombreAlmacenado, req.Extension,
		req.MimeType, req.TamanoBytes, req.Bucket, req.ObjectKey, string(req.Categoria), string(req.Estado),
		req.EsPublico, req.EsObligatorio, req.Version, req.ArchivoPadreID, req.EsVersionActual,
		req.Metadata, req.CreadoPor, req.ActualizadoPor,
	}
}

func (r *Repository) Create(ctx context.Context, req *domain.Archivo) (*domain.Archivo, error) {
	a, err := scanArchivo(r.db.QueryRow(ctx, InsertArchivo, insertArgs(req)...))
	if err != nil {
		return nil, err
	}

	return fromDBModel(a), nil
}

// CreateVersion runs the demote and the insert in one transaction, so a
// failed insert never leaves the chain without a current version.
func (r *Repository) CreateVersion(ctx context.Context, rootID uuid.UUID, req *domain.Archivo) (*domain.Archivo, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, ClearVersionActual, rootID); err != nil {
		return nil, err
	}

	a, err := scanArchivo(tx.QueryRow(ctx, InsertArchivo, insertArgs(req)...))
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return fromDBModel(a), nil
}

func (r *Repository) FetchByID(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) {
	a, err := scanArchivo(r.db.QueryRow(ctx, SelectArchivoByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("archivo %s no encontrado", id)
		}
		return nil, err
	}

	return fromDBModel(a), nil
}

func (r *Repository) FetchByEntidad(ctx context.Context, entidadTipo string, entidadID int64) (domain.Archivos, error) {
	return r.fetchMany(ctx, SelectArchivosByEntidad, entidadTipo, entidadID)
}

func (r *Repository) FetchAll(ctx context.Context, page int) (domain.Archivos, error) {
	return r.fetchMany(ctx, SelectArchivosAll, page)
}

func (r *Repository) FetchVersions(ctx context.Context, rootID uuid.UUID) (domain.Archivos, error) {
	return r.fetchMany(ctx, SelectVersions, rootID)
}

func (r *Repository) MaxVersion(ctx context.Context, rootID uuid.UUID) (int, error) {
	var max int
	if err := r.db.QueryRow(ctx, SelectMaxVersion, rootID).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

func (r *Repository) UpdateConfirmed(ctx context.Context, id uuid.UUID, tamano int64, checksumMD5 string) error {
	_, err := r.db.Exec(ctx, UpdateConfirmed, id, tamano, checksumMD5)
	return err
}

func (r *Repository) UpdateDownloadURL(ctx context.Context, id uuid.UUID, url string, expiraEn time.Time) error {
	_, err := r.db.Exec(ctx, UpdateDownloadURL, id, url, expiraEn)
	return err
}

func (r *Repository) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string, actor string) error {
	tag, err := r.db.Exec(ctx, UpdateMetadata, id, metadata, actor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("archivo %s no encontrado", id)
	}
	return nil
}

func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID, actor string) error {
	tag, err := r.db.Exec(ctx, SoftDeleteArchivo, id, actor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("archivo %s no encontrado", id)
	}
	return nil
}

func (r *Repository) HardDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, HardDeleteArchivo, id)
	return err
}

func (r *Repository) FetchEliminadosBefore(ctx context.Context, cutoff time.Time, limit int) (domain.Archivos, error) {
	return r.fetchMany(ctx, SelectEliminadosBefore, cutoff, limit)
}

func (r *Repository) FetchPendientesBefore(ctx context.Context, cutoff time.Time, limit int) (domain.Archivos, error) {
	return r.fetchMany(ctx, SelectPendientesBefore, cutoff, limit)
}

func (r *Repository) ClearExpiredURLs(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, ClearExpiredURLs, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) StatsByCategoria(ctx context.Context) ([]domain.CategoriaStats, error) {
	rows, err := r.db.Query(ctx, SelectStatsByCategoria)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CategoriaStats
	for rows.Next() {
		var s domain.CategoriaStats
		if err = rows.Scan(&s.Categoria, &s.Cantidad, &s.TotalBytes); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

func (r *Repository) StatsByEntidadTipo(ctx context.Context) ([]domain.EntidadStats, error) {
	rows, err := r.db.Query(ctx, SelectStatsByEntidadTipo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EntidadStats
	for rows.Next() {
		var s domain.EntidadStats
		if err = rows.Scan(&s.EntidadTipo, &s.Cantidad, &s.TotalBytes); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

func (r *Repository) TotalBytesByBucket(ctx context.Context) ([]domain.BucketUsage, error) {
	rows, err := r.db.Query(ctx, SelectTotalBytesByBucket)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BucketUsage
	for rows.Next() {
		var u domain.BucketUsage
		if err = rows.Scan(&u.Bucket, &u.Cantidad, &u.TotalBytes); err != nil {
			return nil, err
		}
		out = append(out, u)
	}

	return out, rows.Err()
}
