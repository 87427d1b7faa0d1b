package formato

import (
	"context"

	"archivo-storage-api/internal/domain/archivo"
	domain "archivo-storage-api/internal/domain/formato"
	"archivo-storage-api/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) domain.Repository {
	return &Repository{db: db}
}

func (r *Repository) FetchActivos(ctx context.Context) (domain.FormatosPermitidos, error) {
	rows, err := r.db.Query(ctx, SelectFormatosActivos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fs domain.FormatosPermitidos
	for rows.Next() {
		f := new(domain.FormatoPermitido)
		var categoria string

		if err = rows.Scan(
			&f.ID,
			&f.Extension,
			&categoria,
			&f.MimeType,
			&f.TamanoMaximo,
			&f.Activo,
			&f.CreatedAt,
			&f.UpdatedAt,
		); err != nil {
			return nil, err
		}

		f.Categoria = archivo.Categoria(categoria)
		fs = append(fs, f)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fs, nil
}
