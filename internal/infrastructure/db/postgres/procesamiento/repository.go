package procesamiento

import (
	"context"

	"github.com/google/uuid"

	domain "archivo-storage-api/internal/domain/procesamiento"
	"archivo-storage-api/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) domain.Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateBatch(ctx context.Context, tareas domain.Tareas) error {
	for _, t := range tareas {
		maxIntentos := t.MaxIntentos
		if maxIntentos == 0 {
			maxIntentos = domain.MaxIntentosDefault
		}
		if _, err := r.db.Exec(
			ctx,
			InsertTarea,
			t.ArchivoID, string(t.Tipo), string(domain.EstadoPendiente), t.Intentos, maxIntentos,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) FetchByArchivo(ctx context.Context, archivoID uuid.UUID) (domain.Tareas, error) {
	rows, err := r.db.Query(ctx, SelectTareasByArchivo, archivoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ts domain.Tareas
	for rows.Next() {
		t := new(domain.Tarea)
		var tipo, estado string

		if err = rows.Scan(
			&t.ID,
			&t.ArchivoID,
			&tipo,
			&estado,
			&t.Intentos,
			&t.MaxIntentos,
			&t.Resultado,
			&t.MensajeError,
			&t.CreatedAt,
			&t.ProcesadoEn,
		); err != nil {
			return nil, err
		}

		t.Tipo = domain.Tipo(tipo)
		t.Estado = domain.Estado(estado)
		ts = append(ts, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ts, nil
}

func (r *Repository) ResetFailed(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, ResetFailedTareas)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) DeleteByArchivo(ctx context.Context, archivoID uuid.UUID) error {
	_, err := r.db.Exec(ctx, DeleteTareasByArchivo, archivoID)
	return err
}
