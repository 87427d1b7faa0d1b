package procesamiento

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateBatch(ctx context.Context, tareas Tareas) error
	FetchByArchivo(ctx context.Context, archivoID uuid.UUID) (Tareas, error)
	// ResetFailed moves error jobs that still have attempts left back to
	// pendiente and returns how many were reset.
	ResetFailed(ctx context.Context) (int64, error)
	DeleteByArchivo(ctx context.Context, archivoID uuid.UUID) error
}
