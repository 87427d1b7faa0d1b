package formato

import (
	"context"
)

type Repository interface {
	FetchActivos(ctx context.Context) (FormatosPermitidos, error)
}
