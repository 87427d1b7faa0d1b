package services

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"archivo-storage-api/internal/application/ports"
	"archivo-storage-api/internal/domain/archivo"
	"archivo-storage-api/internal/domain/formato"
	"archivo-storage-api/pkg/apperrors"
)

type categoriaPolicy struct {
	// extension -> MIME type
	extensiones  map[string]string
	tamanoMaximo int64
}

type policySnapshot struct {
	porCategoria map[archivo.Categoria]categoriaPolicy
	catalogo     formato.FormatosPermitidos
}

// ValidacionService enforces the format/size policy catalog. The policy map
// is an immutable snapshot swapped atomically on refresh, so concurrent
// readers never observe a half-updated table.
type ValidacionService struct {
	formatoRepository formato.Repository
	logger            *zap.Logger
	globalMaxBytes    int64
	snapshot          atomic.Pointer[policySnapshot]
}

func NewValidacionService(
	ctx context.Context,
	formatoRepository formato.Repository,
	logger *zap.Logger,
	globalMaxBytes int64,
) ports.Validador {
	vs := &ValidacionService{
		formatoRepository: formatoRepository,
		logger:            logger,
		globalMaxBytes:    globalMaxBytes,
	}

	if err := vs.RefreshCache(ctx); err != nil {
		logger.Warn("format catalog load failed, using compiled-in defaults", zap.Error(err))
		vs.snapshot.Store(defaultSnapshot())
	}

	return vs
}

func (vs *ValidacionService) RefreshCache(ctx context.Context) error {
	catalogo, err := vs.formatoRepository.FetchActivos(ctx)
	if err != nil {
		return err
	}
	if len(catalogo) == 0 {
		vs.snapshot.Store(defaultSnapshot())
		return nil
	}

	snap := &policySnapshot{
		porCategoria: make(map[archivo.Categoria]categoriaPolicy),
		catalogo:     catalogo,
	}
	for _, f := range catalogo {
		p, ok := snap.porCategoria[f.Categoria]
		if !ok {
			p = categoriaPolicy{extensiones: make(map[string]string)}
		}
		p.extensiones[strings.ToLower(f.Extension)] = f.MimeType
		if f.TamanoMaximo > p.tamanoMaximo {
			p.tamanoMaximo = f.TamanoMaximo
		}
		snap.porCategoria[f.Categoria] = p
	}

	vs.snapshot.Store(snap)
	return nil
}

func (vs *ValidacionService) ValidateFormat(extension string, categoria archivo.Categoria, tamano int64) error {
	if !categoria.Valid() {
		return apperrors.Validation("categoria desconocida: %s", categoria)
	}

	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	if ext == "" {
		return apperrors.Validation("archivo sin extension")
	}

	policy, ok := vs.snapshot.Load().porCategoria[categoria]
	if !ok {
		return apperrors.Validation("categoria sin formatos permitidos: %s", categoria)
	}
	if _, ok = policy.extensiones[ext]; !ok {
		return apperrors.Validation("extension .%s no permitida para categoria %s", ext, categoria)
	}

	if tamano <= 0 {
		return apperrors.Validation("tamano invalido: %d", tamano)
	}
	if tamano > vs.globalMaxBytes {
		return apperrors.Validation("tamano %d supera el limite global de %d bytes", tamano, vs.globalMaxBytes)
	}
	if tamano > policy.tamanoMaximo {
		return apperrors.Validation("tamano %d supera el limite de %d bytes para categoria %s", tamano, policy.tamanoMaximo, categoria)
	}

	return nil
}

// ValidateMimeType is the stricter check for callers that have the declared
// content type at hand.
func (vs *ValidacionService) ValidateMimeType(mimeType string, categoria archivo.Categoria) error {
	policy, ok := vs.snapshot.Load().porCategoria[categoria]
	if !ok {
		return apperrors.Validation("categoria sin formatos permitidos: %s", categoria)
	}

	mt := strings.ToLower(strings.TrimSpace(mimeType))
	for _, allowed := range policy.extensiones {
		if strings.EqualFold(allowed, mt) {
			return nil
		}
	}

	return apperrors.Validation("mime type %s no permitido para categoria %s", mimeType, categoria)
}

func (vs *ValidacionService) MaxSize(categoria archivo.Categoria) int64 {
	policy, ok := vs.snapshot.Load().porCategoria[categoria]
	if !ok {
		return 0
	}
	return policy.tamanoMaximo
}

func (vs *ValidacionService) Formats(_ context.Context) (formato.FormatosPermitidos, error) {
	return vs.snapshot.Load().catalogo, nil
}

const (
	mb int64 = 1 << 20
	gb int64 = 1 << 30
)

type defaultEntry struct {
	extension string
	mimeType  string
}

var defaultPolicies = map[archivo.Categoria]struct {
	entries []defaultEntry
	max     int64
}{
	archivo.CategoriaDocumento: {[]defaultEntry{
		{"pdf", "application/pdf"},
		{"doc", "application/msword"},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"xls", "application/vnd.ms-excel"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"ppt", "application/vnd.ms-powerpoint"},
		{"pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
		{"odt", "application/vnd.oasis.opendocument.text"},
		{"txt", "text/plain"},
	}, 50 * mb},
	archivo.CategoriaEvidencia: {[]defaultEntry{
		{"pdf", "application/pdf"},
		{"jpg", "image/jpeg"},
		{"jpeg", "image/jpeg"},
		{"png", "image/png"},
		{"gif", "image/gif"},
		{"mp4", "video/mp4"},
		{"zip", "application/zip"},
	}, 100 * mb},
	archivo.CategoriaActa: {[]defaultEntry{
		{"pdf", "application/pdf"},
		{"doc", "application/msword"},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	}, 20 * mb},
	archivo.CategoriaReporte: {[]defaultEntry{
		{"pdf", "application/pdf"},
		{"xls", "application/vnd.ms-excel"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"csv", "text/csv"},
	}, 50 * mb},
	archivo.CategoriaCronograma: {[]defaultEntry{
		{"pdf", "application/pdf"},
		{"xls", "application/vnd.ms-excel"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"mpp", "application/vnd.ms-project"},
	}, 20 * mb},
	archivo.CategoriaAvatar: {[]defaultEntry{
		{"jpg", "image/jpeg"},
		{"jpeg", "image/jpeg"},
		{"png", "image/png"},
		{"webp", "image/webp"},
	}, 2 * mb},
	archivo.CategoriaAdjunto: {[]defaultEntry{
		{"pdf", "application/pdf"},
		{"doc", "application/msword"},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"xls", "application/vnd.ms-excel"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"jpg", "image/jpeg"},
		{"jpeg", "image/jpeg"},
		{"png", "image/png"},
		{"zip", "application/zip"},
		{"rar", "application/vnd.rar"},
	}, 25 * mb},
	archivo.CategoriaBackup: {[]defaultEntry{
		{"zip", "application/zip"},
		{"gz", "application/gzip"},
		{"tar", "application/x-tar"},
		{"sql", "application/sql"},
		{"dump", "application/octet-stream"},
	}, 5 * gb},
}

func defaultSnapshot() *policySnapshot {
	snap := &policySnapshot{
		porCategoria: make(map[archivo.Categoria]categoriaPolicy),
	}

	now := time.Now().UTC()
	for _, cat := range archivo.Categorias() {
		def := defaultPolicies[cat]
		p := categoriaPolicy{
			extensiones:  make(map[string]string, len(def.entries)),
			tamanoMaximo: def.max,
		}
		for _, e := range def.entries {
			p.extensiones[e.extension] = e.mimeType
			snap.catalogo = append(snap.catalogo, &formato.FormatoPermitido{
				Extension:    e.extension,
				Categoria:    cat,
				MimeType:     e.mimeType,
				TamanoMaximo: def.max,
				Activo:       true,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}
		snap.porCategoria[cat] = p
	}

	return snap
}
