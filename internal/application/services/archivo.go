package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"archivo-storage-api/config"
	"archivo-storage-api/internal/application/ports"
	domain "archivo-storage-api/internal/domain/archivo"
	"archivo-storage-api/internal/domain/formato"
	"archivo-storage-api/internal/domain/procesamiento"
	"archivo-storage-api/internal/infrastructure/cache"
	"archivo-storage-api/internal/infrastructure/mq"
	"archivo-storage-api/pkg/apperrors"
)

const maxBaseNameLen = 100

// BucketResolver maps a category to its fixed bucket.
type BucketResolver struct {
	Documents string
	Evidence  string
	Avatars   string
	Backups   string
}

func NewBucketResolver(cfg config.S3) BucketResolver {
	return BucketResolver{
		Documents: cfg.BucketDocuments,
		Evidence:  cfg.BucketEvidence,
		Avatars:   cfg.BucketAvatars,
		Backups:   cfg.BucketBackups,
	}
}

func (b BucketResolver) For(categoria domain.Categoria) string {
	switch categoria {
	case domain.CategoriaDocumento, domain.CategoriaActa, domain.CategoriaReporte, domain.CategoriaCronograma:
		return b.Documents
	case domain.CategoriaEvidencia, domain.CategoriaAdjunto:
		return b.Evidence
	case domain.CategoriaAvatar:
		return b.Avatars
	case domain.CategoriaBackup:
		return b.Backups
	default:
		return b.Documents
	}
}

type ArchivoService struct {
	validador         ports.Validador
	archivoRepository domain.Repository
	tareaRepository   procesamiento.Repository
	blob              ports.BlobStore
	cache             ports.Cache
	mq                ports.RabbitMQ
	mCounter          *prometheus.CounterVec
	logger            *zap.Logger
	buckets           BucketResolver
	storage           config.Storage
}

func NewArchivoService(
	validador ports.Validador,
	archivoRepository domain.Repository,
	tareaRepository procesamiento.Repository,
	blob ports.BlobStore,
	cacheLayer ports.Cache,
	rabbit ports.RabbitMQ,
	mCounter *prometheus.CounterVec,
	logger *zap.Logger,
	buckets BucketResolver,
	storage config.Storage,
) ports.ArchivoService {
	return &ArchivoService{
		validador:         validador,
		archivoRepository: archivoRepository,
		tareaRepository:   tareaRepository,
		blob:              blob,
		cache:             cacheLayer,
		mq:                rabbit,
		mCounter:          mCounter,
		logger:            logger,
		buckets:           buckets,
		storage:           storage,
	}
}

// RequestUpload validates the request, records a PENDIENTE row and hands the
// caller a presigned PUT URL. The backend never sees the bytes on this path.
func (as *ArchivoService) RequestUpload(ctx context.Context, req ports.UploadRequest) (*ports.UploadTicket, error) {
	if strings.TrimSpace(req.EntidadTipo) == "" || req.EntidadID <= 0 {
		return nil, apperrors.Validation("entidad propietaria invalida")
	}

	ext := extensionOf(req.NombreArchivo)
	if err := as.validador.ValidateFormat(ext, req.Categoria, req.TamanoBytes); err != nil {
		return nil, err
	}

	id := uuid.New()
	nombreAlmacenado := id.String() + "." + ext
	bucket := as.buckets.For(req.Categoria)
	objectKey := buildObjectKey(req.EntidadTipo, req.EntidadID, req.Categoria, nombreAlmacenado)

	a := &domain.Archivo{
		ID:               id,
		EntidadTipo:      strings.ToUpper(req.EntidadTipo),
		EntidadID:        req.EntidadID,
		NombreOriginal:   sanitizeFileName(req.NombreArchivo),
		NombreAlmacenado: nombreAlmacenado,
		Extension:        ext,
		MimeType:         req.MimeType,
		TamanoBytes:      req.TamanoBytes,
		Bucket:           bucket,
		ObjectKey:        objectKey,
		Categoria:        req.Categoria,
		Estado:           domain.EstadoPendiente,
		EsPublico:        req.Categoria == domain.CategoriaAvatar,
		EsObligatorio:    req.EsObligatorio,
		Version:          1,
		EsVersionActual:  true,
		Metadata:         req.Metadata,
		CreadoPor:        req.Actor,
		ActualizadoPor:   req.Actor,
	}
	if _, err := as.archivoRepository.Create(ctx, a); err != nil {
		return nil, err
	}

	uploadURL, err := as.blob.PresignPut(ctx, bucket, objectKey, req.MimeType, req.TamanoBytes, as.storage.UploadURLTTL)
	if err != nil {
		return nil, apperrors.Storage("no se pudo generar la URL de subida", err)
	}

	// belt and suspenders alongside the PENDIENTE row
	if err = as.cache.SetEx(ctx, cache.KeyPendiente+id.String(), objectKey, as.storage.UploadURLTTL); err != nil {
		as.logger.Warn("pending marker cache failed", zap.String("archivo_id", id.String()), zap.Error(err))
	}

	as.mCounter.WithLabelValues("uploads_requested_total").Inc()

	return &ports.UploadTicket{
		ArchivoID:    id,
		UploadURL:    uploadURL,
		ObjectKey:    objectKey,
		Bucket:       bucket,
		ExpiresInSec: int64(as.storage.UploadURLTTL.Seconds()),
		RequiredHeaders: map[string]string{
			"Content-Type": req.MimeType,
		},
	}, nil
}

// ConfirmUpload checks the object actually landed in the blob store and
// flips the record to DISPONIBLE. When the object is absent the record stays
// PENDIENTE so a later confirm can still succeed; the orphan sweep reclaims
// it after the window.
func (as *ArchivoService) ConfirmUpload(ctx context.Context, id uuid.UUID, clientChecksum string) (*domain.Archivo, error) {
	a, err := as.archivoRepository.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Estado == domain.EstadoDisponible {
		return nil, apperrors.Conflict("archivo %s ya fue confirmado", id)
	}
	if a.Estado != domain.EstadoPendiente {
		return nil, apperrors.Conflict("archivo %s no admite confirmacion en estado %s", id, a.Estado)
	}

	info, err := as.blob.Stat(ctx, a.Bucket, a.ObjectKey)
	if err != nil {
		return nil, apperrors.Storage("almacenamiento no disponible", err)
	}
	if info == nil {
		return nil, apperrors.Storage("objeto no encontrado en almacenamiento, se completo la subida?", nil)
	}

	if clientChecksum != "" && info.ETag != "" && !strings.EqualFold(clientChecksum, info.ETag) {
		as.logger.Warn("client checksum mismatch",
			zap.String("archivo_id", id.String()),
			zap.String("client_checksum", clientChecksum),
			zap.String("store_etag", info.ETag),
		)
	}

	// the store's word wins over the client-declared size
	if err = as.archivoRepository.UpdateConfirmed(ctx, id, info.Size, info.ETag); err != nil {
		return nil, err
	}
	a.Estado = domain.EstadoDisponible
	a.TamanoBytes = info.Size
	a.ChecksumMD5 = info.ETag

	if err = as.cache.Del(ctx, cache.KeyPendiente+id.String()); err != nil {
		as.logger.Warn("pending marker clear failed", zap.String("archivo_id", id.String()), zap.Error(err))
	}

	if err = as.tareaRepository.CreateBatch(ctx, tareasFor(a)); err != nil {
		return nil, fmt.Errorf("enqueue post-processing: %w", err)
	}

	as.publishEvent(mq.EventArchivoSubido, a)
	as.cacheDownloadURL(ctx, a)

	as.mCounter.WithLabelValues("uploads_confirmed_total").Inc()

	return a, nil
}

// DirectUpload is the convenience path for callers that cannot do the two
// round-trip protocol: the backend puts the bytes itself and confirms inline.
func (as *ArchivoService) DirectUpload(ctx context.Context, req ports.DirectUpload) (*domain.Archivo, error) {
	if strings.TrimSpace(req.EntidadTipo) == "" || req.EntidadID <= 0 {
		return nil, apperrors.Validation("entidad propietaria invalida")
	}

	ext := extensionOf(req.NombreArchivo)
	if err := as.validador.ValidateFormat(ext, req.Categoria, req.TamanoBytes); err != nil {
		return nil, err
	}

	id := uuid.New()
	nombreAlmacenado := id.String() + "." + ext
	bucket := as.buckets.For(req.Categoria)
	objectKey := buildObjectKey(req.EntidadTipo, req.EntidadID, req.Categoria, nombreAlmacenado)

	if err := as.blob.Put(ctx, bucket, objectKey, req.MimeType, req.Body); err != nil {
		return nil, apperrors.Storage("no se pudo subir el archivo", err)
	}

	checksum := ""
	tamano := req.TamanoBytes
	if info, err := as.blob.Stat(ctx, bucket, objectKey); err == nil && info != nil {
		checksum = info.ETag
		tamano = info.Size
	}

	a := &domain.Archivo{
		ID:               id,
		EntidadTipo:      strings.ToUpper(req.EntidadTipo),
		EntidadID:        req.EntidadID,
		NombreOriginal:   sanitizeFileName(req.NombreArchivo),
		NombreAlmacenado: nombreAlmacenado,
		Extension:        ext,
		MimeType:         req.MimeType,
		TamanoBytes:      tamano,
		Bucket:           bucket,
		ObjectKey:        objectKey,
		Categoria:        req.Categoria,
		Estado:           domain.EstadoDisponible,
		EsPublico:        req.Categoria == domain.CategoriaAvatar,
		EsObligatorio:    req.EsObligatorio,
		Version:          1,
		EsVersionActual:  true,
		ChecksumMD5:      checksum,
		Metadata:         req.Metadata,
		CreadoPor:        req.Actor,
		ActualizadoPor:   req.Actor,
	}
	out, err := as.archivoRepository.Create(ctx, a)
	if err != nil {
		return nil, err
	}

	if err = as.tareaRepository.CreateBatch(ctx, tareasFor(out)); err != nil {
		return nil, fmt.Errorf("enqueue post-processing: %w", err)
	}

	as.publishEvent(mq.EventArchivoSubido, out)
	as.cacheDownloadURL(ctx, out)

	as.mCounter.WithLabelValues("uploads_direct_total").Inc()

	return out, nil
}

// GetDownloadURL is cache-first; on a miss it presigns a fresh URL and
// stores it in both layers.
func (as *ArchivoService) GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	cached, err := as.cache.Get(ctx, cache.KeyURL+id.String())
	if err != nil {
		as.logger.Warn("url cache read failed", zap.String("archivo_id", id.String()), zap.Error(err))
	}
	if cached != "" {
		as.mCounter.WithLabelValues("download_url_cache_hits_total").Inc()
		return cached, nil
	}

	a, err := as.archivoRepository.FetchByID(ctx, id)
	if err != nil {
		return "", err
	}
	if a.Eliminado() || a.Estado != domain.EstadoDisponible {
		return "", apperrors.NotFound("archivo %s no disponible", id)
	}

	url, err := as.blob.PresignGet(ctx, a.Bucket, a.ObjectKey, as.storage.DownloadURLTTL)
	if err != nil {
		return "", apperrors.Storage("no se pudo generar la URL de descarga", err)
	}

	as.storeDownloadURL(ctx, id, url)
	as.mCounter.WithLabelValues("download_urls_total").Inc()

	return url, nil
}

// CreateVersion validates against the original's category (versions cannot
// change category), uploads the bytes and inserts the new chain head.
func (as *ArchivoService) CreateVersion(ctx context.Context, originalID uuid.UUID, nombre string, mimeType string, tamano int64, body io.Reader, actor string) (*domain.Archivo, error) {
	orig, err := as.archivoRepository.FetchByID(ctx, originalID)
	if err != nil {
		return nil, err
	}
	if orig.Eliminado() {
		return nil, apperrors.NotFound("archivo %s no encontrado", originalID)
	}

	ext := extensionOf(nombre)
	if err = as.validador.ValidateFormat(ext, orig.Categoria, tamano); err != nil {
		return nil, err
	}

	rootID := orig.VersionRootID()
	maxVersion, err := as.archivoRepository.MaxVersion(ctx, rootID)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	nombreAlmacenado := id.String() + "." + ext
	objectKey := buildObjectKey(orig.EntidadTipo, orig.EntidadID, orig.Categoria, nombreAlmacenado)

	if err = as.blob.Put(ctx, orig.Bucket, objectKey, mimeType, body); err != nil {
		return nil, apperrors.Storage("no se pudo subir la nueva version", err)
	}

	checksum := ""
	if info, serr := as.blob.Stat(ctx, orig.Bucket, objectKey); serr == nil && info != nil {
		checksum = info.ETag
		tamano = info.Size
	}

	nueva := &domain.Archivo{
		ID:               id,
		EntidadTipo:      orig.EntidadTipo,
		EntidadID:        orig.EntidadID,
		NombreOriginal:   sanitizeFileName(nombre),
		NombreAlmacenado: nombreAlmacenado,
		Extension:        ext,
		MimeType:         mimeType,
		TamanoBytes:      tamano,
		Bucket:           orig.Bucket,
		ObjectKey:        objectKey,
		Categoria:        orig.Categoria,
		Estado:           domain.EstadoDisponible,
		EsPublico:        orig.EsPublico,
		EsObligatorio:    orig.EsObligatorio,
		Version:          maxVersion + 1,
		ArchivoPadreID:   &rootID,
		EsVersionActual:  true,
		ChecksumMD5:      checksum,
		Metadata:         orig.Metadata,
		CreadoPor:        actor,
		ActualizadoPor:   actor,
	}
	out, err := as.archivoRepository.CreateVersion(ctx, rootID, nueva)
	if err != nil {
		return nil, err
	}

	as.mCounter.WithLabelValues("versions_created_total").Inc()

	return out, nil
}

// Delete is soft: the physical object stays until the retention sweep.
func (as *ArchivoService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	a, err := as.archivoRepository.FetchByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Eliminado() {
		return apperrors.NotFound("archivo %s no encontrado", id)
	}

	if err = as.archivoRepository.SoftDelete(ctx, id, actor); err != nil {
		return err
	}

	if err = as.cache.Del(ctx, cache.KeyURL+id.String()); err != nil {
		as.logger.Warn("url cache invalidation failed", zap.String("archivo_id", id.String()), zap.Error(err))
	}

	as.publishEvent(mq.EventArchivoEliminado, a)
	as.mCounter.WithLabelValues("deletes_total").Inc()

	return nil
}

func (as *ArchivoService) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string, actor string) (*domain.Archivo, error) {
	if err := as.archivoRepository.UpdateMetadata(ctx, id, metadata, actor); err != nil {
		return nil, err
	}
	return as.archivoRepository.FetchByID(ctx, id)
}

func (as *ArchivoService) FindByID(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) {
	return as.archivoRepository.FetchByID(ctx, id)
}

func (as *ArchivoService) FindByEntidad(ctx context.Context, entidadTipo string, entidadID int64) (domain.Archivos, error) {
	return as.archivoRepository.FetchByEntidad(ctx, strings.ToUpper(entidadTipo), entidadID)
}

func (as *ArchivoService) FindAll(ctx context.Context, page int) (domain.Archivos, error) {
	return as.archivoRepository.FetchAll(ctx, page)
}

func (as *ArchivoService) GetVersions(ctx context.Context, id uuid.UUID) (domain.Archivos, error) {
	a, err := as.archivoRepository.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return as.archivoRepository.FetchVersions(ctx, a.VersionRootID())
}

func (as *ArchivoService) GetStorageStats(ctx context.Context) (*ports.StorageStats, error) {
	porCategoria, err := as.archivoRepository.StatsByCategoria(ctx)
	if err != nil {
		return nil, err
	}
	porEntidad, err := as.archivoRepository.StatsByEntidadTipo(ctx)
	if err != nil {
		return nil, err
	}

	stats := &ports.StorageStats{
		PorCategoria:   porCategoria,
		PorEntidadTipo: porEntidad,
	}
	for _, s := range porCategoria {
		stats.TotalBytes += s.TotalBytes
		stats.TotalArchivos += s.Cantidad
	}

	return stats, nil
}

func (as *ArchivoService) GetFormats(ctx context.Context) (formato.FormatosPermitidos, error) {
	return as.validador.Formats(ctx)
}

// tareasFor applies the post-processing queueing policy: virus scan for
// everything but avatars, thumbnail for images, metadata extraction for PDFs.
func tareasFor(a *domain.Archivo) procesamiento.Tareas {
	var ts procesamiento.Tareas

	if a.Categoria != domain.CategoriaAvatar {
		ts = append(ts, &procesamiento.Tarea{
			ArchivoID:   a.ID,
			Tipo:        procesamiento.TipoEscaneoVirus,
			MaxIntentos: procesamiento.MaxIntentosDefault,
		})
	}
	if strings.HasPrefix(a.MimeType, "image/") {
		ts = append(ts, &procesamiento.Tarea{
			ArchivoID:   a.ID,
			Tipo:        procesamiento.TipoMiniatura,
			MaxIntentos: procesamiento.MaxIntentosDefault,
		})
	}
	if a.MimeType == "application/pdf" {
		ts = append(ts, &procesamiento.Tarea{
			ArchivoID:   a.ID,
			Tipo:        procesamiento.TipoExtraccionMetadata,
			MaxIntentos: procesamiento.MaxIntentosDefault,
		})
	}

	return ts
}

func (as *ArchivoService) publishEvent(tipo string, a *domain.Archivo) {
	as.mq.GetInputChan() <- mq.Event{
		Id:        uuid.New(),
		TS:        time.Now(),
		Tipo:      tipo,
		ArchivoID: a.ID.String(),
		Payload: mq.ArchivoPayload{
			EntidadTipo: a.EntidadTipo,
			EntidadID:   a.EntidadID,
			Categoria:   string(a.Categoria),
			Nombre:      a.NombreOriginal,
			MimeType:    a.MimeType,
			TamanoBytes: a.TamanoBytes,
			Bucket:      a.Bucket,
			ObjectKey:   a.ObjectKey,
		},
	}
}

// cacheDownloadURL eagerly presigns and stores a download URL so the first
// download skips the extra round-trips. Best effort.
func (as *ArchivoService) cacheDownloadURL(ctx context.Context, a *domain.Archivo) {
	url, err := as.blob.PresignGet(ctx, a.Bucket, a.ObjectKey, as.storage.DownloadURLTTL)
	if err != nil {
		as.logger.Warn("eager download url failed", zap.String("archivo_id", a.ID.String()), zap.Error(err))
		return
	}
	as.storeDownloadURL(ctx, a.ID, url)

	expira := time.Now().Add(as.storage.DownloadURLTTL)
	a.URLDescarga = &url
	a.URLExpiraEn = &expira
}

func (as *ArchivoService) storeDownloadURL(ctx context.Context, id uuid.UUID, url string) {
	// cache TTL stays shorter than the URL's own expiry so a hit never
	// outlives the URL it returns
	if err := as.cache.SetEx(ctx, cache.KeyURL+id.String(), url, as.storage.URLCacheTTL); err != nil {
		as.logger.Warn("url cache write failed", zap.String("archivo_id", id.String()), zap.Error(err))
	}
	if err := as.archivoRepository.UpdateDownloadURL(ctx, id, url, time.Now().Add(as.storage.DownloadURLTTL)); err != nil {
		as.logger.Warn("url column write failed", zap.String("archivo_id", id.String()), zap.Error(err))
	}
}

func extensionOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

func buildObjectKey(entidadTipo string, entidadID int64, categoria domain.Categoria, nombreAlmacenado string) string {
	return fmt.Sprintf("%s/%d/%s/%s",
		strings.ToLower(entidadTipo),
		entidadID,
		categoria,
		nombreAlmacenado,
	)
}

// sanitizeFileName make file name ASCII standard
func sanitizeFileName(original string) string {
	if original == "" {
		return "file"
	}

	s := strings.TrimSpace(original)
	s = strings.ReplaceAll(s, "\\", "/")
	s = path.Base(s)

	if s == "." || s == ".." || s == "" {
		return "file"
	}

	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	s, _, _ = transform.String(t, s)

	rawExt := path.Ext(s)
	if rawExt == "." {
		rawExt = ""
	}
	base := strings.TrimSuffix(s, rawExt)
	ext := strings.ToLower(rawExt)

	//  [a-z0-9], '-' и '_', dot/space → '-'
	var b strings.Builder
	b.Grow(len(base))
	prevDash := false
	for _, r := range base {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			prevDash = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
			prevDash = false
		case r == '-' || r == '_':
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		case r == '.' || unicode.IsSpace(r):
			if !prevDash {
				b.WriteRune('-')
				prevDash = true
			}
		default:
		}
	}
	base = strings.Trim(b.String(), "-")

	if base == "" {
		base = "file"
	}

	for utf8.RuneCountInString(base)+len(ext) > maxBaseNameLen {
		_, size := utf8.DecodeLastRuneInString(base)
		if size <= 0 || size > len(base) {
			break
		}
		base = base[:len(base)-size]
	}

	return base + ext
}

func isMn(r rune) bool { return unicode.Is(unicode.Mn, r) }
