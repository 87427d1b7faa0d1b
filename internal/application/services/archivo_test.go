package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"archivo-storage-api/config"
	"archivo-storage-api/internal/application/ports"
	domain "archivo-storage-api/internal/domain/archivo"
	"archivo-storage-api/internal/domain/formato"
	"archivo-storage-api/internal/domain/procesamiento"
	"archivo-storage-api/internal/infrastructure/cache"
	"archivo-storage-api/internal/infrastructure/mq"
	"archivo-storage-api/pkg/apperrors"
)

type FakeArchivoRepo struct {
	CreateFunc                func(ctx context.Context, req *domain.Archivo) (*domain.Archivo, error)
	FetchByIDFunc             func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error)
	FetchByEntidadFunc        func(ctx context.Context, entidadTipo string, entidadID int64) (domain.Archivos, error)
	FetchAllFunc              func(ctx context.Context, page int) (domain.Archivos, error)
	FetchVersionsFunc         func(ctx context.Context, rootID uuid.UUID) (domain.Archivos, error)
	MaxVersionFunc            func(ctx context.Context, rootID uuid.UUID) (int, error)
	CreateVersionFunc         func(ctx context.Context, rootID uuid.UUID, req *domain.Archivo) (*domain.Archivo, error)
	UpdateConfirmedFunc       func(ctx context.Context, id uuid.UUID, tamano int64, checksumMD5 string) error
	UpdateDownloadURLFunc     func(ctx context.Context, id uuid.UUID, url string, expiraEn time.Time) error
	UpdateMetadataFunc        func(ctx context.Context, id uuid.UUID, metadata map[string]string, actor string) error
	SoftDeleteFunc            func(ctx context.Context, id uuid.UUID, actor string) error
	HardDeleteFunc            func(ctx context.Context, id uuid.UUID) error
	FetchEliminadosBeforeFunc func(ctx context.Context, cutoff time.Time, limit int) (domain.Archivos, error)
	FetchPendientesBeforeFunc func(ctx context.Context, cutoff time.Time, limit int) (domain.Archivos, error)
	ClearExpiredURLsFunc      func(ctx context.Context, now time.Time) (int64, error)
	StatsByCategoriaFunc      func(ctx context.Context) ([]domain.CategoriaStats, error)
	StatsByEntidadTipoFunc    func(ctx context.Context) ([]domain.EntidadStats, error)
	TotalBytesByBucketFunc    func(ctx context.Context) ([]domain.BucketUsage, error)
}

var errNotUsed = errors.New("not used")

func (f *FakeArchivoRepo) Create(ctx context.Context, req *domain.Archivo) (*domain.Archivo, error) {
	if f.CreateFunc == nil {
		return nil, errNotUsed
	}
	return f.CreateFunc(ctx, req)
}
func (f *FakeArchivoRepo) FetchByID(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) {
	if f.FetchByIDFunc == nil {
		return nil, errNotUsed
	}
	return f.FetchByIDFunc(ctx, id)
}
func (f *FakeArchivoRepo) FetchByEntidad(ctx context.Context, entidadTipo string, entidadID int64) (domain.Archivos, error) {
	if f.FetchByEntidadFunc == nil {
		return nil, errNotUsed
	}
	return f.FetchByEntidadFunc(ctx, entidadTipo, entidadID)
}
func (f *FakeArchivoRepo) FetchAll(ctx context.Context, page int) (domain.Archivos, error) {
	if f.FetchAllFunc == nil {
		return nil, errNotUsed
	}
	return f.FetchAllFunc(ctx, page)
}
func (f *FakeArchivoRepo) FetchVersions(ctx context.Context, rootID uuid.UUID) (domain.Archivos, error) {
	if f.FetchVersionsFunc == nil {
		return nil, errNotUsed
	}
	return f.FetchVersionsFunc(ctx, rootID)
}
func (f *FakeArchivoRepo) MaxVersion(ctx context.Context, rootID uuid.UUID) (int, error) {
	if f.MaxVersionFunc == nil {
		return 0, errNotUsed
	}
	return f.MaxVersionFunc(ctx, rootID)
}
func (f *FakeArchivoRepo) CreateVersion(ctx context.Context, rootID uuid.UUID, req *domain.Archivo) (*domain.Archivo, error) {
	if f.CreateVersionFunc == nil {
		return nil, errNotUsed
	}
	return f.CreateVersionFunc(ctx, rootID, req)
}
func (f *FakeArchivoRepo) UpdateConfirmed(ctx context.Context, id uuid.UUID, tamano int64, checksumMD5 string) error {
	if f.UpdateConfirmedFunc == nil {
		return errNotUsed
	}
	return f.UpdateConfirmedFunc(ctx, id, tamano, checksumMD5)
}
func (f *FakeArchivoRepo) UpdateDownloadURL(ctx context.Context, id uuid.UUID, url string, expiraEn time.Time) error {
	if f.UpdateDownloadURLFunc == nil {
		return nil
	}
	return f.UpdateDownloadURLFunc(ctx, id, url, expiraEn)
}
func (f *FakeArchivoRepo) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string, actor string) error {
	if f.UpdateMetadataFunc == nil {
		return errNotUsed
	}
	return f.UpdateMetadataFunc(ctx, id, metadata, actor)
}
func (f *FakeArchivoRepo) SoftDelete(ctx context.Context, id uuid.UUID, actor string) error {
	if f.SoftDeleteFunc == nil {
		return errNotUsed
	}
	return f.SoftDeleteFunc(ctx, id, actor)
}
func (f *FakeArchivoRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	if f.HardDeleteFunc == nil {
		return errNotUsed
	}
	return f.HardDeleteFunc(ctx, id)
}
func (f *FakeArchivoRepo) FetchEliminadosBefore(ctx context.Context, cutoff time.Time, limit int) (domain.Archivos, error) {
	if f.FetchEliminadosBeforeFunc == nil {
		return nil, errNotUsed
	}
	return f.FetchEliminadosBeforeFunc(ctx, cutoff, limit)
}
func (f *FakeArchivoRepo) FetchPendientesBefore(ctx context.Context, cutoff time.Time, limit int) (domain.Archivos, error) {
	if f.FetchPendientesBeforeFunc == nil {
		return nil, errNotUsed
	}
	return f.FetchPendientesBeforeFunc(ctx, cutoff, limit)
}
func (f *FakeArchivoRepo) ClearExpiredURLs(ctx context.Context, now time.Time) (int64, error) {
	if f.ClearExpiredURLsFunc == nil {
		return 0, errNotUsed
	}
	return f.ClearExpiredURLsFunc(ctx, now)
}
func (f *FakeArchivoRepo) StatsByCategoria(ctx context.Context) ([]domain.CategoriaStats, error) {
	if f.StatsByCategoriaFunc == nil {
		return nil, errNotUsed
	}
	return f.StatsByCategoriaFunc(ctx)
}
func (f *FakeArchivoRepo) StatsByEntidadTipo(ctx context.Context) ([]domain.EntidadStats, error) {
	if f.StatsByEntidadTipoFunc == nil {
		return nil, errNotUsed
	}
	return f.StatsByEntidadTipoFunc(ctx)
}
func (f *FakeArchivoRepo) TotalBytesByBucket(ctx context.Context) ([]domain.BucketUsage, error) {
	if f.TotalBytesByBucketFunc == nil {
		return nil, errNotUsed
	}
	return f.TotalBytesByBucketFunc(ctx)
}

type FakeTareaRepo struct {
	CreateBatchFunc     func(ctx context.Context, tareas procesamiento.Tareas) error
	FetchByArchivoFunc  func(ctx context.Context, archivoID uuid.UUID) (procesamiento.Tareas, error)
	ResetFailedFunc     func(ctx context.Context) (int64, error)
	DeleteByArchivoFunc func(ctx context.Context, archivoID uuid.UUID) error
}

func (f *FakeTareaRepo) CreateBatch(ctx context.Context, tareas procesamiento.Tareas) error {
	if f.CreateBatchFunc == nil {
		return nil
	}
	return f.CreateBatchFunc(ctx, tareas)
}
func (f *FakeTareaRepo) FetchByArchivo(ctx context.Context, archivoID uuid.UUID) (procesamiento.Tareas, error) {
	if f.FetchByArchivoFunc == nil {
		return nil, errNotUsed
	}
	return f.FetchByArchivoFunc(ctx, archivoID)
}
func (f *FakeTareaRepo) ResetFailed(ctx context.Context) (int64, error) {
	if f.ResetFailedFunc == nil {
		return 0, errNotUsed
	}
	return f.ResetFailedFunc(ctx)
}
func (f *FakeTareaRepo) DeleteByArchivo(ctx context.Context, archivoID uuid.UUID) error {
	if f.DeleteByArchivoFunc == nil {
		return nil
	}
	return f.DeleteByArchivoFunc(ctx, archivoID)
}

type FakeBlob struct {
	PresignPutFunc func(ctx context.Context, bucket, key, contentType string, size int64, ttl time.Duration) (string, error)
	PresignGetFunc func(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	PutFunc        func(ctx context.Context, bucket, key, contentType string, body io.Reader) error
	StatFunc       func(ctx context.Context, bucket, key string) (*ports.ObjectInfo, error)
	RemoveFunc     func(ctx context.Context, bucket, key string) error
	BucketSizeFunc func(ctx context.Context, bucket string) (int64, int64, error)
}

func (f *FakeBlob) EnsureBuckets(ctx context.Context) {}
func (f *FakeBlob) PresignPut(ctx context.Context, bucket, key, contentType string, size int64, ttl time.Duration) (string, error) {
	if f.PresignPutFunc == nil {
		return "", errNotUsed
	}
	return f.PresignPutFunc(ctx, bucket, key, contentType, size, ttl)
}
func (f *FakeBlob) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if f.PresignGetFunc == nil {
		return "", errNotUsed
	}
	return f.PresignGetFunc(ctx, bucket, key, ttl)
}
func (f *FakeBlob) Put(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
	if f.PutFunc == nil {
		return errNotUsed
	}
	return f.PutFunc(ctx, bucket, key, contentType, body)
}
func (f *FakeBlob) Get(ctx context.Context, bucket, key string) ([]byte, string, error) {
	return nil, "", errNotUsed
}
func (f *FakeBlob) Stat(ctx context.Context, bucket, key string) (*ports.ObjectInfo, error) {
	if f.StatFunc == nil {
		return nil, errNotUsed
	}
	return f.StatFunc(ctx, bucket, key)
}
func (f *FakeBlob) Remove(ctx context.Context, bucket, key string) error {
	if f.RemoveFunc == nil {
		return errNotUsed
	}
	return f.RemoveFunc(ctx, bucket, key)
}
func (f *FakeBlob) RemoveMany(ctx context.Context, bucket string, keys []string) error {
	return errNotUsed
}
func (f *FakeBlob) Copy(ctx context.Context, bucket, srcKey, dstKey string) error { return errNotUsed }
func (f *FakeBlob) List(ctx context.Context, bucket, prefix string) ([]ports.ObjectInfo, error) {
	return nil, errNotUsed
}
func (f *FakeBlob) BucketSize(ctx context.Context, bucket string) (int64, int64, error) {
	if f.BucketSizeFunc == nil {
		return 0, 0, errNotUsed
	}
	return f.BucketSizeFunc(ctx, bucket)
}

// FakeCache is an in-memory map, TTLs ignored.
type FakeCache struct {
	data map[string]string
}

func NewFakeCache() *FakeCache { return &FakeCache{data: make(map[string]string)} }

func (f *FakeCache) Get(ctx context.Context, key string) (string, error) { return f.data[key], nil }
func (f *FakeCache) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	f.data[key] = value
	return nil
}
func (f *FakeCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

type FakeMQ struct {
	in chan mq.Event
}

func NewFakeMQ() *FakeMQ { return &FakeMQ{in: make(chan mq.Event, 16)} }

func (f *FakeMQ) Connect(ctx context.Context, dsn string) error { return nil }
func (f *FakeMQ) Init() error                                   { return nil }
func (f *FakeMQ) PublisherWorker(ctx context.Context)           {}
func (f *FakeMQ) GetInputChan() chan mq.Event                   { return f.in }
func (f *FakeMQ) GetConn() *amqp091.Connection                  { return nil }

type FakeValidador struct {
	ValidateFormatFunc func(extension string, categoria domain.Categoria, tamano int64) error
	FormatsFunc        func(ctx context.Context) (formato.FormatosPermitidos, error)
}

func (f *FakeValidador) ValidateFormat(extension string, categoria domain.Categoria, tamano int64) error {
	if f.ValidateFormatFunc == nil {
		return nil
	}
	return f.ValidateFormatFunc(extension, categoria, tamano)
}
func (f *FakeValidador) ValidateMimeType(mimeType string, categoria domain.Categoria) error {
	return nil
}
func (f *FakeValidador) MaxSize(categoria domain.Categoria) int64 { return 5 << 30 }
func (f *FakeValidador) RefreshCache(ctx context.Context) error   { return nil }
func (f *FakeValidador) Formats(ctx context.Context) (formato.FormatosPermitidos, error) {
	if f.FormatsFunc == nil {
		return nil, errNotUsed
	}
	return f.FormatsFunc(ctx)
}

func testCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_counters"}, []string{"result"})
}

func testBuckets() BucketResolver {
	return BucketResolver{
		Documents: "documents",
		Evidence:  "evidence",
		Avatars:   "avatars",
		Backups:   "backups",
	}
}

func testStorage() config.Storage {
	return config.Storage{
		UploadURLTTL:     15 * time.Minute,
		DownloadURLTTL:   time.Hour,
		URLCacheTTL:      45 * time.Minute,
		RetentionWindow:  30 * 24 * time.Hour,
		OrphanWindow:     24 * time.Hour,
		MaxFileSizeBytes: 5 << 30,
	}
}

type archivoDeps struct {
	repo      *FakeArchivoRepo
	tareas    *FakeTareaRepo
	blob      *FakeBlob
	cache     *FakeCache
	mq        *FakeMQ
	validador *FakeValidador
}

func newArchivoService(d archivoDeps) ports.ArchivoService {
	if d.repo == nil {
		d.repo = &FakeArchivoRepo{}
	}
	if d.tareas == nil {
		d.tareas = &FakeTareaRepo{}
	}
	if d.blob == nil {
		d.blob = &FakeBlob{}
	}
	if d.cache == nil {
		d.cache = NewFakeCache()
	}
	if d.mq == nil {
		d.mq = NewFakeMQ()
	}
	if d.validador == nil {
		d.validador = &FakeValidador{}
	}

	return NewArchivoService(
		d.validador,
		d.repo,
		d.tareas,
		d.blob,
		d.cache,
		d.mq,
		testCounter(),
		zap.NewNop(),
		testBuckets(),
		testStorage(),
	)
}

func TestRequestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects bad owner", func(t *testing.T) {
		as := newArchivoService(archivoDeps{})
		_, err := as.RequestUpload(ctx, ports.UploadRequest{EntidadTipo: "", EntidadID: 0})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("propagates policy rejection", func(t *testing.T) {
		as := newArchivoService(archivoDeps{
			validador: &FakeValidador{
				ValidateFormatFunc: func(extension string, categoria domain.Categoria, tamano int64) error {
					return apperrors.Validation("extension %s no permitida para %s", extension, categoria)
				},
			},
		})
		_, err := as.RequestUpload(ctx, ports.UploadRequest{
			EntidadTipo:   "PROYECTO",
			EntidadID:     7,
			Categoria:     domain.CategoriaDocumento,
			NombreArchivo: "virus.exe",
			MimeType:      "application/octet-stream",
			TamanoBytes:   100,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("creates pending record and presigned ticket", func(t *testing.T) {
		var created *domain.Archivo
		repo := &FakeArchivoRepo{
			CreateFunc: func(ctx context.Context, req *domain.Archivo) (*domain.Archivo, error) {
				created = req
				return req, nil
			},
		}
		blob := &FakeBlob{
			PresignPutFunc: func(ctx context.Context, bucket, key, contentType string, size int64, ttl time.Duration) (string, error) {
				require.Equal(t, "documents", bucket)
				require.Equal(t, 15*time.Minute, ttl)
				return "https://store/put", nil
			},
		}
		as := newArchivoService(archivoDeps{repo: repo, blob: blob})

		ticket, err := as.RequestUpload(ctx, ports.UploadRequest{
			EntidadTipo:   "proyecto",
			EntidadID:     7,
			Categoria:     domain.CategoriaDocumento,
			NombreArchivo: "Informe Final (v2).PDF",
			MimeType:      "application/pdf",
			TamanoBytes:   2048,
			Actor:         "u1",
		})
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.Equal(t, domain.EstadoPendiente, created.Estado)
		assert.Equal(t, "PROYECTO", created.EntidadTipo)
		assert.Equal(t, "pdf", created.Extension)
		assert.Equal(t, 1, created.Version)
		assert.True(t, created.EsVersionActual)
		assert.False(t, created.EsPublico)
		assert.Equal(t, "informe-final-v2.pdf", created.NombreOriginal)
		assert.True(t, strings.HasPrefix(created.ObjectKey, "proyecto/7/documento/"))
		assert.True(t, strings.HasSuffix(created.ObjectKey, ".pdf"))

		assert.Equal(t, created.ID, ticket.ArchivoID)
		assert.Equal(t, "https://store/put", ticket.UploadURL)
		assert.Equal(t, int64(900), ticket.ExpiresInSec)
		assert.Equal(t, "application/pdf", ticket.RequiredHeaders["Content-Type"])
	})

	t.Run("avatars are public and land in their own bucket", func(t *testing.T) {
		var created *domain.Archivo
		repo := &FakeArchivoRepo{
			CreateFunc: func(ctx context.Context, req *domain.Archivo) (*domain.Archivo, error) {
				created = req
				return req, nil
			},
		}
		blob := &FakeBlob{
			PresignPutFunc: func(ctx context.Context, bucket, key, contentType string, size int64, ttl time.Duration) (string, error) {
				require.Equal(t, "avatars", bucket)
				return "https://store/put", nil
			},
		}
		as := newArchivoService(archivoDeps{repo: repo, blob: blob})

		_, err := as.RequestUpload(ctx, ports.UploadRequest{
			EntidadTipo:   "USUARIO",
			EntidadID:     3,
			Categoria:     domain.CategoriaAvatar,
			NombreArchivo: "cara.png",
			MimeType:      "image/png",
			TamanoBytes:   1024,
		})
		require.NoError(t, err)
		assert.True(t, created.EsPublico)
		assert.Equal(t, "avatars", created.Bucket)
	})
}

func TestConfirmUpload(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	pending := func() *domain.Archivo {
		return &domain.Archivo{
			ID:          id,
			EntidadTipo: "PROYECTO",
			EntidadID:   7,
			Categoria:   domain.CategoriaDocumento,
			Estado:      domain.EstadoPendiente,
			MimeType:    "application/pdf",
			Bucket:      "documents",
			ObjectKey:   "proyecto/7/documento/" + id.String() + ".pdf",
		}
	}

	t.Run("404 unknown record", func(t *testing.T) {
		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) {
					return nil, apperrors.NotFound("archivo %s no encontrado", id)
				},
			},
		})
		_, err := as.ConfirmUpload(ctx, id, "")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("conflict when already confirmed", func(t *testing.T) {
		a := pending()
		a.Estado = domain.EstadoDisponible
		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) { return a, nil },
			},
		})
		_, err := as.ConfirmUpload(ctx, id, "")
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("object absent leaves record pending", func(t *testing.T) {
		confirmed := false
		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) { return pending(), nil },
				UpdateConfirmedFunc: func(ctx context.Context, id uuid.UUID, tamano int64, checksumMD5 string) error {
					confirmed = true
					return nil
				},
			},
			blob: &FakeBlob{
				StatFunc: func(ctx context.Context, bucket, key string) (*ports.ObjectInfo, error) {
					return nil, nil
				},
			},
		})
		_, err := as.ConfirmUpload(ctx, id, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsStorage(err))
		assert.False(t, confirmed)
	})

	t.Run("success trusts store size and queues jobs", func(t *testing.T) {
		var gotTamano int64
		var queued procesamiento.Tareas
		mqFake := NewFakeMQ()
		cacheFake := NewFakeCache()

		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) { return pending(), nil },
				UpdateConfirmedFunc: func(ctx context.Context, id uuid.UUID, tamano int64, checksumMD5 string) error {
					gotTamano = tamano
					return nil
				},
			},
			tareas: &FakeTareaRepo{
				CreateBatchFunc: func(ctx context.Context, tareas procesamiento.Tareas) error {
					queued = tareas
					return nil
				},
			},
			blob: &FakeBlob{
				StatFunc: func(ctx context.Context, bucket, key string) (*ports.ObjectInfo, error) {
					return &ports.ObjectInfo{Key: key, Size: 4096, ETag: "etag-1"}, nil
				},
				PresignGetFunc: func(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
					return "https://store/get", nil
				},
			},
			mq:    mqFake,
			cache: cacheFake,
		})

		a, err := as.ConfirmUpload(ctx, id, "client-checksum-that-differs")
		require.NoError(t, err)

		assert.Equal(t, domain.EstadoDisponible, a.Estado)
		assert.Equal(t, int64(4096), gotTamano)
		assert.Equal(t, int64(4096), a.TamanoBytes)
		assert.Equal(t, "etag-1", a.ChecksumMD5)

		// pdf: virus scan + metadata extraction, no thumbnail
		require.Len(t, queued, 2)
		tipos := []procesamiento.Tipo{queued[0].Tipo, queued[1].Tipo}
		assert.Contains(t, tipos, procesamiento.TipoEscaneoVirus)
		assert.Contains(t, tipos, procesamiento.TipoExtraccionMetadata)

		select {
		case ev := <-mqFake.GetInputChan():
			assert.Equal(t, mq.EventArchivoSubido, ev.Tipo)
			assert.Equal(t, id.String(), ev.ArchivoID)
		default:
			t.Fatal("expected archivo.subido event")
		}

		assert.Equal(t, "https://store/get", cacheFake.data[cache.KeyURL+id.String()])
	})

	t.Run("avatar image skips virus scan, gets thumbnail", func(t *testing.T) {
		a := pending()
		a.Categoria = domain.CategoriaAvatar
		a.MimeType = "image/png"

		var queued procesamiento.Tareas
		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc:       func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) { return a, nil },
				UpdateConfirmedFunc: func(ctx context.Context, id uuid.UUID, tamano int64, checksumMD5 string) error { return nil },
			},
			tareas: &FakeTareaRepo{
				CreateBatchFunc: func(ctx context.Context, tareas procesamiento.Tareas) error {
					queued = tareas
					return nil
				},
			},
			blob: &FakeBlob{
				StatFunc: func(ctx context.Context, bucket, key string) (*ports.ObjectInfo, error) {
					return &ports.ObjectInfo{Size: 100, ETag: "e"}, nil
				},
				PresignGetFunc: func(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
					return "https://store/get", nil
				},
			},
		})

		_, err := as.ConfirmUpload(ctx, id, "")
		require.NoError(t, err)
		require.Len(t, queued, 1)
		assert.Equal(t, procesamiento.TipoMiniatura, queued[0].Tipo)
	})
}

func TestGetDownloadURL(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("cache hit skips store", func(t *testing.T) {
		cacheFake := NewFakeCache()
		cacheFake.data[cache.KeyURL+id.String()] = "https://store/cached"
		as := newArchivoService(archivoDeps{cache: cacheFake})

		url, err := as.GetDownloadURL(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "https://store/cached", url)
	})

	t.Run("deleted record is not found", func(t *testing.T) {
		now := time.Now()
		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) {
					return &domain.Archivo{ID: id, Estado: domain.EstadoEliminado, EliminadoEn: &now}, nil
				},
			},
		})
		_, err := as.GetDownloadURL(ctx, id)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("miss presigns and fills both layers", func(t *testing.T) {
		cacheFake := NewFakeCache()
		var savedURL string
		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) {
					return &domain.Archivo{ID: id, Estado: domain.EstadoDisponible, Bucket: "documents", ObjectKey: "k"}, nil
				},
				UpdateDownloadURLFunc: func(ctx context.Context, id uuid.UUID, url string, expiraEn time.Time) error {
					savedURL = url
					return nil
				},
			},
			blob: &FakeBlob{
				PresignGetFunc: func(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
					require.Equal(t, time.Hour, ttl)
					return "https://store/fresh", nil
				},
			},
			cache: cacheFake,
		})

		url, err := as.GetDownloadURL(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "https://store/fresh", url)
		assert.Equal(t, "https://store/fresh", cacheFake.data[cache.KeyURL+id.String()])
		assert.Equal(t, "https://store/fresh", savedURL)
	})
}

func TestCreateVersion(t *testing.T) {
	ctx := context.Background()
	rootID := uuid.New()

	orig := func() *domain.Archivo {
		return &domain.Archivo{
			ID:              rootID,
			EntidadTipo:     "PROYECTO",
			EntidadID:       7,
			Categoria:       domain.CategoriaDocumento,
			Estado:          domain.EstadoDisponible,
			Bucket:          "documents",
			Version:         1,
			EsVersionActual: true,
		}
	}

	t.Run("deleted original is not found", func(t *testing.T) {
		now := time.Now()
		a := orig()
		a.EliminadoEn = &now
		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) { return a, nil },
			},
		})
		_, err := as.CreateVersion(ctx, rootID, "v2.pdf", "application/pdf", 100, bytes.NewReader(nil), "u1")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("new head joins the chain at max+1", func(t *testing.T) {
		var versionedRoot uuid.UUID
		var created *domain.Archivo
		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) { return orig(), nil },
				MaxVersionFunc: func(ctx context.Context, r uuid.UUID) (int, error) {
					require.Equal(t, rootID, r)
					return 3, nil
				},
				CreateVersionFunc: func(ctx context.Context, r uuid.UUID, req *domain.Archivo) (*domain.Archivo, error) {
					versionedRoot = r
					created = req
					return req, nil
				},
			},
			blob: &FakeBlob{
				PutFunc: func(ctx context.Context, bucket, key, contentType string, body io.Reader) error {
					require.Equal(t, "documents", bucket)
					return nil
				},
				StatFunc: func(ctx context.Context, bucket, key string) (*ports.ObjectInfo, error) {
					return &ports.ObjectInfo{Size: 256, ETag: "v4-etag"}, nil
				},
			},
		})

		out, err := as.CreateVersion(ctx, rootID, "v4.pdf", "application/pdf", 100, bytes.NewReader([]byte("pdf")), "u1")
		require.NoError(t, err)

		assert.Equal(t, rootID, versionedRoot)
		assert.Equal(t, 4, created.Version)
		require.NotNil(t, created.ArchivoPadreID)
		assert.Equal(t, rootID, *created.ArchivoPadreID)
		assert.True(t, created.EsVersionActual)
		assert.Equal(t, domain.EstadoDisponible, created.Estado)
		assert.Equal(t, int64(256), out.TamanoBytes)
	})

	t.Run("versioning a version still chains to the root", func(t *testing.T) {
		midID := uuid.New()
		mid := orig()
		mid.ID = midID
		mid.Version = 2
		mid.ArchivoPadreID = &rootID

		var created *domain.Archivo
		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc:  func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) { return mid, nil },
				MaxVersionFunc: func(ctx context.Context, r uuid.UUID) (int, error) { return 2, nil },
				CreateVersionFunc: func(ctx context.Context, r uuid.UUID, req *domain.Archivo) (*domain.Archivo, error) {
					require.Equal(t, rootID, r)
					created = req
					return req, nil
				},
			},
			blob: &FakeBlob{
				PutFunc: func(ctx context.Context, bucket, key, contentType string, body io.Reader) error { return nil },
				StatFunc: func(ctx context.Context, bucket, key string) (*ports.ObjectInfo, error) {
					return &ports.ObjectInfo{Size: 10}, nil
				},
			},
		})

		_, err := as.CreateVersion(ctx, midID, "v3.pdf", "application/pdf", 10, bytes.NewReader(nil), "u1")
		require.NoError(t, err)
		require.NotNil(t, created.ArchivoPadreID)
		assert.Equal(t, rootID, *created.ArchivoPadreID)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("already deleted is not found", func(t *testing.T) {
		now := time.Now()
		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) {
					return &domain.Archivo{ID: id, EliminadoEn: &now}, nil
				},
			},
		})
		err := as.Delete(ctx, id, "u1")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("soft delete invalidates cache and publishes", func(t *testing.T) {
		mqFake := NewFakeMQ()
		cacheFake := NewFakeCache()
		cacheFake.data[cache.KeyURL+id.String()] = "https://store/old"

		var actor string
		as := newArchivoService(archivoDeps{
			repo: &FakeArchivoRepo{
				FetchByIDFunc: func(ctx context.Context, id uuid.UUID) (*domain.Archivo, error) {
					return &domain.Archivo{ID: id, Estado: domain.EstadoDisponible}, nil
				},
				SoftDeleteFunc: func(ctx context.Context, id uuid.UUID, a string) error {
					actor = a
					return nil
				},
			},
			mq:    mqFake,
			cache: cacheFake,
		})

		require.NoError(t, as.Delete(ctx, id, "u1"))
		assert.Equal(t, "u1", actor)
		assert.Empty(t, cacheFake.data[cache.KeyURL+id.String()])

		select {
		case ev := <-mqFake.GetInputChan():
			assert.Equal(t, mq.EventArchivoEliminado, ev.Tipo)
		default:
			t.Fatal("expected archivo.eliminado event")
		}
	})
}

func TestGetStorageStats(t *testing.T) {
	as := newArchivoService(archivoDeps{
		repo: &FakeArchivoRepo{
			StatsByCategoriaFunc: func(ctx context.Context) ([]domain.CategoriaStats, error) {
				return []domain.CategoriaStats{
					{Categoria: domain.CategoriaDocumento, Cantidad: 2, TotalBytes: 3000},
					{Categoria: domain.CategoriaAvatar, Cantidad: 1, TotalBytes: 500},
				}, nil
			},
			StatsByEntidadTipoFunc: func(ctx context.Context) ([]domain.EntidadStats, error) {
				return []domain.EntidadStats{{EntidadTipo: "PROYECTO", Cantidad: 3, TotalBytes: 3500}}, nil
			},
		},
	})

	stats, err := as.GetStorageStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3500), stats.TotalBytes)
	assert.Equal(t, int64(3), stats.TotalArchivos)
	assert.Len(t, stats.PorCategoria, 2)
	assert.Len(t, stats.PorEntidadTipo, 1)
}

func TestBucketResolver(t *testing.T) {
	b := testBuckets()

	tests := []struct {
		categoria domain.Categoria
		want      string
	}{
		{domain.CategoriaDocumento, "documents"},
		{domain.CategoriaActa, "documents"},
		{domain.CategoriaReporte, "documents"},
		{domain.CategoriaCronograma, "documents"},
		{domain.CategoriaEvidencia, "evidence"},
		{domain.CategoriaAdjunto, "evidence"},
		{domain.CategoriaAvatar, "avatars"},
		{domain.CategoriaBackup, "backups"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, b.For(tt.categoria), string(tt.categoria))
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Informe Final (v2).PDF", "informe-final-v2.pdf"},
		{"ACTA.Docx", "acta.docx"},
		{"reunión_acta.docx", "reunion-acta.docx"},
		{"../../etc/passwd", "passwd"},
		{"", "file"},
		{"...", "file"},
		{"fotos de obra 2026.zip", "fotos-de-obra-2026.zip"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFileName(tt.in), tt.in)
	}
}
