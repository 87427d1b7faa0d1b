package archivo

import (
	"time"

	"github.com/google/uuid"
)

// Estado is the lifecycle state of a stored file.
type Estado string

const (
	EstadoPendiente Estado = "PENDIENTE"
	// EstadoProcesando is reserved for the post-processing pipeline; no
	// operation currently sets it.
	EstadoProcesando Estado = "PROCESANDO"
	EstadoDisponible Estado = "DISPONIBLE"
	EstadoError      Estado = "ERROR"
	EstadoEliminado  Estado = "ELIMINADO"
)

// Categoria decides the allow-list, size ceiling and target bucket of a file.
type Categoria string

const (
	CategoriaDocumento  Categoria = "documento"
	CategoriaEvidencia  Categoria = "evidencia"
	CategoriaActa       Categoria = "acta"
	CategoriaReporte    Categoria = "reporte"
	CategoriaCronograma Categoria = "cronograma"
	CategoriaAvatar     Categoria = "avatar"
	CategoriaAdjunto    Categoria = "adjunto"
	CategoriaBackup     Categoria = "backup"
)

func Categorias() []Categoria {
	return []Categoria{
		CategoriaDocumento,
		CategoriaEvidencia,
		CategoriaActa,
		CategoriaReporte,
		CategoriaCronograma,
		CategoriaAvatar,
		CategoriaAdjunto,
		CategoriaBackup,
	}
}

func (c Categoria) Valid() bool {
	switch c {
	case CategoriaDocumento, CategoriaEvidencia, CategoriaActa, CategoriaReporte,
		CategoriaCronograma, CategoriaAvatar, CategoriaAdjunto, CategoriaBackup:
		return true
	}
	return false
}

type (
	// Archivo is the metadata record behind every physical object. The owner
	// is a polymorphic (EntidadTipo, EntidadID) pair; referential integrity
	// against the owning aggregate is the caller's responsibility.
	Archivo struct {
		ID          uuid.UUID
		EntidadTipo string
		EntidadID   int64

		NombreOriginal   string
		NombreAlmacenado string
		Extension        string
		MimeType         string
		TamanoBytes      int64
		Bucket           string
		ObjectKey        string
		Categoria        Categoria
		Estado           Estado

		EsPublico     bool
		EsObligatorio bool

		Version         int
		ArchivoPadreID  *uuid.UUID
		EsVersionActual bool

		ChecksumMD5    string
		ChecksumSHA256 string

		VirusEscaneado bool
		VirusDetectado bool
		ResultadoScan  string

		URLDescarga *string
		URLExpiraEn *time.Time

		Metadata map[string]string

		CreadoPor      string
		ActualizadoPor string
		CreatedAt      time.Time
		UpdatedAt      time.Time
		EliminadoPor   *string
		EliminadoEn    *time.Time
	}
	Archivos []*Archivo
)

// VersionRootID resolves the version-chain root: the parent pointer when the
// record is itself a version, otherwise its own id.
func (a *Archivo) VersionRootID() uuid.UUID {
	if a.ArchivoPadreID != nil {
		return *a.ArchivoPadreID
	}
	return a.ID
}

func (a *Archivo) Eliminado() bool { return a.EliminadoEn != nil }

// CategoriaStats aggregates byte totals over available, non-deleted records.
type CategoriaStats struct {
	Categoria  Categoria
	Cantidad   int64
	TotalBytes int64
}

type EntidadStats struct {
	EntidadTipo string
	Cantidad    int64
	TotalBytes  int64
}

type BucketUsage struct {
	Bucket     string
	Cantidad   int64
	TotalBytes int64
}
