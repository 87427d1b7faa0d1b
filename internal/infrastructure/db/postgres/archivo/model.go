package archivo

import (
	"time"

	"github.com/google/uuid"
)

type (
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
		Categoria        string
		Estado           string

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
