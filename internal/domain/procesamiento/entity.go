package procesamiento

import (
	"time"

	"github.com/google/uuid"
)

type Tipo string

const (
	TipoEscaneoVirus       Tipo = "escaneo_virus"
	TipoMiniatura          Tipo = "miniatura"
	TipoExtraccionMetadata Tipo = "extraccion_metadata"
	TipoCompresion         Tipo = "compresion"
	TipoConversionPDF      Tipo = "conversion_pdf"
)

type Estado string

const (
	EstadoPendiente  Estado = "pendiente"
	EstadoProcesando Estado = "procesando"
	EstadoCompletada Estado = "completada"
	EstadoError      Estado = "error"
)

const MaxIntentosDefault = 3

type (
	// Tarea is one post-upload job. The worker that consumes these lives
	// outside this service; only the queueing contract is owned here.
	Tarea struct {
		ID           int64
		ArchivoID    uuid.UUID
		Tipo         Tipo
		Estado       Estado
		Intentos     int
		MaxIntentos  int
		Resultado    string
		MensajeError string

		CreatedAt   time.Time
		ProcesadoEn *time.Time
	}
	Tareas []*Tarea
)
