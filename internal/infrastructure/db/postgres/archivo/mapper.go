package archivo

import (
	domain "archivo-storage-api/internal/domain/archivo"
)

func fromDBModel(model *Archivo) *domain.Archivo {
	var a = &domain.Archivo{
		ID:          model.ID,
		EntidadTipo: model.EntidadTipo,
		EntidadID:   model.EntidadID,

		NombreOriginal:   model.NombreOriginal,
		NombreAlmacenado: model.NombreAlmacenado,
		Extension:        model.Extension,
		MimeType:         model.MimeType,
		TamanoBytes:      model.TamanoBytes,
		Bucket:           model.Bucket,
		ObjectKey:        model.ObjectKey,
		Categoria:        domain.Categoria(model.Categoria),
		Estado:           domain.Estado(model.Estado),

		EsPublico:     model.EsPublico,
		EsObligatorio: model.EsObligatorio,

		Version:         model.Version,
		ArchivoPadreID:  model.ArchivoPadreID,
		EsVersionActual: model.EsVersionActual,

		ChecksumMD5:    model.ChecksumMD5,
		ChecksumSHA256: model.ChecksumSHA256,

		VirusEscaneado: model.VirusEscaneado,
		VirusDetectado: model.VirusDetectado,
		ResultadoScan:  model.ResultadoScan,

		URLDescarga: model.URLDescarga,
		URLExpiraEn: model.URLExpiraEn,

		Metadata: model.Metadata,

		CreadoPor:      model.CreadoPor,
		ActualizadoPor: model.ActualizadoPor,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
		EliminadoPor:   model.EliminadoPor,
		EliminadoEn:    model.EliminadoEn,
	}

	return a
}

func fromDBModels(models *Archivos) domain.Archivos {
	as := make(domain.Archivos, len(*models))
	for idx, a := range *models {
		as[idx] = fromDBModel(a)
	}

	return as
}
