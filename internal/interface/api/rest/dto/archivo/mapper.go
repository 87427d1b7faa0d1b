package archivo

import (
	"archivo-storage-api/internal/application/ports"
	"archivo-storage-api/internal/domain/archivo"
	"archivo-storage-api/internal/domain/formato"
)

func ToResponseArchivo(aDomain archivo.Archivo) Archivo {
	var a = Archivo{
		ID:              aDomain.ID,
		EntidadTipo:     aDomain.EntidadTipo,
		EntidadID:       aDomain.EntidadID,
		NombreOriginal:  aDomain.NombreOriginal,
		Extension:       aDomain.Extension,
		MimeType:        aDomain.MimeType,
		TamanoBytes:     aDomain.TamanoBytes,
		Categoria:       string(aDomain.Categoria),
		Estado:          string(aDomain.Estado),
		EsPublico:       aDomain.EsPublico,
		Version:         aDomain.Version,
		EsVersionActual: aDomain.EsVersionActual,
		ChecksumMD5:     aDomain.ChecksumMD5,
		URLDescarga:     aDomain.URLDescarga,
		URLExpiraEn:     aDomain.URLExpiraEn,
		Metadata:        aDomain.Metadata,
		CreadoPor:       aDomain.CreadoPor,
		CreatedAt:       aDomain.CreatedAt,
		UpdatedAt:       aDomain.UpdatedAt,
	}

	return a
}

func ToResponseArchivos(aDomain archivo.Archivos) Archivos {
	as := make(Archivos, len(aDomain))
	for idx, a := range aDomain {
		as[idx] = ToResponseArchivo(*a)
	}

	return as
}

func ToUploadRequest(r UploadRequest, actor string) ports.UploadRequest {
	return ports.UploadRequest{
		EntidadTipo:   r.EntidadTipo,
		EntidadID:     r.EntidadID,
		Categoria:     archivo.Categoria(r.Categoria),
		NombreArchivo: r.NombreArchivo,
		MimeType:      r.MimeType,
		TamanoBytes:   r.TamanoBytes,
		Metadata:      r.Metadata,
		EsObligatorio: r.EsObligatorio,
		Actor:         actor,
	}
}

func ToResponseTicket(t ports.UploadTicket) UploadTicket {
	return UploadTicket{
		ArchivoID:       t.ArchivoID,
		UploadURL:       t.UploadURL,
		ObjectKey:       t.ObjectKey,
		Bucket:          t.Bucket,
		ExpiresInSec:    t.ExpiresInSec,
		RequiredHeaders: t.RequiredHeaders,
	}
}

func ToResponseStats(s ports.StorageStats) StorageStats {
	out := StorageStats{
		TotalArchivos:  s.TotalArchivos,
		TotalBytes:     s.TotalBytes,
		PorCategoria:   make([]CategoriaStats, len(s.PorCategoria)),
		PorEntidadTipo: make([]EntidadStats, len(s.PorEntidadTipo)),
	}
	for idx, c := range s.PorCategoria {
		out.PorCategoria[idx] = CategoriaStats{
			Categoria:  string(c.Categoria),
			Cantidad:   c.Cantidad,
			TotalBytes: c.TotalBytes,
		}
	}
	for idx, e := range s.PorEntidadTipo {
		out.PorEntidadTipo[idx] = EntidadStats{
			EntidadTipo: e.EntidadTipo,
			Cantidad:    e.Cantidad,
			TotalBytes:  e.TotalBytes,
		}
	}

	return out
}

func ToResponseFormatos(fDomain formato.FormatosPermitidos) Formatos {
	fs := make(Formatos, len(fDomain))
	for idx, f := range fDomain {
		fs[idx] = Formato{
			Extension:      f.Extension,
			MimeType:       f.MimeType,
			Categoria:      string(f.Categoria),
			TamanoMaxBytes: f.TamanoMaximo,
		}
	}

	return fs
}

func ToResponseReport(r ports.StorageReport) StorageReport {
	out := StorageReport{
		GeneradoEn: r.GeneradoEn,
		Buckets:    make([]BucketReport, len(r.Buckets)),
	}
	for idx, b := range r.Buckets {
		out.Buckets[idx] = BucketReport{
			Bucket:          b.Bucket,
			MetadataBytes:   b.MetadataBytes,
			ObservedBytes:   b.ObservedBytes,
			MetadataCount:   b.MetadataCount,
			Discrepancia:    b.Discrepancia,
			HayDiscrepancia: b.HayDiscrepancia,
		}
	}

	return out
}

func ToResponseCleanup(s ports.CleanupSummary) CleanupSummary {
	return CleanupSummary{
		RetencionRevisados:  s.Retencion.Revisados,
		RetencionEliminados: s.Retencion.Eliminados,
		HuerfanosRevisados:  s.Huerfanos.Revisados,
		HuerfanosEliminados: s.Huerfanos.Eliminados,
		URLsInvalidadas:     s.URLsInvalidadas,
		TareasReenviadas:    s.TareasReenviadas,
	}
}
