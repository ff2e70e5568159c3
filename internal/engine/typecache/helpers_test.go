package typecache_test

import "go.trai.ch/strata/internal/core/domain"

func domainEntry(layer domain.LayerID, typeName string) domain.SourceEntry {
	return domain.SourceEntry{
		Layer:    layer,
		Path:     "/src/" + typeName,
		RelPath:  typeName + ".strata",
		TypeName: typeName,
	}
}
