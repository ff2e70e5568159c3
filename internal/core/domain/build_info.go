package domain

import (
	"cmp"
	"slices"
	"time"
)

// BuildInfo is the layer-scoped metadata persisted after a compile.
type BuildInfo struct {
	Runtime      string    `json:"runtime,omitzero"`
	Layer        string    `json:"layer,omitzero"`
	Position     int       `json:"position"`
	Compiled     bool      `json:"compiled,omitzero"`
	LastCompiled time.Time `json:"last_compiled,omitzero"`
	Jars         []string  `json:"jars,omitempty"`
	MainClasses  []string  `json:"main_classes,omitempty"`
	Classpath    []string  `json:"classpath,omitempty"`
}

// Key returns the store key for the info.
func (b BuildInfo) Key() string {
	return BuildInfoKey(b.Runtime, b.Layer)
}

// BuildInfoKey returns the store key for a runtime and layer.
func BuildInfoKey(runtime, layer string) string {
	return runtime + "/" + layer
}

// MergeBuildInfo folds infos in ascending position order. Lists keep their first occurrence.
// The merged Layer is the most specific layer seen.
func MergeBuildInfo(infos []*BuildInfo) BuildInfo {
	var merged BuildInfo
	seenJar := make(map[string]struct{})
	seenMain := make(map[string]struct{})
	seenCP := make(map[string]struct{})

	ordered := make([]*BuildInfo, 0, len(infos))
	for _, info := range infos {
		if info != nil {
			ordered = append(ordered, info)
		}
	}
	slices.SortStableFunc(ordered, func(a, b *BuildInfo) int {
		return cmp.Compare(a.Position, b.Position)
	})

	for _, info := range ordered {
		merged.Runtime = info.Runtime
		merged.Layer = info.Layer
		merged.Position = info.Position
		merged.Compiled = info.Compiled
		if info.LastCompiled.After(merged.LastCompiled) {
			merged.LastCompiled = info.LastCompiled
		}
		merged.Jars = appendUnique(merged.Jars, info.Jars, seenJar)
		merged.MainClasses = appendUnique(merged.MainClasses, info.MainClasses, seenMain)
		merged.Classpath = appendUnique(merged.Classpath, info.Classpath, seenCP)
	}
	return merged
}

func appendUnique(dst, src []string, seen map[string]struct{}) []string {
	for _, s := range src {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}
