// Package params resolves a matched tool's parameter schema against the
// raw query text. Resolution always succeeds: extraction misses fall
// back to schema defaults and extraction panics are swallowed, so intent
// routing never fails on a bad parameter.
package params

import (
	"github.com/rs/zerolog/log"

	contractx "github.com/lenoxhq/lenox/agent/contract"
	toolx "github.com/lenoxhq/lenox/agent/tool"
)

// Resolve walks the descriptor's schema and produces a usable parameter
// set for the query. Constant parameters take their fixed default,
// entity parameters go through the extractor with a default fallback,
// free-text parameters stay empty, and list parameters wrap the single
// resolved value.
func Resolve(desc *toolx.Descriptor, query string, extractor contractx.EntityExtractor) contractx.Params {
	resolved := make(contractx.Params, len(desc.Params))
	for name, spec := range desc.Params {
		switch spec.Kind {
		case contractx.ParamConstant:
			resolved[name] = spec.Default
		case contractx.ParamEntity:
			resolved[name] = extractOrDefault(extractor, query, spec)
		case contractx.ParamFreeText:
			resolved[name] = ""
		case contractx.ParamList:
			resolved[name] = []string{extractOrDefault(extractor, query, spec)}
		default:
			resolved[name] = spec.Default
		}
	}
	return resolved
}

func extractOrDefault(extractor contractx.EntityExtractor, query string, spec contractx.ParamSpec) string {
	value := safeExtract(extractor, query, spec.Entity)
	if value == "" {
		return spec.Default
	}
	return value
}

// safeExtract shields resolution from a misbehaving extractor: any
// panic is treated as a miss.
func safeExtract(extractor contractx.EntityExtractor, text, entityType string) (value string) {
	if extractor == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("entity", entityType).Any("panic", r).Msg("entity extractor panicked")
			value = ""
		}
	}()
	return extractor.Extract(text, entityType)
}
