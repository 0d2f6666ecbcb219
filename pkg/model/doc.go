// Package model describes how typed models map onto store keys.
//
// A Registry associates each Go model type with a type name and an Extractor
// that derives Metadata (primary key value plus secondary indexes) from an
// instance. Key parts are encoded as order-preserving Values so they can be
// embedded in lexicographically sorted store keys.
//
//	reg := model.NewRegistry()
//	_ = model.Register(reg, "Adult", func(a *Adult) model.Metadata {
//	    return model.NewMetadata(model.ValueOf(a.Last, a.First),
//	        model.Index{Name: "birth", Value: model.ValueOf(a.Year)})
//	})
//
// HeapKeys resolves the Key of a model before it is written; the same
// primary key value always resolves to the same Key.
package model
