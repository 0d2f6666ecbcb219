package cli

import (
	"encoding/json"

	"github.com/rzbill/modeldb/pkg/model"
)

// DocumentType is the registered type name of Document.
const DocumentType = "Document"

// TagIndex is the index Document tags are stored under.
const TagIndex = "tag"

// Document is the model managed by the CLI.
type Document struct {
	ID   string          `json:"id"`
	Tags []string        `json:"tags,omitempty"`
	Body json.RawMessage `json:"body,omitempty"`
}

func documentMetadata(d *Document) model.Metadata {
	indexes := make([]model.Index, 0, len(d.Tags))
	for _, tag := range d.Tags {
		indexes = append(indexes, model.Index{Name: TagIndex, Value: model.ValueOf(tag)})
	}
	return model.NewMetadata(model.ValueOf(d.ID), indexes...)
}

// NewRegistry returns a registry holding the Document type.
func NewRegistry() *model.Registry {
	reg := model.NewRegistry()
	if err := model.Register(reg, DocumentType, documentMetadata); err != nil {
		panic(err)
	}
	return reg
}

// DocumentKey returns the key of the document with the given id.
func DocumentKey(id string) model.Key {
	return model.Key{Type: DocumentType, ID: model.ValueOf(id)}
}
