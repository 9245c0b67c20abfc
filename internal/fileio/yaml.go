package fileio

import (
	"io"

	"github.com/goccy/go-yaml"

	"pricebook-recon/internal/reconcile/model"
)

func readYAML(r io.Reader) (model.Snapshot, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return model.Snapshot{}, err
	}
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return model.Snapshot{}, err
	}
	return fromDocument(doc)
}
