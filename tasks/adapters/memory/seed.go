package memory

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"taskflow/tasks/core"
)

//go:embed seed/dataset.json
var defaultDataset []byte

//go:embed seed/dataset.schema.json
var datasetSchema []byte

const datasetSchemaURL = "dataset.schema.json"

// Dataset is the content of a mock seed file.
type Dataset struct {
	Categories []core.Category `json:"categories"`
	Tasks      []core.Task     `json:"tasks"`
}

// LoadDataset reads a seed file from path, or the bundled dataset when path
// is empty, and validates it before decoding.
func LoadDataset(path string) (Dataset, error) {
	data := defaultDataset
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Dataset{}, fmt.Errorf("read dataset: %w", err)
		}
	}
	return ParseDataset(data)
}

func ParseDataset(data []byte) (Dataset, error) {
	if err := validateDataset(data); err != nil {
		return Dataset{}, err
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("parse dataset: %w", err)
	}

	known := make(map[int64]bool, len(ds.Categories))
	for i := range ds.Categories {
		known[ds.Categories[i].ID] = true
		if ds.Categories[i].Color == "" {
			ds.Categories[i].Color = core.DefaultCategoryColor
		}
	}
	for i := range ds.Tasks {
		if cid := ds.Tasks[i].CategoryID; cid != nil && !known[*cid] {
			return Dataset{}, fmt.Errorf("invalid dataset: task %d references unknown category %d", ds.Tasks[i].ID, *cid)
		}
		if ds.Tasks[i].Priority == "" {
			ds.Tasks[i].Priority = core.PriorityMedium
		}
	}

	return ds, nil
}

func validateDataset(data []byte) error {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource(datasetSchemaURL, bytes.NewReader(datasetSchema)); err != nil {
		return fmt.Errorf("load dataset schema: %w", err)
	}

	schema, err := compiler.Compile(datasetSchemaURL)
	if err != nil {
		return fmt.Errorf("compile dataset schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse dataset: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid dataset: %w", err)
	}
	return nil
}
