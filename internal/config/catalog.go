package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// DatasetSpec declares one governed (source, dataset) pair: its selection
// strategy, optional baseline anchor, and whether it carries a season
// coverage dimension.
type DatasetSpec struct {
	Source   string `yaml:"source"`
	Dataset  string `yaml:"dataset"`
	Strategy string `yaml:"strategy"`
	Baseline string `yaml:"baseline,omitempty"`
	Coverage bool   `yaml:"coverage,omitempty"`
}

// BaselineDate parses the declared baseline anchor, if any.
func (d DatasetSpec) BaselineDate() (model.Date, error) {
	if d.Baseline == "" {
		return model.Date{}, nil
	}
	return model.ParseDate(d.Baseline)
}

// Catalog is the registry of known datasets. Manifests naming a
// (source, dataset) outside the catalog are rejected by the validator so a
// typo cannot open a silent gap.
type Catalog struct {
	Datasets []DatasetSpec `yaml:"datasets"`
}

// LoadCatalog reads a dataset catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrapf(err, "catalog: parse %s", path)
	}
	for _, d := range c.Datasets {
		if d.Source == "" || d.Dataset == "" {
			return nil, eris.Errorf("catalog: entry missing source or dataset in %s", path)
		}
		if _, err := d.BaselineDate(); err != nil {
			return nil, eris.Wrapf(err, "catalog: %s/%s baseline", d.Source, d.Dataset)
		}
	}
	return &c, nil
}

// Get returns the spec for (source, dataset).
func (c *Catalog) Get(source, dataset string) (DatasetSpec, bool) {
	for _, d := range c.Datasets {
		if d.Source == source && d.Dataset == dataset {
			return d, true
		}
	}
	return DatasetSpec{}, false
}

// Contains reports whether (source, dataset) is a cataloged pair.
func (c *Catalog) Contains(source, dataset string) bool {
	_, ok := c.Get(source, dataset)
	return ok
}
