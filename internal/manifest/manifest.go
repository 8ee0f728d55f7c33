package manifest

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/gridiron-data/warehouse-cli/internal/model"
)

// FileName is the sidecar file written next to a partition's data files.
const FileName = "manifest.json"

// PartitionDir returns the directory holding one snapshot partition:
// <root>/<source>/<dataset>/snapshot_date=YYYY-MM-DD.
func PartitionDir(root, source, dataset string, date model.Date) string {
	return filepath.Join(root, source, dataset, "snapshot_date="+date.String())
}

// Path returns the sidecar path for one snapshot partition.
func Path(root, source, dataset string, date model.Date) string {
	return filepath.Join(PartitionDir(root, source, dataset, date), FileName)
}

// Read parses a manifest sidecar file.
func Read(path string) (*model.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "manifest: read %s", path)
	}
	var m model.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "manifest: parse %s", path)
	}
	return &m, nil
}

// ReadPartition reads the sidecar for one (source, dataset, date) partition
// under the warehouse root.
func ReadPartition(root, source, dataset string, date model.Date) (*model.Manifest, error) {
	return Read(Path(root, source, dataset, date))
}

// Write creates the sidecar for a partition. Manifests are immutable once
// written: an existing file is an error, never overwritten. A producer that
// needs different contents writes a new snapshot_date.
func Write(root string, m *model.Manifest) (string, error) {
	dir := PartitionDir(root, m.Source, m.Dataset, m.SnapshotDate)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "manifest: mkdir %s", dir)
	}
	path := filepath.Join(dir, FileName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", eris.Errorf("manifest: %s already exists (manifests are immutable)", path)
		}
		return "", eris.Wrapf(err, "manifest: create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return "", eris.Wrapf(err, "manifest: encode %s", path)
	}
	return path, nil
}

// Discover walks the warehouse root and returns the path of every manifest
// sidecar found. Unreadable or malformed sidecars are the validator's
// problem, not Discover's; it only lists them.
func Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == FileName {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "manifest: walk %s", root)
	}
	return paths, nil
}
