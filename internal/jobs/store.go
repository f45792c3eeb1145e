package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/deck"
	"github.com/deva-0608/dataslide/internal/utils"
)

// Layout of the storage root.
const (
	UploadsDir = "uploads"
	OutputsDir = "outputs"

	StatusFile          = "status.txt"
	DescriptionFile     = "description.json"
	InsightsFile        = "insights.json"
	FeatureInsightsFile = "feature_insights.json"
	ErrorFile           = "error.json"
	ClaimFile           = ".claim"
	PlotsDir            = "plots"
)

var canonicalInput = glob.MustCompile("input.{csv,xlsx,xls}")

// Store is the filesystem substrate jobs are coordinated through. All job
// state is derived from what it finds on disk.
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore returns a Store rooted at root on the OS filesystem.
func NewStore(root string) *Store {
	return NewStoreFs(afero.NewOsFs(), root)
}

// NewStoreFs returns a Store over an arbitrary afero filesystem. Only store
// operations (markers, claims, failure records, artifacts written through
// WriteArtifact) go through fsys. A Pipeline reads inputs and writes charts and
// the preview manifest with plain OS paths, so running one needs an OS-backed
// Store.
func NewStoreFs(fsys afero.Fs, root string) *Store {
	return &Store{fs: fsys, root: root}
}

// Root returns the storage root.
func (s *Store) Root() string { return s.root }

// UploadsRoot is the directory holding one subdirectory per job.
func (s *Store) UploadsRoot() string { return filepath.Join(s.root, UploadsDir) }

// UploadDir returns the upload directory of a job.
func (s *Store) UploadDir(id string) string { return filepath.Join(s.root, UploadsDir, id) }

// OutputDir returns the output directory of a job.
func (s *Store) OutputDir(id string) string { return filepath.Join(s.root, OutputsDir, id) }

// ListJobs returns the job ids under uploads/, sorted. A missing uploads
// directory yields no jobs.
func (s *Store) ListJobs() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.UploadsRoot())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	var ids []string
	for _, fi := range infos {
		if fi.IsDir() && !strings.HasPrefix(fi.Name(), ".") {
			ids = append(ids, fi.Name())
		}
	}
	return ids, nil
}

// FindInput locates the tabular input of a job. input.<ext> wins over any
// other supported file; within each group csv beats xlsx beats xls. ok is
// false when the job has no supported input yet.
func (s *Store) FindInput(id string) (path string, ok bool, err error) {
	infos, err := afero.ReadDir(s.fs, s.UploadDir(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("list upload %s: %w", id, err)
	}
	var named, other []string
	for _, fi := range infos {
		if fi.IsDir() || !dataset.Supported(fi.Name()) {
			continue
		}
		if canonicalInput.Match(strings.ToLower(fi.Name())) {
			named = append(named, fi.Name())
		} else {
			other = append(other, fi.Name())
		}
	}
	for _, group := range [][]string{named, other} {
		for _, ext := range dataset.SupportedExtensions() {
			for _, name := range group {
				if strings.EqualFold(filepath.Ext(name), ext) {
					return filepath.Join(s.UploadDir(id), name), true, nil
				}
			}
		}
	}
	return "", false, nil
}

// SaveUpload writes r as uploads/<id>/input.<ext>. The file becomes visible
// under its final name only once fully written.
func (s *Store) SaveUpload(id, ext string, r io.Reader) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	dir := s.UploadDir(id)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	dst := filepath.Join(dir, "input."+ext)
	tmp := dst + ".part"
	f, err := s.fs.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := s.fs.Rename(tmp, dst); err != nil {
		_ = s.fs.Remove(tmp)
		return "", fmt.Errorf("publish upload: %w", err)
	}
	return dst, nil
}

// ReadStatus returns the status marker of a job. ok is false when no
// marker exists.
func (s *Store) ReadStatus(id string) (st State, ok bool, err error) {
	b, err := afero.ReadFile(s.fs, filepath.Join(s.OutputDir(id), StatusFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read status: %w", err)
	}
	st, err = ParseState(string(b))
	if err != nil {
		return "", true, err
	}
	return st, true, nil
}

// WriteStatus atomically replaces the status marker.
func (s *Store) WriteStatus(id string, st State) error {
	if err := s.writeAtomic(filepath.Join(s.OutputDir(id), StatusFile), []byte(st)); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

// WriteArtifact writes v as pretty JSON to outputs/<id>/<name>.
func (s *Store) WriteArtifact(id, name string, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	if err := s.writeAtomic(filepath.Join(s.OutputDir(id), name), append(b, '\n')); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ReadArtifact returns the raw bytes of an output file.
func (s *Store) ReadArtifact(id, name string) ([]byte, error) {
	return afero.ReadFile(s.fs, filepath.Join(s.OutputDir(id), name))
}

// OpenArtifact opens an output file for streaming.
func (s *Store) OpenArtifact(id, name string) (afero.File, error) {
	return s.fs.Open(filepath.Join(s.OutputDir(id), name))
}

// JobExists reports whether an upload or output directory exists for id.
func (s *Store) JobExists(id string) bool {
	for _, dir := range []string{s.UploadDir(id), s.OutputDir(id)} {
		if ok, err := afero.DirExists(s.fs, dir); err == nil && ok {
			return true
		}
	}
	return false
}

// HasArtifacts reports whether the analysis and insights documents exist.
func (s *Store) HasArtifacts(id string) bool {
	for _, name := range []string{DescriptionFile, InsightsFile} {
		if ok, err := afero.Exists(s.fs, filepath.Join(s.OutputDir(id), name)); err != nil || !ok {
			return false
		}
	}
	return true
}

// RemovePartial deletes every artifact a failed run may have left behind.
// The status marker, error record and claim are kept.
func (s *Store) RemovePartial(id string) error {
	dir := s.OutputDir(id)
	var err error
	for _, name := range []string{DescriptionFile, InsightsFile, FeatureInsightsFile, deck.ManifestFile, PlotsDir} {
		err = multierr.Append(err, s.fs.RemoveAll(filepath.Join(dir, name)))
	}
	return err
}

// Claim creates the claim marker for a job if absent. It fails with
// ErrClaimed when the marker already exists.
func (s *Store) Claim(id, owner string) error {
	dir := s.OutputDir(id)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := s.fs.OpenFile(filepath.Join(dir, ClaimFile), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrClaimed
		}
		return fmt.Errorf("claim %s: %w", id, err)
	}
	_, werr := f.Write([]byte(owner))
	return multierr.Append(werr, f.Close())
}

// Release removes a claim held by owner.
func (s *Store) Release(id, owner string) error {
	p := filepath.Join(s.OutputDir(id), ClaimFile)
	b, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read claim: %w", err)
	}
	if string(b) != owner {
		return ErrNotOwner
	}
	return s.fs.Remove(p)
}

// WriteFailure records why a job failed.
func (s *Store) WriteFailure(id string, f Failure) error {
	return s.WriteArtifact(id, ErrorFile, f)
}

// ReadFailure loads error.json. ok is false when it does not exist.
func (s *Store) ReadFailure(id string) (f *Failure, ok bool, err error) {
	b, err := s.ReadArtifact(id, ErrorFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read failure: %w", err)
	}
	var rec Failure
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, true, fmt.Errorf("decode failure: %w", err)
	}
	return &rec, true, nil
}

// ClearFailure removes a stale error record.
func (s *Store) ClearFailure(id string) error {
	err := s.fs.Remove(filepath.Join(s.OutputDir(id), ErrorFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) writeAtomic(path string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}
