package sink

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/flight-fares/fare-harvester/internal/domain"
)

// Archive names under the output root.
const (
	OrigArchive    = "orig.zip"
	PreprocArchive = "preproc.zip"
)

// ArchiveResult counts the files added to each archive.
type ArchiveResult struct {
	Orig    int
	Preproc int
}

// Archive bundles the workbooks of one run folder: raw workbooks go to
// <dir>/orig.zip and preprocessed ones to <dir>/preproc.zip, both under
// <first_flight_date>/<collection_date>/. Entries with the same name are
// replaced; other entries are kept.
func Archive(fs afero.Fs, dir string, firstDate, collectDate time.Time) (ArchiveResult, error) {
	folder := domain.RunFolder(firstDate, collectDate)
	runDir := filepath.Join(dir, folder)

	entries, err := afero.ReadDir(fs, runDir)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("read %s: %w", runDir, err)
	}

	var orig, preproc []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		switch ext := strings.ToLower(filepath.Ext(name)); {
		case ext != ".xlsx" && ext != ".csv":
			continue
		case domain.IsPreprocFile(name):
			preproc = append(preproc, name)
		default:
			orig = append(orig, name)
		}
	}

	var res ArchiveResult
	if len(orig) > 0 {
		if err := addToZip(fs, filepath.Join(dir, OrigArchive), runDir, filepath.ToSlash(folder), orig); err != nil {
			return res, err
		}
		res.Orig = len(orig)
	}
	if len(preproc) > 0 {
		if err := addToZip(fs, filepath.Join(dir, PreprocArchive), runDir, filepath.ToSlash(folder), preproc); err != nil {
			return res, err
		}
		res.Preproc = len(preproc)
	}
	return res, nil
}

// addToZip rewrites zipPath with the existing entries plus the named files of
// srcDir placed under folder.
func addToZip(fs afero.Fs, zipPath, srcDir, folder string, names []string) error {
	sort.Strings(names)
	replaced := make(map[string]bool, len(names))
	for _, n := range names {
		replaced[path.Join(folder, n)] = true
	}

	var existing *zip.Reader
	if data, err := afero.ReadFile(fs, zipPath); err == nil {
		existing, err = zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return fmt.Errorf("open %s: %w", zipPath, err)
		}
	}

	return writeAtomic(fs, zipPath, func(out io.Writer) error {
		zw := zip.NewWriter(out)
		if existing != nil {
			for _, f := range existing.File {
				if replaced[f.Name] {
					continue
				}
				if err := zw.Copy(f); err != nil {
					return fmt.Errorf("copy %s: %w", f.Name, err)
				}
			}
		}
		for _, n := range names {
			if err := addFile(fs, zw, filepath.Join(srcDir, n), path.Join(folder, n)); err != nil {
				return err
			}
		}
		return zw.Close()
	})
}

func addFile(fs afero.Fs, zw *zip.Writer, src, name string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	out, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("compress %s: %w", src, err)
	}
	return nil
}

// Extract unpacks the workbook entries of a zip archive below destDir and
// returns the written paths, so callers can unlink them afterwards.
func Extract(fs afero.Fs, zipPath, destDir string) ([]string, error) {
	data, err := afero.ReadFile(fs, zipPath)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", zipPath, err)
	}

	root := filepath.Clean(destDir)
	var written []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// a rooted clean path cannot climb above destDir
		name := path.Clean("/" + f.Name)
		if name == "/" {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(name))
		if err := extractFile(fs, f, target); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

func extractFile(fs afero.Fs, f *zip.File, target string) error {
	if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := fs.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return nil
}

// Remove unlinks files, typically those returned by Extract. Missing files
// are ignored.
func Remove(fs afero.Fs, paths []string) error {
	for _, p := range paths {
		if err := fs.Remove(p); err != nil {
			if ok, _ := afero.Exists(fs, p); ok {
				return err
			}
		}
	}
	return nil
}
