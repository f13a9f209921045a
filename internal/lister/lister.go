// Package lister enumerates the survey input files of a directory and opens
// them for the pipeline.
package lister

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// File is one input file and its size in bytes.
type File struct {
	Name string
	Size int64
}

// Listing is the ordered set of input files of a run.
type Listing struct {
	Dir   string
	Files []File
}

// Names returns the file names in read order.
func (l Listing) Names() []string {
	names := make([]string, 0, len(l.Files))
	for _, f := range l.Files {
		names = append(names, f.Name)
	}
	return names
}

// TotalBytes is the combined size of every listed file.
func (l Listing) TotalBytes() int64 {
	var total int64
	for _, f := range l.Files {
		total += f.Size
	}
	return total
}

// Lister reads input directories through an afero file system.
type Lister struct {
	fs afero.Fs
}

// New returns a Lister over fs; a nil fs means the OS file system.
func New(fs afero.Fs) *Lister {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Lister{fs: fs}
}

// List returns the regular, non-hidden files of dir sorted by name, so that
// repeated runs read records in the same order.
func (l *Lister) List(dir string) (Listing, error) {
	if strings.TrimSpace(dir) == "" {
		return Listing{}, fmt.Errorf("input directory is required")
	}
	infos, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return Listing{}, fmt.Errorf("list input directory: %w", err)
	}
	listing := Listing{Dir: dir}
	for _, info := range infos {
		if !info.Mode().IsRegular() || strings.HasPrefix(info.Name(), ".") {
			continue
		}
		listing.Files = append(listing.Files, File{Name: info.Name(), Size: info.Size()})
	}
	sort.Slice(listing.Files, func(i, j int) bool {
		return listing.Files[i].Name < listing.Files[j].Name
	})
	return listing, nil
}

// Open opens name relative to dir; it matches stream.Opener once bound.
func (l *Lister) Open(dir, name string) (io.ReadCloser, error) {
	f, err := l.fs.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	return f, nil
}

// Opener binds Open to the listing's directory.
func (l *Lister) Opener(dir string) func(name string) (io.ReadCloser, error) {
	return func(name string) (io.ReadCloser, error) {
		return l.Open(dir, name)
	}
}
