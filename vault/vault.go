// Package vault gives the engine a host-independent view of the user's
// notes: a document store capability plus the context builder that turns
// documents into a prompt-injectable block.
package vault

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// DocumentRef identifies a document without its content.
type DocumentRef struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Document is a fully loaded document.
type Document struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Vault is the document-store capability the engine consumes. The host
// application (editor, CLI harness, test fixture) provides the
// implementation.
type Vault interface {
	// ListDocuments returns all documents in the vault.
	ListDocuments() ([]DocumentRef, error)

	// ReadDocument returns the content of the document at path.
	ReadDocument(path string) (string, error)

	// ActiveDocument returns the currently open document, or nil if none.
	ActiveDocument() *DocumentRef

	// Selection returns the current text selection, or "" if none.
	Selection() string
}

// DirVault is a filesystem-backed Vault over a directory of markdown notes.
// Paths are relative to the root, using forward slashes.
type DirVault struct {
	root      string
	active    *DocumentRef
	selection string
}

// NewDirVault creates a DirVault rooted at dir.
func NewDirVault(dir string) (*DirVault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve vault root", goerr.V("dir", dir))
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, goerr.Wrap(err, "vault root does not exist", goerr.V("dir", abs))
	}
	if !info.IsDir() {
		return nil, goerr.New("vault root is not a directory", goerr.V("dir", abs))
	}

	return &DirVault{root: abs}, nil
}

// SetActive marks the document at path as the active one.
func (v *DirVault) SetActive(path string) {
	v.active = &DocumentRef{Path: path, Name: filepath.Base(path)}
}

// SetSelection sets the current text selection.
func (v *DirVault) SetSelection(text string) {
	v.selection = text
}

// ListDocuments implements Vault. Only markdown files are listed; hidden
// directories are skipped.
func (v *DirVault) ListDocuments() ([]DocumentRef, error) {
	var refs []DocumentRef

	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") && path != v.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".md") {
			return nil
		}

		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		refs = append(refs, DocumentRef{
			Path: filepath.ToSlash(rel),
			Name: name,
		})
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to walk vault", goerr.V("root", v.root))
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Path < refs[j].Path })
	return refs, nil
}

// ReadDocument implements Vault.
func (v *DirVault) ReadDocument(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(v.root, filepath.FromSlash(path)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to read document", goerr.V("path", path))
	}
	return string(data), nil
}

// ActiveDocument implements Vault.
func (v *DirVault) ActiveDocument() *DocumentRef {
	return v.active
}

// Selection implements Vault.
func (v *DirVault) Selection() string {
	return v.selection
}
