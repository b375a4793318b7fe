package rewriter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"vivassit/converter/internal/models"
)

// Load reads and decodes the workflow at path. Every failure is a *ParseError.
func Load(path string) (*models.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	wf, err := models.ParseWorkflow(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return wf, nil
}

// Store encodes wf and writes it to path through a temporary file in the
// same directory, renamed into place once fully written. An existing file at
// path is replaced. Every failure is a *WriteError and leaves no temp file.
func Store(path string, wf *models.Workflow) error {
	var buf bytes.Buffer
	if err := wf.Encode(&buf); err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("encode: %w", err)}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
