package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRowNotFound signals a report lookup for a URL not in the run.
	ErrRowNotFound = errors.New("row not found")
	// ErrRunNotReady signals that the scoring run has not completed yet.
	ErrRunNotReady = errors.New("run not ready")
)

// FetchError is a per-URL fetch failure. It never aborts the run;
// the URL ends up excluded from the corpus.
type FetchError struct {
	URL    string
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError creates a fetch error for the given URL.
func NewFetchError(url string, status int, err error) error {
	return &FetchError{URL: url, Status: status, Err: err}
}

// DecodeError is a per-document normalization failure, typically an
// undecodable charset. Like FetchError it only excludes the document.
type DecodeError struct {
	URL     string
	Charset string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Charset != "" {
		return fmt.Sprintf("decode %s as %s: %v", e.URL, e.Charset, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NewDecodeError creates a decode error for the given URL.
func NewDecodeError(url, charset string, err error) error {
	return &DecodeError{URL: url, Charset: charset, Err: err}
}

// Recoverable reports whether err is a per-document failure that the
// run survives, as opposed to a run-fatal condition.
func Recoverable(err error) bool {
	var fe *FetchError
	var de *DecodeError
	return errors.As(err, &fe) || errors.As(err, &de)
}

// IndexBuildError aborts the whole run: the corpus cannot be indexed.
// The canonical cause is a document containing the sentinel byte.
type IndexBuildError struct {
	Doc    int // corpus position of the offending document, -1 if unknown
	Reason string
}

func (e *IndexBuildError) Error() string {
	if e.Doc < 0 {
		return fmt.Sprintf("index build: %s", e.Reason)
	}
	return fmt.Sprintf("index build: document %d: %s", e.Doc, e.Reason)
}

// NewIndexBuildError creates a run-fatal index construction error.
func NewIndexBuildError(doc int, reason string) error {
	return &IndexBuildError{Doc: doc, Reason: reason}
}

// ConfigError rejects a run before it starts.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// NewConfigError creates a startup configuration error.
func NewConfigError(field, reason string) error {
	return &ConfigError{Field: field, Reason: reason}
}
