// Package form evaluates the visibility of every field of a document type
// against a document, expanding array items into keyed value paths and
// collecting the unset patches hidden fields request.
package form
