// Package report exports the prediction history as text, HTML or JSON.
//
// Text and HTML output are rendered by pongo2 templates. The bundled
// templates can be overridden per name from a directory on disk. Titles and
// notes supplied by the caller are sanitised before they reach a template.
package report
