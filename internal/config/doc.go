// Package config provides the pipeline configuration and the utilities that
// load it from a YAML file, environment variables and XDG directories.
//
// Config is a value type. Callers copy it, change the copy and hand the copy
// to the pipeline, which swaps it in wholesale. There is no partial update.
package config
