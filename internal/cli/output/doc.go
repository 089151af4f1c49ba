// Package output renders rawhttpd command results.
//
// Three formats are supported:
//
//   - table: aligned columns via text/tabwriter (the default)
//   - json: indented JSON
//   - yaml: YAML via go.yaml.in/yaml/v3
//
// Slices of structs become one row per element with a column per exported
// field. Fields tagged json:"-" or table:"-" are never shown, and fields
// tagged table:"wide" only appear in wide mode. Maps become sorted
// KEY/VALUE tables.
package output
