// Package pfile builds and sanitizes Oracle text init parameter files
// (PFILEs). It covers two steps of Phase B (spec §4.6 steps 6 and 8):
// rendering the minimal bootstrap PFILE used for the first NOMOUNT, and
// sanitizing the PFILE dumped from the restored SPFILE into one safe to
// mount the cloned database with -- replacing identity and path
// parameters, applying the computed memory targets, and optionally
// dropping underscore-prefixed hidden parameters.
//
// Templates are rendered with github.com/a8m/envsubst so the parameter
// skeleton reads like the PFILE text a DBA would hand-edit, with
// ${VAR}-style placeholders instead of Go's text/template syntax.
package pfile
