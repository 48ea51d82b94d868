// Package validate implements the rule-based configuration validators
// referenced in spec §4.6 Phase A step 1: absolute path, enum,
// boolean-as-01, unsigned int, SID token, and memory-value format.
// Validators never panic or throw -- each returns a descriptive error
// the caller (pkg/config) collects and converts into a configuration-
// error exit per spec §7.
package validate
