// Package confloader loads configuration with koanf and watches config
// files with fsnotify.
//
// Sources, later ones overriding earlier ones:
//
//  1. Values already present in the target struct (defaults)
//  2. A YAML configuration file
//  3. Environment variables (TENANTGATE_ prefix)
//  4. Maps supplied by the caller, typically command-line flags
//
// Environment names map to keys by lower-casing and turning "_" into ".".
// A doubled underscore stands for a literal one:
// TENANTGATE_STORAGE_DATA__DIR sets storage.data_dir.
package confloader
