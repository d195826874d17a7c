// Package output renders tenantgate-cli results as a table, JSON or YAML.
//
// Values rendered as tables implement Tabular; anything else falls back to
// a FIELD/VALUE listing of its exported fields.
package output
