// Package report extracts numeric metrics from the text reports printed by the
// external synthesis tools.
//
// Tool reports are line oriented. The summary of interest is the last non-empty
// line, made of `label = number` pairs. Every expected label must be present
// with a numeric value; otherwise a *domain.ParseError is returned and no
// partial result is produced.
package report
