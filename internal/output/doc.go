// Package output writes extracted records to the flat results file.
//
// The CSV sink is the primary persistence path: rows are flushed as
// sessions hand them over, so records found before a crash or an
// interrupt survive on disk. The header is written the moment the file
// is created, which makes an empty run distinguishable from a run that
// never started.
package output
