package model

import "golang.org/x/text/unicode/norm"

// Normalize returns s in Unicode NFC form.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// NormalizeRecord normalizes every string column of r.
func NormalizeRecord(r EventRecord) EventRecord {
	r.File = Normalize(r.File)
	r.Component = Normalize(r.Component)
	r.Severity = Normalize(r.Severity)
	r.ClassificationKey = Normalize(r.ClassificationKey)
	return r
}
