package model

// Source names the tool a listener record was parsed from.
type Source string

const (
	SourceSS      Source = "ss"
	SourceLsof    Source = "lsof"
	SourceNetstat Source = "netstat"
	SourceProcNet Source = "procfs"
)
