package tui

var (
	BuildTree   = buildTree
	FlattenTree = flattenTree
	Truncate    = truncate
)
