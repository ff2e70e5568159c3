package domain

import "time"

// FileStat is the subset of file metadata the build engine looks at.
type FileStat struct {
	Name    string
	IsDir   bool
	ModTime time.Time
}
