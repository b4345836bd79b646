package core

import (
	"fmt"
	"os"
	"path/filepath"
)

type ValidationError struct {
	Arg   string
	Cause string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Arg, e.Cause)
}

type ParsedPath struct {
	FullPath string
	Size     int64
}

// ParseArgs accepts exactly one regular file, matching the uploader which
// shares a single file per link.
func ParseArgs(args []string) (*ParsedPath, error) {
	if len(args) == 0 {
		return nil, &ValidationError{Arg: "<file>", Cause: "no file provided"}
	}
	if len(args) > 1 {
		return nil, &ValidationError{Arg: args[1], Cause: "only one file can be shared at a time"}
	}

	raw := args[0]
	p := filepath.Clean(raw)
	info, err := os.Stat(p)
	if err != nil {
		return nil, &ValidationError{Arg: raw, Cause: "not found or not accessible"}
	}
	if info.IsDir() {
		return nil, &ValidationError{Arg: raw, Cause: "is a directory"}
	}

	return &ParsedPath{FullPath: p, Size: info.Size()}, nil
}
