package types

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// FileConverter opens the named file according to its parameters. The
// argument "-" selects standard input for read modes and standard output
// for write modes.
//
// Encoding and Errors are carried so that the parameters round-trip; files
// are opened as raw bytes.
type FileConverter struct {
	Params FileParams

	// Stdin and Stdout replace the process streams for "-". Nil means
	// os.Stdin and os.Stdout.
	Stdin  io.Reader
	Stdout io.Writer
}

// NewFileConverter returns a converter for p, filling in defaults for an
// empty mode and a zero buffer size.
func NewFileConverter(p *FileParams) *FileConverter {
	params := DefaultFileParams()
	if p != nil {
		params = *p
		if params.Mode == "" {
			params.Mode = "r"
		}
		if params.BufSize == 0 {
			params.BufSize = -1
		}
	}
	return &FileConverter{Params: params}
}

// Convert implements [Converter]. It returns an io.Reader, io.Writer, or
// *os.File depending on mode.
func (f *FileConverter) Convert(path string) (any, error) {
	if path == "-" {
		if strings.ContainsRune(f.Params.Mode, 'r') {
			if f.Stdin != nil {
				return f.Stdin, nil
			}
			return os.Stdin, nil
		}
		if strings.ContainsAny(f.Params.Mode, "wax") {
			if f.Stdout != nil {
				return f.Stdout, nil
			}
			return os.Stdout, nil
		}
		return nil, fmt.Errorf("argument \"-\" with mode %q", f.Params.Mode)
	}

	flag, err := openFlags(f.Params.Mode)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("can't open %q: %w", path, err)
	}
	return file, nil
}

// TypeRef implements [Referencer].
func (f *FileConverter) TypeRef() Ref { return FileTypeRef() }

func openFlags(mode string) (int, error) {
	var flag int
	switch {
	case strings.ContainsRune(mode, 'r'):
		flag = os.O_RDONLY
	case strings.ContainsRune(mode, 'w'):
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case strings.ContainsRune(mode, 'a'):
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case strings.ContainsRune(mode, 'x'):
		flag = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	default:
		return 0, fmt.Errorf("invalid file mode %q", mode)
	}
	if strings.ContainsRune(mode, '+') {
		flag &^= os.O_RDONLY | os.O_WRONLY
		flag |= os.O_RDWR
	}
	return flag, nil
}
