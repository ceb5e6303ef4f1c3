package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// resolveFormat normalizes the requested figure format, inferring it from
// the path extension when empty. The returned path gains an ".svg"
// extension when neither format nor extension is given.
func resolveFormat(path, format string) (string, string, error) {
	f := strings.ToLower(strings.TrimPrefix(format, "."))
	if f == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			f = "svg"
		case ".png":
			f = "png"
		default:
			f = "svg" // safe default
			if path != "" && filepath.Ext(path) == "" {
				path += ".svg"
			}
		}
	}
	if f != "svg" && f != "png" {
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", f)
	}
	if path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	return path, f, nil
}
