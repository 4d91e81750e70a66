package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FranksOps/scholartrend/internal/query"
)

// WriteSearchInfo records the keywords and combinator of a run.
func WriteSearchInfo(w io.Writer, q query.Query) error {
	_, err := fmt.Fprintf(w, "Keywords: %s\nFilter Type: %s\n", strings.Join(q.Terms(), ", "), q.Combinator())
	if err != nil {
		return fmt.Errorf("write search info: %w", err)
	}
	return nil
}

// WriteSearchInfoFile writes the search info to path, creating parent
// directories as needed.
func WriteSearchInfoFile(path string, q query.Query) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create search info: %w", err)
	}
	if err := WriteSearchInfo(f, q); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
