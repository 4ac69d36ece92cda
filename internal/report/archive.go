package report

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

type entry struct {
	name string
	data []byte
}

func zipEntries(modified time.Time, entries []entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// ArchiveName embeds the generation minute so successive reports do not collide.
func ArchiveName(t time.Time) string {
	return "memberhub-report-" + t.UTC().Format("2006-01-02-15-04") + ".zip"
}
