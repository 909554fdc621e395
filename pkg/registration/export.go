package registration

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
)

// ErrNoRegistrations is returned by ExportCSV when the log is empty.
var ErrNoRegistrations = errors.New("registration: no registrations found")

// exportHeader is the column header of the CSV projection.
var exportHeader = []string{
	"Discord User ID",
	"Discord Username",
	"Provided Name",
	"Team Name",
	"Registration Date",
}

// ExportCSV renders the whole registration log as CSV. The projection is
// read-only; the log itself is never mutated.
func (m *Manager) ExportCSV(ctx context.Context) ([]byte, error) {
	doc, err := m.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if len(doc.Registrations) == 0 {
		return nil, ErrNoRegistrations
	}

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	for _, reg := range doc.Registrations {
		row := []string{
			reg.UserID,
			reg.DiscordName,
			reg.ProvidedName,
			reg.TeamName,
			reg.Timestamp.String(),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("error writing row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("error flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}
