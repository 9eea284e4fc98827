// Package trajectory loads recorded drive data from delimited text into an
// ordered, pre-decoded sequence of frames ready for playback.
package trajectory

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/frmini/drivelink/canframe"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Record is one row of a recording. Control is nil when the row's bytes
// could not be parsed or decoded under the configured layout; such rows are
// kept so their raw bytes can still be retransmitted.
type Record struct {
	Index   uint32
	FrameID string
	Data    []byte
	Control *canframe.ControlVector
}

// Options selects how rows are interpreted. The layout is fixed for the
// whole recording; it is never inferred from the data.
type Options struct {
	IDColumn   int
	DataColumn int
	StartRow   int
	Layout     canframe.Layout
}

type Stats struct {
	Loaded    int
	Malformed int
}

// Load parses a recording. Rows before StartRow are skipped without
// renumbering the rest. An empty frame-data cell marks the end of the
// recording. Rows that fail to parse or decode are kept and counted, never
// fatal.
func Load(r io.Reader, opts Options) ([]Record, Stats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, Stats{}, errors.Wrap(err, "unable to read recording")
	}
	if len(rows) == 0 {
		return nil, Stats{}, errors.New("recording is empty")
	}
	if opts.StartRow >= len(rows) {
		return nil, Stats{}, errors.Errorf("start row %d out of range (%d rows)",
			opts.StartRow, len(rows))
	}

	maxCol := opts.IDColumn
	if opts.DataColumn > maxCol {
		maxCol = opts.DataColumn
	}

	var stats Stats
	records := make([]Record, 0, len(rows)-opts.StartRow)
	for i, row := range rows[opts.StartRow:] {
		rowIdx := opts.StartRow + i
		if len(row) <= maxCol {
			return nil, Stats{}, errors.Errorf("row %d has %d columns, need %d",
				rowIdx, len(row), maxCol+1)
		}

		dataCell := strings.TrimSpace(row[opts.DataColumn])
		if dataCell == "" {
			log.WithField("row", rowIdx).Info("empty frame data, recording ends here")
			break
		}

		rec := Record{
			Index:   uint32(rowIdx),
			FrameID: strings.TrimSpace(row[opts.IDColumn]),
		}
		if data, err := canframe.ParseHex(dataCell); err != nil {
			stats.Malformed++
			log.WithField("row", rowIdx).WithField("err", err).Debug("unparseable frame data")
		} else {
			rec.Data = data
			if cv, err := canframe.Decode(opts.Layout, data); err != nil {
				stats.Malformed++
				log.WithField("row", rowIdx).WithField("err", err).Debug("undecodable frame")
			} else {
				rec.Control = &cv
			}
		}
		records = append(records, rec)
	}

	stats.Loaded = len(records)
	log.WithField("records", stats.Loaded).
		WithField("malformed", stats.Malformed).
		Info("recording loaded")
	return records, stats, nil
}
