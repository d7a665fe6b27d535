package colcrypt

import (
	"errors"
	"fmt"
	"log/slog"
)

// DefaultPlaceholder is what DecryptRow puts in a cell it could not decrypt.
const DefaultPlaceholder = "[ENCRYPTED]"

// Column describes one column of a table as the storage layer sees it.
type Column struct {
	Name      string
	Encrypted bool
}

// Table is the schema metadata a RowCodec needs: the table name and its
// columns in storage order.
type Table struct {
	Name    string
	Columns []Column
}

// RowCodec applies column encryption to whole rows for one table.
// Values are positional and must follow Table.Columns; nil is NULL.
//
// Storage that writes NULL as an empty string (CSV files, for example)
// should build the Service with WithEmptyStringAsNull. Otherwise every
// NULL cell of an encrypted column reads back as a failed decryption.
type RowCodec struct {
	svc         *Service
	table       Table
	columnIDs   []string
	placeholder string
}

// RowOption configures a RowCodec.
type RowOption func(*RowCodec)

// WithPlaceholder sets the value substituted for cells that fail to decrypt.
func WithPlaceholder(p string) RowOption {
	return func(rc *RowCodec) {
		rc.placeholder = p
	}
}

// RowCodec returns a codec for table backed by s.
func (s *Service) RowCodec(table Table, opts ...RowOption) *RowCodec {
	ids := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		ids[i] = ColumnID(table.Name, col.Name)
	}
	rc := &RowCodec{
		svc:         s,
		table:       table,
		columnIDs:   ids,
		placeholder: DefaultPlaceholder,
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Table returns the schema the codec was built for.
func (rc *RowCodec) Table() Table {
	return rc.table
}

// EncryptRow returns a copy of row with every encrypted, non-NULL column sealed.
// Any error fails the whole row; nothing partially encrypted is returned.
func (rc *RowCodec) EncryptRow(row []*string) ([]*string, error) {
	if len(row) != len(rc.table.Columns) {
		return nil, fmt.Errorf("colcrypt: table %s has %d columns, row has %d",
			rc.table.Name, len(rc.table.Columns), len(row))
	}

	out := make([]*string, len(row))
	for i, col := range rc.table.Columns {
		if !col.Encrypted {
			out[i] = row[i]
			continue
		}
		v, err := rc.svc.EncryptValue(rc.columnIDs[i], row[i])
		if err != nil {
			return nil, fmt.Errorf("encrypt %s: %w", rc.columnIDs[i], err)
		}
		out[i] = v
	}
	return out, nil
}

// DecryptRow returns a copy of row with every encrypted, non-NULL column opened.
//
// A cell that fails to decrypt becomes the placeholder so one bad value
// cannot make the table unreadable. The failures are returned joined as
// *DecryptionError values (Index is the column position) for callers that
// want to count or surface them; the returned row is usable either way.
// Only ErrServiceClosed or a column-count mismatch yields a nil row.
func (rc *RowCodec) DecryptRow(row []*string) ([]*string, error) {
	if len(row) != len(rc.table.Columns) {
		return nil, fmt.Errorf("colcrypt: table %s has %d columns, row has %d",
			rc.table.Name, len(rc.table.Columns), len(row))
	}

	out := make([]*string, len(row))
	var errs []error
	for i, col := range rc.table.Columns {
		if !col.Encrypted || rc.svc.isNull(row[i]) {
			out[i] = row[i]
			continue
		}
		plaintext, err := rc.svc.decrypt(rc.columnIDs[i], *row[i], i)
		if err != nil {
			if !IsDecryptionError(err) {
				return nil, err
			}
			errs = append(errs, err)
			p := rc.placeholder
			out[i] = &p
			continue
		}
		out[i] = &plaintext
	}
	return out, errors.Join(errs...)
}

// DecryptRows decrypts a result set row by row and returns the number of
// cells replaced by the placeholder.
func (rc *RowCodec) DecryptRows(rows [][]*string) ([][]*string, int, error) {
	out := make([][]*string, len(rows))
	failed := 0
	for i, row := range rows {
		dec, err := rc.DecryptRow(row)
		if dec == nil {
			return nil, failed, err
		}
		if err != nil {
			n := countDecryptionErrors(err)
			failed += n
			rc.svc.config.logger.Debug("row decrypted with placeholders",
				slog.String("table", rc.table.Name),
				slog.Int("row", i),
				slog.Int("cells", n),
			)
		}
		out[i] = dec
	}
	return out, failed, nil
}

// countDecryptionErrors counts the *DecryptionError values in a joined error.
func countDecryptionErrors(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		n := 0
		for _, e := range joined.Unwrap() {
			n += countDecryptionErrors(e)
		}
		return n
	}
	if IsDecryptionError(err) {
		return 1
	}
	return 0
}
