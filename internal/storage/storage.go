package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"voice-timelog-go/internal/apperrors"
	"voice-timelog-go/internal/config"
	"voice-timelog-go/internal/types"
)

// Header is the first row of every meeting log sheet.
var Header = []string{"Timestamp", "Customer Name", "Meeting Date", "Start Time", "End Time", "Total Hours", "Notes"}

// Confirmation identifies the appended row.
type Confirmation struct {
	RowReference string `json:"row_reference"`
}

// Port appends one meeting row to the log.
type Port interface {
	Store(ctx context.Context, row types.Row) (Confirmation, error)
}

// SheetStore appends rows to a sheet of a local .xlsx workbook. Each Store
// opens, updates and saves the file while holding mu.
type SheetStore struct {
	path            string
	sheet           string
	createIfMissing bool
	log             *logrus.Entry

	mu sync.Mutex
}

func NewSheetStore(cfg config.StorageConfig, log *logrus.Entry) *SheetStore {
	sheet := cfg.SheetName
	if sheet == "" {
		sheet = "Meeting Logs"
	}
	return &SheetStore{
		path:            cfg.WorkbookPath,
		sheet:           sheet,
		createIfMissing: cfg.CreateIfMissing,
		log:             log.WithFields(logrus.Fields{"module": "storage", "workbook": cfg.WorkbookPath, "sheet": sheet}),
	}
}

func (s *SheetStore) Path() string  { return s.path }
func (s *SheetStore) Sheet() string { return s.sheet }

// Initialize makes sure the workbook, sheet and header row exist. Calling it
// again on a ready workbook changes nothing.
func (s *SheetStore) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return apperrors.StorageTransport("initialize cancelled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	changed, err := s.ensureSheet(f)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(f)
}

func (s *SheetStore) Store(ctx context.Context, row types.Row) (Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return Confirmation{}, apperrors.StorageTransport("store cancelled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return Confirmation{}, err
	}
	defer f.Close()

	if _, err := s.ensureSheet(f); err != nil {
		return Confirmation{}, err
	}
	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return Confirmation{}, apperrors.StorageTransport("read rows", err)
	}
	next := len(rows) + 1

	start, _ := excelize.CoordinatesToCellName(1, next)
	end, _ := excelize.CoordinatesToCellName(len(Header), next)
	values := rowValues(row)
	if err := f.SetSheetRow(s.sheet, start, &values); err != nil {
		return Confirmation{}, apperrors.StorageTransport("write row", err)
	}
	if err := s.save(f); err != nil {
		return Confirmation{}, err
	}

	ref := fmt.Sprintf("'%s'!%s:%s", s.sheet, start, end)
	s.log.WithFields(logrus.Fields{
		"row":      next,
		"customer": types.Value(row.CustomerName, ""),
	}).Info("meeting row appended")
	return Confirmation{RowReference: ref}, nil
}

// Rows returns every stored meeting row.
func (s *SheetStore) Rows(ctx context.Context) ([]types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.StorageTransport("read cancelled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return ReadRows(s.path, s.sheet)
}

func (s *SheetStore) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.StorageTransport("open workbook", err)
	}
	if !s.createIfMissing {
		return nil, apperrors.DestinationNotFound(fmt.Sprintf("workbook %s does not exist", s.path), err)
	}
	s.log.Info("workbook missing, creating")
	f = excelize.NewFile()
	if err := f.SetSheetName("Sheet1", s.sheet); err != nil {
		f.Close()
		return nil, apperrors.StorageTransport("name sheet", err)
	}
	return f, nil
}

// ensureSheet creates the sheet and writes the header row when either is
// missing. It reports whether the workbook changed.
func (s *SheetStore) ensureSheet(f *excelize.File) (bool, error) {
	changed := false
	idx, err := f.GetSheetIndex(s.sheet)
	if err != nil {
		return false, apperrors.StorageTransport("look up sheet", err)
	}
	if idx == -1 {
		if _, err := f.NewSheet(s.sheet); err != nil {
			return false, apperrors.StorageTransport("create sheet", err)
		}
		s.log.Info("sheet created")
		changed = true
	}

	first, err := f.GetCellValue(s.sheet, "A1")
	if err != nil {
		return false, apperrors.StorageTransport("read header", err)
	}
	if first != "" {
		return changed, nil
	}
	if err := writeHeader(f, s.sheet); err != nil {
		return false, apperrors.StorageTransport("write header", err)
	}
	return true, nil
}

func writeHeader(f *excelize.File, sheet string) error {
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "G", 20)
}

func (s *SheetStore) save(f *excelize.File) error {
	if err := f.SaveAs(s.path); err != nil {
		return apperrors.StorageTransport("save workbook", err)
	}
	return nil
}

// rowValues lays a row out in Header order. Unknown values become empty cells.
func rowValues(row types.Row) []interface{} {
	return []interface{}{
		row.Timestamp,
		types.Value(row.CustomerName, ""),
		types.Value(row.MeetingDate, ""),
		types.Value(row.StartTime, ""),
		types.Value(row.EndTime, ""),
		types.Value(row.TotalHours, ""),
		types.Value(row.Notes, ""),
	}
}
