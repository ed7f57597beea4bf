package punchimport

import (
	"bytes"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var manila = time.FixedZone("PHT", 8*3600)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, ref, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadRows_Xlsx(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"User ID", "Timestamp", "Type"},
		{"user-1", "2025-06-02 07:55", "IN"},
		{"user-1", "2025-06-02 12:01", "OUT"},
	})

	rows, err := ReadRows(buf, "june.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"user-1", "2025-06-02 07:55", "IN"}, rows[1])
}

func TestReadRows_NotAWorkbook(t *testing.T) {
	_, err := ReadRows(bytes.NewBufferString("user,timestamp\n"), "punches.xlsx")
	assert.Error(t, err)
}

func TestParse_GroupsByUser(t *testing.T) {
	rows := [][]string{
		{"Employee ID", "Timestamp", "State"},
		{"user-2", "2025-06-02 08:03", "C/In"},
		{"user-1", "2025-06-02 07:55", "IN"},
		{"user-2", "2025-06-02 17:00", "C/Out"},
		{},
		{"user-1", "2025-06-02T12:01:00+08:00", "out"},
	}

	sheet, err := Parse(rows, manila)
	require.NoError(t, err)
	assert.Equal(t, 4, sheet.Rows)
	assert.Empty(t, sheet.Errors)
	require.Len(t, sheet.Batches, 2)

	assert.Equal(t, "user-2", sheet.Batches[0].UserID)
	require.Len(t, sheet.Batches[0].Punches, 2)
	assert.Equal(t, "2025-06-02T08:03:00+08:00", sheet.Batches[0].Punches[0].Timestamp)
	assert.Equal(t, attendance.PunchTypeIn, sheet.Batches[0].Punches[0].Type)
	assert.Equal(t, attendance.PunchTypeOut, sheet.Batches[0].Punches[1].Type)
	assert.Equal(t, attendance.PunchSourceImport, sheet.Batches[0].Punches[1].Source)

	assert.Equal(t, "user-1", sheet.Batches[1].UserID)
	require.Len(t, sheet.Batches[1].Punches, 2)
	assert.Equal(t, "2025-06-02T12:01:00+08:00", sheet.Batches[1].Punches[1].Timestamp)

	// the grouped batch passes punch validation as-is
	assert.NoError(t, sheet.Batches[1].Validate())
}

func TestParse_SeparateDateAndTime(t *testing.T) {
	rows := [][]string{
		{"AC-No.", "Date", "Time", "In/Out"},
		{"user-1", "2025-06-02", "13:05", "Check In"},
		{"user-1", "45810", "0.329861111", "0"},
	}

	sheet, err := Parse(rows, manila)
	require.NoError(t, err)
	require.Empty(t, sheet.Errors)
	require.Len(t, sheet.Batches, 1)
	punches := sheet.Batches[0].Punches
	require.Len(t, punches, 2)
	assert.Equal(t, "2025-06-02T13:05:00+08:00", punches[0].Timestamp)
	assert.Equal(t, "2025-06-02T07:55:00+08:00", punches[1].Timestamp)
}

func TestParse_RowErrors(t *testing.T) {
	rows := [][]string{
		{"user_id", "timestamp", "type"},
		{"", "2025-06-02 07:55", "IN"},
		{"user-1", "yesterday", "IN"},
		{"user-1", "2025-06-02 07:55", "BREAK"},
		{"user-1", "2025-06-02 07:55", "IN"},
	}

	sheet, err := Parse(rows, manila)
	require.NoError(t, err)
	assert.Equal(t, 4, sheet.Rows)
	require.Len(t, sheet.Errors, 3)
	assert.Equal(t, 2, sheet.Errors[0].Line)
	assert.Equal(t, 3, sheet.Errors[1].Line)
	assert.Contains(t, sheet.Errors[1].Message, "yesterday")
	assert.Equal(t, 4, sheet.Errors[2].Line)
	require.Len(t, sheet.Batches, 1)
	assert.Len(t, sheet.Batches[0].Punches, 1)
}

func TestParse_MissingColumns(t *testing.T) {
	_, err := Parse([][]string{{"name", "when"}}, manila)
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = Parse(nil, manila)
	assert.ErrorIs(t, err, ErrEmptyWorksheet)
}
