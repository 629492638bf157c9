package workbook_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xkilldash9x/bulklogin/internal/workbook"
)

// createTestExcel builds an in-memory workbook with the given rows on its first sheet.
func createTestExcel(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestRead_HeaderMode(t *testing.T) {
	buf := createTestExcel(t, [][]string{
		{"username", "password", "service.url", "email_xpath"},
		{"alice@example.com", "s3cret", " example.com ", "//input[@id='mail']"},
		{},
		{"bob", "hunter2", "https://bob.example"},
	})

	sheet, err := workbook.Read(buf, "")
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", sheet.Name)
	assert.False(t, sheet.Columns.Legacy)
	require.Len(t, sheet.Rows, 2, "blank rows are not attempted")

	first := sheet.Rows[0]
	assert.Equal(t, 2, first.Index)
	assert.Equal(t, "alice@example.com", first.Username)
	assert.Equal(t, "s3cret", first.Password)
	assert.Equal(t, "example.com", first.TargetURL)
	assert.Equal(t, "//input[@id='mail']", first.EmailLocator)
	assert.Empty(t, first.PasswordLocator)
	assert.Empty(t, first.Status)

	assert.Equal(t, 4, sheet.Rows[1].Index)
	assert.Equal(t, "bob", sheet.Rows[1].Username)
}

func TestRead_LegacyMode(t *testing.T) {
	buf := createTestExcel(t, [][]string{
		{"No", "Ad", "Soyad", "Birim", "Tel", "Hesap", "Parola", "", "", "Adres"},
		{"1", "Ali", "Veli", "IT", "555", "ali", "pw1", "", "", "portal.example.com"},
	})

	sheet, err := workbook.Read(buf, "")
	require.NoError(t, err)
	assert.True(t, sheet.Columns.Legacy)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "ali", sheet.Rows[0].Username)
	assert.Equal(t, "pw1", sheet.Rows[0].Password)
	assert.Equal(t, "portal.example.com", sheet.Rows[0].TargetURL)
}

func TestRead_Errors(t *testing.T) {
	t.Run("MissingColumns", func(t *testing.T) {
		buf := createTestExcel(t, [][]string{{"name", "note"}, {"x", "y"}})
		_, err := workbook.Read(buf, "")
		assert.ErrorIs(t, err, workbook.ErrMissingColumns)
	})

	t.Run("UnknownSheet", func(t *testing.T) {
		buf := createTestExcel(t, [][]string{{"username", "password", "url"}})
		_, err := workbook.Read(buf, "Nope")
		assert.Error(t, err)
	})

	t.Run("NotAWorkbook", func(t *testing.T) {
		_, err := workbook.Read(bytes.NewBufferString("plain text"), "")
		assert.Error(t, err)
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()

	t.Run("AppendsStatusColumn", func(t *testing.T) {
		buf := createTestExcel(t, [][]string{
			{"username", "password", "url", "note"},
			{"alice", "pw", "a.example", "keep me"},
			{"bob", "pw", "b.example"},
		})
		sheet, err := workbook.Read(buf, "")
		require.NoError(t, err)

		sheet.Rows[0].Status = "200 - Başarılı Giriş"
		sheet.Rows[1].Status = "404 - Bilinmeyen Hata"

		out := filepath.Join(dir, "results.xlsx")
		require.NoError(t, sheet.Save(out))

		f, err := excelize.OpenFile(out)
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Sheet1")
		require.NoError(t, err)

		assert.Equal(t, []string{"username", "password", "url", "note", "status"}, rows[0])
		assert.Equal(t, []string{"alice", "pw", "a.example", "keep me", "200 - Başarılı Giriş"}, rows[1])
		assert.Equal(t, []string{"bob", "pw", "b.example", "", "404 - Bilinmeyen Hata"}, rows[2])
	})

	t.Run("ReusesExistingStatusColumn", func(t *testing.T) {
		buf := createTestExcel(t, [][]string{
			{"Status", "username", "password", "url"},
			{"old", "alice", "pw", "a.example"},
		})
		sheet, err := workbook.Read(buf, "")
		require.NoError(t, err)
		assert.Equal(t, "old", sheet.Rows[0].Status)

		sheet.Rows[0].Status = "500 - Email input bulunamadı"
		out := filepath.Join(dir, "reuse.xlsx")
		require.NoError(t, sheet.Save(out))

		reread, err := workbook.Load(out, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"status", "username", "password", "url"}, reread.Header)
		assert.Equal(t, "500 - Email input bulunamadı", reread.Rows[0].Status)
	})
}

func TestSave_StatusColumnInTheMiddle(t *testing.T) {
	buf := createTestExcel(t, [][]string{
		{"username", "status", "password", "url", "note"},
		{"alice", "", "pw", "a.example", "vip"},
	})
	sheet, err := workbook.Read(buf, "")
	require.NoError(t, err)
	sheet.Rows[0].Status = "200 - Başarılı Giriş"

	out := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, sheet.Save(out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"username", "status", "password", "url", "note"},
		{"alice", "200 - Başarılı Giriş", "pw", "a.example", "vip"},
	}, rows)
}

func TestSave_KeepsCellTypes(t *testing.T) {
	src := excelize.NewFile()
	defer src.Close()

	dateStyle := "yyyy-mm-dd"
	styleID, err := src.NewStyle(&excelize.Style{CustomNumFmt: &dateStyle})
	require.NoError(t, err)

	require.NoError(t, src.SetSheetRow("Sheet1", "A1", &[]interface{}{"username", "password", "url", "customer_no", "active", "joined"}))
	require.NoError(t, src.SetSheetRow("Sheet1", "A2", &[]interface{}{"alice", "pw", "a.example", 1042, true, 45306}))
	require.NoError(t, src.SetCellStyle("Sheet1", "F2", "F2", styleID))

	var buf bytes.Buffer
	require.NoError(t, src.Write(&buf))

	sheet, err := workbook.Read(&buf, "")
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	sheet.Rows[0].Status = "404 - Bilinmeyen Hata"

	out := filepath.Join(t.TempDir(), "results.xlsx")
	require.NoError(t, sheet.Save(out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	typ, err := f.GetCellType("Sheet1", "D2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "numbers stay numeric")
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)
	raw, err := f.GetCellValue("Sheet1", "D2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1042", raw)

	typ, err = f.GetCellType("Sheet1", "E2")
	require.NoError(t, err)
	assert.Equal(t, excelize.CellTypeBool, typ)

	joined, err := f.GetCellValue("Sheet1", "F2")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", joined, "date format is carried over")

	status, err := f.GetCellValue("Sheet1", "G2")
	require.NoError(t, err)
	assert.Equal(t, "404 - Bilinmeyen Hata", status)
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.xlsx")
	require.NoError(t, workbook.WriteTemplate(path))

	sheet, err := workbook.Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "Accounts", sheet.Name)
	assert.Equal(t, workbook.TemplateHeaders, sheet.Header)
	assert.False(t, sheet.Columns.Legacy)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "//button[@type='submit']", sheet.Rows[1].LoginLocator)
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)

	touch := func(name string, age time.Duration) {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		mtime := base.Add(age)
		require.NoError(t, os.Chtimes(p, mtime, mtime))
	}

	touch("old.xlsx", 0)
	touch("accounts.xlsx", time.Minute)
	touch("~$accounts.xlsx", 2*time.Minute)
	touch(".hidden.xlsx", 3*time.Minute)
	touch("login_results.xlsx", 4*time.Minute)
	touch("notes.txt", 5*time.Minute)

	got, err := workbook.FindLatest(dir, "*.xlsx", filepath.Join(dir, "login_results.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "accounts.xlsx"), got)

	_, err = workbook.FindLatest(t.TempDir(), "*.xlsx", "")
	assert.ErrorIs(t, err, workbook.ErrNoInputFile)
}
