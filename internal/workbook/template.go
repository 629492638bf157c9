package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	templateSheet     = "Accounts"
	instructionsSheet = "Instructions"
)

// TemplateHeaders is the header row of a generated input workbook.
var TemplateHeaders = []string{"username", "password", "service.url", "email_xpath", "password_xpath", "login_xpath"}

// WriteTemplate writes an example input workbook to path.
func WriteTemplate(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return err
	}

	rows := [][]string{
		TemplateHeaders,
		{"user@example.com", "secret", "example.com/login", "", "", ""},
		{"demo", "demo123", "https://portal.example.org", "//input[@name='login']", "//input[@name='pwd']", "//button[@type='submit']"},
	}
	for i, r := range rows {
		if err := writeRow(f, templateSheet, i+1, textCells(r)); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(instructionsSheet); err != nil {
		return err
	}
	instructions := []string{
		"Column Descriptions:",
		"",
		"username - Required. Also accepted: login, user, email, kullanici",
		"password - Required. Also accepted: pass, pwd, sifre",
		"service.url - Required. Login page; https:// is added when no scheme is given",
		"email_xpath - Optional. XPath of the username field, tried before the defaults",
		"password_xpath - Optional. XPath of the password field",
		"login_xpath - Optional. XPath of the login button",
		"status - Written by bulklogin. An existing column is overwritten",
	}
	for i, line := range instructions {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(instructionsSheet, cellName, line); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save template %s: %w", path, err)
	}
	return nil
}
