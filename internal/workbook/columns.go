package workbook

import (
	"fmt"
	"strings"
)

// Header synonyms, in priority order. Matching is case-insensitive on trimmed headers.
var (
	usernameHeaders        = []string{"username", "login", "user", "email", "kullanici", "kullanıcı"}
	passwordHeaders        = []string{"password", "pass", "pwd", "sifre", "şifre"}
	serviceHeaders         = []string{"service.url", "service_url", "url", "site", "website", "domain", "service", "login_url"}
	emailLocatorHeaders    = []string{"email_xpath", "email-xpath", "emailxpath"}
	passwordLocatorHeaders = []string{"password_xpath", "password-xpath", "passwordxpath"}
	loginLocatorHeaders    = []string{"login_xpath", "login-xpath", "loginxpath"}
)

const (
	statusHeader = "status"

	// Positional layout of the legacy export (0-based): F, G, then J or H.
	legacyUsernameCol    = 5
	legacyPasswordCol    = 6
	legacyServiceWideCol = 9
	legacyServiceCol     = 7
)

// Columns maps each field to its 0-based column index. Optional columns are -1 when absent.
type Columns struct {
	Username int
	Password int
	Service  int

	EmailLocator    int
	PasswordLocator int
	LoginLocator    int
	Status          int

	// Legacy is set when the positional F/G layout was used.
	Legacy bool
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	return index
}

func pick(index map[string]int, candidates []string) int {
	for _, c := range candidates {
		if i, ok := index[c]; ok {
			return i
		}
	}
	return -1
}

// DetectColumns resolves the column layout from the header row. width is the
// widest row of the sheet. Header mode needs a username, password and service
// header; otherwise the legacy layout is tried, where username and password
// sit in F and G and the service column is found by header, or falls back to J
// (10+ columns) or H (8+ columns).
func DetectColumns(header []string, width int) (Columns, error) {
	index := headerIndex(header)
	if len(header) > width {
		width = len(header)
	}

	cols := Columns{
		Username:        pick(index, usernameHeaders),
		Password:        pick(index, passwordHeaders),
		Service:         pick(index, serviceHeaders),
		EmailLocator:    pick(index, emailLocatorHeaders),
		PasswordLocator: pick(index, passwordLocatorHeaders),
		LoginLocator:    pick(index, loginLocatorHeaders),
		Status:          pick(index, []string{statusHeader}),
	}
	if cols.Username >= 0 && cols.Password >= 0 && cols.Service >= 0 {
		return cols, nil
	}

	if width <= legacyPasswordCol {
		return Columns{}, fmt.Errorf("%w: no username/password headers and only %d columns for the F/G layout", ErrMissingColumns, width)
	}
	cols.Legacy = true
	cols.Username = legacyUsernameCol
	cols.Password = legacyPasswordCol
	if cols.Service < 0 {
		switch {
		case width >= legacyServiceWideCol+1:
			cols.Service = legacyServiceWideCol
		case width >= legacyServiceCol+1:
			cols.Service = legacyServiceCol
		default:
			return Columns{}, fmt.Errorf("%w: service.url column not found", ErrMissingColumns)
		}
	}
	return cols, nil
}
