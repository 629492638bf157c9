package attempt

import (
	"fmt"
)

// Outcome codes.
const (
	CodeSuccess  = 200
	CodeRejected = 404
	CodeError    = 500
)

// Outcome descriptions. They are written verbatim to the status column.
const (
	DescSuccess          = "Başarılı Giriş"
	DescRejected         = "Kullanıcı/Şifre Hatalı"
	DescUnknown          = "Bilinmeyen Hata"
	DescInvalidURL       = "Boş/Geçersiz Site URL"
	DescEmailNotFound    = "Email input bulunamadı"
	DescPasswordNotFound = "Password input bulunamadı"
	DescLoginNotClicked  = "Login butonu bulunamadı/kliklenemedi"
	descResultCheck      = "Sonuç kontrol hatası: "
	descSystem           = "Sistem Hatası: "

	resultCheckDetailLimit = 80
	systemDetailLimit      = 120
)

// Outcome is the classified result of one attempt.
type Outcome struct {
	Code        int
	Description string
	// Excerpt is the start of the matched failure message for rejected logins.
	Excerpt string
	// Err is the underlying cause for 500 outcomes.
	Err error
}

// Status renders the outcome as "<code> - <description>".
func (o Outcome) Status() string {
	return fmt.Sprintf("%d - %s", o.Code, o.Description)
}

func Success() Outcome { return Outcome{Code: CodeSuccess, Description: DescSuccess} }

func Rejected(excerpt string) Outcome {
	return Outcome{Code: CodeRejected, Description: DescRejected, Excerpt: excerpt}
}

func Unknown() Outcome { return Outcome{Code: CodeRejected, Description: DescUnknown} }

func InvalidURL() Outcome { return Outcome{Code: CodeError, Description: DescInvalidURL} }

func EmailNotFound(err error) Outcome {
	return Outcome{Code: CodeError, Description: DescEmailNotFound, Err: err}
}

func PasswordNotFound(err error) Outcome {
	return Outcome{Code: CodeError, Description: DescPasswordNotFound, Err: err}
}

func LoginNotClicked(err error) Outcome {
	return Outcome{Code: CodeError, Description: DescLoginNotClicked, Err: err}
}

// ResultCheckError reports a failure while reading the page after submission.
func ResultCheckError(err error) Outcome {
	return Outcome{Code: CodeError, Description: descResultCheck + Truncate(errText(err), resultCheckDetailLimit), Err: err}
}

// SystemError reports any other failure, including recovered panics.
func SystemError(err error) Outcome {
	return Outcome{Code: CodeError, Description: descSystem + Truncate(errText(err), systemDetailLimit), Err: err}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Truncate returns the first n runes of s.
func Truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
