package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/crediya/iam-service/internal/core/domain"
)

const (
	msgUserRequired     = "user is required"
	msgPasswordPolicy   = "password must be at least 8 characters long and contain letters and digits"
	msgDocumentRequired = "identity document is required"
	msgDocumentNumeric  = "identity document must contain only digits (0-9)"
	msgDocumentLength   = "identity document must have between 6 and 20 digits"
	msgPhoneRequired    = "phone number is required"
	msgPhoneNumeric     = "phone number must contain only digits"
	msgEmailRequired    = "email is required"
	msgEmailInvalid     = "email format is invalid"
	msgSalaryRequired   = "base salary must be a number between 0 and 15,000,000"
	msgSalaryDecimals   = "base salary allows at most 2 decimal places"
	msgSalaryRange      = "base salary must be between 0 and 15,000,000"
)

const (
	documentMinLen     = 6
	documentMaxLen     = 20
	salaryMaxScale     = 2
	// salaryMaxIntDigits caps the integer part; 15,000,000 has eight digits.
	salaryMaxIntDigits = 8
)

var (
	documentPattern = regexp.MustCompile(`^\d{9,10}$`)
	digitsPattern   = regexp.MustCompile(`^\d+$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	hasDigit        = regexp.MustCompile(`\d`)

	salaryMin = decimal.Zero
	salaryMax = decimal.NewFromInt(15_000_000)
)

// ValidateAndNormalize checks a candidate user field by field and stops at the
// first failure. On success the identity document, phone number and email of
// u are rewritten in their normalized form and u is returned.
func ValidateAndNormalize(u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, domain.NewValidationError("", msgUserRequired)
	}

	if !validPassword(u.Password) {
		return nil, domain.NewValidationError("password", msgPasswordPolicy)
	}

	doc, err := ValidateDocument(u.IdentityDocument)
	if err != nil {
		return nil, err
	}

	phone := strings.TrimSpace(u.PhoneNumber)
	if phone == "" {
		return nil, domain.NewValidationError("phoneNumber", msgPhoneRequired)
	}
	if !digitsPattern.MatchString(phone) {
		return nil, domain.NewValidationError("phoneNumber", msgPhoneNumeric)
	}

	email := NormalizeEmail(u.Email)
	if email == "" {
		return nil, domain.NewValidationError("email", msgEmailRequired)
	}
	if !emailPattern.MatchString(email) {
		return nil, domain.NewValidationError("email", msgEmailInvalid)
	}

	if err := validateSalary(u.BaseSalary); err != nil {
		return nil, err
	}

	u.IdentityDocument = doc
	u.PhoneNumber = phone
	u.Email = email
	return u, nil
}

// ValidateDocument applies the identity document rule and returns the trimmed
// document. It is shared by user creation and the existence check.
func ValidateDocument(document string) (string, error) {
	doc := strings.TrimSpace(document)
	if doc == "" {
		return "", domain.NewValidationError("identityDocument", msgDocumentRequired)
	}
	if !documentPattern.MatchString(doc) {
		return "", domain.NewValidationError("identityDocument", msgDocumentNumeric)
	}
	// Unreachable after the 9-10 digit pattern; kept so the accepted set stays
	// bounded by the documented length range if the pattern is ever widened.
	if n := len(doc); n < documentMinLen || n > documentMaxLen {
		return "", domain.NewValidationError("identityDocument", msgDocumentLength)
	}
	return doc, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validPassword(p string) bool {
	if strings.ContainsAny(p, "\n\r\u0085\u2028\u2029") {
		return false
	}
	return utf8.RuneCountInString(p) >= 8 && hasLetter.MatchString(p) && hasDigit.MatchString(p)
}

func validateSalary(s *decimal.Decimal) error {
	if s == nil {
		return domain.NewValidationError("baseSalary", msgSalaryRequired)
	}
	if scale := -s.Exponent(); scale > salaryMaxScale {
		return domain.NewValidationError("baseSalary", msgSalaryDecimals)
	}
	// Checked before any comparison: comparing rescales to the smaller
	// exponent, so a value like 1e1000000000 would expand to a billion digits.
	if int64(s.NumDigits())+int64(s.Exponent()) > salaryMaxIntDigits {
		return domain.NewValidationError("baseSalary", msgSalaryRange)
	}
	if s.LessThan(salaryMin) || s.GreaterThan(salaryMax) {
		return domain.NewValidationError("baseSalary", msgSalaryRange)
	}
	return nil
}
