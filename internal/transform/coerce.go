package transform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/roster/internal/model"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// DateLayout is the canonical representation of dates in preview records.
const DateLayout = "2006-01-02"

// ErrUnparsableDate is returned when no configured layout matches a date value.
var ErrUnparsableDate = errors.New("unrecognised date")

// DefaultDateFormats lists the accepted date layouts. Day-first layouts precede
// month-first ones.
func DefaultDateFormats() []string {
	return []string{
		DateLayout,
		"2006/01/02",
		"02/01/2006",
		"2/1/2006",
		"02.01.2006",
		"2.1.2006",
		"02-01-2006",
		"2-1-2006",
		"02/01/06",
		"2/1/06",
		"02.01.06",
		"2006-01-02 15:04:05",
		time.RFC3339,
		// Excel's built-in short date, as rendered for legacy .xls cells.
		"01-02-06",
	}
}

// Excel serial dates accepted as hire dates: 1950-01-01 up to 2099-12-31.
// Smaller numbers are years or codes, not dates.
const (
	minExcelSerial = 18264
	maxExcelSerial = 73050
)

// ParseDate parses value with the given layouts, falling back to Excel serial
// day numbers (as exported by spreadsheets with raw cell values).
func ParseDate(value string, layouts []string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparsableDate)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial >= minExcelSerial && serial <= maxExcelSerial {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, value)
}

var employeeTypeAliases = map[model.EmployeeType][]string{
	model.EmployeeTypePermanent: {
		"permanent", "full time", "full-time", "fulltime", "regular",
		"קבוע", "קבועה", "משרה מלאה", "מלאה",
	},
	model.EmployeeTypeTemporary: {
		"temporary", "temp", "seasonal", "part time", "part-time",
		"זמני", "זמנית", "עונתי", "משרה חלקית", "חלקית",
	},
	model.EmployeeTypeYouth: {
		"youth", "minor", "student", "teen",
		"נוער", "בני נוער", "נער", "נערה", "סטודנט", "סטודנטית",
	},
	model.EmployeeTypeContractor: {
		"contractor", "freelance", "freelancer", "external", "consultant",
		"קבלן", "פרילנסר", "עצמאי", "חיצוני", "יועץ",
	},
}

// NormalizeEmployeeType maps free text onto the employee type catalogue.
// Unrecognised or empty values yield fallback.
func NormalizeEmployeeType(value string, fallback model.EmployeeType) model.EmployeeType {
	v := strings.ToLower(strings.Join(strings.Fields(value), " "))
	if v == "" {
		return fallback
	}

	for _, typ := range model.EmployeeTypes() {
		if v == string(typ) {
			return typ
		}
		for _, alias := range employeeTypeAliases[typ] {
			if v == alias {
				return typ
			}
		}
	}

	for _, typ := range model.EmployeeTypes() {
		for _, alias := range employeeTypeAliases[typ] {
			if strings.Contains(v, alias) {
				return typ
			}
		}
	}

	return fallback
}

// ParseDecimal extracts a number from loosely formatted text such as "37.5h"
// or "40,5". It reports false when no number can be read.
func ParseDecimal(value string) (decimal.Decimal, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
