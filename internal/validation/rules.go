package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/Clearway/internal/domain"
)

// Rule — одно правило валидации уровня поля.
//
// Правила — значения, а не подклассы: стадия конфигурируется набором
// правил через AddRule, не требуя наследования. Правило возвращает
// найденные нарушения; пустой результат — поле корректно.
type Rule interface {
	// Code — машиночитаемый код правила (попадает в ValidationError.Code).
	Code() string

	// Check проверяет поля сообщения.
	Check(fields Fields) []domain.ValidationError
}

// ruleFunc — адаптер функции к интерфейсу Rule.
type ruleFunc struct {
	code  string
	check func(Fields) []domain.ValidationError
}

func (r ruleFunc) Code() string                                { return r.code }
func (r ruleFunc) Check(fields Fields) []domain.ValidationError { return r.check(fields) }

// fail — одно нарушение уровня error.
func fail(code, message, path string, details map[string]any, fix string) []domain.ValidationError {
	return []domain.ValidationError{{
		Code:         code,
		Message:      message,
		Path:         path,
		Severity:     domain.SeverityError,
		Details:      details,
		SuggestedFix: fix,
	}}
}

// Required — поле обязано присутствовать и быть непустым.
func Required(path string) Rule {
	return ruleFunc{
		code: "REQUIRED_FIELD",
		check: func(f Fields) []domain.ValidationError {
			if f.Has(path) {
				return nil
			}
			return fail("REQUIRED_FIELD",
				fmt.Sprintf("field %s is required", path),
				path, nil, "populate the field before submitting")
		},
	}
}

// Форматы для правила Format.
var formatPatterns = map[string]*regexp.Regexp{
	"bic":      regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`),
	"iban":     regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z0-9]{10,30}$`),
	"currency": regexp.MustCompile(`^[A-Z]{3}$`),
	"amount":   regexp.MustCompile(`^\d+(\.\d{1,5})?$`),
}

// Format — значение поля обязано соответствовать именованному формату:
// bic, iban, currency, amount, datetime.
func Format(path, format string) Rule {
	return ruleFunc{
		code: "INVALID_FORMAT",
		check: func(f Fields) []domain.ValidationError {
			value, ok := f.First(path)
			if !ok {
				return nil // отсутствие поля — забота Required
			}

			if format == "datetime" {
				if _, err := time.Parse(time.RFC3339, value); err != nil {
					return fail("INVALID_FORMAT",
						fmt.Sprintf("field %s is not a valid ISO datetime", path),
						path,
						map[string]any{"value": value, "format": format},
						"use RFC 3339, e.g. 2026-08-24T10:00:00Z")
				}
				return nil
			}

			pattern, known := formatPatterns[format]
			if !known {
				return fail("UNKNOWN_FORMAT",
					fmt.Sprintf("rule references unknown format %q", format),
					path, nil, "")
			}
			if !pattern.MatchString(value) {
				return fail("INVALID_FORMAT",
					fmt.Sprintf("field %s does not match format %s", path, format),
					path,
					map[string]any{"value": value, "format": format},
					"")
			}
			return nil
		},
	}
}

// Length — длина значения в пределах [min, max]. max == 0 — без верхней границы.
func Length(path string, min, max int) Rule {
	return ruleFunc{
		code: "INVALID_LENGTH",
		check: func(f Fields) []domain.ValidationError {
			value, ok := f.First(path)
			if !ok {
				return nil
			}
			n := len(value)
			if n < min || (max > 0 && n > max) {
				return fail("INVALID_LENGTH",
					fmt.Sprintf("field %s length %d outside [%d, %d]", path, n, min, max),
					path,
					map[string]any{"length": n, "min": min, "max": max},
					"")
			}
			return nil
		},
	}
}

// Range — числовое значение в пределах [min, max].
func Range(path string, min, max float64) Rule {
	return ruleFunc{
		code: "OUT_OF_RANGE",
		check: func(f Fields) []domain.ValidationError {
			value, ok := f.First(path)
			if !ok {
				return nil
			}
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fail("OUT_OF_RANGE",
					fmt.Sprintf("field %s is not numeric", path),
					path,
					map[string]any{"value": value},
					"")
			}
			if n < min || n > max {
				return fail("OUT_OF_RANGE",
					fmt.Sprintf("field %s value %v outside [%v, %v]", path, n, min, max),
					path,
					map[string]any{"value": n, "min": min, "max": max},
					"")
			}
			return nil
		},
	}
}

// Pattern — значение поля обязано соответствовать регулярному выражению.
func Pattern(path, expr string) Rule {
	re := regexp.MustCompile(expr)
	return ruleFunc{
		code: "PATTERN_MISMATCH",
		check: func(f Fields) []domain.ValidationError {
			value, ok := f.First(path)
			if !ok {
				return nil
			}
			if !re.MatchString(value) {
				return fail("PATTERN_MISMATCH",
					fmt.Sprintf("field %s does not match %s", path, expr),
					path,
					map[string]any{"value": value, "pattern": expr},
					"")
			}
			return nil
		},
	}
}

// CodeList — значение поля обязано входить в список допустимых кодов.
func CodeList(path string, allowed ...string) Rule {
	set := make(map[string]bool, len(allowed))
	for _, code := range allowed {
		set[code] = true
	}
	return ruleFunc{
		code: "INVALID_CODE",
		check: func(f Fields) []domain.ValidationError {
			value, ok := f.First(path)
			if !ok {
				return nil
			}
			if !set[value] {
				return fail("INVALID_CODE",
					fmt.Sprintf("field %s value %q is not in the allowed code list", path, value),
					path,
					map[string]any{"value": value, "allowed": strings.Join(allowed, ",")},
					"")
			}
			return nil
		},
	}
}

// CrossField — проверка согласованности нескольких полей.
// fn возвращает nil, если поля согласованы.
func CrossField(code string, fn func(Fields) *domain.ValidationError) Rule {
	return ruleFunc{
		code: code,
		check: func(f Fields) []domain.ValidationError {
			if e := fn(f); e != nil {
				if e.Code == "" {
					e.Code = code
				}
				if e.Severity == "" {
					e.Severity = domain.SeverityError
				}
				return []domain.ValidationError{*e}
			}
			return nil
		},
	}
}

// Custom — произвольное правило.
func Custom(code string, fn func(Fields) []domain.ValidationError) Rule {
	return ruleFunc{code: code, check: fn}
}
