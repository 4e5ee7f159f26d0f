package transform

import (
	"fmt"
	"strconv"
	"strings"
)

// minorExponents — количество знаков минимальной единицы по ISO 4217.
// Валюты вне карты считаются двузначными.
var minorExponents = map[string]int{
	"JPY": 0,
}

func minorExponent(currency string) int {
	if exp, ok := minorExponents[currency]; ok {
		return exp
	}
	return 2
}

// parseAmount переводит десятичную строку в минимальные единицы валюты.
// "1500.00" EUR → 150000. Дробная часть длиннее экспоненты валюты —
// ошибка: округление сумм недопустимо.
func parseAmount(value, currency string) (int64, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(value), ".")
	exp := minorExponent(currency)

	if len(frac) > exp {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", value, exp)
	}
	frac += strings.Repeat("0", exp-len(frac))

	units, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a decimal number", value)
	}
	if units <= 0 {
		return 0, fmt.Errorf("amount %q must be positive", value)
	}

	return units, nil
}
