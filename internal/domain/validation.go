package domain

// Severity — серьёзность ошибки валидации.
type Severity string

const (
	// SeverityError — нарушение, блокирующее дальнейшую обработку.
	SeverityError Severity = "error"

	// SeverityWarning — замечание, не блокирующее обработку.
	SeverityWarning Severity = "warning"
)

// ValidationError — одна ошибка валидации поля сообщения.
//
// Это ожидаемый бизнес-результат, а не инфраструктурная ошибка:
// ValidationError возвращается вызывающему в составе ValidationResult
// и никогда не прерывает pipeline через error.
type ValidationError struct {
	// Code — машиночитаемый код ошибки (например, "REQUIRED_FIELD").
	Code string `json:"code"`

	// Message — человекочитаемое описание.
	Message string `json:"message"`

	// Path — путь к полю в сообщении (например, "CdtTrfTxInf.Amt").
	Path string `json:"path,omitempty"`

	// Severity — серьёзность: error или warning.
	Severity Severity `json:"severity"`

	// Details — дополнительный контекст (фактическое значение, ограничение).
	Details map[string]any `json:"details,omitempty"`

	// SuggestedFix — подсказка по исправлению.
	SuggestedFix string `json:"suggested_fix,omitempty"`
}

// ValidationResult — агрегированный результат валидации сообщения.
type ValidationResult struct {
	// Valid — true, если нет ни одной ошибки с Severity == error.
	// Warnings не влияют на Valid.
	Valid bool `json:"valid"`

	// Errors — список ошибок в порядке обнаружения.
	Errors []ValidationError `json:"errors,omitempty"`
}

// Merge добавляет ошибки другого результата, пересчитывая Valid.
func (r *ValidationResult) Merge(other ValidationResult) {
	r.Errors = append(r.Errors, other.Errors...)
	if !other.Valid {
		r.Valid = false
	}
}

// ErrorMessages возвращает тексты ошибок с Severity == error.
func (r *ValidationResult) ErrorMessages() []string {
	var msgs []string
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			msgs = append(msgs, e.Code+": "+e.Message)
		}
	}
	return msgs
}
