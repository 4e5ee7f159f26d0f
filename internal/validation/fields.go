package validation

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Fields — плоское представление XML документа: путь элемента → значения.
//
// Путь строится из локальных имён элементов без namespace и без
// корневого элемента документа: "GrpHdr.MsgId", "CdtTrfTxInf.Amt".
// Повторяющиеся элементы дают несколько значений по одному пути.
type Fields map[string][]string

// First возвращает первое значение по пути.
func (f Fields) First(path string) (string, bool) {
	values, ok := f[path]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Has проверяет наличие непустого значения по пути.
func (f Fields) Has(path string) bool {
	v, ok := f.First(path)
	return ok && strings.TrimSpace(v) != ""
}

// Attr возвращает значение атрибута: путь вида "CdtTrfTxInf.Amt@Ccy".
func (f Fields) Attr(path, attr string) (string, bool) {
	return f.First(path + "@" + attr)
}

// ParseFields разбирает XML payload в плоскую карту полей.
//
// Ошибка означает синтаксически некорректный XML — это ожидаемый
// бизнес-результат валидации, а не инфраструктурный сбой.
func ParseFields(payload []byte) (Fields, error) {
	fields := make(Fields)
	decoder := xml.NewDecoder(bytes.NewReader(payload))

	var stack []string
	sawRoot := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			// Корневой элемент не входит в путь
			if !sawRoot {
				sawRoot = true
			} else {
				stack = append(stack, t.Name.Local)
			}

			if len(stack) > 0 {
				path := strings.Join(stack, ".")
				for _, attr := range t.Attr {
					fields[path+"@"+attr.Name.Local] = append(fields[path+"@"+attr.Name.Local], attr.Value)
				}
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" || len(stack) == 0 {
				continue
			}
			path := strings.Join(stack, ".")
			fields[path] = append(fields[path], text)
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("parse xml: document has no root element")
	}

	return fields, nil
}
