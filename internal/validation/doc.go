// Package validation — валидационная специализация pipeline-движка.
//
// Включает:
//   - fields.go   — плоский разбор XML в карту путь → значения
//   - rules.go    — правила уровня поля (required, format, length, range,
//     pattern, codelist, cross-field, custom)
//   - stage.go    — стадия как группа правил с мутабельной регистрацией
//   - schema.go   — JSON-описания схем по типам сообщений
//   - factory.go  — построение pipeline по типу сообщения (кэш → реестр)
//   - pipeline.go — привязка generic runner к контракту валидации
//
// Ошибки валидации — ожидаемый бизнес-результат: они агрегируются в
// ValidationResult и не прерывают выполнение стадий.
package validation
