// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go            — Handler с DI (orchestrator, tracker, publisher, logger)
//   - routes.go             — регистрация маршрутов
//   - middleware.go         — middleware (logging, recovery)
//   - response.go           — унифицированные JSON-ответы и обработка ошибок
//   - dto.go                — Data Transfer Objects (request/response)
//   - message_handler.go    — приём финансовых сообщений
//   - submission_handler.go — просмотр, retry и cancel отправок
//
// API предоставляет REST endpoints для приёма сообщений и управления
// записями об отправках в расчётную сеть.
package api
