// Package cli реализует инструмент командной строки Clearway.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Clearway API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для отправки сообщений и управления записями
// об отправках в расчётную сеть.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Clearway API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок. Невалидное сообщение при синхронной отправке
// возвращается как результат с ошибками валидации, а не как ошибка.
//
//	client := cli.NewClient("http://localhost:8080")
//	subs, err := client.ListSubmissions(cli.ListSubmissionsOpts{})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: clearway submission list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - message: submit, status
//   - submission: list, show, retry, cancel
//
// Каждая группа создаётся через фабричную функцию (NewMessageCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
