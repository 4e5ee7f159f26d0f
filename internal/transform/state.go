package transform

import (
	"errors"

	"github.com/shaiso/Clearway/internal/domain"
	"github.com/shaiso/Clearway/internal/validation"
)

// Ошибки трансформационного pipeline.
var (
	// ErrUnknownMessageType — для типа сообщения не зарегистрирован
	// набор стадий. Фатальная ошибка конфигурации.
	ErrUnknownMessageType = errors.New("no transformation stages registered for message type")

	// ErrIncompleteMessage — после всех стадий сообщение осталось
	// без обязательных полей.
	ErrIncompleteMessage = errors.New("transformed message is incomplete")

	// ErrBadPayload — контекст запуска несёт не *State.
	ErrBadPayload = errors.New("pipeline context does not carry transform state")
)

// State — общее состояние стадий трансформации одного сообщения.
//
// Стадии заполняют Parsed инкрементально: каждая отвечает за свою
// группу полей, финальная стадия проверяет Complete().
type State struct {
	// Raw — исходное сообщение.
	Raw *domain.RawMessage

	// Fields — плоская карта путь → значения из XML.
	Fields validation.Fields

	// Parsed — собираемое сообщение.
	Parsed *domain.ParsedMessage
}
