// Package transform — трансформационная специализация pipeline-движка.
//
// Стадии инкрементально собирают domain.ParsedMessage из плоской карты
// полей XML: header заполняет идентификатор и время создания, parties
// или agents — стороны платежа, amounts — сумму в минимальных единицах
// валюты, finalize проверяет полноту результата. Ошибка любой стадии
// фатальна и помечается категорией transformation.
package transform
