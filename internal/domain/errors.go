package domain

import "errors"

// ErrPostNotFound возвращается, когда пост с указанным id или slug не существует.
var ErrPostNotFound = errors.New("пост не найден")

// ErrDuplicateMessage возвращается хранилищем при попытке повторно
// сохранить сообщение канала: пара (канал, id сообщения) уникальна.
var ErrDuplicateMessage = errors.New("сообщение уже импортировано")

// ErrSlugTaken возвращается хранилищем при нарушении уникальности slug.
var ErrSlugTaken = errors.New("slug уже занят")
