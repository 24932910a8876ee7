package repository

import "errors"

var (
	// ErrNotFound возвращается, когда запись отсутствует в хранилище.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey возвращается при нарушении уникального индекса,
	// в частности когда два запроса одновременно создают личный чат
	// для одной и той же пары пользователей.
	ErrDuplicateKey = errors.New("duplicate key")
)
