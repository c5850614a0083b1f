package scheduler

import "errors"

var (
	// ErrEnqueue ошибка постановки задачи
	ErrEnqueue = errors.New("scheduler: failed to enqueue task")

	// ErrPayload некорректное тело задачи
	ErrPayload = errors.New("scheduler: malformed task payload")
)
