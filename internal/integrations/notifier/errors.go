package notifier

import "errors"

var (
	// ErrEncode ошибка сериализации уведомления
	ErrEncode = errors.New("notifier: failed to encode notification")

	// ErrPublish ошибка публикации в брокер
	ErrPublish = errors.New("notifier: failed to publish notification")

	// ErrTransport ошибка создания транспорта
	ErrTransport = errors.New("notifier: failed to create transport")
)
