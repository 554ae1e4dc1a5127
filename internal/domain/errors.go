package domain

import "errors"

var (
	// ErrSignatureMismatch — подпись виджета логина не сошлась.
	ErrSignatureMismatch = errors.New("подпись недействительна")
	// ErrAuthExpired — auth_date старше допустимого окна, колбэк мог быть переиспользован.
	ErrAuthExpired = errors.New("данные авторизации устарели")

	// ErrProviderLookup — провайдер метаданных недоступен или вернул ошибку.
	ErrProviderLookup = errors.New("не удалось получить данные канала")
	// ErrChannelNotFound — провайдер не знает такой хэндл.
	ErrChannelNotFound = errors.New("канал не найден")

	// ErrNotFound — заявка отсутствует в хранилище.
	ErrNotFound = errors.New("заявка не найдена")
	// ErrInvalidTransition — попытка approve/reject вне статуса pending.
	ErrInvalidTransition = errors.New("недопустимый переход статуса")
	// ErrInvalidState — операция требует статуса approved.
	ErrInvalidState = errors.New("недопустимый статус заявки")
	// ErrHandleTaken — канал с таким хэндлом уже есть в каталоге.
	ErrHandleTaken = errors.New("канал уже добавлен")

	// ErrForbidden — у пользователя нет прав на операцию.
	ErrForbidden = errors.New("доступ запрещён")
)
