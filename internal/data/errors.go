package data

import (
	"errors"
	"fmt"
)

// ValidationError - некорректные входные данные (неверный тип, пустое поле).
// Операция прерывается без изменения состояния.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("некорректные данные (%s): %s", e.Field, e.Reason)
}

// NotFoundError - операция над несуществующим треком
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("трек с ID %d не найден", e.ID)
}

// StoreError - сбой хранилища. Повторных попыток не делается.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ошибка хранилища (%s): %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsValidation проверяет, является ли ошибка ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound проверяет, является ли ошибка NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsStore проверяет, является ли ошибка StoreError
func IsStore(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}
