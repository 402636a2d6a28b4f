package model

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	// ErrSlotUnavailable: слот уже занят или заблокирован, клиент должен выбрать другой
	ErrSlotUnavailable = errors.New("slot no longer available")
	// ErrInvalidTransition: состояние устарело, клиент должен перезагрузить данные
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrSlotBooked        = errors.New("slot is booked")
	ErrOverlappingRules  = errors.New("availability rules overlap")
)
