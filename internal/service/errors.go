package service

import "errors"

var (
	ErrNotFound      = errors.New("error not found")
	ErrAlreadyExists = errors.New("error already exists")
	ErrInvalidInput  = errors.New("error invalid input")
	ErrImportFormat  = errors.New("error unsupported import format")
)
