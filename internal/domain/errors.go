package domain

import "errors"

var (
	ErrSettingsNotFound    = errors.New("settings not found")
	ErrContentTypeNotFound = errors.New("content type not found")
	ErrFieldNotFound       = errors.New("field not found")
	ErrFieldExists         = errors.New("field already exists")
	ErrFieldStorageMissing = errors.New("field storage does not exist")
)
