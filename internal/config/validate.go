// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package config

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	structValidator *validator.Validate
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		structValidator = validator.New()
	})
	return structValidator
}

// Validate enforces the struct tags declared on Config and its nested
// sections (spec.md §6's configuration table).
func Validate(cfg *Config) error {
	return getValidator().Struct(cfg)
}
