package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var orderCompile = regexp.MustCompile(`^[a-z][a-z_]{0,30}[a-z](\s(asc|ASC|desc|DESC))?(,[a-z][a-z_]{0,30}[a-z](\s(asc|ASC|desc|DESC))?)*$`)

// OrderWithDBSort accepts "col [asc|desc][,col ...]".
func OrderWithDBSort(f1 validator.FieldLevel) bool {
	valid, ok := f1.Field().Interface().(string)
	if !ok {
		return false
	}
	return orderCompile.MatchString(valid)
}

var componentCompile = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// ComponentName accepts billing component names such as "cores" or "ram_gb".
func ComponentName(f1 validator.FieldLevel) bool {
	valid, ok := f1.Field().Interface().(string)
	if !ok {
		return false
	}
	return componentCompile.MatchString(valid)
}
