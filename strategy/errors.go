package strategy

import (
	"errors"
	"fmt"
)

// Rule names the validation rule a value violated.
type Rule string

const (
	InvalidNumber  Rule = "InvalidNumber"
	InvalidEnum    Rule = "InvalidEnum"
	OutOfRange     Rule = "OutOfRange"
	InvalidField   Rule = "InvalidField"
	InvalidAddress Rule = "InvalidAddress"
)

var (
	ErrInvalidNumber  = errors.New("invalid number")
	ErrInvalidEnum    = errors.New("invalid enum")
	ErrOutOfRange     = errors.New("out of range")
	ErrInvalidField   = errors.New("invalid field")
	ErrInvalidAddress = errors.New("invalid address")
)

var sentinels = map[Rule]error{
	InvalidNumber:  ErrInvalidNumber,
	InvalidEnum:    ErrInvalidEnum,
	OutOfRange:     ErrOutOfRange,
	InvalidField:   ErrInvalidField,
	InvalidAddress: ErrInvalidAddress,
}

// ValidationError is a rejected edit. It never aborts anything beyond the
// single field it belongs to.
type ValidationError struct {
	Key    string
	Field  string
	Rule   Rule
	Reason string
}

func (e *ValidationError) Error() string {
	name := e.Key
	if e.Field != "" {
		name = fmt.Sprintf("%s.%s", e.Key, e.Field)
	}

	return fmt.Sprintf("%s: %s (%s)", name, e.Reason, e.Rule)
}

// Is lets callers match with errors.Is(err, ErrOutOfRange) and friends.
func (e *ValidationError) Is(target error) bool {
	return sentinels[e.Rule] == target
}

func fail(key string, rule Rule, format string, args ...any) error {
	return &ValidationError{
		Key:    key,
		Rule:   rule,
		Reason: fmt.Sprintf(format, args...),
	}
}

// RuleOf returns the violated rule of a validation error, or "" when err
// is not one.
func RuleOf(err error) Rule {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Rule
	}

	return ""
}
