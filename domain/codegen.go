package domain

import (
	"strings"

	"github.com/google/uuid"
)

// CodeGenerator produces guest access codes. It is injected into command
// handlers so the code is generated once at command time and embedded in
// the event payload, keeping replay deterministic and letting tests pin
// the generated value.
type CodeGenerator interface {
	AccessCode() string
}

// UUIDCodeGenerator derives short uppercase codes from random UUIDs.
type UUIDCodeGenerator struct{}

// AccessCode returns an 8 character uppercase code.
func (UUIDCodeGenerator) AccessCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:8])
}
