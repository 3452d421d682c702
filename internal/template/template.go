// Package template renders the guardian notification body.
//
// Substitution is deliberately literal: the two tokens are replaced
// once, unresolved tokens stay verbatim, and no escaping or recursive
// expansion takes place.
package template

import "strings"

// Default is used when no template row has been saved yet.
const Default = "Prezado {guardian_name}, informamos que o aluno {student_name} esteve ausente na data de hoje."

const (
	tokenStudent  = "{student_name}"
	tokenGuardian = "{guardian_name}"
)

func Render(body, studentName, guardianName string) string {
	r := strings.NewReplacer(
		tokenStudent, studentName,
		tokenGuardian, guardianName,
	)
	return r.Replace(body)
}
