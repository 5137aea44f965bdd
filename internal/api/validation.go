package api

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

func validationMessages(verrs validator.ValidationErrors) []string {
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			out = append(out, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "required":
			out = append(out, fmt.Sprintf("%s is required", field))
		default:
			out = append(out, fmt.Sprintf("%s failed on the '%s' rule", field, fe.Tag()))
		}
	}
	return out
}
