package naming

import (
	"strings"

	"github.com/iancoleman/strcase"
)

// PascalCase converts a snake_case accessor name to the template field name,
// for example access_logging_enabled to AccessLoggingEnabled.
func PascalCase(accessor string) string {
	return strcase.ToCamel(strings.TrimSpace(accessor))
}

// SnakeCase converts a template field name to its snake_case accessor name,
// for example ContainerName to container_name.
func SnakeCase(field string) string {
	return strcase.ToSnake(strings.TrimSpace(field))
}
