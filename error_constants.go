package cfntheory

// Stable error codes carried by *Error.
const (
	ErrorCodeInvalidID           = "cfn.invalid_id"
	ErrorCodeDuplicateID         = "cfn.duplicate_id"
	ErrorCodeInvalidScope        = "cfn.invalid_scope"
	ErrorCodeUnknownType         = "cfn.unknown_type"
	ErrorCodeValidationFailed    = "cfn.validation_failed"
	ErrorCodeUnknownAttribute    = "cfn.unknown_attribute"
	ErrorCodeCrossStackReference = "cfn.cross_stack_reference"
	ErrorCodeDependencyCycle     = "cfn.dependency_cycle"
	ErrorCodeSynthesisFailed     = "cfn.synthesis_failed"
	ErrorCodeConfigInvalid       = "cfn.config_invalid"
)

const (
	errorMessageEmptyID       = "construct id must not be empty"
	errorMessageSlashInID     = "construct id must not contain '/'"
	errorMessageNilScope      = "scope must not be nil"
	errorMessageScopeNotApp   = "stacks must be created directly under the app"
	errorMessageScopeNoStack  = "construct must be created inside a stack"
	errorMessageLogicalIDForm = "logical id must be 1-255 alphanumeric characters"
	errorMessageStackNameForm = "stack name must start with a letter and contain only letters, digits and dashes"
)
