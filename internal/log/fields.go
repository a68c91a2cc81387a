package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldSession     = "session"
	FieldCommand     = "command"
	FieldCommandID   = "command_id"
	FieldDurationMs  = "duration_ms"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldRecordID    = "record_id"
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldStatus      = "status"
	FieldCount       = "count"
	FieldSelected    = "selected"
	FieldFilter      = "filter"
	FieldBackend     = "backend"
	FieldDSN         = "dsn"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentStore   = "store"
	ComponentStorage = "storage"
	ComponentShell   = "shell"
	ComponentBackend = "backend"
	ComponentConfig  = "config"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpSelect     = "toggle_select"
	OpFilter     = "toggle_filter"
	OpBulkStatus = "bulk_set_status"
	OpList       = "list"
	OpReport     = "report"
	OpMigrate    = "migrate"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeEmptySelect   = "nothing_selected"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds record-related fields
func (f LogFields) WithRecord(id, desc, amount, status string) LogFields {
	f[FieldRecordID] = id
	f[FieldDescription] = desc
	f[FieldAmount] = amount
	f[FieldStatus] = status
	return f
}

// WithStatus adds the status field
func (f LogFields) WithStatus(status string) LogFields {
	f[FieldStatus] = status
	return f
}

// WithCount adds the count field
func (f LogFields) WithCount(n int) LogFields {
	f[FieldCount] = n
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
