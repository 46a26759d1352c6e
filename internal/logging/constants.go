package logging

// Field names shared by all log output.
const (
	FieldComponent     = "component"
	FieldMessageID     = "message_id"
	FieldMessage       = "message"
	FieldSchemaVersion = "schema_version"
	FieldPath          = "path"
	FieldSegment       = "segment"
	FieldOffset        = "offset"
	FieldCount         = "count"
	FieldFile          = "file_path"
	FieldFormat        = "format"
	FieldOperation     = "operation"
	FieldKind          = "kind"
	FieldSize          = "size"
	FieldError         = "error"
)
