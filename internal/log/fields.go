package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldMember    = "member"
	FieldKind      = "kind"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldEntryID   = "entry_id"
	FieldSheetRef  = "sheet_ref"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldDuration  = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentBot       = "bot"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentScheduler = "scheduler"
	ComponentNotify    = "notify"
	ComponentInsight   = "insight"
)

// Operations defines standard operation names
const (
	OpRecord   = "record"
	OpQuery    = "query"
	OpSync     = "sync"
	OpDispatch = "dispatch"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
