package log

// Structured logging field names.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldRequestID = "request_id"

	FieldEntryID   = "entry_id"
	FieldTxType    = "tx_type"
	FieldStatus    = "status"
	FieldUSD       = "usd"
	FieldRowRef    = "row_ref"
	FieldBatchSize = "batch_size"
	FieldQueue     = "queue"
	FieldExchange  = "exchange"

	FieldHTTPMethod = "http_method"
	FieldHTTPPath   = "http_path"
	FieldHTTPStatus = "http_status"
	FieldRemoteAddr = "remote_addr"
)

// Component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentMirror  = "mirror"
	ComponentExtract = "extract"
	ComponentCache   = "cache"
	ComponentService = "service"
)

// Operation names.
const (
	OpAppendEntry    = "append_entry"
	OpListEntries    = "list_entries"
	OpComputeStats   = "compute_stats"
	OpExtractSlip    = "extract_slip"
	OpMirrorEntry    = "mirror_entry"
	OpPublishMessage = "publish_message"
	OpConsumeMessage = "consume_message"
	OpMigrate        = "migrate"
	OpStartup        = "startup"
	OpShutdown       = "shutdown"
)
