package logging

// Standardized field names for structured logging.
// These constants ensure consistency across the application's log output,
// making logs easier to parse, filter, and analyze.
const (
	FieldFund         = "fund_id"
	FieldScenario     = "scenario"
	FieldInstrument   = "instrument_id"
	FieldPeriods      = "periods"
	FieldGranularity  = "granularity"
	FieldRiskLevel    = "risk_level"
	FieldVariable     = "variable"
	FieldIterations   = "iterations"
	FieldOperation    = "operation"
	FieldStatus       = "status"
	FieldError        = "error"
	FieldDuration     = "duration_ms"
	FieldCount        = "count"
	FieldInputFile    = "input_file"
	FieldOutputFile   = "output_file"
	FieldOutputFormat = "output_format"
)
