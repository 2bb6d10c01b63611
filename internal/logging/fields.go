package logging

// Standardized structured field names used across the pipeline.
const (
	FieldComponent = "component"
	FieldItemID    = "item_id"
	FieldStage     = "stage"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldSeries    = "series"
	FieldEpisode   = "episode"
)
