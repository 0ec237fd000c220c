package formflow

// FormID identifies a form on the Google Forms service.
// It is the same opaque identifier Drive uses for the underlying file,
// returned by the create call and required by every subsequent operation.
type FormID string
