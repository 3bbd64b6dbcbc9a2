package models

// RawSnapshot is the loosely structured status payload as decoded from the
// server. The only field guaranteed to exist is "status"; progress detail
// lives in a nested "metadata" object whose fields are all optional and
// whose numeric values arrive as whatever the JSON decoder produced.
// The normalizer in internal/progress turns this into a JobProgress.
type RawSnapshot map[string]any
