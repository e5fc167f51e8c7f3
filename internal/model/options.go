package model

// Options configures the behaviour of the struct Builder. Options are
// constructed by the public adapter in pkg/model and passed into New.
type Options struct {
	Labeler Labeler
	// TagName is the struct tag consulted before `json`. Defaults to "form".
	TagName string
}

func defaultOptions() Options {
	return Options{
		Labeler: DefaultLabeler,
		TagName: "form",
	}
}
