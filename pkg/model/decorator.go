package model

// Decorator enriches a form model after it has been loaded, for example to
// attach labels or opt fields into nested validation.
type Decorator interface {
	Decorate(*FormModel) error
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(*FormModel) error

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(form *FormModel) error {
	return fn(form)
}

// LabelDecorator fills empty labels using the labeler (DefaultLabeler when
// nil), recursing into nested fields and items.
func LabelDecorator(labeler Labeler) Decorator {
	if labeler == nil {
		labeler = DefaultLabeler
	}
	return DecoratorFunc(func(form *FormModel) error {
		labelFields(form.Fields, labeler)
		return nil
	})
}

func labelFields(fields []Field, labeler Labeler) {
	for i := range fields {
		if fields[i].Label == "" {
			fields[i].Label = labeler(fields[i].Name)
		}
		labelFields(fields[i].Nested, labeler)
		if fields[i].Items != nil {
			labelFields(fields[i].Items.Nested, labeler)
		}
	}
}
