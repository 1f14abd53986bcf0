package render

import (
	"context"

	"github.com/goliatone/go-formcond/pkg/form"
)

// Renderer converts an evaluated form into a byte representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, report form.Report, options RenderOptions) ([]byte, error)
}
