package page

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"sync"

	"github.com/briefspark/briefspark/internal/log"
	"github.com/samber/do"
)

//go:embed assets/studio.html
var studioTmpl string

type Params struct {
	Title string
}

type Templator struct {
	tmpl *template.Template
	once sync.Once
}

func NewTemplator(i *do.Injector) (*Templator, error) {
	return &Templator{}, nil
}

func (t *Templator) Template(ctx context.Context, params Params) ([]byte, error) {
	t.once.Do(func() {
		t.tmpl = template.Must(template.New("studio").Parse(studioTmpl))
	})

	logger := log.FromContextOrDiscard(ctx).WithGroup("templator")
	logger.Debug("rendering studio page")

	var data bytes.Buffer
	if err := t.tmpl.Execute(&data, params); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}
