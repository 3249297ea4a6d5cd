// Package pages assembles HTML pages from hook contributions.
//
// DESIGN: The app knows no pages. It applies the App.renderRoute filter to a
// "not found" fragment; page modules replace the fragment when the route is
// theirs. The home page does the same with Home.render, starting from an
// empty fragment list that feature modules append to.
//
// Filter arguments are fixed for the whole chain:
//   - App.renderRoute: (page string, viewer *viewer.Viewer, ctx context.Context)
//   - Home.render:     (viewer *viewer.Viewer, ctx context.Context)
package pages

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/antiarchy/antiarchy/internal/hooks"
	"github.com/antiarchy/antiarchy/internal/viewer"
)

// Hook names.
const (
	RenderRoute = "App.renderRoute"
	RenderHome  = "Home.render"
)

// Fragment is a piece of trusted HTML contributed by a module.
type Fragment = template.HTML

// NotFound is the route fragment when no page module claims the route.
const NotFound Fragment = "<p>Page Not Found</p>"

var layout = template.Must(template.New("layout").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>antiarchy</title></head>
<body><div id="root"><div>{{.}}</div></div></body>
</html>
`))

// App renders full documents.
type App struct {
	hooks *hooks.Dispatcher
}

// NewApp creates an app dispatching through d.
func NewApp(d *hooks.Dispatcher) *App {
	return &App{hooks: d}
}

// RenderBody returns the route fragment for the viewer's page.
func (a *App) RenderBody(ctx context.Context, v *viewer.Viewer) (Fragment, error) {
	return hooks.Apply(a.hooks, RenderRoute, NotFound, v.Page(), v, ctx)
}

// Render returns the complete HTML document for the viewer's page.
func (a *App) Render(ctx context.Context, v *viewer.Viewer) ([]byte, error) {
	body, err := a.RenderBody(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("render page %q: %w", v.Page(), err)
	}
	return Layout(body)
}

// Layout wraps body in the HTML document shell.
func Layout(body Fragment) ([]byte, error) {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, body); err != nil {
		return nil, fmt.Errorf("render layout: %w", err)
	}
	return buf.Bytes(), nil
}

// ContextArg returns argument i as a context, or context.Background().
func ContextArg(args hooks.Args, i int) context.Context {
	if ctx, ok := hooks.ArgAs[context.Context](args, i); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}

// ViewerArg returns argument i as a viewer.
func ViewerArg(args hooks.Args, i int) (*viewer.Viewer, error) {
	v, ok := hooks.ArgAs[*viewer.Viewer](args, i)
	if !ok || v == nil {
		return nil, fmt.Errorf("argument %d: %T is not a viewer", i, args.At(i))
	}
	return v, nil
}

// Execute renders tmpl with data into a fragment.
func Execute(tmpl *template.Template, data any) (Fragment, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", tmpl.Name(), err)
	}
	return Fragment(buf.String()), nil
}
