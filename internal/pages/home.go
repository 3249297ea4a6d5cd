package pages

import (
	"html/template"

	"github.com/antiarchy/antiarchy/internal/config"
	"github.com/antiarchy/antiarchy/internal/hooks"
)

// HomePage is the route handled by the home module.
const HomePage = ""

var homeTemplate = template.Must(template.New("home").Parse(
	`<div><h1>You can do it</h1>{{range .}}{{.}}{{end}}</div>`))

// Home claims the home route and renders the Home.render contributions.
type Home struct {
	hooks *hooks.Dispatcher
	route *hooks.Filter
}

// NewHome creates the home page module.
func NewHome() *Home {
	h := &Home{}
	h.route = hooks.FilterOf(h.renderRoute)
	return h
}

// Name implements features.Feature.
func (h *Home) Name() string { return config.FeatureHome }

// Register hooks the home page into App.renderRoute. The dispatcher is kept
// to apply Home.render.
func (h *Home) Register(d *hooks.Dispatcher, opts ...hooks.HookOption) {
	h.hooks = d
	d.AddFilter(RenderRoute, h.route, opts...)
}

// Unregister removes the home route.
func (h *Home) Unregister(d *hooks.Dispatcher) {
	d.RemoveFilter(RenderRoute, h.route, nil)
}

func (h *Home) renderRoute(_ any, current Fragment, args hooks.Args) (Fragment, error) {
	if args.String(0) != HomePage {
		return current, nil
	}
	v, err := ViewerArg(args, 1)
	if err != nil {
		return "", err
	}
	ctx := ContextArg(args, 2)

	parts, err := hooks.Apply(h.hooks, RenderHome, []Fragment{}, v, ctx)
	if err != nil {
		return "", err
	}
	return Execute(homeTemplate, parts)
}
