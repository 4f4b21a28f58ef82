package tool

import (
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 3
)

// Registry is the static name-to-descriptor mapping. All registration
// happens during startup; afterwards the registry is read-only, so the
// hot path needs no synchronization.
type Registry struct {
	byName map[string]*Descriptor
	order  []*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register validates and adds a descriptor. Duplicate names fail so a
// misconfigured catalog is caught at startup instead of shadowing tools.
func (r *Registry) Register(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", contractx.ErrValidation)
	}
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("%w: tool name is required", contractx.ErrValidation)
	}
	if d.Invoke == nil {
		return fmt.Errorf("%w: tool %s has no invoke function", contractx.ErrValidation, name)
	}
	if d.Retries < 0 || d.Retries > maxRetries {
		return fmt.Errorf("%w: tool %s retries must be within [0,%d]", contractx.ErrValidation, name, maxRetries)
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", contractx.ErrToolRegistered, name)
	}
	if d.Timeout <= 0 {
		d.Timeout = defaultTimeout
	}

	r.byName[name] = d
	r.order = append(r.order, d)
	return nil
}

func (r *Registry) Resolve(name string) (*Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrToolNotFound, name)
	}
	return d, nil
}

// List returns descriptors in registration order. The classifier
// iterates this to test patterns.
func (r *Registry) List() []*Descriptor {
	return r.order
}

// Infos exports the catalog as eino tool schemas for introspection.
func (r *Registry) Infos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, d := range r.order {
		params := make(map[string]*schema.ParameterInfo, len(d.Params))
		for name, spec := range d.Params {
			params[name] = &schema.ParameterInfo{
				Type:     schemaType(spec.Kind),
				Desc:     paramDesc(spec),
				Required: spec.Kind == contractx.ParamConstant,
			}
		}
		infos = append(infos, &schema.ToolInfo{
			Name:        d.Name,
			Desc:        d.Desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos
}

func schemaType(kind contractx.ParamKind) schema.DataType {
	if kind == contractx.ParamList {
		return schema.Array
	}
	return schema.String
}

func paramDesc(spec contractx.ParamSpec) string {
	switch spec.Kind {
	case contractx.ParamEntity:
		return fmt.Sprintf("entity %s, default %q", spec.Entity, spec.Default)
	case contractx.ParamConstant:
		return fmt.Sprintf("constant %q", spec.Default)
	default:
		return string(spec.Kind)
	}
}
