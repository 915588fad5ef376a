package tool

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/fogfish/opts"
	"github.com/garcon-ai/garcon/pkg/reflectx"
	"github.com/garcon-ai/garcon/pkg/stdx"
	"github.com/garcon-ai/garcon/types"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Definition describes a function an agent may call: its advertised
// name, a description for the model, the parameter names in call order,
// and the Go function to invoke.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]string
	Function    any
}

var functionReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ToNameAndSchema resolves the tool's wire name and builds the JSON
// schema for its parameters from the function signature.
func (td Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	return functionDefinitionJSON(&functionReflector, td)
}

func functionDefinitionJSON(reflector *jsonschema.Reflector, f Definition) (string, *jsonschema.Schema) {
	val := reflect.ValueOf(f.Function)
	typ := val.Type()

	name := f.Name
	if name == "" && typ.Kind() == reflect.Func {
		if typ.Name() != "" {
			name = typ.String()
		} else if fn := runtime.FuncForPC(val.Pointer()); fn != nil {
			name = fn.Name()
			if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
				name = name[lastDot+1:]
			}
		} else {
			name = typ.String()
		}
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}

	if typ.Kind() == reflect.Func {
		numIn := typ.NumIn()
		startIdx := 0
		// skip the receiver for methods
		if numIn > 0 && typ.In(0).Kind() == reflect.Struct {
			startIdx = 1
		}

		var required []string
		var argIdx int
		for i := startIdx; i < numIn; i++ {
			paramType := typ.In(i)
			// context vars are injected by the executor, not the model
			if reflectx.IsRefinedType[types.ContextVars](paramType) {
				continue
			}

			paramName := fmt.Sprintf("param%d", argIdx)
			argIdx++
			if f.Parameters != nil {
				if p, ok := f.Parameters[paramName]; ok {
					paramName = p
				}
			}

			propSchema := reflector.ReflectFromType(paramType)
			propSchema.Version = ""
			schema.Properties.Set(paramName, propSchema)
			required = append(required, paramName)
		}
		if len(required) > 0 {
			schema.Required = required
		}
	}

	return name, schema
}

// Option configures a tool definition.
type Option = opts.Option[Definition]

// Must is New but panics on error, for package-level tool declarations.
func Must(f any, options ...Option) Definition {
	return stdx.Must1(New(f, options...))
}

// New builds a Definition from a function and options. The function's
// reflected name is used when no explicit name is given.
func New(f any, options ...Option) (Definition, error) {
	if !reflectx.IsFunction(f) {
		return Definition{}, fmt.Errorf("provided value is not a function")
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = reflectx.FunctionName(f)
	}

	def.Function = f
	return def, nil
}

// Name sets the tool's advertised name.
var Name = opts.ForName[Definition, string]("Name")

// Description sets the description shown to the model.
var Description = opts.ForName[Definition, string]("Description")

// Parameters names the function's parameters, in order. These names
// become the JSON argument keys the model fills in.
func Parameters(parameters ...string) opts.Option[Definition] {
	return opts.Type[Definition](func(o *Definition) error {
		o.Parameters = make(map[string]string, len(parameters))
		for i, p := range parameters {
			o.Parameters[fmt.Sprintf("param%d", i)] = p
		}
		return nil
	})
}
