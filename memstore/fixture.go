package memstore

import (
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/zzl/go-mdparam/metadata"
)

type fixtureModule struct {
	Module  string          `yaml:"module"`
	Mvid    string          `yaml:"mvid"`
	Methods []fixtureMethod `yaml:"methods"`
}

type fixtureMethod struct {
	Name          string         `yaml:"name"`
	DeclaringType string         `yaml:"declaringType"`
	Returns       string         `yaml:"returns"`
	Params        []fixtureParam `yaml:"params"`
}

type fixtureParam struct {
	Name       string             `yaml:"name"`
	Type       string             `yaml:"type"`
	Flags      []string           `yaml:"flags"`
	Constant   *fixtureValue      `yaml:"constant"`
	Attributes []fixtureAttribute `yaml:"attributes"`
	Marshal    *fixtureMarshal    `yaml:"marshal"`
}

type fixtureValue struct {
	Type  string      `yaml:"type"`
	Value interface{} `yaml:"value"`
	Field bool        `yaml:"field"`
}

type fixtureAttribute struct {
	Type  string                  `yaml:"type"`
	Args  []fixtureValue          `yaml:"args"`
	Named map[string]fixtureValue `yaml:"named"`
}

type fixtureMarshal struct {
	Native     string `yaml:"native"`
	Element    string `yaml:"element"`
	Size       *int   `yaml:"size"`
	SizeParam  *int   `yaml:"sizeParam"`
	Multiplier *int   `yaml:"multiplier"`
	Variant    uint32 `yaml:"variant"`
	Guid       string `yaml:"guid"`
	Unmanaged  string `yaml:"unmanaged"`
	Managed    string `yaml:"managed"`
	Cookie     string `yaml:"cookie"`
}

var flagNames = map[string]metadata.ParamAttributes{
	"In":              metadata.ParamIn,
	"Out":             metadata.ParamOut,
	"Lcid":            metadata.ParamLcid,
	"Retval":          metadata.ParamRetval,
	"Optional":        metadata.ParamOptional,
	"HasDefault":      metadata.ParamHasDefault,
	"HasFieldMarshal": metadata.ParamHasFieldMarshal,
}

// LoadFixture reads a YAML module description and returns the module attached to a
// new Store holding its facet rows. Parameters come back unresolved.
func LoadFixture(r io.Reader) (*metadata.Module, *Store, error) {
	var doc fixtureModule
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, errors.Wrap(err, "decode fixture")
	}
	store := New()
	module := metadata.NewModule(doc.Module, store)
	if doc.Mvid != "" {
		mvid, err := uuid.Parse(doc.Mvid)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "module %s mvid", doc.Module)
		}
		module.Mvid = mvid
	}
	for _, fm := range doc.Methods {
		var returnType *metadata.TypeReference
		if fm.Returns != "" {
			returnType = module.ParseTypeReference(fm.Returns)
		}
		method := module.AddMethod(fm.Name, returnType)
		method.DeclaringType = fm.DeclaringType
		for _, fp := range fm.Params {
			p, err := loadParam(module, store, fp)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "method %s", fm.Name)
			}
			method.AddParameter(p)
		}
	}
	return module, store, nil
}

func loadParam(module *metadata.Module, store *Store, fp fixtureParam) (*metadata.ParameterDefinition, error) {
	if fp.Type == "" {
		return nil, errors.Errorf("parameter %q has no type", fp.Name)
	}
	var attrs metadata.ParamAttributes
	for _, name := range fp.Flags {
		mask, ok := flagNames[name]
		if !ok {
			return nil, errors.Errorf("parameter %q: unknown flag %q", fp.Name, name)
		}
		attrs |= mask
	}
	p := metadata.NewParameterDefinition(fp.Name, attrs, module.ParseTypeReference(fp.Type))
	token := p.MetadataToken()

	if fp.Constant != nil {
		value, err := fp.Constant.convert()
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %q constant", fp.Name)
		}
		store.SetConstant(token, value)
	}
	if len(fp.Attributes) > 0 {
		var cas []*metadata.CustomAttribute
		for _, fa := range fp.Attributes {
			ca, err := fa.build(module)
			if err != nil {
				return nil, errors.Wrapf(err, "parameter %q attribute %s", fp.Name, fa.Type)
			}
			cas = append(cas, ca)
		}
		store.SetCustomAttributes(token, cas...)
	}
	if fp.Marshal != nil {
		mi, err := fp.Marshal.build()
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %q marshal", fp.Name)
		}
		store.SetMarshalInfo(token, mi)
	}
	return p, nil
}

func (this fixtureValue) convert() (interface{}, error) {
	et, ok := metadata.ParseElementType(this.Type)
	if !ok {
		return nil, errors.Errorf("unknown element type %q", this.Type)
	}
	return metadata.ConvertConstant(et, this.Value)
}

func (this fixtureAttribute) build(module *metadata.Module) (*metadata.CustomAttribute, error) {
	ca := metadata.NewCustomAttribute(module.ParseTypeReference(this.Type))
	for _, arg := range this.Args {
		value, err := arg.convert()
		if err != nil {
			return nil, err
		}
		ca.Args = append(ca.Args, value)
	}
	for name, arg := range this.Named {
		value, err := arg.convert()
		if err != nil {
			return nil, errors.Wrapf(err, "named argument %s", name)
		}
		ca.NamedArgs = append(ca.NamedArgs, metadata.NamedArgument{Name: name, Field: arg.Field, Value: value})
	}
	sort.Slice(ca.NamedArgs, func(i, j int) bool {
		return ca.NamedArgs[i].Name < ca.NamedArgs[j].Name
	})
	return ca, nil
}

func (this fixtureMarshal) build() (*metadata.MarshalInfo, error) {
	nt, ok := metadata.ParseNativeType(this.Native)
	if !ok {
		return nil, errors.Errorf("unknown native type %q", this.Native)
	}
	mi := metadata.NewMarshalInfo(nt)
	var element metadata.NativeType
	if this.Element != "" {
		if element, ok = metadata.ParseNativeType(this.Element); !ok {
			return nil, errors.Errorf("unknown element native type %q", this.Element)
		}
	}
	switch {
	case mi.Array != nil:
		if this.Element != "" {
			mi.Array.ElementType = element
		}
		if this.Size != nil {
			mi.Array.Size = *this.Size
		}
		if this.SizeParam != nil {
			mi.Array.SizeParameterIndex = *this.SizeParam
		}
		if this.Multiplier != nil {
			mi.Array.SizeParameterMultiplier = *this.Multiplier
		}
	case mi.FixedArray != nil:
		if this.Element != "" {
			mi.FixedArray.ElementType = element
		}
		if this.Size != nil {
			mi.FixedArray.Size = *this.Size
		}
	case mi.FixedSysString != nil:
		if this.Size != nil {
			mi.FixedSysString.Size = *this.Size
		}
	case mi.SafeArray != nil:
		mi.SafeArray.ElementType = metadata.VariantType(this.Variant)
	case mi.Custom != nil:
		if this.Guid != "" {
			guid, err := uuid.Parse(this.Guid)
			if err != nil {
				return nil, errors.Wrap(err, "custom marshaler guid")
			}
			mi.Custom.Guid = guid
		}
		mi.Custom.UnmanagedType = this.Unmanaged
		mi.Custom.ManagedType = this.Managed
		mi.Custom.Cookie = this.Cookie
	}
	return mi, nil
}
