package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zzl/go-mdparam/metadata"
	"github.com/zzl/go-mdparam/utils"
)

// Printer renders methods in an ildasm-like syntax. Printing reads every facet, so it
// resolves them from the module's provider.
type Printer struct {
	ShowTokens bool
	Indent     string
}

func NewPrinter() *Printer {
	return &Printer{Indent: "    "}
}

func (this *Printer) PrintModule(module *metadata.Module) (string, error) {
	code := ".module " + utils.SafeName(module.Name) + " // " + module.Mvid.String() + "\n"
	for _, method := range module.Methods() {
		mcode, err := this.PrintMethod(method)
		if err != nil {
			return "", err
		}
		code += "\n" + mcode
	}
	return code, nil
}

func (this *Printer) PrintMethod(method *metadata.MethodDefinition) (string, error) {
	code := ".method " + method.FullName() + "("
	if this.ShowTokens {
		code += " // " + method.MetadataToken().String()
	}
	code += "\n"
	params := method.Parameters()
	for n, p := range params {
		decl, err := this.PrintParam(p)
		if err != nil {
			return "", err
		}
		code += this.Indent + decl
		if n < len(params)-1 {
			code += ","
		}
		if this.ShowTokens {
			code += " // " + p.MetadataToken().String()
		}
		code += "\n"
	}
	code += ")"
	if method.ReturnType != nil {
		code += " : " + method.ReturnType.FullName()
	}
	code += "\n{\n"
	for _, p := range params {
		body, err := this.printParamBody(p)
		if err != nil {
			return "", err
		}
		code += body
	}
	code += "}\n"
	return code, nil
}

// PrintParam renders the declaration of p as it appears in the signature.
func (this *Printer) PrintParam(p *metadata.ParameterDefinition) (string, error) {
	var code string
	if p.IsIn() {
		code += "[in]"
	}
	if p.IsOut() {
		code += "[out]"
	}
	if p.IsLcid() {
		code += "[lcid]"
	}
	if p.IsReturnValue() {
		code += "[retval]"
	}
	if p.IsOptional() {
		code += "[opt]"
	}
	if code != "" {
		code += " "
	}
	code += p.ParameterType().FullName()
	if p.Name() != "" {
		code += " " + utils.SafeName(p.Name())
	}
	mi, err := p.MarshalInfo()
	if err != nil {
		return "", err
	}
	if mi != nil {
		code += " marshal(" + FormatMarshal(mi) + ")"
	}
	return code, nil
}

func (this *Printer) printParamBody(p *metadata.ParameterDefinition) (string, error) {
	hasConstant, err := p.HasConstant()
	if err != nil {
		return "", err
	}
	attrs, err := p.CustomAttributes()
	if err != nil {
		return "", err
	}
	if !hasConstant && len(attrs) == 0 {
		return "", nil
	}
	code := this.Indent + ".param [" + strconv.Itoa(p.Sequence()) + "]"
	if hasConstant {
		value, err := p.Constant()
		if err != nil {
			return "", err
		}
		code += " = " + FormatConstant(value)
	}
	code += "\n"
	for _, ca := range attrs {
		code += this.Indent + this.Indent + ".custom " + FormatCustomAttribute(ca) + "\n"
	}
	return code, nil
}

func FormatConstant(value interface{}) string {
	et, err := metadata.ElementTypeOf(value)
	if err != nil {
		return fmt.Sprintf("/* %T */ %v", value, value)
	}
	switch v := value.(type) {
	case nil:
		return "nullref"
	case string:
		return utils.QuoteString(v)
	case metadata.Char:
		return fmt.Sprintf("char(0x%04X)", uint16(v))
	case float32:
		return et.String() + "(" + strconv.FormatFloat(float64(v), 'g', -1, 32) + ")"
	case float64:
		return et.String() + "(" + strconv.FormatFloat(v, 'g', -1, 64) + ")"
	}
	return fmt.Sprintf("%s(%v)", et, value)
}

func FormatCustomAttribute(ca *metadata.CustomAttribute) string {
	var typeName string
	if ca.AttributeType != nil {
		typeName = ca.AttributeType.FullName()
	}
	var args []string
	for _, arg := range ca.Args {
		args = append(args, FormatConstant(arg))
	}
	for _, arg := range ca.NamedArgs {
		kind := "property "
		if arg.Field {
			kind = "field "
		}
		args = append(args, kind+arg.Name+" = "+FormatConstant(arg.Value))
	}
	return typeName + "(" + utils.JoinArgs(args) + ")"
}

func FormatMarshal(mi *metadata.MarshalInfo) string {
	switch {
	case mi.Array != nil:
		a := mi.Array
		var code string
		if a.ElementType != metadata.NativeTypeNone {
			code = a.ElementType.String()
		}
		var dims []string
		if a.Size >= 0 {
			dims = append(dims, strconv.Itoa(a.Size))
		}
		if a.SizeParameterIndex >= 0 {
			dims = append(dims, "+ "+strconv.Itoa(a.SizeParameterIndex))
		}
		return code + "[" + strings.Join(dims, " ") + "]"
	case mi.FixedArray != nil:
		code := "fixed array [" + strconv.Itoa(mi.FixedArray.Size) + "]"
		if mi.FixedArray.ElementType != metadata.NativeTypeNone {
			code += " " + mi.FixedArray.ElementType.String()
		}
		return code
	case mi.FixedSysString != nil:
		return "fixed sysstring [" + strconv.Itoa(mi.FixedSysString.Size) + "]"
	case mi.SafeArray != nil:
		if name := mi.SafeArray.ElementType.String(); name != "" {
			return "safearray " + name
		}
		return "safearray"
	case mi.Custom != nil:
		return "custom(" + utils.QuoteString(mi.Custom.ManagedType) + ", " + utils.QuoteString(mi.Custom.Cookie) + ")"
	}
	return mi.NativeType.String()
}
