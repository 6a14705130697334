package winmd

import (
	"github.com/pkg/errors"
	"github.com/zzl/go-winmd/mdmodel"
	"go.uber.org/zap"

	"github.com/zzl/go-mdparam/metadata"
)

const archAttrName = "Windows.Win32.Interop.SupportedArchitectureAttribute"

// Image serves parameter facets straight from the tables of an open winmd file.
// Rows are keyed by Param row id, so parameters must be created with their real
// row ids (Module.ReadParameter).
type Image struct {
	model  *mdmodel.Model
	closer func()
	logger *zap.Logger

	enclosing        map[*mdmodel.TypeDefRow]*mdmodel.TypeDefRow
	methods          map[string][]*mdmodel.MethodDefRow
	methodAttributes map[*mdmodel.MethodDefRow][]*mdmodel.CustomAttributeRow

	constants  map[uint32]*mdmodel.ConstantRow
	attributes map[uint32][]*mdmodel.CustomAttributeRow
	marshals   map[uint32]*mdmodel.FieldMarshalRow
}

// NewImage indexes md. The image owns md from here on: Close releases it.
func NewImage(md *mdmodel.Model, logger *zap.Logger) *Image {
	if logger == nil {
		logger = zap.NewNop()
	}
	this := &Image{
		model:            md,
		closer:           md.Close,
		logger:           logger,
		enclosing:        make(map[*mdmodel.TypeDefRow]*mdmodel.TypeDefRow),
		methods:          make(map[string][]*mdmodel.MethodDefRow),
		methodAttributes: make(map[*mdmodel.MethodDefRow][]*mdmodel.CustomAttributeRow),
		constants:        make(map[uint32]*mdmodel.ConstantRow),
		attributes:       make(map[uint32][]*mdmodel.CustomAttributeRow),
		marshals:         make(map[uint32]*mdmodel.FieldMarshalRow),
	}
	tables := md.Tables
	for n := range tables.NestedClass.Rows {
		row := &tables.NestedClass.Rows[n]
		this.enclosing[row.NestedClass] = row.EnclosingClass
	}
	for n := range tables.MethodDef.Rows {
		row := &tables.MethodDef.Rows[n]
		key := this.methodKey(this.typeDefFullName(row.OwnerType), row.Name)
		this.methods[key] = append(this.methods[key], row)
	}
	for n := range tables.Constant.Rows {
		row := &tables.Constant.Rows[n]
		if param, ok := row.Parent.(*mdmodel.ParamRow); ok {
			this.constants[param.RowIndex()] = row
		}
	}
	for n := range tables.CustomAttribute.Rows {
		row := &tables.CustomAttribute.Rows[n]
		switch parent := row.Parent.(type) {
		case *mdmodel.ParamRow:
			this.attributes[parent.RowIndex()] = append(this.attributes[parent.RowIndex()], row)
		case *mdmodel.MethodDefRow:
			this.methodAttributes[parent] = append(this.methodAttributes[parent], row)
		}
	}
	for n := range tables.FieldMarshal.Rows {
		row := &tables.FieldMarshal.Rows[n]
		if param, ok := row.Parent.(*mdmodel.ParamRow); ok {
			this.marshals[param.RowIndex()] = row
		}
	}
	logger.Debug("winmd image indexed",
		zap.Int("constants", len(this.constants)),
		zap.Int("attributedParams", len(this.attributes)),
		zap.Int("marshals", len(this.marshals)))
	return this
}

func (this *Image) HasImage() bool {
	return this != nil && this.model != nil
}

// Close unmaps the file. Parameters read afterwards behave as detached.
func (this *Image) Close() error {
	if this.model == nil {
		return nil
	}
	if this.closer != nil {
		this.closer()
	}
	this.model = nil
	return nil
}

func (this *Image) paramRID(token metadata.MetadataToken) (uint32, error) {
	if !this.HasImage() {
		return 0, errors.New("winmd image is closed")
	}
	if token.TokenType() != metadata.TokenParam || token.IsZero() {
		return 0, errors.Errorf("%s is not a parameter row", token)
	}
	return token.RID(), nil
}

func (this *Image) ResolveConstant(token metadata.MetadataToken) (interface{}, bool, error) {
	rid, err := this.paramRID(token)
	if err != nil {
		return nil, false, err
	}
	row, ok := this.constants[rid]
	if !ok {
		return nil, false, nil
	}
	value, err := metadata.DecodeConstant(metadata.ElementType(row.Type), row.Value)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decode constant of %s", token)
	}
	return value, true, nil
}

func (this *Image) HasCustomAttributes(token metadata.MetadataToken) (bool, error) {
	rid, err := this.paramRID(token)
	if err != nil {
		return false, err
	}
	return len(this.attributes[rid]) > 0, nil
}

func (this *Image) CustomAttributes(token metadata.MetadataToken) ([]*metadata.CustomAttribute, error) {
	rid, err := this.paramRID(token)
	if err != nil {
		return nil, err
	}
	rows := this.attributes[rid]
	cas := make([]*metadata.CustomAttribute, 0, len(rows))
	for _, row := range rows {
		cas = append(cas, this.customAttribute(row))
	}
	return cas, nil
}

// customAttribute converts a row. go-winmd drops the field/property marker of named
// arguments, so they all come back as properties.
func (this *Image) customAttribute(row *mdmodel.CustomAttributeRow) *metadata.CustomAttribute {
	ca := metadata.NewCustomAttribute(this.attributeType(row))
	ca.Blob = row.Value
	if row.ValueSig == nil {
		return ca
	}
	for _, arg := range row.ValueSig.FixedArgs {
		ca.Args = append(ca.Args, arg.ToInterface())
	}
	for _, arg := range row.ValueSig.NamedArgs {
		ca.NamedArgs = append(ca.NamedArgs, metadata.NamedArgument{Name: arg.Name, Value: arg.ToInterface()})
	}
	return ca
}

func (this *Image) attributeType(row *mdmodel.CustomAttributeRow) *metadata.TypeReference {
	var fullName string
	switch ctor := row.Type.(type) {
	case *mdmodel.MethodDefRow:
		fullName = this.typeDefFullName(ctor.OwnerType)
	case *mdmodel.MemberRefRow:
		if typeRef, ok := ctor.Class.(mdmodel.TypeRow); ok {
			fullName = typeRef.GetFullTypeName()
		}
	}
	namespace, name := metadata.SplitTypeName(fullName)
	return &metadata.TypeReference{Namespace: namespace, Name: name}
}

func (this *Image) HasMarshalInfo(token metadata.MetadataToken) (bool, error) {
	rid, err := this.paramRID(token)
	if err != nil {
		return false, err
	}
	_, ok := this.marshals[rid]
	return ok, nil
}

// MarshalInfo keeps the native type only: go-winmd reads the descriptor blob as a
// type signature, which leaves the leading byte as the one reliable field.
func (this *Image) MarshalInfo(token metadata.MetadataToken) (*metadata.MarshalInfo, error) {
	rid, err := this.paramRID(token)
	if err != nil {
		return nil, err
	}
	row, ok := this.marshals[rid]
	if !ok {
		return nil, nil
	}
	if row.NativeType == nil {
		return nil, errors.Errorf("empty marshal descriptor for %s", token)
	}
	return metadata.NewMarshalInfo(metadata.NativeType(row.NativeType.Kind)), nil
}

// findMethod returns the MethodDef row of owner::name for the current architecture
// whose parameter rows carry the given names.
func (this *Image) findMethod(owner, name string, paramNames []string) *mdmodel.MethodDefRow {
	for _, row := range this.methods[this.methodKey(owner, name)] {
		if !this.supported(row) {
			continue
		}
		if this.paramRows(row, paramNames) != nil {
			return row
		}
	}
	return nil
}

// paramRows lines the row's Param rows up with paramNames by sequence. nil when any
// of them is missing or differently named.
func (this *Image) paramRows(row *mdmodel.MethodDefRow, paramNames []string) []*mdmodel.ParamRow {
	bySequence := make(map[uint16]*mdmodel.ParamRow, len(row.ParamList))
	for _, paramRow := range row.ParamList {
		bySequence[paramRow.Sequence] = paramRow
	}
	rows := make([]*mdmodel.ParamRow, len(paramNames))
	for n, name := range paramNames {
		paramRow, ok := bySequence[uint16(n+1)]
		if !ok || paramRow.Name != name {
			return nil
		}
		rows[n] = paramRow
	}
	return rows
}

func (this *Image) supported(row *mdmodel.MethodDefRow) bool {
	for _, attrRow := range this.methodAttributes[row] {
		if this.attributeType(attrRow).FullName() != archAttrName || attrRow.ValueSig == nil {
			continue
		}
		if len(attrRow.ValueSig.FixedArgs) == 0 {
			continue
		}
		if arch, ok := attrRow.ValueSig.FixedArgs[0].ToInterface().(int32); ok && arch&0x2 == 0 {
			return false
		}
	}
	return true
}

func (this *Image) typeDefFullName(row *mdmodel.TypeDefRow) string {
	if row == nil {
		return ""
	}
	if enclosing := this.enclosing[row]; enclosing != nil {
		return this.typeDefFullName(enclosing) + "." + row.TypeName
	}
	return row.GetFullTypeName()
}

func (this *Image) methodKey(owner, name string) string {
	return owner + "::" + name
}
