package metadata

import (
	"log"

	"github.com/pkg/errors"
)

// ParameterDefinition is a formal parameter of a method signature. Its constant,
// custom attributes and marshal descriptor are read from the module's provider on
// first access and cached; direct writes replace the cache and stop resolution.
//
// A ParameterDefinition is not safe for concurrent use.
type ParameterDefinition struct {
	name          string
	attributes    ParamAttributes
	parameterType *TypeReference
	token         MetadataToken

	method MetadataToken
	index  int

	constant         lazy[interface{}]
	customAttributes lazy[[]*CustomAttribute]
	marshalInfo      lazy[*MarshalInfo]
}

func NewParameterDefinition(name string, attributes ParamAttributes, parameterType *TypeReference) *ParameterDefinition {
	if parameterType == nil {
		log.Panic("parameter type is required")
	}
	var rid uint32
	if parameterType.Module != nil {
		rid = parameterType.Module.allocParamRID()
	}
	return newParameter(rid, name, attributes, parameterType)
}

// ReadParameter creates a parameter with a known row id, as a metadata reader does.
func (this *Module) ReadParameter(rid uint32, name string, attributes ParamAttributes, parameterType *TypeReference) *ParameterDefinition {
	if parameterType == nil {
		log.Panic("parameter type is required")
	}
	this.reserveParamRID(rid)
	return newParameter(rid, name, attributes, parameterType)
}

func newParameter(rid uint32, name string, attributes ParamAttributes, parameterType *TypeReference) *ParameterDefinition {
	return &ParameterDefinition{
		name:          name,
		attributes:    attributes,
		parameterType: parameterType,
		token:         NewMetadataToken(TokenParam, rid),
		index:         -1,
	}
}

func (this *ParameterDefinition) Name() string {
	return this.name
}

func (this *ParameterDefinition) SetName(name string) {
	this.name = name
}

func (this *ParameterDefinition) ParameterType() *TypeReference {
	return this.parameterType
}

func (this *ParameterDefinition) MetadataToken() MetadataToken {
	return this.token
}

// Method returns the token of the owning signature; look it up with Module.Method.
func (this *ParameterDefinition) Method() MetadataToken {
	return this.method
}

func (this *ParameterDefinition) Index() int {
	return this.index
}

func (this *ParameterDefinition) Sequence() int {
	return this.index + 1
}

func (this *ParameterDefinition) Resolve() *ParameterDefinition {
	return this
}

func (this *ParameterDefinition) String() string {
	return this.name
}

// mustHaveType fails fast on facet access of a parameter built without a type.
func (this *ParameterDefinition) mustHaveType() {
	if this.parameterType == nil {
		log.Panic("parameter has no type")
	}
}

func (this *ParameterDefinition) module() *Module {
	this.mustHaveType()
	return this.parameterType.Module
}

func (this *ParameterDefinition) hasImage() bool {
	return this.module().HasImage()
}

func (this *ParameterDefinition) provider() Provider {
	return this.module().provider
}

// constant

func (this *ParameterDefinition) HasConstant() (bool, error) {
	this.mustHaveType()
	if err := this.resolveConstant(); err != nil {
		return false, err
	}
	_, ok := this.constant.get()
	return ok, nil
}

// SetHasConstant(false) drops any constant. true is a no-op.
func (this *ParameterDefinition) SetHasConstant(value bool) {
	this.mustHaveType()
	if !value {
		this.constant.clear()
	}
}

func (this *ParameterDefinition) Constant() (interface{}, error) {
	ok, err := this.HasConstant()
	if err != nil || !ok {
		return nil, err
	}
	value, _ := this.constant.get()
	return value, nil
}

func (this *ParameterDefinition) SetConstant(value interface{}) {
	this.mustHaveType()
	this.constant.set(value)
}

func (this *ParameterDefinition) resolveConstant() error {
	if this.constant.resolved() || !this.hasImage() {
		return nil
	}
	value, ok, err := this.provider().ResolveConstant(this.token)
	if err != nil {
		return errors.Wrapf(err, "resolve constant of parameter %s", this.token)
	}
	if ok {
		this.constant.set(value)
	} else {
		this.constant.clear()
	}
	return nil
}

// custom attributes

func (this *ParameterDefinition) HasCustomAttributes() (bool, error) {
	this.mustHaveType()
	if attrs, ok := this.customAttributes.get(); ok {
		return len(attrs) > 0, nil
	}
	if !this.hasImage() {
		return false, nil
	}
	has, err := this.provider().HasCustomAttributes(this.token)
	if err != nil {
		return false, errors.Wrapf(err, "probe custom attributes of parameter %s", this.token)
	}
	return has, nil
}

func (this *ParameterDefinition) CustomAttributes() ([]*CustomAttribute, error) {
	this.mustHaveType()
	if attrs, ok := this.customAttributes.get(); ok {
		return attrs, nil
	}
	attrs := []*CustomAttribute{}
	if this.hasImage() {
		fetched, err := this.provider().CustomAttributes(this.token)
		if err != nil {
			return nil, errors.Wrapf(err, "read custom attributes of parameter %s", this.token)
		}
		if fetched != nil {
			attrs = fetched
		}
	}
	this.customAttributes.set(attrs)
	return attrs, nil
}

func (this *ParameterDefinition) SetCustomAttributes(attrs []*CustomAttribute) {
	this.mustHaveType()
	if attrs == nil {
		attrs = []*CustomAttribute{}
	}
	this.customAttributes.set(attrs)
}

// AddCustomAttribute appends to a copy, so a slice handed to SetCustomAttributes is
// never written through.
func (this *ParameterDefinition) AddCustomAttribute(attr *CustomAttribute) error {
	attrs, err := this.CustomAttributes()
	if err != nil {
		return err
	}
	next := make([]*CustomAttribute, len(attrs), len(attrs)+1)
	copy(next, attrs)
	this.customAttributes.set(append(next, attr))
	return nil
}

// marshal info

func (this *ParameterDefinition) HasMarshalInfo() (bool, error) {
	this.mustHaveType()
	if mi, ok := this.marshalInfo.get(); ok && mi != nil {
		return true, nil
	}
	if this.marshalInfo.resolved() || !this.hasImage() {
		return false, nil
	}
	has, err := this.provider().HasMarshalInfo(this.token)
	if err != nil {
		return false, errors.Wrapf(err, "probe marshal info of parameter %s", this.token)
	}
	return has, nil
}

func (this *ParameterDefinition) MarshalInfo() (*MarshalInfo, error) {
	this.mustHaveType()
	if this.marshalInfo.resolved() {
		mi, _ := this.marshalInfo.get()
		return mi, nil
	}
	if !this.hasImage() {
		return nil, nil
	}
	mi, err := this.provider().MarshalInfo(this.token)
	if err != nil {
		return nil, errors.Wrapf(err, "read marshal info of parameter %s", this.token)
	}
	this.SetMarshalInfo(mi)
	return mi, nil
}

// SetMarshalInfo replaces the descriptor; nil records that there is none.
func (this *ParameterDefinition) SetMarshalInfo(mi *MarshalInfo) {
	this.mustHaveType()
	if mi == nil {
		this.marshalInfo.clear()
	} else {
		this.marshalInfo.set(mi)
	}
}

// ParamAttributes

func (this *ParameterDefinition) Attributes() ParamAttributes {
	return this.attributes
}

func (this *ParameterDefinition) SetAttributes(attributes ParamAttributes) {
	this.attributes = attributes
}

func (this *ParameterDefinition) IsIn() bool {
	return this.attributes.Has(ParamIn)
}

func (this *ParameterDefinition) SetIn(value bool) {
	this.attributes = this.attributes.With(ParamIn, value)
}

func (this *ParameterDefinition) IsOut() bool {
	return this.attributes.Has(ParamOut)
}

func (this *ParameterDefinition) SetOut(value bool) {
	this.attributes = this.attributes.With(ParamOut, value)
}

func (this *ParameterDefinition) IsLcid() bool {
	return this.attributes.Has(ParamLcid)
}

func (this *ParameterDefinition) SetLcid(value bool) {
	this.attributes = this.attributes.With(ParamLcid, value)
}

func (this *ParameterDefinition) IsReturnValue() bool {
	return this.attributes.Has(ParamRetval)
}

func (this *ParameterDefinition) SetReturnValue(value bool) {
	this.attributes = this.attributes.With(ParamRetval, value)
}

func (this *ParameterDefinition) IsOptional() bool {
	return this.attributes.Has(ParamOptional)
}

func (this *ParameterDefinition) SetOptional(value bool) {
	this.attributes = this.attributes.With(ParamOptional, value)
}

func (this *ParameterDefinition) HasDefault() bool {
	return this.attributes.Has(ParamHasDefault)
}

func (this *ParameterDefinition) SetHasDefault(value bool) {
	this.attributes = this.attributes.With(ParamHasDefault, value)
}

func (this *ParameterDefinition) HasFieldMarshal() bool {
	return this.attributes.Has(ParamHasFieldMarshal)
}

func (this *ParameterDefinition) SetHasFieldMarshal(value bool) {
	this.attributes = this.attributes.With(ParamHasFieldMarshal, value)
}
