package metadata

type NamedArgument struct {
	Name  string
	Field bool // property otherwise
	Value interface{}
}

type CustomAttribute struct {
	AttributeType *TypeReference
	Args          []interface{}
	NamedArgs     []NamedArgument

	// Blob is the raw signature blob when the reader kept it.
	Blob []byte
}

func NewCustomAttribute(attributeType *TypeReference, args ...interface{}) *CustomAttribute {
	return &CustomAttribute{
		AttributeType: attributeType,
		Args:          args,
	}
}

func (this *CustomAttribute) HasArgs() bool {
	return len(this.Args) > 0 || len(this.NamedArgs) > 0
}
