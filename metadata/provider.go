package metadata

// Provider answers facet queries for parameters of a module that has a metadata image.
// Rows are correlated by the parameter's identity token.
type Provider interface {
	HasImage() bool

	ResolveConstant(token MetadataToken) (value interface{}, ok bool, err error)

	HasCustomAttributes(token MetadataToken) (bool, error)
	CustomAttributes(token MetadataToken) ([]*CustomAttribute, error)

	HasMarshalInfo(token MetadataToken) (bool, error)
	MarshalInfo(token MetadataToken) (*MarshalInfo, error)
}
