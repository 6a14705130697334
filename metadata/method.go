package metadata

type MethodDefinition struct {
	Name          string
	DeclaringType string
	ReturnType    *TypeReference

	token  MetadataToken
	params []*ParameterDefinition
}

func (this *MethodDefinition) MetadataToken() MetadataToken {
	return this.token
}

func (this *MethodDefinition) Parameters() []*ParameterDefinition {
	return this.params
}

func (this *MethodDefinition) HasParameters() bool {
	return len(this.params) > 0
}

// AddParameter appends p to the signature. The parameter only keeps the method token.
func (this *MethodDefinition) AddParameter(p *ParameterDefinition) {
	p.method = this.token
	p.index = len(this.params)
	this.params = append(this.params, p)
}

func (this *MethodDefinition) FullName() string {
	if this.DeclaringType == "" {
		return this.Name
	}
	return this.DeclaringType + "::" + this.Name
}
