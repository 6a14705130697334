package metadata

import (
	"log"

	"github.com/google/uuid"
)

type Module struct {
	Name string
	Mvid uuid.UUID

	provider Provider

	methods    []*MethodDefinition
	methodMap  map[MetadataToken]*MethodDefinition
	nextMethod uint32
	nextParam  uint32
}

func NewModule(name string, provider Provider) *Module {
	return &Module{
		Name:      name,
		Mvid:      uuid.New(),
		provider:  provider,
		methodMap: make(map[MetadataToken]*MethodDefinition),
	}
}

// Attach binds the module to a provider. Facets that were never resolved will be
// looked up through it on next access.
func (this *Module) Attach(provider Provider) {
	this.provider = provider
}

func (this *Module) Provider() Provider {
	return this.provider
}

func (this *Module) HasImage() bool {
	return this != nil && this.provider != nil && this.provider.HasImage()
}

func (this *Module) Methods() []*MethodDefinition {
	return this.methods
}

func (this *Module) Method(token MetadataToken) *MethodDefinition {
	return this.methodMap[token]
}

func (this *Module) NewTypeReference(namespace, name string) *TypeReference {
	return &TypeReference{Namespace: namespace, Name: name, Module: this}
}

func (this *Module) AddMethod(name string, returnType *TypeReference) *MethodDefinition {
	this.nextMethod++
	return this.ReadMethod(this.nextMethod, name, returnType)
}

// ReadMethod registers a method with a known row id, as a metadata reader does.
func (this *Module) ReadMethod(rid uint32, name string, returnType *TypeReference) *MethodDefinition {
	token := NewMetadataToken(TokenMethod, rid)
	if _, ok := this.methodMap[token]; ok {
		log.Panicf("method %s already defined in %s", token, this.Name)
	}
	if rid > this.nextMethod {
		this.nextMethod = rid
	}
	m := &MethodDefinition{
		Name:       name,
		ReturnType: returnType,
		token:      token,
	}
	this.methods = append(this.methods, m)
	this.methodMap[token] = m
	return m
}

func (this *Module) allocParamRID() uint32 {
	this.nextParam++
	return this.nextParam
}

func (this *Module) reserveParamRID(rid uint32) {
	if rid > this.nextParam {
		this.nextParam = rid
	}
}
