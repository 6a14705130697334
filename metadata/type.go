package metadata

import "strings"

type TypeReference struct {
	Namespace string
	Name      string
	Module    *Module
}

func (this *TypeReference) FullName() string {
	if this.Namespace == "" {
		return this.Name
	}
	return this.Namespace + "." + this.Name
}

func (this *TypeReference) String() string {
	return this.FullName()
}

// SplitTypeName splits "Ns.Sub.Name" at the last dot.
func SplitTypeName(fullName string) (namespace, name string) {
	pos := strings.LastIndexByte(fullName, '.')
	if pos == -1 {
		return "", fullName
	}
	return fullName[:pos], fullName[pos+1:]
}

func (this *Module) ParseTypeReference(fullName string) *TypeReference {
	return this.NewTypeReference(SplitTypeName(fullName))
}
