// Package winmd imports method signatures from Windows metadata files.
package winmd

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/zzl/go-winmd/apimodel"
	"github.com/zzl/go-winmd/mdmodel"
	"go.uber.org/zap"

	"github.com/zzl/go-mdparam/metadata"
)

// Load parses the winmd file at path and imports the methods of every accepted
// namespace. The module is attached to the returned Image, which keeps the file
// mapped: close it once the parameters' facets are no longer read.
func Load(path string, filter *Filter, logger *zap.Logger) (*metadata.Module, *Image, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mdModel, err := mdmodel.NewModelParser().Parse(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parse %s", path)
	}
	image := NewImage(mdModel, logger)

	apiModel := apimodel.NewModelParser(map[string]*apimodel.Type{}).Parse(mdModel)

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	importer := NewImporter(metadata.NewModule(name, image), image, filter, logger)
	importer.Import(apiModel)
	return importer.module, image, nil
}

// Importer turns apimodel methods into module methods. With an image, methods and
// parameters take the row ids of their MethodDef and Param rows, and methods with
// no matching row are skipped; without one, row ids are allocated in import order.
type Importer struct {
	module *metadata.Module
	image  *Image
	filter *Filter
	logger *zap.Logger

	apiTypeMap map[string]*apimodel.Type
	skipped    int
}

func NewImporter(module *metadata.Module, image *Image, filter *Filter, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		module: module,
		image:  image,
		filter: filter,
		logger: logger,
	}
}

func (this *Importer) Module() *metadata.Module {
	return this.module
}

func (this *Importer) Import(apiModel *apimodel.Model) {
	this.apiTypeMap = make(map[string]*apimodel.Type)
	for _, ns := range apiModel.AllNamespaces {
		for _, typ := range ns.Types {
			this.addToApiTypeMap(typ)
		}
	}
	for _, ns := range apiModel.AllNamespaces {
		if len(ns.Types) == 0 || !this.filter.IncludeNs(ns) {
			continue
		}
		before := len(this.module.Methods())
		for _, apiType := range ns.Types {
			// nested types are listed here too; they are reached through their enclosing type
			if apiType.EnclosingType != nil {
				continue
			}
			this.importApiType(apiType)
		}
		this.logger.Debug("namespace imported",
			zap.String("namespace", ns.FullName),
			zap.Int("methods", len(this.module.Methods())-before))
	}
	this.logger.Info("winmd imported",
		zap.String("module", this.module.Name),
		zap.Int("methods", len(this.module.Methods())),
		zap.Int("skipped", this.skipped))
}

func (this *Importer) addToApiTypeMap(apiType *apimodel.Type) {
	if apiType.Kind == apimodel.TypeRef {
		return
	}
	if _, ok := this.apiTypeMap[apiType.FullName]; !ok {
		this.apiTypeMap[apiType.FullName] = apiType
	}
	for _, t := range apiType.NestedTypes {
		this.addToApiTypeMap(t)
	}
}

func (this *Importer) importApiType(apiType *apimodel.Type) {
	if apiType.Pseudo {
		for _, apiMethod := range apiType.PseudoDef.Methods {
			if apiMethod.SysCall && !this.filter.IncludeDll(apiMethod.SysCallDll) {
				continue
			}
			this.importMethod(apiType, apiMethod)
		}
	} else if apiType.Interface {
		for _, apiMethod := range apiType.InterfaceDef.Methods {
			this.importMethod(apiType, apiMethod)
		}
	} else if apiType.Func && apiType.FuncDef != nil {
		apiFunc := apiType.FuncDef
		this.addMethod(apiType, apiFunc.Name, apiFunc.Name, apiFunc.ReturnType, apiFunc.Params)
	}
	for _, nestedType := range apiType.NestedTypes {
		this.importApiType(nestedType)
	}
}

func (this *Importer) importMethod(apiType *apimodel.Type, apiMethod *apimodel.Method) {
	name := apiMethod.Name
	if apiMethod.OverloadName != "" {
		name = apiMethod.OverloadName
	}
	this.addMethod(apiType, apiMethod.Name, name, apiMethod.ReturnType, apiMethod.Params)
}

// addMethod imports rowName of apiType under name.
func (this *Importer) addMethod(apiType *apimodel.Type, rowName, name string,
	returnType *apimodel.Type, apiParams []*apimodel.Param) {

	if this.image == nil {
		method := this.module.AddMethod(name, this.typeRef(returnType))
		method.DeclaringType = apiType.FullName
		for _, apiParam := range apiParams {
			p := metadata.NewParameterDefinition(apiParam.Name, this.paramAttributes(apiParam), this.paramType(apiParam))
			method.AddParameter(p)
		}
		return
	}

	paramNames := make([]string, len(apiParams))
	for n, apiParam := range apiParams {
		paramNames[n] = apiParam.Name
	}
	row := this.image.findMethod(apiType.FullName, rowName, paramNames)
	if row == nil {
		this.skipped++
		this.logger.Warn("no MethodDef row for method",
			zap.String("type", apiType.FullName), zap.String("method", rowName))
		return
	}
	if this.module.Method(metadata.NewMetadataToken(metadata.TokenMethod, row.RowIndex())) != nil {
		return
	}
	method := this.module.ReadMethod(row.RowIndex(), name, this.typeRef(returnType))
	method.DeclaringType = apiType.FullName
	for n, paramRow := range this.image.paramRows(row, paramNames) {
		apiParam := apiParams[n]
		p := this.module.ReadParameter(paramRow.RowIndex(), apiParam.Name,
			this.paramAttributes(apiParam)|this.rowAttributes(paramRow), this.paramType(apiParam))
		method.AddParameter(p)
	}
}

// rowAttributes carries the flags apimodel does not surface.
func (this *Importer) rowAttributes(paramRow *mdmodel.ParamRow) metadata.ParamAttributes {
	mask := metadata.ParamLcid | metadata.ParamRetval | metadata.ParamHasDefault | metadata.ParamHasFieldMarshal
	return metadata.ParamAttributes(paramRow.Flags) & mask
}

func (this *Importer) paramType(apiParam *apimodel.Param) *metadata.TypeReference {
	typ := this.typeRef(apiParam.Type)
	if typ == nil {
		typ = this.module.NewTypeReference("System", "Void")
	}
	return typ
}

func (this *Importer) paramAttributes(apiParam *apimodel.Param) metadata.ParamAttributes {
	var attrs metadata.ParamAttributes
	if apiParam.In {
		attrs |= metadata.ParamIn
	}
	if apiParam.Out {
		attrs |= metadata.ParamOut
	}
	if apiParam.Optional {
		attrs |= metadata.ParamOptional
	}
	return attrs
}

func (this *Importer) typeRef(apiType *apimodel.Type) *metadata.TypeReference {
	if apiType == nil {
		return nil
	}
	return this.module.ParseTypeReference(this.typeName(apiType))
}

func (this *Importer) typeName(apiType *apimodel.Type) string {
	if apiType.Pointer && apiType.PointerTo != nil {
		return this.typeName(apiType.PointerTo) + "*"
	}
	if apiType.Array && apiType.ArrayDef != nil {
		return this.typeName(apiType.ArrayDef.ElementType) + "[]"
	}
	if apiType.Kind == apimodel.TypeRef {
		if defType, ok := this.apiTypeMap[apiType.FullName]; ok {
			apiType = defType
		}
	}
	if apiType.EnclosingType != nil {
		return this.typeName(apiType.EnclosingType) + "/" + apiType.Name
	}
	if apiType.FullName == "" {
		return apiType.Name
	}
	return apiType.FullName
}
