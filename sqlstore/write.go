package sqlstore

import (
	"database/sql"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zzl/go-mdparam/metadata"
)

type paramRow struct {
	param      *metadata.ParameterDefinition
	methodRID  uint32
	hasConst   bool
	constant   interface{}
	attributes []*metadata.CustomAttribute
	marshal    *metadata.MarshalInfo
}

// WriteModule replaces the stored copy of module. Facets are read through the
// parameter accessors, so unresolved ones are resolved from the module's provider
// before the transaction starts.
func (this *Store) WriteModule(module *metadata.Module) error {
	params, err := resolveParams(module)
	if err != nil {
		return errors.Wrapf(err, "write module %s", module.Name)
	}
	tx, err := this.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	if err := this.writeModule(tx, module, params); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "write module %s", module.Name)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	this.logger.Info("module written",
		zap.String("module", module.Name),
		zap.Int("methods", len(module.Methods())),
		zap.Int("params", len(params)))
	return nil
}

func resolveParams(module *metadata.Module) ([]*paramRow, error) {
	var params []*paramRow
	for _, method := range module.Methods() {
		for _, p := range method.Parameters() {
			row, err := resolveParam(p)
			if err != nil {
				return nil, errors.Wrapf(err, "method %s parameter %s", method.Name, p.Name())
			}
			row.methodRID = method.MetadataToken().RID()
			params = append(params, row)
		}
	}
	return params, nil
}

func resolveParam(p *metadata.ParameterDefinition) (*paramRow, error) {
	if p.MetadataToken().IsZero() {
		return nil, errors.New("parameter has no row id")
	}
	row := &paramRow{param: p}
	var err error
	if row.hasConst, err = p.HasConstant(); err != nil {
		return nil, err
	}
	if row.constant, err = p.Constant(); err != nil {
		return nil, err
	}
	if row.attributes, err = p.CustomAttributes(); err != nil {
		return nil, err
	}
	if row.marshal, err = p.MarshalInfo(); err != nil {
		return nil, err
	}
	return row, nil
}

func (this *Store) writeModule(tx *sql.Tx, module *metadata.Module, params []*paramRow) error {
	if _, err := tx.Exec("DELETE FROM modules WHERE name = ?", module.Name); err != nil {
		return errors.Wrap(err, "delete module")
	}
	if _, err := tx.Exec("INSERT INTO modules (name, mvid) VALUES (?, ?)",
		module.Name, module.Mvid.String()); err != nil {
		return errors.Wrap(err, "insert module")
	}
	for _, method := range module.Methods() {
		var returnType string
		if method.ReturnType != nil {
			returnType = method.ReturnType.FullName()
		}
		_, err := tx.Exec(
			"INSERT INTO methods (module, rid, name, declaring_type, return_type) VALUES (?, ?, ?, ?, ?)",
			module.Name, method.MetadataToken().RID(), method.Name, method.DeclaringType, returnType)
		if err != nil {
			return errors.Wrapf(err, "insert method %s", method.Name)
		}
	}
	for _, row := range params {
		if err := writeParam(tx, module.Name, row); err != nil {
			return errors.Wrapf(err, "parameter %s", row.param.Name())
		}
	}
	return nil
}

func writeParam(tx *sql.Tx, module string, row *paramRow) error {
	p := row.param
	token := p.MetadataToken()
	_, err := tx.Exec(
		"INSERT INTO params (module, rid, method_rid, sequence, name, flags, type) VALUES (?, ?, ?, ?, ?, ?, ?)",
		module, token.RID(), row.methodRID, p.Sequence(), p.Name(),
		uint16(p.Attributes()), p.ParameterType().FullName())
	if err != nil {
		return errors.Wrap(err, "insert param")
	}

	if row.hasConst {
		et, blob, err := metadata.EncodeConstant(row.constant)
		if err != nil {
			return errors.Wrap(err, "encode constant")
		}
		if _, err := tx.Exec("INSERT INTO constants (module, parent, element_type, value) VALUES (?, ?, ?, ?)",
			module, int64(token), byte(et), blob); err != nil {
			return errors.Wrap(err, "insert constant")
		}
	}
	for seq, ca := range row.attributes {
		if err := writeCustomAttribute(tx, module, token, seq, ca); err != nil {
			return err
		}
	}
	if row.marshal != nil {
		if _, err := tx.Exec("INSERT INTO field_marshal (module, parent, native_type, array_fields) VALUES (?, ?, ?, ?)",
			module, int64(token), encodeMarshal(row.marshal), arrayFields(row.marshal)); err != nil {
			return errors.Wrap(err, "insert field marshal")
		}
	}
	return nil
}

func writeCustomAttribute(tx *sql.Tx, module string, parent metadata.MetadataToken, seq int, ca *metadata.CustomAttribute) error {
	var typeName string
	if ca.AttributeType != nil {
		typeName = ca.AttributeType.FullName()
	}
	res, err := tx.Exec("INSERT INTO custom_attributes (module, parent, seq, type, blob) VALUES (?, ?, ?, ?, ?)",
		module, int64(parent), seq, typeName, ca.Blob)
	if err != nil {
		return errors.Wrapf(err, "insert custom attribute %s", typeName)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "custom attribute id")
	}
	position := 0
	insertArg := func(name string, field bool, value interface{}) error {
		et, blob, err := metadata.EncodeConstant(value)
		if err != nil {
			return errors.Wrapf(err, "encode argument of %s", typeName)
		}
		_, err = tx.Exec(
			"INSERT INTO custom_attribute_args (attribute_id, position, name, field, element_type, value) VALUES (?, ?, ?, ?, ?, ?)",
			id, position, name, field, byte(et), blob)
		position++
		return errors.Wrap(err, "insert custom attribute arg")
	}
	for _, arg := range ca.Args {
		if err := insertArg("", false, arg); err != nil {
			return err
		}
	}
	for _, arg := range ca.NamedArgs {
		if err := insertArg(arg.Name, arg.Field, arg.Value); err != nil {
			return err
		}
	}
	return nil
}
